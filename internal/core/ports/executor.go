// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.rtlflow.dev/yoke/internal/core/domain"
)

// Executor runs one synthesized script against the external tool.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute writes the fragment into runDir, invokes the tool once, and
	// parses the combined log into an ExecutionResult.
	//
	// On a fatal diagnostic or non-zero exit the returned result carries the
	// log and diagnostics but no filesets, and the error wraps
	// domain.ErrToolFatal. A pass-order mismatch against the fragment's
	// metadata returns domain.ErrPassOrderViolated.
	Execute(ctx context.Context, task *domain.Task, fragment *domain.ScriptFragment, runDir string) (*domain.ExecutionResult, error)
}
