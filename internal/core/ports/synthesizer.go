package ports

import "go.rtlflow.dev/yoke/internal/core/domain"

// Synthesizer turns a task's parameters and upstream filesets into an
// ordered command sequence for the external tool.
//
//go:generate go run go.uber.org/mock/mockgen -source=synthesizer.go -destination=mocks/mock_synthesizer.go -package=mocks
type Synthesizer interface {
	// Validate checks the task's options against its kind's recognized
	// option table. Run for every task before any execution.
	Validate(task *domain.Task) error

	// Synthesize produces the full pipeline script for the task.
	Synthesize(task *domain.Task, upstream []domain.Fileset) (*domain.ScriptFragment, error)

	// SynthesizeRange produces a script covering a sub-range of the task's
	// pipeline. A non-empty rng.From replaces the read commands with loading
	// the snapshot at fromPath; a non-empty rng.To ends the script by writing
	// a snapshot to toPath instead of the final artifact.
	SynthesizeRange(task *domain.Task, upstream []domain.Fileset, rng domain.CheckpointRange, fromPath, toPath string) (*domain.ScriptFragment, error)
}
