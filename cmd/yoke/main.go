// Package main is the entry point for the yoke flow tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.rtlflow.dev/yoke/cmd/yoke/commands"
	"go.rtlflow.dev/yoke/internal/app"
	"go.rtlflow.dev/yoke/internal/core/domain"
	_ "go.rtlflow.dev/yoke/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = components.Telemetry.Close() }()

	// 2. Interface - CLI
	cli := commands.New(components.App)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps an error class to the process exit status: 1 for
// configuration errors, 2 for tool and environment failures, 3 for internal
// consistency faults.
func exitCode(err error) int {
	switch domain.Classify(err) {
	case domain.ClassConfig:
		return 1
	case domain.ClassInternal:
		return 3
	default:
		return 2
	}
}
