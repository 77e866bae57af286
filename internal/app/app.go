// Package app implements the application layer for yoke.
package app

import (
	"context"

	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.rtlflow.dev/yoke/internal/core/ports"
	"go.rtlflow.dev/yoke/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	synthesizer  ports.Synthesizer
	scheduler    *scheduler.Scheduler
	registry     *domain.Registry
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, synthesizer ports.Synthesizer, sched *scheduler.Scheduler) *App {
	return &App{
		configLoader: loader,
		synthesizer:  synthesizer,
		scheduler:    sched,
		registry:     domain.NewRegistry(),
	}
}

// Run loads the flow file, checks the graph, and evaluates the requested
// targets. Every configuration problem is reported before the first tool
// invocation.
func (a *App) Run(ctx context.Context, configPath string, opts scheduler.Options) (*scheduler.Report, error) {
	graph, err := a.configLoader.Load(configPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	if err := a.check(graph); err != nil {
		return nil, err
	}

	report, err := a.scheduler.Run(ctx, graph, opts)
	if err != nil {
		return report, zerr.Wrap(err, "evaluation failed")
	}

	return report, nil
}

// check validates structure, fileset types, and task options, in that order.
func (a *App) check(graph *domain.Graph) error {
	if err := graph.Validate(); err != nil {
		return err
	}

	if err := graph.Typecheck(a.registry); err != nil {
		return err
	}

	for task := range graph.Walk() {
		if task.Kind == domain.KindFileSet {
			continue
		}
		if err := a.synthesizer.Validate(&task); err != nil {
			return err
		}
	}

	return nil
}
