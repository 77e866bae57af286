// Package scheduler implements the task execution engine: dependency-ordered
// evaluation with caching, coalescing, and checkpoint ranges.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.rtlflow.dev/yoke/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// TaskStatus is the per-task outcome reported after an evaluation.
type TaskStatus string

const (
	// StatusCached means the task's fingerprint matched a stored entry and
	// the tool was not invoked.
	StatusCached TaskStatus = "cached"
	// StatusRanOK means the tool ran and produced its outputs cleanly.
	StatusRanOK TaskStatus = "ran-ok"
	// StatusRanWithWarnings means the tool ran successfully but emitted
	// warning diagnostics.
	StatusRanWithWarnings TaskStatus = "ran-with-warnings"
	// StatusSkipped means an upstream task failed, so this one never ran.
	StatusSkipped TaskStatus = "skipped-upstream-failed"
	// StatusCancelled means the evaluation was interrupted before this task
	// could be scheduled.
	StatusCancelled TaskStatus = "cancelled"
)

// FailedStatus formats the status of a failed task from its error class.
func FailedStatus(err error) TaskStatus {
	return TaskStatus(fmt.Sprintf("failed:%s", domain.Classify(err)))
}

// Options configure one evaluation.
type Options struct {
	// Targets are the requested task names. Empty means every task.
	Targets []string

	// Jobs bounds concurrent tool invocations. Zero or negative means one
	// per CPU.
	Jobs int

	// NoCache forces every task to run even on a fingerprint match.
	NoCache bool

	// OutDir is the root below which per-task run directories are created.
	OutDir string

	// Checkpoint restricts the single target task to a pipeline sub-range.
	Checkpoint domain.CheckpointRange
}

// DefaultOutDir is where per-task run directories live when no override is
// given.
const DefaultOutDir = ".yoke"

// TaskReport is one row of the evaluation report.
type TaskReport struct {
	Task     string
	Status   TaskStatus
	Filesets []domain.Fileset
	Warnings int
	Err      error
}

// Report lists per-task outcomes in dependency order.
type Report struct {
	Tasks []TaskReport
}

// Failed reports whether any task failed, was skipped, or never ran.
func (r *Report) Failed() bool {
	for _, t := range r.Tasks {
		if t.Status == StatusSkipped || t.Status == StatusCancelled || t.Err != nil {
			return true
		}
	}
	return false
}

// Scheduler evaluates tasks of a validated graph.
type Scheduler struct {
	synth      ports.Synthesizer
	executor   ports.Executor
	hasher     ports.FingerprintHasher
	store      ports.CacheStore
	checkpoint ports.CheckpointStore
	resolver   ports.IncludeResolver
	telemetry  ports.Telemetry
	logger     ports.Logger

	flights singleflight.Group
}

// NewScheduler creates a Scheduler. The graph to evaluate is passed to Run;
// the scheduler itself only holds its collaborators.
func NewScheduler(
	synth ports.Synthesizer,
	executor ports.Executor,
	hasher ports.FingerprintHasher,
	store ports.CacheStore,
	checkpoint ports.CheckpointStore,
	resolver ports.IncludeResolver,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		synth:      synth,
		executor:   executor,
		hasher:     hasher,
		store:      store,
		checkpoint: checkpoint,
		resolver:   resolver,
		telemetry:  telemetry,
		logger:     logger,
	}
}

// Run evaluates the closure of the requested targets and returns the report.
// The graph must already be validated. The returned error joins every task
// failure; a nil error means every task ended cached or ran.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, opts Options) (*Report, error) {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.OutDir == "" {
		opts.OutDir = DefaultOutDir
	}

	targets, err := resolveTargets(graph, opts.Targets)
	if err != nil {
		return nil, err
	}

	if !opts.Checkpoint.IsZero() {
		if err := validateCheckpointTarget(graph, opts, targets); err != nil {
			return nil, err
		}
	}

	closure, err := graph.Closure(targets)
	if err != nil {
		return nil, err
	}

	state := s.newRunState(ctx, graph, opts, closure)

	done := ctx.Done()
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			break
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-done:
			// Cancellation observed. Stop scheduling and drain in-flight
			// workers through resultsCh.
			done = nil
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.buildReport(), state.errs
}

func resolveTargets(graph *domain.Graph, names []string) ([]domain.InternedString, error) {
	if len(names) == 0 {
		var all []domain.InternedString
		for task := range graph.Walk() {
			all = append(all, task.Name)
		}
		if len(all) == 0 {
			return nil, domain.ErrNoTargetsSpecified
		}
		return all, nil
	}

	targets := make([]domain.InternedString, len(names))
	for i, n := range names {
		targets[i] = domain.NewInternedString(n)
		if _, err := graph.GetTask(targets[i]); err != nil {
			return nil, err
		}
	}
	return targets, nil
}

// validateCheckpointTarget rejects a partial range unless exactly one target
// was named and its kind records checkpoint labels.
func validateCheckpointTarget(g *domain.Graph, opts Options, targets []domain.InternedString) error {
	if len(opts.Targets) != 1 {
		return zerr.Wrap(domain.ErrCheckpointUnsupported, "a checkpoint range needs exactly one target task")
	}
	task, err := g.GetTask(targets[0])
	if err != nil {
		return err
	}
	switch task.Kind {
	case domain.KindFileSet, domain.KindScript:
		return zerr.With(zerr.With(domain.ErrCheckpointUnsupported, "task", task.Name.String()), "kind", string(task.Kind))
	default:
		return nil
	}
}

type result struct {
	task     domain.InternedString
	status   TaskStatus
	filesets []domain.Fileset
	warnings int
	err      error
}

type runState struct {
	graph     *domain.Graph
	inDegree  map[domain.InternedString]int
	tasks     map[domain.InternedString]domain.Task
	order     []domain.InternedString
	ready     []domain.InternedString
	active    int
	resultsCh chan result
	reports   map[domain.InternedString]result
	filesets  map[domain.InternedString][]domain.Fileset
	errs      error
	ctx       context.Context
	opts      Options
	s         *Scheduler
}

func (s *Scheduler) newRunState(ctx context.Context, graph *domain.Graph, opts Options, closure map[domain.InternedString]bool) *runState {
	inDegree := make(map[domain.InternedString]int, len(closure))
	tasks := make(map[domain.InternedString]domain.Task, len(closure))
	var order []domain.InternedString

	for task := range graph.Walk() {
		if !closure[task.Name] {
			continue
		}
		tasks[task.Name] = task
		order = append(order, task.Name)
		inDegree[task.Name] = len(task.Needs)
	}

	var ready []domain.InternedString
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	sortNames(ready)

	return &runState{
		graph:     graph,
		inDegree:  inDegree,
		tasks:     tasks,
		order:     order,
		ready:     ready,
		resultsCh: make(chan result, opts.Jobs),
		reports:   make(map[domain.InternedString]result, len(closure)),
		filesets:  make(map[domain.InternedString][]domain.Fileset, len(closure)),
		ctx:       ctx,
		opts:      opts,
		s:         s,
	}
}

func sortNames(names []domain.InternedString) {
	sort.Slice(names, func(i, j int) bool {
		return names[i].String() < names[j].String()
	})
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.opts.Jobs && state.ctx.Err() == nil {
		name := state.ready[0]
		state.ready = state.ready[1:]

		task := state.tasks[name]
		upstream := state.collectUpstream(&task)

		state.active++
		go func(t domain.Task, up []domain.Fileset) {
			state.resultsCh <- state.s.runTask(state.ctx, &t, up, state.opts)
		}(task, upstream)
	}
}

// collectUpstream concatenates the filesets of the task's dependencies in
// declaration order. Called on the scheduling goroutine only, after every
// dependency has reported.
func (state *runState) collectUpstream(task *domain.Task) []domain.Fileset {
	var upstream []domain.Fileset
	for _, dep := range task.Needs {
		upstream = append(upstream, state.filesets[dep]...)
	}
	return upstream
}

func (state *runState) handleResult(res result) {
	state.active--
	state.reports[res.task] = res

	if res.err != nil {
		wrappedErr := zerr.With(zerr.Wrap(res.err, "task failed"), "task", res.task.String())
		state.errs = errors.Join(state.errs, wrappedErr)
		// Dependents stay unscheduled and are reported as skipped.
		return
	}

	state.filesets[res.task] = res.filesets

	var unblocked []domain.InternedString
	for _, dep := range state.graph.Dependents(res.task) {
		if _, tracked := state.inDegree[dep]; !tracked {
			continue
		}
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			unblocked = append(unblocked, dep)
		}
	}
	sortNames(unblocked)
	state.ready = append(state.ready, unblocked...)
}

// buildReport lists every task in the closure in dependency order. A task
// that never got to run is skipped when a failure exists somewhere upstream,
// and cancelled when the evaluation itself was interrupted.
func (state *runState) buildReport() *Report {
	report := &Report{Tasks: make([]TaskReport, 0, len(state.order))}
	blocked := make(map[domain.InternedString]bool, len(state.order))
	for _, name := range state.order {
		if res, ok := state.reports[name]; ok {
			report.Tasks = append(report.Tasks, TaskReport{
				Task:     name.String(),
				Status:   res.status,
				Filesets: res.filesets,
				Warnings: res.warnings,
				Err:      res.err,
			})
			if res.err != nil {
				blocked[name] = true
			}
			continue
		}

		status := StatusCancelled
		task := state.tasks[name]
		for _, dep := range task.Needs {
			if blocked[dep] {
				status = StatusSkipped
				blocked[name] = true
				break
			}
		}
		report.Tasks = append(report.Tasks, TaskReport{
			Task:   name.String(),
			Status: status,
		})
	}
	return report
}

func (s *Scheduler) runTask(ctx context.Context, task *domain.Task, upstream []domain.Fileset, opts Options) result {
	vctx, vertex := s.telemetry.Record(ctx, task.Name.String())

	res := s.evaluate(vctx, task, upstream, opts)
	res.task = task.Name

	if res.status == StatusCached {
		vertex.Cached()
	} else {
		vertex.Complete(res.err)
	}
	return res
}

func (s *Scheduler) evaluate(ctx context.Context, task *domain.Task, upstream []domain.Fileset, opts Options) result {
	if task.Kind == domain.KindFileSet {
		return s.evaluateLeaf(task, opts)
	}

	rng := opts.Checkpoint
	if rng.IsZero() || len(opts.Targets) != 1 || opts.Targets[0] != task.Name.String() {
		rng = domain.CheckpointRange{}
	}

	fingerprint, err := s.hasher.Fingerprint(task, upstream)
	if err != nil {
		return failed(err)
	}

	// Partial runs produce snapshots, not artifacts, and bypass the cache
	// entirely.
	if !rng.IsZero() {
		return s.runPartial(ctx, task, upstream, rng, opts)
	}

	if !opts.NoCache {
		entry, err := s.store.Lookup(fingerprint)
		if err != nil {
			return failed(err)
		}
		if entry != nil {
			return result{status: StatusCached, filesets: entry.Filesets, warnings: countWarnings(entry.Diagnostics)}
		}
	}

	// Coalesce concurrent tasks with identical fingerprints into one tool
	// invocation. Only the caller whose closure ran keeps its run status;
	// everyone handed the shared result reports cached.
	ran := false
	v, err, shared := s.flights.Do(fingerprint, func() (any, error) {
		ran = true
		res, err := s.execute(ctx, task, upstream, fingerprint, opts)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return failed(err)
	}

	res := v.(result)
	if shared && !ran {
		res.status = StatusCached
	}
	return res
}

// evaluateLeaf materializes a fileset declaration. The fileset participates
// in caching so unchanged sources report as cached on later evaluations.
func (s *Scheduler) evaluateLeaf(task *domain.Task, opts Options) result {
	fileset, err := s.materialize(task)
	if err != nil {
		return failed(err)
	}

	fingerprint, err := s.hasher.Fingerprint(task, []domain.Fileset{fileset})
	if err != nil {
		return failed(err)
	}

	if !opts.NoCache {
		entry, err := s.store.Lookup(fingerprint)
		if err != nil {
			return failed(err)
		}
		if entry != nil {
			return result{status: StatusCached, filesets: entry.Filesets}
		}
	}

	entry := domain.CacheEntry{
		Fingerprint: fingerprint,
		Filesets:    []domain.Fileset{fileset},
		CreatedAt:   time.Now(),
	}
	if err := s.store.Store(entry); err != nil {
		return failed(err)
	}

	return result{status: StatusRanOK, filesets: []domain.Fileset{fileset}}
}

func (s *Scheduler) materialize(task *domain.Task) (domain.Fileset, error) {
	if task.Type == domain.VerilogIncDir {
		// Include patterns name directories, verified but not expanded.
		for _, dir := range task.Include {
			full := filepath.Join(task.BaseDir, dir)
			info, err := os.Stat(full)
			if err != nil {
				return domain.Fileset{}, zerr.With(zerr.Wrap(domain.ErrInvalidParameterValue, "include directory not found"), "dir", full)
			}
			if !info.IsDir() {
				return domain.Fileset{}, zerr.With(zerr.Wrap(domain.ErrInvalidParameterValue, "include entry is not a directory"), "dir", full)
			}
		}
		return domain.Fileset{Type: task.Type, BaseDir: task.BaseDir, IncDirs: task.Include}, nil
	}

	files, err := s.resolver.Resolve(task.BaseDir, task.Include)
	if err != nil {
		return domain.Fileset{}, zerr.With(err, "task", task.Name.String())
	}

	fileset := domain.Fileset{Type: task.Type, BaseDir: task.BaseDir, Files: files}
	if task.Type.IsInclude() {
		// Header filesets contribute their base directory to the search path.
		fileset.IncDirs = []string{"."}
	}
	return fileset, nil
}

func (s *Scheduler) execute(ctx context.Context, task *domain.Task, upstream []domain.Fileset, fingerprint string, opts Options) (result, error) {
	fragment, err := s.synth.Synthesize(task, upstream)
	if err != nil {
		return result{}, err
	}

	runDir := filepath.Join(opts.OutDir, task.Name.String())
	execResult, err := s.executor.Execute(ctx, task, fragment, runDir)
	if err != nil {
		return result{}, err
	}

	entry := domain.CacheEntry{
		Fingerprint: fingerprint,
		Filesets:    execResult.Filesets,
		Log:         execResult.Log,
		Diagnostics: execResult.Diagnostics,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Store(entry); err != nil {
		return result{}, err
	}

	status := StatusRanOK
	if execResult.HasWarnings() {
		status = StatusRanWithWarnings
	}
	return result{status: status, filesets: execResult.Filesets, warnings: countWarnings(execResult.Diagnostics)}, nil
}

// runPartial executes a sub-range of the target's pipeline between
// checkpoint snapshots.
func (s *Scheduler) runPartial(ctx context.Context, task *domain.Task, upstream []domain.Fileset, rng domain.CheckpointRange, opts Options) result {
	name := task.Name.String()

	var fromPath, toPath string
	if rng.From != "" {
		p, err := s.checkpoint.Resume(name, rng.From)
		if err != nil {
			return failed(err)
		}
		if fromPath, err = filepath.Abs(p); err != nil {
			return failed(zerr.Wrap(err, "failed to resolve checkpoint path"))
		}
	}
	if rng.To != "" {
		if err := s.checkpoint.Prepare(name); err != nil {
			return failed(err)
		}
		p, err := filepath.Abs(s.checkpoint.PathFor(name, rng.To))
		if err != nil {
			return failed(zerr.Wrap(err, "failed to resolve checkpoint path"))
		}
		toPath = p
	}

	fragment, err := s.synth.SynthesizeRange(task, upstream, rng, fromPath, toPath)
	if err != nil {
		return failed(err)
	}

	runDir := filepath.Join(opts.OutDir, name)
	execResult, err := s.executor.Execute(ctx, task, fragment, runDir)
	if err != nil {
		return failed(err)
	}

	status := StatusRanOK
	if execResult.HasWarnings() {
		status = StatusRanWithWarnings
	}
	return result{status: status, filesets: execResult.Filesets, warnings: countWarnings(execResult.Diagnostics)}
}

func failed(err error) result {
	return result{status: FailedStatus(err), err: err}
}

func countWarnings(diags []domain.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == domain.SeverityWarning {
			n++
		}
	}
	return n
}
