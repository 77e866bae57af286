package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"

	"go.rtlflow.dev/yoke/internal/adapters/logger"
	"go.rtlflow.dev/yoke/internal/adapters/telemetry"
	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.rtlflow.dev/yoke/internal/core/ports/mocks"
	"go.rtlflow.dev/yoke/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	synth      *mocks.MockSynthesizer
	executor   *mocks.MockExecutor
	hasher     *mocks.MockFingerprintHasher
	store      *mocks.MockCacheStore
	checkpoint *mocks.MockCheckpointStore
	resolver   *mocks.MockIncludeResolver
	s          *scheduler.Scheduler
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		synth:      mocks.NewMockSynthesizer(ctrl),
		executor:   mocks.NewMockExecutor(ctrl),
		hasher:     mocks.NewMockFingerprintHasher(ctrl),
		store:      mocks.NewMockCacheStore(ctrl),
		checkpoint: mocks.NewMockCheckpointStore(ctrl),
		resolver:   mocks.NewMockIncludeResolver(ctrl),
	}
	f.s = scheduler.NewScheduler(
		f.synth,
		f.executor,
		f.hasher,
		f.store,
		f.checkpoint,
		f.resolver,
		telemetry.NewNoOp(),
		logger.New(),
	)
	return f
}

// chainGraph builds rtl(FileSet) <- synth(Synth) and validates it.
func chainGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	rtl := domain.Task{
		Name:    domain.NewInternedString("rtl"),
		Kind:    domain.KindFileSet,
		Type:    domain.VerilogSource,
		BaseDir: "/src",
		Include: []string{"*.v"},
	}
	synthTask := domain.Task{
		Name:   domain.NewInternedString("synth"),
		Kind:   domain.KindSynth,
		Params: domain.Params{"top": domain.StringParam("t")},
		Needs:  []domain.InternedString{rtl.Name},
	}
	if err := g.AddTask(&rtl); err != nil {
		t.Fatal(err)
	}
	if err := g.AddTask(&synthTask); err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	return g
}

func statuses(report *scheduler.Report) map[string]scheduler.TaskStatus {
	m := make(map[string]scheduler.TaskStatus, len(report.Tasks))
	for _, tr := range report.Tasks {
		m[tr.Task] = tr.Status
	}
	return m
}

func TestScheduler_Run_FullPipeline(t *testing.T) {
	f := newFixture(t)
	g := chainGraph(t)

	rtlFileset := domain.Fileset{Type: domain.VerilogSource, BaseDir: "/src", Files: []string{"a.v"}}
	netlist := domain.Fileset{Type: domain.YosysNetlist, BaseDir: ".yoke/synth", Files: []string{"netlist.json"}}
	fragment := &domain.ScriptFragment{Outputs: []string{"netlist.json"}, OutputType: domain.YosysNetlist}

	f.resolver.EXPECT().Resolve("/src", []string{"*.v"}).Return([]string{"a.v"}, nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), []domain.Fileset{rtlFileset}).Return("fp-rtl", nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), []domain.Fileset{rtlFileset}).Return("fp-synth", nil)
	f.store.EXPECT().Lookup("fp-rtl").Return(nil, nil)
	f.store.EXPECT().Lookup("fp-synth").Return(nil, nil)
	f.store.EXPECT().Store(gomock.Any()).Return(nil).Times(2)
	f.synth.EXPECT().Synthesize(gomock.Any(), []domain.Fileset{rtlFileset}).Return(fragment, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), fragment, ".yoke/synth").
		Return(&domain.ExecutionResult{Filesets: []domain.Fileset{netlist}}, nil)

	report, err := f.s.Run(context.Background(), g, scheduler.Options{Jobs: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := statuses(report)
	if got["rtl"] != scheduler.StatusRanOK {
		t.Errorf("rtl: expected ran-ok, got %s", got["rtl"])
	}
	if got["synth"] != scheduler.StatusRanOK {
		t.Errorf("synth: expected ran-ok, got %s", got["synth"])
	}

	// Dependency order in the report.
	if report.Tasks[0].Task != "rtl" || report.Tasks[1].Task != "synth" {
		t.Errorf("unexpected report order: %v", report.Tasks)
	}
}

func TestScheduler_Run_CacheHit(t *testing.T) {
	f := newFixture(t)
	g := chainGraph(t)

	rtlFileset := domain.Fileset{Type: domain.VerilogSource, BaseDir: "/src", Files: []string{"a.v"}}
	netlist := domain.Fileset{Type: domain.YosysNetlist, BaseDir: ".yoke/synth", Files: []string{"netlist.json"}}

	f.resolver.EXPECT().Resolve("/src", []string{"*.v"}).Return([]string{"a.v"}, nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-rtl", nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-synth", nil)
	f.store.EXPECT().Lookup("fp-rtl").Return(&domain.CacheEntry{
		Fingerprint: "fp-rtl",
		Filesets:    []domain.Fileset{rtlFileset},
	}, nil)
	f.store.EXPECT().Lookup("fp-synth").Return(&domain.CacheEntry{
		Fingerprint: "fp-synth",
		Filesets:    []domain.Fileset{netlist},
	}, nil)
	// No Synthesize, Execute, or Store calls.

	report, err := f.s.Run(context.Background(), g, scheduler.Options{Jobs: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tr := range report.Tasks {
		if tr.Status != scheduler.StatusCached {
			t.Errorf("%s: expected cached, got %s", tr.Task, tr.Status)
		}
	}
}

func TestScheduler_Run_NoCacheBypassesLookup(t *testing.T) {
	f := newFixture(t)
	g := chainGraph(t)

	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return([]string{"a.v"}, nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp", nil).Times(2)
	f.store.EXPECT().Store(gomock.Any()).Return(nil).Times(2)
	f.synth.EXPECT().Synthesize(gomock.Any(), gomock.Any()).Return(&domain.ScriptFragment{}, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.ExecutionResult{}, nil)

	report, err := f.s.Run(context.Background(), g, scheduler.Options{Jobs: 1, NoCache: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := statuses(report)
	if got["synth"] != scheduler.StatusRanOK {
		t.Errorf("synth: expected ran-ok, got %s", got["synth"])
	}
}

func TestScheduler_Run_WarningsSurface(t *testing.T) {
	f := newFixture(t)
	g := chainGraph(t)

	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return([]string{"a.v"}, nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp", nil).Times(2)
	f.store.EXPECT().Lookup(gomock.Any()).Return(nil, nil).Times(2)
	f.store.EXPECT().Store(gomock.Any()).Return(nil).Times(2)
	f.synth.EXPECT().Synthesize(gomock.Any(), gomock.Any()).Return(&domain.ScriptFragment{}, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.ExecutionResult{
			Diagnostics: []domain.Diagnostic{{Severity: domain.SeverityWarning, Code: "inferred-latch"}},
		}, nil)

	report, err := f.s.Run(context.Background(), g, scheduler.Options{Jobs: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := statuses(report)
	if got["synth"] != scheduler.StatusRanWithWarnings {
		t.Errorf("synth: expected ran-with-warnings, got %s", got["synth"])
	}
}

func TestScheduler_Run_FailureSkipsDependents(t *testing.T) {
	f := newFixture(t)
	g := chainGraph(t)

	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return([]string{"a.v"}, nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-rtl", nil)
	f.store.EXPECT().Lookup("fp-rtl").Return(nil, nil)
	f.store.EXPECT().Store(gomock.Any()).Return(nil)

	// The synth task's fingerprint succeeds but execution fails.
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-synth", nil)
	f.store.EXPECT().Lookup("fp-synth").Return(nil, nil)
	f.synth.EXPECT().Synthesize(gomock.Any(), gomock.Any()).Return(&domain.ScriptFragment{}, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrToolFatal)

	report, err := f.s.Run(context.Background(), g, scheduler.Options{Jobs: 1})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, domain.ErrToolFatal) {
		t.Errorf("expected ErrToolFatal in joined error, got %v", err)
	}

	got := statuses(report)
	if got["synth"] != "failed:tool" {
		t.Errorf("synth: expected failed:tool, got %s", got["synth"])
	}
}

func TestScheduler_Run_UpstreamFailureSkips(t *testing.T) {
	f := newFixture(t)

	g := domain.NewGraph()
	a := domain.Task{
		Name: domain.NewInternedString("a"), Kind: domain.KindFileSet,
		Type: domain.VerilogSource, BaseDir: "/src", Include: []string{"*.v"},
	}
	b := domain.Task{
		Name: domain.NewInternedString("b"), Kind: domain.KindSynth,
		Params: domain.Params{"top": domain.StringParam("t")},
		Needs:  []domain.InternedString{a.Name},
	}
	c := domain.Task{
		Name: domain.NewInternedString("c"), Kind: domain.KindSynthIce40,
		Params: domain.Params{"top": domain.StringParam("t")},
		Needs:  []domain.InternedString{b.Name},
	}
	for _, task := range []*domain.Task{&a, &b, &c} {
		if err := g.AddTask(task); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}

	// a materializes but b's sources cannot be resolved further down.
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return([]string{"a.v"}, nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-a", nil)
	f.store.EXPECT().Lookup("fp-a").Return(nil, nil)
	f.store.EXPECT().Store(gomock.Any()).Return(nil)

	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-b", nil)
	f.store.EXPECT().Lookup("fp-b").Return(nil, nil)
	f.synth.EXPECT().Synthesize(gomock.Any(), gomock.Any()).Return(nil, domain.ErrInvalidParameterValue)

	report, err := f.s.Run(context.Background(), g, scheduler.Options{Jobs: 1})
	if err == nil {
		t.Fatal("expected an error")
	}

	got := statuses(report)
	if got["b"] != "failed:config" {
		t.Errorf("b: expected failed:config, got %s", got["b"])
	}
	if got["c"] != scheduler.StatusSkipped {
		t.Errorf("c: expected skipped-upstream-failed, got %s", got["c"])
	}
	if !report.Failed() {
		t.Error("report should be marked failed")
	}
}

func TestScheduler_Run_UnknownTarget(t *testing.T) {
	f := newFixture(t)
	g := chainGraph(t)

	_, err := f.s.Run(context.Background(), g, scheduler.Options{Targets: []string{"ghost"}})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestScheduler_Run_TargetClosureOnly(t *testing.T) {
	f := newFixture(t)

	g := domain.NewGraph()
	rtl := domain.Task{
		Name: domain.NewInternedString("rtl"), Kind: domain.KindFileSet,
		Type: domain.VerilogSource, BaseDir: "/src", Include: []string{"*.v"},
	}
	unrelated := domain.Task{
		Name: domain.NewInternedString("unrelated"), Kind: domain.KindFileSet,
		Type: domain.VerilogSource, BaseDir: "/other", Include: []string{"*.v"},
	}
	for _, task := range []*domain.Task{&rtl, &unrelated} {
		if err := g.AddTask(task); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}

	f.resolver.EXPECT().Resolve("/src", gomock.Any()).Return([]string{"a.v"}, nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp", nil)
	f.store.EXPECT().Lookup("fp").Return(nil, nil)
	f.store.EXPECT().Store(gomock.Any()).Return(nil)

	report, err := f.s.Run(context.Background(), g, scheduler.Options{Targets: []string{"rtl"}, Jobs: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Tasks) != 1 || report.Tasks[0].Task != "rtl" {
		t.Errorf("expected only rtl in the report, got %v", report.Tasks)
	}
}

func TestScheduler_Run_CheckpointValidation(t *testing.T) {
	f := newFixture(t)
	g := chainGraph(t)
	rng := domain.CheckpointRange{To: domain.CheckpointPreMap}

	t.Run("needs exactly one target", func(t *testing.T) {
		_, err := f.s.Run(context.Background(), g, scheduler.Options{
			Targets: []string{"rtl", "synth"}, Checkpoint: rng,
		})
		if !errors.Is(err, domain.ErrCheckpointUnsupported) {
			t.Errorf("expected ErrCheckpointUnsupported, got %v", err)
		}
	})

	t.Run("fileset target unsupported", func(t *testing.T) {
		_, err := f.s.Run(context.Background(), g, scheduler.Options{
			Targets: []string{"rtl"}, Checkpoint: rng,
		})
		if !errors.Is(err, domain.ErrCheckpointUnsupported) {
			t.Errorf("expected ErrCheckpointUnsupported, got %v", err)
		}
	})
}

func TestScheduler_Run_PartialRange(t *testing.T) {
	f := newFixture(t)
	g := chainGraph(t)
	rng := domain.CheckpointRange{From: domain.CheckpointPreMap}
	fragment := &domain.ScriptFragment{Outputs: []string{"netlist.json"}, OutputType: domain.YosysNetlist}

	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return([]string{"a.v"}, nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-rtl", nil)
	f.store.EXPECT().Lookup("fp-rtl").Return(nil, nil)
	f.store.EXPECT().Store(gomock.Any()).Return(nil)

	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-synth", nil)
	f.checkpoint.EXPECT().Resume("synth", domain.CheckpointPreMap).
		Return(".yoke/checkpoints/synth/pre-map.il", nil)
	f.synth.EXPECT().SynthesizeRange(gomock.Any(), gomock.Any(), rng, gomock.Any(), "").
		Return(fragment, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), fragment, gomock.Any()).
		Return(&domain.ExecutionResult{}, nil)
	// No cache lookup or store for the partial run beyond the leaf's.

	report, err := f.s.Run(context.Background(), g, scheduler.Options{
		Targets: []string{"synth"}, Checkpoint: rng, Jobs: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := statuses(report)
	if got["synth"] != scheduler.StatusRanOK {
		t.Errorf("synth: expected ran-ok, got %s", got["synth"])
	}
}

func TestScheduler_Run_CoalescesIdenticalFingerprints(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)

		// Two independent tasks with the same fingerprint must share one
		// tool invocation: the one that ran reports ran-ok, the one handed
		// the shared result reports cached.
		g := domain.NewGraph()
		for _, name := range []string{"a", "b"} {
			task := domain.Task{
				Name:   domain.NewInternedString(name),
				Kind:   domain.KindSynth,
				Params: domain.Params{"top": domain.StringParam("t")},
			}
			if err := g.AddTask(&task); err != nil {
				t.Fatal(err)
			}
		}
		if err := g.Validate(); err != nil {
			t.Fatal(err)
		}

		started := make(chan struct{})
		proceed := make(chan struct{})

		f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-shared", nil).Times(2)
		f.store.EXPECT().Lookup("fp-shared").Return(nil, nil).Times(2)
		f.synth.EXPECT().Synthesize(gomock.Any(), gomock.Any()).Return(&domain.ScriptFragment{}, nil).Times(1)
		f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, *domain.Task, *domain.ScriptFragment, string) (*domain.ExecutionResult, error) {
				close(started)
				<-proceed
				return &domain.ExecutionResult{}, nil
			}).Times(1)
		f.store.EXPECT().Store(gomock.Any()).Return(nil).Times(1)

		type outcome struct {
			report *scheduler.Report
			err    error
		}
		outCh := make(chan outcome)
		go func() {
			report, err := f.s.Run(context.Background(), g, scheduler.Options{Jobs: 2})
			outCh <- outcome{report, err}
		}()

		// Hold the tool invocation open until the second task has joined
		// the flight.
		<-started
		synctest.Wait()
		close(proceed)

		out := <-outCh
		if out.err != nil {
			t.Fatalf("unexpected error: %v", out.err)
		}

		var ranOK, cached int
		for _, tr := range out.report.Tasks {
			switch tr.Status {
			case scheduler.StatusRanOK:
				ranOK++
			case scheduler.StatusCached:
				cached++
			default:
				t.Errorf("%s: unexpected status %s", tr.Task, tr.Status)
			}
		}
		if ranOK != 1 {
			t.Errorf("expected exactly one ran-ok task, got %d", ranOK)
		}
		if cached != 1 {
			t.Errorf("expected exactly one cached task, got %d", cached)
		}
	})
}

func TestScheduler_Run_CancelAfterFirstTask(t *testing.T) {
	f := newFixture(t)
	g := chainGraph(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return([]string{"a.v"}, nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-rtl", nil)
	f.store.EXPECT().Lookup("fp-rtl").Return(nil, nil)
	f.store.EXPECT().Store(gomock.Any()).DoAndReturn(func(domain.CacheEntry) error {
		cancel()
		return nil
	})
	// The downstream task is neither synthesized nor executed.

	report, err := f.s.Run(ctx, g, scheduler.Options{Jobs: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	got := statuses(report)
	if got["rtl"] != scheduler.StatusRanOK {
		t.Errorf("rtl: expected ran-ok, got %s", got["rtl"])
	}
	if got["synth"] != scheduler.StatusCancelled {
		t.Errorf("synth: expected cancelled, got %s", got["synth"])
	}
	if !report.Failed() {
		t.Error("report should be marked failed")
	}
}

func TestScheduler_Run_CancelDrainsInFlightWork(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)

		g := domain.NewGraph()
		solo := domain.Task{
			Name:   domain.NewInternedString("solo"),
			Kind:   domain.KindSynth,
			Params: domain.Params{"top": domain.StringParam("t")},
		}
		if err := g.AddTask(&solo); err != nil {
			t.Fatal(err)
		}
		if err := g.Validate(); err != nil {
			t.Fatal(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-solo", nil)
		f.store.EXPECT().Lookup("fp-solo").Return(nil, nil)
		f.synth.EXPECT().Synthesize(gomock.Any(), gomock.Any()).Return(&domain.ScriptFragment{}, nil)
		f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(execCtx context.Context, _ *domain.Task, _ *domain.ScriptFragment, _ string) (*domain.ExecutionResult, error) {
				cancel()
				<-execCtx.Done()
				return nil, execCtx.Err()
			})
		// Nothing reaches the cache for the interrupted run.

		report, err := f.s.Run(ctx, g, scheduler.Options{Jobs: 1})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}

		got := statuses(report)
		if got["solo"] != "failed:tool" {
			t.Errorf("solo: expected failed:tool, got %s", got["solo"])
		}
	})
}

func TestScheduler_Run_ResumeMissingSnapshot(t *testing.T) {
	f := newFixture(t)
	g := chainGraph(t)
	rng := domain.CheckpointRange{From: domain.CheckpointPostMap}

	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return([]string{"a.v"}, nil)
	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-rtl", nil)
	f.store.EXPECT().Lookup("fp-rtl").Return(nil, nil)
	f.store.EXPECT().Store(gomock.Any()).Return(nil)

	f.hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).Return("fp-synth", nil)
	f.checkpoint.EXPECT().Resume("synth", domain.CheckpointPostMap).
		Return("", domain.ErrNoSuchCheckpoint)

	report, err := f.s.Run(context.Background(), g, scheduler.Options{
		Targets: []string{"synth"}, Checkpoint: rng, Jobs: 1,
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, domain.ErrNoSuchCheckpoint) {
		t.Errorf("expected ErrNoSuchCheckpoint, got %v", err)
	}
	got := statuses(report)
	if got["synth"] != "failed:config" {
		t.Errorf("synth: expected failed:config, got %s", got["synth"])
	}
}
