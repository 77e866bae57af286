package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.rtlflow.dev/yoke/internal/adapters/cas"        //nolint:depguard // Wired in engine wiring
	"go.rtlflow.dev/yoke/internal/adapters/checkpoint" //nolint:depguard // Wired in engine wiring
	"go.rtlflow.dev/yoke/internal/adapters/fs"         //nolint:depguard // Wired in engine wiring
	"go.rtlflow.dev/yoke/internal/adapters/logger"     //nolint:depguard // Wired in engine wiring
	"go.rtlflow.dev/yoke/internal/adapters/telemetry"  //nolint:depguard // Wired in engine wiring
	"go.rtlflow.dev/yoke/internal/adapters/yosys"      //nolint:depguard // Wired in engine wiring
	"go.rtlflow.dev/yoke/internal/core/ports"
	"go.rtlflow.dev/yoke/internal/engine/synth"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			synth.NodeID,
			yosys.NodeID,
			fs.HasherNodeID,
			fs.ResolverNodeID,
			cas.NodeID,
			checkpoint.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			synthesizer, err := graft.Dep[ports.Synthesizer](ctx)
			if err != nil {
				return nil, err
			}

			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.FingerprintHasher](ctx)
			if err != nil {
				return nil, err
			}

			resolver, err := graft.Dep[ports.IncludeResolver](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.CacheStore](ctx)
			if err != nil {
				return nil, err
			}

			checkpoints, err := graft.Dep[ports.CheckpointStore](ctx)
			if err != nil {
				return nil, err
			}

			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewScheduler(
				synthesizer,
				executor,
				hasher,
				store,
				checkpoints,
				resolver,
				tel,
				log,
			), nil
		},
	})
}
