package synth

import (
	"context"

	"github.com/grindlemire/graft"
	"go.rtlflow.dev/yoke/internal/core/ports"
)

// NodeID is the unique identifier for the script synthesizer Graft node.
const NodeID graft.ID = "engine.synthesizer"

func init() {
	graft.Register(graft.Node[ports.Synthesizer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Synthesizer, error) {
			return New(), nil
		},
	})
}
