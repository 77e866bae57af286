package checkpoint

import (
	"context"

	"github.com/grindlemire/graft"
	"go.rtlflow.dev/yoke/internal/core/ports"
)

const NodeID graft.ID = "adapter.checkpoint_store"

func init() {
	graft.Register(graft.Node[ports.CheckpointStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.CheckpointStore, error) {
			return NewStore(DefaultRoot), nil
		},
	})
}
