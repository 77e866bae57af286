package telemetry

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	progrockadapter "go.rtlflow.dev/yoke/internal/adapters/telemetry/progrock"
	"go.rtlflow.dev/yoke/internal/core/ports"
)

// NodeID is the unique identifier for the telemetry adapter Graft node.
const NodeID graft.ID = "adapter.telemetry"

// EnvProgress disables progress recording when set to "off".
const EnvProgress = "YOKE_PROGRESS"

func init() {
	graft.Register(graft.Node[ports.Telemetry]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Telemetry, error) {
			if os.Getenv(EnvProgress) == "off" {
				return NewNoOp(), nil
			}
			return progrockadapter.New(), nil
		},
	})
}
