package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.rtlflow.dev/yoke/internal/core/ports"
)

const (
	ResolverNodeID graft.ID = "adapter.fs.resolver"
	HasherNodeID   graft.ID = "adapter.fs.hasher"
)

func init() {
	// Resolver Node
	graft.Register(graft.Node[ports.IncludeResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.IncludeResolver, error) {
			return NewResolver(), nil
		},
	})

	// Hasher Node
	graft.Register(graft.Node[ports.FingerprintHasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.FingerprintHasher, error) {
			return NewHasher(), nil
		},
	})
}
