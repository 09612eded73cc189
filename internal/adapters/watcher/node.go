package watcher

import (
	"context"

	"github.com/grindlemire/graft"
	"go.vellum.sh/vellum/internal/adapters/logger"
	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/workspace"
)

// BridgeNodeID is the unique identifier for the watcher bridge Graft node.
const BridgeNodeID graft.ID = "adapter.watcher.bridge"

func init() {
	graft.Register(graft.Node[*Bridge]{
		ID:        BridgeNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{workspace.RegistryNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Bridge, error) {
			registry, err := graft.Dep[*workspace.Registry](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			newWatcher := func() (ports.Watcher, error) { return NewWatcher() }
			return NewBridge(newWatcher, registry, log, domain.DefaultDebounceWindow), nil
		},
	})
}
