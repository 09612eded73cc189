package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.vellum.sh/vellum/internal/adapters/config"
	"go.vellum.sh/vellum/internal/adapters/logger"
	"go.vellum.sh/vellum/internal/adapters/watcher"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/workspace"
)

const (
	// NodeID is the unique identifier for the app Graft node.
	NodeID graft.ID = "app"
	// ComponentsNodeID is the unique identifier for the components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles the wired application with the pieces the entry point
// needs before the app itself is usable.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, workspace.RegistryNodeID, watcher.BridgeNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}
			registry, err := graft.Dep[*workspace.Registry](ctx)
			if err != nil {
				return nil, err
			}
			bridge, err := graft.Dep[*watcher.Bridge](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(loader, registry, bridge, log), nil
		},
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}
