package workspace

import (
	"context"

	"github.com/grindlemire/graft"
	"go.vellum.sh/vellum/internal/adapters/logger"
	"go.vellum.sh/vellum/internal/adapters/telemetry"
	"go.vellum.sh/vellum/internal/adapters/typeset"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/engine/memo"
)

// RegistryNodeID is the unique identifier for the workspace registry Graft node.
const RegistryNodeID graft.ID = "workspace.registry"

func init() {
	graft.Register(graft.Node[*Registry]{
		ID:        RegistryNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			telemetry.NodeID,
			typeset.ScannerNodeID,
			typeset.ProviderNodeID,
		},
		Run: func(ctx context.Context) (*Registry, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			newScanner, err := graft.Dep[ports.ScannerFactory](ctx)
			if err != nil {
				return nil, err
			}
			provider, err := graft.Dep[ports.RecipeProvider](ctx)
			if err != nil {
				return nil, err
			}
			return NewRegistry(memo.NewRegistry(provider), newScanner, log, tracer), nil
		},
	})
}
