package typeset

import (
	"context"

	"github.com/grindlemire/graft"
	"go.vellum.sh/vellum/internal/core/ports"
)

const (
	// ScannerNodeID is the unique identifier for the scanner factory Graft node.
	ScannerNodeID graft.ID = "adapter.typeset.scanner"
	// ProviderNodeID is the unique identifier for the recipe provider Graft node.
	ProviderNodeID graft.ID = "adapter.typeset.recipes"
)

func init() {
	// Scanners are per-project: roots come from each project's config, so the
	// node provides the factory rather than a scanner.
	graft.Register(graft.Node[ports.ScannerFactory]{
		ID:        ScannerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ScannerFactory, error) {
			return func(roots ...string) ports.DependencyScanner {
				return NewScanner(roots...)
			}, nil
		},
	})

	graft.Register(graft.Node[ports.RecipeProvider]{
		ID:        ProviderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RecipeProvider, error) {
			return NewProvider(), nil
		},
	})
}
