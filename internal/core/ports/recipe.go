package ports

import (
	"context"

	"go.vellum.sh/vellum/internal/core/domain"
)

// RecipeInput carries the snapshots a recipe may read. Snapshots are taken
// under the project lock before the recipe runs; a recipe must derive its
// artifact from these snapshots only, never from live state, so that identical
// inputs at a given revision always yield an identical artifact.
type RecipeInput struct {
	// Target is the file the artifact is derived for.
	Target domain.SourceFile
	// Inputs are the declared inputs, target first, dependencies after.
	Inputs []domain.SourceFile
}

// Recipe computes an artifact from its declared inputs. It must honor ctx
// cancellation at its checkpoints and discard partial results when cancelled.
type Recipe func(ctx context.Context, in RecipeInput) (domain.Artifact, error)

// RecipeProvider supplies the recipe functions the compute engine dispatches
// to. The external typesetting engine plugs in here.
//
//go:generate mockgen -source=recipe.go -destination=mocks/mock_recipe.go -package=mocks
type RecipeProvider interface {
	// Recipes returns the kind-to-function table for this provider.
	Recipes() map[domain.RecipeKind]Recipe
}

// DependencyScanner extracts import/include references from a source snapshot.
// The scanner resolves reference targets to absolute paths; it does not parse
// the language beyond its reference forms.
type DependencyScanner interface {
	// ScanDependencies returns the references found in content, with
	// diagnostics for references that could not be resolved.
	ScanDependencies(path string, content []byte) ([]domain.Reference, []domain.Diagnostic)
}

// ScannerFactory builds a DependencyScanner resolving references against the
// given source roots. Roots differ per project, so the workspace constructs
// one scanner per open project.
type ScannerFactory func(roots ...string) DependencyScanner
