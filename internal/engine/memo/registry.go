// Package memo implements the memoized compute engine: artifact caching keyed
// by recipe identity and input revisions, with coalescing of concurrent
// computations and LRU eviction.
package memo

import (
	"sort"

	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
)

// Registry maps recipe kinds to recipe functions. Dispatch goes through this
// table only; artifact values are never type-inspected to pick a recipe.
type Registry struct {
	recipes map[domain.RecipeKind]ports.Recipe
}

// NewRegistry collects the recipes of the given providers into one table.
// A later provider wins when two providers register the same kind.
func NewRegistry(providers ...ports.RecipeProvider) *Registry {
	recipes := make(map[domain.RecipeKind]ports.Recipe)
	for _, p := range providers {
		for kind, recipe := range p.Recipes() {
			recipes[kind] = recipe
		}
	}
	return &Registry{recipes: recipes}
}

// Lookup resolves a recipe kind to its function.
func (r *Registry) Lookup(kind domain.RecipeKind) (ports.Recipe, bool) {
	recipe, ok := r.recipes[kind]
	return recipe, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []domain.RecipeKind {
	kinds := make([]domain.RecipeKind, 0, len(r.recipes))
	for k := range r.recipes {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
