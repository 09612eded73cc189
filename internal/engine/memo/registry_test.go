package memo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/engine/memo"
)

func TestRegistry_Lookup(t *testing.T) {
	recipe := func(_ context.Context, _ ports.RecipeInput) (domain.Artifact, error) {
		return domain.Artifact{Kind: kindTest}, nil
	}
	r := memo.NewRegistry(tableProvider{kindTest: recipe})

	got, ok := r.Lookup(kindTest)
	require.True(t, ok)
	require.NotNil(t, got)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_LaterProviderWins(t *testing.T) {
	first := func(_ context.Context, _ ports.RecipeInput) (domain.Artifact, error) {
		return domain.Artifact{Digest: 1}, nil
	}
	second := func(_ context.Context, _ ports.RecipeInput) (domain.Artifact, error) {
		return domain.Artifact{Digest: 2}, nil
	}
	r := memo.NewRegistry(tableProvider{kindTest: first}, tableProvider{kindTest: second})

	recipe, ok := r.Lookup(kindTest)
	require.True(t, ok)
	art, err := recipe(context.Background(), ports.RecipeInput{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), art.Digest)
}

func TestRegistry_KindsSorted(t *testing.T) {
	recipe := func(_ context.Context, _ ports.RecipeInput) (domain.Artifact, error) {
		return domain.Artifact{}, nil
	}
	r := memo.NewRegistry(tableProvider{
		"zeta":  recipe,
		"alpha": recipe,
		"mid":   recipe,
	})

	assert.Equal(t, []domain.RecipeKind{"alpha", "mid", "zeta"}, r.Kinds())
}
