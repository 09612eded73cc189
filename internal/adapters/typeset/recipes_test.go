package typeset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.vellum.sh/vellum/internal/adapters/typeset"
	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
)

func sourceFile(id domain.FileID, path, content string, fingerprint uint64) domain.SourceFile {
	return domain.SourceFile{
		ID:          id,
		Path:        domain.NewInternedPath(path),
		Content:     []byte(content),
		Fingerprint: fingerprint,
	}
}

func recipeFor(t *testing.T, kind domain.RecipeKind) ports.Recipe {
	t.Helper()
	recipe, ok := typeset.NewProvider().Recipes()[kind]
	require.True(t, ok)
	return recipe
}

func TestFingerprintRecipe_StableAcrossInputOrder(t *testing.T) {
	recipe := recipeFor(t, typeset.KindFingerprint)

	target := sourceFile(1, "/ws/main.vell", "body", 11)
	a := sourceFile(2, "/ws/a.vell", "a", 22)
	b := sourceFile(3, "/ws/b.vell", "b", 33)

	first, err := recipe(context.Background(), ports.RecipeInput{
		Target: target,
		Inputs: []domain.SourceFile{target, a, b},
	})
	require.NoError(t, err)

	second, err := recipe(context.Background(), ports.RecipeInput{
		Target: target,
		Inputs: []domain.SourceFile{target, b, a},
	})
	require.NoError(t, err)

	assert.Equal(t, first.Digest, second.Digest)
	result, ok := first.Value.(typeset.FingerprintResult)
	require.True(t, ok)
	assert.Equal(t, 3, result.Files)
	assert.Equal(t, first.Digest, result.Digest)
}

func TestFingerprintRecipe_ChangesWithContent(t *testing.T) {
	recipe := recipeFor(t, typeset.KindFingerprint)

	target := sourceFile(1, "/ws/main.vell", "v1", 11)
	first, err := recipe(context.Background(), ports.RecipeInput{
		Target: target,
		Inputs: []domain.SourceFile{target},
	})
	require.NoError(t, err)

	target.Fingerprint = 12
	second, err := recipe(context.Background(), ports.RecipeInput{
		Target: target,
		Inputs: []domain.SourceFile{target},
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.Digest, second.Digest)
}

func TestStatsRecipe_Counts(t *testing.T) {
	recipe := recipeFor(t, typeset.KindStats)

	target := sourceFile(1, "/ws/main.vell", "one two three\nfour\n", 0)
	dep := sourceFile(2, "/ws/dep.vell", "five six", 0)

	art, err := recipe(context.Background(), ports.RecipeInput{
		Target: target,
		Inputs: []domain.SourceFile{target, dep},
	})
	require.NoError(t, err)

	result, ok := art.Value.(typeset.StatsResult)
	require.True(t, ok)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 3, result.Lines) // trailing newline-less file still counts
	assert.Equal(t, 6, result.Words)
	assert.Equal(t, len(target.Content)+len(dep.Content), result.Bytes)
}

func TestRecipes_HonorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := sourceFile(1, "/ws/main.vell", "body", 1)
	in := ports.RecipeInput{Target: target, Inputs: []domain.SourceFile{target}}

	for kind, recipe := range typeset.NewProvider().Recipes() {
		_, err := recipe(ctx, in)
		require.ErrorIs(t, err, context.Canceled, "kind %s", kind)
	}
}

func TestProvider_RegistersBothKinds(t *testing.T) {
	recipes := typeset.NewProvider().Recipes()
	assert.Contains(t, recipes, typeset.KindFingerprint)
	assert.Contains(t, recipes, typeset.KindStats)
}
