package typeset

import (
	"bytes"
	"context"
	"encoding/binary"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
)

// Recipe kinds provided by this adapter.
const (
	// KindFingerprint produces a digest over the target and its inputs.
	KindFingerprint domain.RecipeKind = "typeset.fingerprint"
	// KindStats produces word and line counts over the target and its inputs.
	KindStats domain.RecipeKind = "typeset.stats"
)

var _ ports.RecipeProvider = (*Provider)(nil)

// Provider implements ports.RecipeProvider with the built-in typeset recipes.
type Provider struct{}

// NewProvider creates the built-in recipe provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Recipes returns the recipe table keyed by kind.
func (p *Provider) Recipes() map[domain.RecipeKind]ports.Recipe {
	return map[domain.RecipeKind]ports.Recipe{
		KindFingerprint: fingerprintRecipe,
		KindStats:       statsRecipe,
	}
}

// FingerprintResult is the value of a KindFingerprint artifact.
type FingerprintResult struct {
	Digest uint64
	Files  int
}

// StatsResult is the value of a KindStats artifact.
type StatsResult struct {
	Files int
	Lines int
	Words int
	Bytes int
}

// fingerprintRecipe hashes the target's fingerprint together with every
// input's, ordered by path so the digest is stable across snapshot order.
func fingerprintRecipe(ctx context.Context, input ports.RecipeInput) (domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}

	files := orderedFiles(input)

	digest := xxhash.New()
	var buf [8]byte
	for _, file := range files {
		_, _ = digest.WriteString(file.Path.String())
		binary.LittleEndian.PutUint64(buf[:], file.Fingerprint)
		_, _ = digest.Write(buf[:])
	}

	sum := digest.Sum64()
	return domain.Artifact{
		Kind:   KindFingerprint,
		Digest: sum,
		Value:  FingerprintResult{Digest: sum, Files: len(files)},
	}, nil
}

// statsRecipe counts lines, words and bytes across the target and inputs.
func statsRecipe(ctx context.Context, input ports.RecipeInput) (domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}

	files := orderedFiles(input)

	result := StatsResult{Files: len(files)}
	for _, file := range files {
		result.Bytes += len(file.Content)
		result.Lines += bytes.Count(file.Content, []byte("\n"))
		if len(file.Content) > 0 && !bytes.HasSuffix(file.Content, []byte("\n")) {
			result.Lines++
		}
		result.Words += len(strings.Fields(string(file.Content)))
	}

	return domain.Artifact{
		Kind:   KindStats,
		Digest: uint64(result.Bytes)<<32 | uint64(result.Lines),
		Value:  result,
	}, nil
}

// orderedFiles returns the target followed by its inputs sorted by path.
func orderedFiles(input ports.RecipeInput) []domain.SourceFile {
	files := make([]domain.SourceFile, 0, len(input.Inputs)+1)
	files = append(files, input.Target)
	for _, file := range input.Inputs {
		if file.ID != input.Target.ID {
			files = append(files, file)
		}
	}
	slices.SortFunc(files[1:], func(a, b domain.SourceFile) int {
		return strings.Compare(a.Path.String(), b.Path.String())
	})
	return files
}
