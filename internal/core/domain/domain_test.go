package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.vellum.sh/vellum/internal/core/domain"
)

func TestInternedPath_CleansAndCompares(t *testing.T) {
	a := domain.NewInternedPath("/ws/./docs/../main.vell")
	b := domain.NewInternedPath("/ws/main.vell")

	assert.Equal(t, a, b)
	assert.Equal(t, "/ws/main.vell", a.String())
	assert.False(t, a.IsZero())
	assert.True(t, domain.InternedPath{}.IsZero())
}

func TestInternedPath_TextRoundTrip(t *testing.T) {
	p := domain.NewInternedPath("/ws/main.vell")
	text, err := p.MarshalText()
	require.NoError(t, err)

	var got domain.InternedPath
	require.NoError(t, got.UnmarshalText(text))
	assert.Equal(t, p, got)
}

func TestProjectConfig_WithDefaults(t *testing.T) {
	cfg := domain.ProjectConfig{Name: "demo", Entry: "/ws/main.vell"}.WithDefaults()

	assert.Equal(t, domain.DefaultDebounceWindow, cfg.DebounceWindow)
	assert.Equal(t, domain.DefaultMaxEntries, cfg.Cache.MaxEntries)
	assert.Equal(t, domain.DefaultMaxRevisionAge, cfg.Cache.MaxRevisionAge)

	tuned := domain.ProjectConfig{
		DebounceWindow: 10 * time.Millisecond,
		Cache:          domain.CacheConfig{MaxEntries: 8, MaxRevisionAge: 2},
	}.WithDefaults()

	assert.Equal(t, 10*time.Millisecond, tuned.DebounceWindow)
	assert.Equal(t, 8, tuned.Cache.MaxEntries)
	assert.Equal(t, domain.Revision(2), tuned.Cache.MaxRevisionAge)
}

func TestFileEventKind_String(t *testing.T) {
	assert.Equal(t, "created", domain.FileCreated.String())
	assert.Equal(t, "modified", domain.FileModified.String())
	assert.Equal(t, "removed", domain.FileRemoved.String())
}
