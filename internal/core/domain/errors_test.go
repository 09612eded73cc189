package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.vellum.sh/vellum/internal/core/domain"
)

func TestTag_SentinelStaysMatchable(t *testing.T) {
	err := domain.Tag(domain.ErrCycleDetected, "cycle", "a -> b -> a")
	require.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.Equal(t, domain.ErrCycleDetected.Error(), err.Error())
}

func TestTag_MultiplePairs(t *testing.T) {
	err := domain.Tag(domain.ErrTaskCancelled,
		"kind", "test.digest", "target", "/ws/main.vell")
	require.ErrorIs(t, err, domain.ErrTaskCancelled)
}

func TestTagWrap_MatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := domain.TagWrap(domain.ErrSourceReadFailed, cause, "path", "/ws/main.vell")

	require.ErrorIs(t, err, domain.ErrSourceReadFailed)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to read source file")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestTagWrap_NilCause(t *testing.T) {
	err := domain.TagWrap(domain.ErrRecipeFailed, nil)
	require.ErrorIs(t, err, domain.ErrRecipeFailed)
}
