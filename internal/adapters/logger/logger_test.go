package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
	"go.vellum.sh/vellum/internal/adapters/logger"
	"go.vellum.sh/vellum/internal/core/domain"
)

// newBufferedLogger returns a logger writing plain text into buf.
func newBufferedLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	l, ok := logger.New().(*logger.Logger)
	require.True(t, ok)
	l.SetOutput(buf)
	return l, buf
}

func TestLogger_InfoWithAttrs(t *testing.T) {
	l, buf := newBufferedLogger(t)

	l.Info("project ready", "name", "thesis", "files", 3)

	out := buf.String()
	assert.Contains(t, out, "project ready")
	assert.Contains(t, out, "name=thesis")
	assert.Contains(t, out, "files=3")
}

func TestLogger_WarnIsMarked(t *testing.T) {
	l, buf := newBufferedLogger(t)

	l.Warn("font pattern matched nothing")

	out := buf.String()
	assert.Contains(t, out, "! ")
	assert.Contains(t, out, "font pattern matched nothing")
}

func TestLogger_ErrorNilIsSilent(t *testing.T) {
	l, buf := newBufferedLogger(t)

	l.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_ErrorPlain(t *testing.T) {
	l, buf := newBufferedLogger(t)

	l.Error(errors.New("disk full"))
	assert.Contains(t, buf.String(), "Error: disk full")
}

func TestLogger_ErrorChainFormatting(t *testing.T) {
	l, buf := newBufferedLogger(t)

	root := errors.New("no such file or directory")
	err := zerr.Wrap(zerr.Wrap(root, "failed to read entry point"), "compilation failed")
	l.Error(err)

	out := buf.String()
	assert.Contains(t, out, "Error: compilation failed")
	assert.Contains(t, out, "Caused by:")
	assert.Contains(t, out, "→ failed to read entry point")
	assert.Contains(t, out, "→ no such file or directory")

	// The outermost message leads, causes follow in unwrap order.
	assert.Less(t,
		strings.Index(out, "failed to read entry point"),
		strings.Index(out, "no such file or directory"))
}

func TestLogger_ErrorTaggedSentinel(t *testing.T) {
	l, buf := newBufferedLogger(t)

	l.Error(domain.Tag(domain.ErrCycleDetected, "cycle", "a -> b -> a"))

	out := buf.String()
	assert.Contains(t, out, "Error: "+domain.ErrCycleDetected.Error())
	// Metadata-only wrappers must not surface as blank messages.
	assert.NotContains(t, out, "Error: \n")
	assert.NotContains(t, out, "→ \n")
}

func TestLogger_JSONMode(t *testing.T) {
	l, buf := newBufferedLogger(t)
	l.SetJSON(true)

	l.Info("project ready", "files", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "project ready", record["msg"])
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, float64(3), record["files"])
}

func TestLogger_JSONModeError(t *testing.T) {
	l, buf := newBufferedLogger(t)
	l.SetJSON(true)

	l.Error(errors.New("disk full"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "disk full", record["error"])
}

func TestLogger_SetJSONPreservesOutput(t *testing.T) {
	l, buf := newBufferedLogger(t)

	l.SetJSON(true)
	l.SetJSON(false)
	l.Info("still here")

	assert.Contains(t, buf.String(), "still here")
}

func TestPrettyHandler_AttrsAndGroups(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	h := logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	log := slog.New(h).With("root", "/ws").WithGroup("cache")
	log.Info("sweep finished", "evicted", 2)

	out := buf.String()
	assert.Contains(t, out, "sweep finished")
	assert.Contains(t, out, "root=/ws")
	assert.Contains(t, out, "cache.evicted=2")
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	h := logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelWarn})

	log := slog.New(h)
	log.Info("ignored")
	log.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "ignored")
	assert.Contains(t, out, "kept")
}
