package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/mock/gomock"
	"go.vellum.sh/vellum/internal/adapters/typeset"
	"go.vellum.sh/vellum/internal/adapters/watcher"
	"go.vellum.sh/vellum/internal/app"
	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/core/ports/mocks"
	"go.vellum.sh/vellum/internal/engine/memo"
	"go.vellum.sh/vellum/internal/workspace"
)

type testComponents struct {
	components *app.Components
	loader     *mocks.MockConfigLoader
}

// newTestComponents builds real components around a mocked config loader.
func newTestComponents(t *testing.T) testComponents {
	t.Helper()
	ctrl := gomock.NewController(t)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().SetJSON(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()

	loader := mocks.NewMockConfigLoader(ctrl)
	newScanner := func(roots ...string) ports.DependencyScanner { return typeset.NewScanner(roots...) }
	registry := workspace.NewRegistry(
		memo.NewRegistry(typeset.NewProvider()), newScanner, logger, tracer)
	newWatcher := func() (ports.Watcher, error) { return watcher.NewWatcher() }
	bridge := watcher.NewBridge(newWatcher, registry, logger, 0)

	return testComponents{
		components: &app.Components{
			App:    app.New(loader, registry, bridge, logger),
			Logger: logger,
		},
		loader: loader,
	}
}

func TestRun_Success(t *testing.T) {
	tc := newTestComponents(t)
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return tc.components, func() {}, nil
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)
	assert.Equal(t, 0, exitCode)
}

func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

func TestRun_InstallsTracerProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tc := newTestComponents(t)
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return tc.components, func() {}, nil
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)
	assert.Equal(t, 0, exitCode)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "run should install the SDK tracer provider")
}

func TestRun_ExecutionError(t *testing.T) {
	tc := newTestComponents(t)
	tc.loader.EXPECT().DiscoverRoot(gomock.Any()).
		Return("", domain.ErrConfigNotFound)

	provider := func(_ context.Context) (*app.Components, func(), error) {
		return tc.components, func() {}, nil
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"compile", t.TempDir()}, stderr, provider)
	assert.Equal(t, 1, exitCode)
}
