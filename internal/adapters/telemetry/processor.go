package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"go.vellum.sh/vellum/internal/core/ports"
)

// LogProcessor implements sdktrace.SpanProcessor, reporting completed span
// durations through the logger. It is the only span export path in a local
// CLI run; remote exporters hang off the same provider when configured.
type LogProcessor struct {
	logger ports.Logger

	mu     sync.Mutex
	starts map[trace.SpanID]time.Time
}

// NewLogProcessor creates a processor that logs span completions.
func NewLogProcessor(logger ports.Logger) *LogProcessor {
	return &LogProcessor{
		logger: logger,
		starts: make(map[trace.SpanID]time.Time),
	}
}

// OnStart records the span's start time.
func (p *LogProcessor) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts[s.SpanContext().SpanID()] = s.StartTime()
}

// OnEnd logs the span's name and duration.
func (p *LogProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	id := s.SpanContext().SpanID()

	p.mu.Lock()
	start, ok := p.starts[id]
	delete(p.starts, id)
	p.mu.Unlock()

	if !ok {
		start = s.StartTime()
	}
	p.logger.Info(s.Name(), "duration", s.EndTime().Sub(start).String())
}

// Shutdown implements sdktrace.SpanProcessor.
func (p *LogProcessor) Shutdown(_ context.Context) error { return nil }

// ForceFlush implements sdktrace.SpanProcessor.
func (p *LogProcessor) ForceFlush(_ context.Context) error { return nil }

// Init installs a tracer provider that feeds span completions to the logger
// when verbose is set. The returned shutdown function flushes the provider.
func Init(logger ports.Logger, verbose bool) func(context.Context) error {
	var opts []sdktrace.TracerProviderOption
	if verbose {
		opts = append(opts, sdktrace.WithSpanProcessor(NewLogProcessor(logger)))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
