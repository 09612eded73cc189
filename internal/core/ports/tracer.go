package ports

import "context"

// SpanConfig holds configuration applied when a span starts.
type SpanConfig struct {
	// Attributes are key/value pairs attached at span start.
	Attributes map[string]any
}

// SpanOption mutates a SpanConfig.
type SpanOption func(*SpanConfig)

// WithAttribute attaches a key/value pair at span start.
func WithAttribute(key string, value any) SpanOption {
	return func(c *SpanConfig) {
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[key] = value
	}
}

// Span is a unit of traced work.
//
//go:generate mockgen -source=tracer.go -destination=mocks/mock_tracer.go -package=mocks
type Span interface {
	// End completes the span.
	End()
	// RecordError attaches an error to the span.
	RecordError(err error)
	// SetAttribute attaches a key/value pair to the span.
	SetAttribute(key string, value any)
}

// Tracer creates spans around compute and scheduling work.
type Tracer interface {
	// Start begins a span and returns a context carrying it.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
}
