package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.vellum.sh/vellum/internal/core/ports"
)

// NodeID is the unique identifier for the tracer Graft node.
const NodeID graft.ID = "adapter.telemetry"

// instrumentationName identifies this module's spans.
const instrumentationName = "go.vellum.sh/vellum"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewOTelTracer(instrumentationName), nil
		},
	})
}
