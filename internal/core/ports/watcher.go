package ports

import (
	"context"
	"iter"

	"go.vellum.sh/vellum/internal/core/domain"
)

// Watcher defines the interface for the OS-level filesystem watch mechanism.
// The watcher emits raw events; debouncing and routing belong to the bridge.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching the given root directory recursively.
	Start(ctx context.Context, root string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events returns an iterator of filesystem events.
	Events() iter.Seq[domain.FileSystemEvent]
}

// EventSink receives debounced filesystem events and document edits. The
// workspace registry implements this to route changes to the owning project.
type EventSink interface {
	// ApplyFileEvent routes a filesystem event to the owning project and
	// applies it to that project's source graph. A path matching no open
	// project returns an error wrapping domain.ErrPathNotInWorkspace.
	ApplyFileEvent(ctx context.Context, event domain.FileSystemEvent) error
	// RecomputeAll settles pending invalidations across all open projects.
	// The bridge calls this once per flushed event batch.
	RecomputeAll(ctx context.Context) error
}
