// Package watcher bridges OS filesystem notifications into workspace updates.
package watcher

import (
	"sync"
	"time"
	"unique"

	"go.vellum.sh/vellum/internal/core/domain"
)

// Debouncer coalesces rapid file system events into batched updates. Events
// are deduplicated by path within a window; the last event for a path wins,
// except that a create followed by a write still reports as a create.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[unique.Handle[string]]domain.FileSystemEvent
	timer    *time.Timer
	window   time.Duration
	callback func(events []domain.FileSystemEvent)
}

// NewDebouncer creates a new debouncer with the given time window and callback.
func NewDebouncer(window time.Duration, callback func(events []domain.FileSystemEvent)) *Debouncer {
	return &Debouncer{
		pending:  make(map[unique.Handle[string]]domain.FileSystemEvent),
		window:   window,
		callback: callback,
	}
}

// Add adds an event to the pending set and restarts the window.
func (d *Debouncer) Add(event domain.FileSystemEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handle := unique.Make(event.Path)
	if prev, ok := d.pending[handle]; ok && prev.Kind == domain.FileCreated && event.Kind == domain.FileModified {
		// The file is still new from the graph's point of view.
		event.Kind = domain.FileCreated
	}
	d.pending[handle] = event

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// fire is called when the debounce window expires.
func (d *Debouncer) fire() {
	d.mu.Lock()

	// Protects against a race with Flush.
	if len(d.pending) == 0 {
		d.timer = nil
		d.mu.Unlock()
		return
	}

	events := make([]domain.FileSystemEvent, 0, len(d.pending))
	for _, event := range d.pending {
		events = append(events, event)
	}

	d.pending = make(map[unique.Handle[string]]domain.FileSystemEvent)
	d.timer = nil
	d.mu.Unlock()

	// Deliver off the timer goroutine so a slow callback cannot delay Add.
	if len(events) > 0 && d.callback != nil {
		go d.callback(events)
	}
}

// Flush immediately triggers the debounce callback with all pending events.
// This method blocks until the callback completes, making it suitable for
// graceful shutdown scenarios where work must finish before proceeding.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// Timer already fired, let it complete rather than processing twice.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}

	events := make([]domain.FileSystemEvent, 0, len(d.pending))
	for _, event := range d.pending {
		events = append(events, event)
	}
	d.pending = make(map[unique.Handle[string]]domain.FileSystemEvent)
	d.mu.Unlock()

	// Call the callback synchronously (blocks until complete).
	if len(events) > 0 && d.callback != nil {
		d.callback(events)
	}
}
