package watcher

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
)

const (
	subscribeRetries = 3
	subscribeBackoff = 200 * time.Millisecond
)

// Bridge connects per-root filesystem watchers to the workspace event sink.
// Raw events are debounced per root and delivered as batches; after each
// batch the sink settles its pending recomputes.
type Bridge struct {
	newWatcher func() (ports.Watcher, error)
	sink       ports.EventSink
	logger     ports.Logger
	window     time.Duration
}

// NewBridge creates a bridge that builds one watcher per watched root.
func NewBridge(newWatcher func() (ports.Watcher, error), sink ports.EventSink, logger ports.Logger, window time.Duration) *Bridge {
	if window <= 0 {
		window = domain.DefaultDebounceWindow
	}
	return &Bridge{
		newWatcher: newWatcher,
		sink:       sink,
		logger:     logger,
		window:     window,
	}
}

// Watch watches the given roots until ctx is cancelled. It blocks; run it in
// its own goroutine when serving alongside other work.
func (b *Bridge) Watch(ctx context.Context, roots ...string) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		group.Go(func() error {
			return b.watchRoot(ctx, root)
		})
	}
	return group.Wait()
}

func (b *Bridge) watchRoot(ctx context.Context, root string) error {
	w, err := b.subscribe(ctx, root)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	debouncer := NewDebouncer(b.window, func(events []domain.FileSystemEvent) {
		b.deliver(ctx, events)
	})
	defer debouncer.Flush()

	b.logger.Info("watching", "root", root)

	for event := range w.Events() {
		debouncer.Add(event)
	}
	return ctx.Err()
}

// subscribe starts a watcher on root, retrying with backoff. Editors that
// recreate directories during save can race the initial walk.
func (b *Bridge) subscribe(ctx context.Context, root string) (ports.Watcher, error) {
	var lastErr error
	for attempt := range subscribeRetries {
		w, err := b.newWatcher()
		if err != nil {
			lastErr = err
		} else if err := w.Start(ctx, root); err != nil {
			lastErr = err
			_ = w.Stop()
		} else {
			return w, nil
		}

		b.logger.Warn("watch subscribe failed, retrying", "root", root, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(subscribeBackoff << attempt):
		}
	}
	return nil, domain.TagWrap(domain.ErrWatchSubscribeFailed, lastErr, "root", root)
}

// deliver applies a debounced batch to the sink, then settles recomputes.
// Delivery failures are logged, not fatal: a missed event only delays work
// until the next change to the same file.
func (b *Bridge) deliver(ctx context.Context, events []domain.FileSystemEvent) {
	for _, event := range events {
		if err := b.sink.ApplyFileEvent(ctx, event); err != nil {
			b.logger.Warn("dropped file event", "path", event.Path, "kind", event.Kind.String(), "error", err.Error())
		}
	}
	if err := b.sink.RecomputeAll(ctx); err != nil {
		b.logger.Error(err)
	}
}
