package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.vellum.sh/vellum/internal/adapters/watcher"
	"go.vellum.sh/vellum/internal/core/domain"
)

func modified(path string) domain.FileSystemEvent {
	return domain.FileSystemEvent{Path: path, Kind: domain.FileModified}
}

func TestNewDebouncer(t *testing.T) {
	tests := []struct {
		name     string
		window   time.Duration
		callback func([]domain.FileSystemEvent)
	}{
		{
			name:     "with callback",
			window:   100 * time.Millisecond,
			callback: func([]domain.FileSystemEvent) {},
		},
		{
			name:     "with nil callback",
			window:   50 * time.Millisecond,
			callback: nil,
		},
		{
			name:     "with zero window",
			window:   0,
			callback: func([]domain.FileSystemEvent) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := watcher.NewDebouncer(tt.window, tt.callback)
			require.NotNil(t, d)
		})
	}
}

func TestDebouncer_Add_SingleEvent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var mu sync.Mutex
		var callCount int
		var received []domain.FileSystemEvent

		d := watcher.NewDebouncer(100*time.Millisecond, func(events []domain.FileSystemEvent) {
			mu.Lock()
			defer mu.Unlock()
			callCount++
			received = events
		})

		d.Add(modified("/project/src/main.vell"))

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Equal(t, 1, callCount)
		require.Len(t, received, 1)
		assert.Equal(t, "/project/src/main.vell", received[0].Path)
		assert.Equal(t, domain.FileModified, received[0].Kind)
	})
}

func TestDebouncer_Add_CoalescesByPath(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var mu sync.Mutex
		var callCount int
		var received []domain.FileSystemEvent

		d := watcher.NewDebouncer(100*time.Millisecond, func(events []domain.FileSystemEvent) {
			mu.Lock()
			defer mu.Unlock()
			callCount++
			received = events
		})

		for range 5 {
			d.Add(modified("/project/src/main.vell"))
		}
		d.Add(modified("/project/src/chapter.vell"))

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Equal(t, 1, callCount)
		assert.Len(t, received, 2)
	})
}

func TestDebouncer_Add_LastEventKindWins(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var mu sync.Mutex
		var received []domain.FileSystemEvent

		d := watcher.NewDebouncer(100*time.Millisecond, func(events []domain.FileSystemEvent) {
			mu.Lock()
			defer mu.Unlock()
			received = events
		})

		d.Add(modified("/project/src/main.vell"))
		d.Add(domain.FileSystemEvent{Path: "/project/src/main.vell", Kind: domain.FileRemoved})

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Len(t, received, 1)
		assert.Equal(t, domain.FileRemoved, received[0].Kind)
	})
}

func TestDebouncer_Add_CreateThenWriteStaysCreate(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var mu sync.Mutex
		var received []domain.FileSystemEvent

		d := watcher.NewDebouncer(100*time.Millisecond, func(events []domain.FileSystemEvent) {
			mu.Lock()
			defer mu.Unlock()
			received = events
		})

		d.Add(domain.FileSystemEvent{Path: "/project/src/new.vell", Kind: domain.FileCreated})
		d.Add(modified("/project/src/new.vell"))

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Len(t, received, 1)
		assert.Equal(t, domain.FileCreated, received[0].Kind)
	})
}

func TestDebouncer_Add_WindowRestarts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var mu sync.Mutex
		var callCount int

		d := watcher.NewDebouncer(100*time.Millisecond, func([]domain.FileSystemEvent) {
			mu.Lock()
			defer mu.Unlock()
			callCount++
		})

		d.Add(modified("/project/a.vell"))
		time.Sleep(60 * time.Millisecond)
		d.Add(modified("/project/b.vell"))
		time.Sleep(60 * time.Millisecond)
		synctest.Wait()

		// The second add restarted the window, so nothing fired yet.
		mu.Lock()
		require.Equal(t, 0, callCount)
		mu.Unlock()

		time.Sleep(50 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, 1, callCount)
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var mu sync.Mutex
		var callCount int
		var received []domain.FileSystemEvent

		d := watcher.NewDebouncer(time.Hour, func(events []domain.FileSystemEvent) {
			mu.Lock()
			defer mu.Unlock()
			callCount++
			received = events
		})

		d.Add(modified("/project/src/main.vell"))
		d.Flush()

		require.Equal(t, 1, callCount)
		require.Len(t, received, 1)

		// Nothing is left behind to fire later.
		time.Sleep(2 * time.Hour)
		synctest.Wait()
		assert.Equal(t, 1, callCount)
	})
}

func TestDebouncer_Flush_Empty(t *testing.T) {
	var callCount int
	d := watcher.NewDebouncer(100*time.Millisecond, func([]domain.FileSystemEvent) {
		callCount++
	})

	d.Flush()
	assert.Equal(t, 0, callCount)
}
