package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrCycleDetected is returned when adding a dependency edge would close a cycle.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrUnknownFile is returned when an operation references a path or id that is not registered.
	ErrUnknownFile = zerr.New("unknown file")

	// ErrFileDeleted is returned when an operation references a file that has been removed.
	ErrFileDeleted = zerr.New("file has been deleted")

	// ErrDuplicateFile is returned when registering a path that is already registered.
	ErrDuplicateFile = zerr.New("file already registered")

	// ErrUnknownRecipe is returned when a cache key names a recipe kind with no registered function.
	ErrUnknownRecipe = zerr.New("no recipe registered for kind")

	// ErrCorruptCacheEntry is returned when a recipe produces an artifact whose
	// kind does not match the requested cache key; such a result never enters
	// the cache as a valid entry.
	ErrCorruptCacheEntry = zerr.New("corrupt cache entry")

	// ErrRecipeFailed is returned when a recipe execution fails.
	ErrRecipeFailed = zerr.New("recipe execution failed")

	// ErrTaskCancelled is returned when a compute task was cancelled before completion.
	ErrTaskCancelled = zerr.New("task cancelled")

	// ErrTaskSuperseded is returned when a compute task finished against inputs that were
	// invalidated while it was running.
	ErrTaskSuperseded = zerr.New("task superseded by newer revision")

	// ErrWatchSubscribeFailed is returned when a filesystem watch subscription cannot be established.
	ErrWatchSubscribeFailed = zerr.New("failed to subscribe to filesystem events")

	// ErrPathNotInWorkspace is returned when a path matches no open project root.
	ErrPathNotInWorkspace = zerr.New("path does not belong to any open project")

	// ErrProjectOverlap is returned when opening a project whose root overlaps an open project.
	ErrProjectOverlap = zerr.New("project root overlaps an open project")

	// ErrProjectClosed is returned when an operation targets a project that has been closed.
	ErrProjectClosed = zerr.New("project is closed")

	// ErrConfigNotFound is returned when no vellum.yaml can be found.
	ErrConfigNotFound = zerr.New("could not find " + ConfigFileName)

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a config file fails validation.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrNoEntryPoint is returned when a project config declares no entry point.
	ErrNoEntryPoint = zerr.New("no entry point configured")

	// ErrSourceReadFailed is returned when a source file cannot be read from disk.
	ErrSourceReadFailed = zerr.New("failed to read source file")
)

// Tag attaches alternating key-value metadata to a sentinel. zerr attaches
// metadata to a detached copy of its receiver, so the sentinel is wrapped
// first to keep it in the unwrap chain for errors.Is.
func Tag(sentinel error, kv ...any) error {
	err := zerr.Wrap(sentinel, "")
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}

// TagWrap wraps cause under sentinel with metadata attached. errors.Is
// matches both sentinel and cause on the result.
func TagWrap(sentinel, cause error, kv ...any) error {
	if cause == nil {
		return Tag(sentinel, kv...)
	}
	return Tag(errors.Join(sentinel, cause), kv...)
}
