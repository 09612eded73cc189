package domain

// RecipeKind is the tag of a recipe variant. Kinds are resolved through an
// explicit registry mapping kind to function; the core never dispatches on the
// runtime type of an artifact value.
type RecipeKind string

// CacheKey identifies a derived artifact: which recipe, applied to which file.
// The input revisions observed at execution time are recorded on the cache
// entry, not in the key, so a key stays stable across edits.
type CacheKey struct {
	Kind   RecipeKind
	Target FileID
}

// TaskStatus is the lifecycle state of a recompute task.
type TaskStatus uint8

const (
	// TaskPending indicates the task is waiting for its dependencies or a worker.
	TaskPending TaskStatus = iota
	// TaskRunning indicates the task's recipe is executing.
	TaskRunning
	// TaskDone indicates the task completed and its result reached the cache.
	TaskDone
	// TaskCancelled indicates the task was superseded or cancelled before completing.
	TaskCancelled
)

// String returns the human-readable name of the status.
func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskDone:
		return "done"
	case TaskCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
