package memo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/zerr"
	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/engine/graph"
)

// Engine memoizes recipe executions for one project. A cache entry is valid
// only while the input revisions recorded at execution time equal the source
// graph's current revisions; validity is re-checked on every lookup, which
// gives happens-before between an invalidation and every later Compute call
// without any wall-clock reasoning.
//
// Engine methods may take the graph's locks while holding the engine lock,
// never the other way around.
type Engine struct {
	graph    *graph.Graph
	registry *Registry
	tracer   ports.Tracer
	cfg      domain.CacheConfig

	mu      sync.Mutex
	cache   *lru.Cache[domain.CacheKey, *entry]
	byInput map[domain.FileID]map[domain.CacheKey]struct{}
	// targetRefs counts live cache entries per target so the graph's
	// has-artifact mark is cleared only when the last one goes away.
	targetRefs map[domain.FileID]int
	pending    map[domain.CacheKey]*task
}

// entry is a cached artifact stamped with the input revisions observed when
// its recipe ran. A failed recipe is cached too ("error artifact") so repeated
// requests with unchanged inputs do not re-execute a recipe known to fail.
type entry struct {
	artifact   domain.Artifact
	err        error
	inputs     []domain.FileID
	revisions  []domain.Revision
	lastAccess domain.Revision
}

// task is an in-flight computation. At most one task exists per cache key;
// concurrent Compute calls for the key wait on done and share the result.
type task struct {
	inputs    []domain.FileID
	cancel    context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}
	artifact  domain.Artifact
	err       error
}

// RecomputeSpec describes a stale artifact the scheduler should recompute.
type RecomputeSpec struct {
	Key    domain.CacheKey
	Inputs []domain.FileID
}

// NewEngine creates a compute engine bound to a project's source graph.
func NewEngine(g *graph.Graph, registry *Registry, tracer ports.Tracer, cfg domain.CacheConfig) (*Engine, error) {
	cfg = cfg.WithDefaults()

	e := &Engine{
		graph:      g,
		registry:   registry,
		tracer:     tracer,
		cfg:        cfg,
		byInput:    make(map[domain.FileID]map[domain.CacheKey]struct{}),
		targetRefs: make(map[domain.FileID]int),
		pending:    make(map[domain.CacheKey]*task),
	}

	// The eviction callback runs synchronously inside cache mutations, which
	// only ever happen with the engine lock held, so it may touch the index
	// without further locking.
	cache, err := lru.NewWithEvict[domain.CacheKey, *entry](cfg.MaxEntries, e.dropFromIndex)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create artifact cache")
	}
	e.cache = cache
	return e, nil
}

// Compute returns the artifact for key, executing its recipe only when no
// valid cache entry exists. Concurrent calls for the same key coalesce into a
// single execution; every caller receives the same result. declaredInputs must
// start with the target file and list every file the recipe may read.
func (e *Engine) Compute(ctx context.Context, key domain.CacheKey, declaredInputs []domain.FileID) (domain.Artifact, error) {
	inputs := declaredInputs
	if len(inputs) == 0 || inputs[0] != key.Target {
		inputs = append([]domain.FileID{key.Target}, inputs...)
	}

	e.mu.Lock()

	if ent, ok := e.cache.Get(key); ok && e.validLocked(ent) {
		ent.lastAccess = e.graph.Clock()
		art, err := ent.artifact, ent.err
		e.mu.Unlock()
		return art, err
	}

	if t, ok := e.pending[key]; ok {
		e.mu.Unlock()
		select {
		case <-t.done:
			return t.artifact, t.err
		case <-ctx.Done():
			// Only this caller stops waiting; the shared execution continues.
			return domain.Artifact{}, ctx.Err()
		}
	}

	recipe, ok := e.registry.Lookup(key.Kind)
	if !ok {
		e.mu.Unlock()
		return domain.Artifact{}, domain.Tag(domain.ErrUnknownRecipe, "kind", string(key.Kind))
	}

	files, revs, err := e.graph.Snapshot(inputs)
	if err != nil {
		e.mu.Unlock()
		return domain.Artifact{}, err
	}

	// Detach the task context from the first caller: coalesced waiters must
	// not lose the execution because one of them gave up. Cancellation comes
	// from Invalidate.
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &task{
		inputs: inputs,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.pending[key] = t
	e.mu.Unlock()

	in := ports.RecipeInput{Target: files[0], Inputs: files}
	spanCtx, span := e.tracer.Start(taskCtx, "recipe "+string(key.Kind),
		ports.WithAttribute("vellum.target", files[0].Path.String()))
	artifact, recipeErr := recipe(spanCtx, in)
	domain.SortDiagnostics(artifact.Diagnostics)

	// A recipe answering with a different kind than asked for would poison
	// the cache under this key.
	if recipeErr == nil && artifact.Kind != key.Kind {
		recipeErr = domain.Tag(domain.ErrCorruptCacheEntry,
			"want", string(key.Kind), "got", string(artifact.Kind))
		artifact = domain.Artifact{Kind: key.Kind}
	}

	e.mu.Lock()
	delete(e.pending, key)
	cancel()

	switch {
	case t.cancelled.Load() || errors.Is(recipeErr, context.Canceled):
		// Partial results of a cancelled task never reach the cache.
		t.err = domain.Tag(domain.ErrTaskCancelled,
			"kind", string(key.Kind), "target", files[0].Path.String())
		span.RecordError(t.err)

	case !e.currentLocked(inputs, revs):
		// Inputs moved on while the recipe ran. The result reflects the
		// revisions this caller observed, so waiters still receive it marked
		// superseded, and it must never overwrite the cache.
		t.artifact = artifact
		if recipeErr == nil {
			t.err = domain.Tag(domain.ErrTaskSuperseded,
				"kind", string(key.Kind), "target", files[0].Path.String())
		} else {
			t.err = wrapRecipeErr(recipeErr, key, files[0])
		}
		span.SetAttribute("vellum.superseded", true)

	default:
		t.artifact = artifact
		t.err = wrapRecipeErr(recipeErr, key, files[0])
		e.storeLocked(key, &entry{
			artifact:   artifact,
			err:        t.err,
			inputs:     inputs,
			revisions:  revs,
			lastAccess: e.graph.Clock(),
		})
	}
	if t.err != nil {
		span.RecordError(t.err)
	}
	span.End()

	close(t.done)
	e.mu.Unlock()

	return t.artifact, t.err
}

func wrapRecipeErr(recipeErr error, key domain.CacheKey, target domain.SourceFile) error {
	if recipeErr == nil {
		return nil
	}
	return domain.TagWrap(domain.ErrRecipeFailed, recipeErr,
		"kind", string(key.Kind), "target", target.Path.String())
}

// Invalidate drops every cache entry whose input set intersects the stale
// files and cooperatively cancels in-flight tasks reading them. It returns
// specs for the dropped entries so the scheduler can recompute them.
func (e *Engine) Invalidate(stale []domain.FileID) []RecomputeSpec {
	e.mu.Lock()
	defer e.mu.Unlock()

	staleSet := make(map[domain.FileID]bool, len(stale))
	keySet := make(map[domain.CacheKey]bool)
	for _, id := range stale {
		staleSet[id] = true
		for key := range e.byInput[id] {
			keySet[key] = true
		}
	}

	specs := make([]RecomputeSpec, 0, len(keySet))
	for key := range keySet {
		if ent, ok := e.cache.Peek(key); ok {
			specs = append(specs, RecomputeSpec{Key: key, Inputs: ent.inputs})
			e.cache.Remove(key) // dropFromIndex runs here
		}
	}

	for _, t := range e.pending {
		for _, id := range t.inputs {
			if staleSet[id] {
				t.cancelled.Store(true)
				t.cancel()
				break
			}
		}
	}

	return specs
}

// Sweep evicts entries not accessed within the configured revision horizon.
// It is the background pass behind the cache's age policy; the size cap is
// enforced synchronously by the LRU itself.
func (e *Engine) Sweep() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	clock := e.graph.Clock()
	if clock <= e.cfg.MaxRevisionAge {
		return 0
	}
	horizon := clock - e.cfg.MaxRevisionAge

	evicted := 0
	// Keys are ordered oldest-access first; recency order matches lastAccess
	// order because both advance together, so stop at the first young entry.
	for _, key := range e.cache.Keys() {
		ent, ok := e.cache.Peek(key)
		if !ok || ent.lastAccess >= horizon {
			break
		}
		e.cache.Remove(key)
		evicted++
	}
	return evicted
}

// RunEvictionLoop calls Sweep at the given interval until ctx is done.
func (e *Engine) RunEvictionLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Sweep()
		}
	}
}

// Purge drops every cache entry and cancels all in-flight tasks. Called when
// the owning project closes.
func (e *Engine) Purge() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cache.Purge() // dropFromIndex runs per entry
	for _, t := range e.pending {
		t.cancelled.Store(true)
		t.cancel()
	}
}

// Len returns the number of cached entries.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Len()
}

// storeLocked inserts an entry and maintains the reverse index. The engine
// lock is held.
func (e *Engine) storeLocked(key domain.CacheKey, ent *entry) {
	// Replacing an existing entry must drop the old index state first.
	if e.cache.Contains(key) {
		e.cache.Remove(key)
	}

	e.cache.Add(key, ent)
	for _, id := range ent.inputs {
		keys, ok := e.byInput[id]
		if !ok {
			keys = make(map[domain.CacheKey]struct{})
			e.byInput[id] = keys
		}
		keys[key] = struct{}{}
	}
	e.targetRefs[key.Target]++
	e.graph.SetArtifact(key.Target, true)
}

// dropFromIndex is the LRU eviction callback. It runs with the engine lock
// held (all cache mutations happen under it).
func (e *Engine) dropFromIndex(key domain.CacheKey, ent *entry) {
	for _, id := range ent.inputs {
		if keys, ok := e.byInput[id]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(e.byInput, id)
			}
		}
	}
	e.targetRefs[key.Target]--
	if e.targetRefs[key.Target] <= 0 {
		delete(e.targetRefs, key.Target)
		e.graph.SetArtifact(key.Target, false)
	}
}

// validLocked re-checks an entry's recorded revisions against the graph.
func (e *Engine) validLocked(ent *entry) bool {
	return e.currentLocked(ent.inputs, ent.revisions)
}

func (e *Engine) currentLocked(inputs []domain.FileID, revs []domain.Revision) bool {
	for i, id := range inputs {
		rev, err := e.graph.Revision(id)
		if err != nil || rev != revs[i] {
			return false
		}
	}
	return true
}
