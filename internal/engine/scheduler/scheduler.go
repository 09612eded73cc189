// Package scheduler executes recompute tasks triggered by invalidation,
// respecting dependency order between targets and bounding parallelism.
package scheduler

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.trai.ch/zerr"
	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/engine/graph"
	"go.vellum.sh/vellum/internal/engine/memo"
)

// Scheduler runs batches of recompute tasks against one project's compute
// engine. Tasks whose targets depend on another task's target wait for it;
// independent tasks run in parallel on a bounded worker pool.
type Scheduler struct {
	engine  *memo.Engine
	graph   *graph.Graph
	tracer  ports.Tracer
	workers int

	mu     sync.RWMutex
	status map[domain.CacheKey]domain.TaskStatus
}

// New creates a scheduler. workers bounds parallel tasks; zero or negative
// means one worker per CPU.
func New(engine *memo.Engine, g *graph.Graph, tracer ports.Tracer, workers int) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scheduler{
		engine:  engine,
		graph:   g,
		tracer:  tracer,
		workers: workers,
		status:  make(map[domain.CacheKey]domain.TaskStatus),
	}
}

// Status returns the last observed status of a task.
func (s *Scheduler) Status(key domain.CacheKey) (domain.TaskStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.status[key]
	return st, ok
}

func (s *Scheduler) setStatus(key domain.CacheKey, st domain.TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[key] = st
}

type result struct {
	key domain.CacheKey
	err error
}

type runState struct {
	s         *Scheduler
	ctx       context.Context
	specs     map[domain.CacheKey]memo.RecomputeSpec
	inDegree  map[domain.CacheKey]int
	waiters   map[domain.CacheKey][]domain.CacheKey
	ready     []domain.CacheKey
	active    int
	resultsCh chan result
	errs      error
}

// Run executes the given recompute specs to completion. A task that finishes
// cancelled or superseded is not an error: its key was invalidated again while
// it ran and a later batch will carry the fresh spec. Recipe failures are
// joined and returned after every runnable task has finished.
func (s *Scheduler) Run(ctx context.Context, specs []memo.RecomputeSpec) error {
	if len(specs) == 0 {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "recompute batch",
		ports.WithAttribute("vellum.tasks", len(specs)))
	defer span.End()

	state := s.newRunState(ctx, specs)
	for key := range state.specs {
		s.setStatus(key, domain.TaskPending)
	}

	err := state.runExecutionLoop()
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *Scheduler) newRunState(ctx context.Context, specs []memo.RecomputeSpec) *runState {
	state := &runState{
		s:         s,
		ctx:       ctx,
		specs:     make(map[domain.CacheKey]memo.RecomputeSpec, len(specs)),
		inDegree:  make(map[domain.CacheKey]int, len(specs)),
		waiters:   make(map[domain.CacheKey][]domain.CacheKey),
		resultsCh: make(chan result, s.workers),
	}

	byTarget := make(map[domain.FileID][]domain.CacheKey)
	for _, spec := range specs {
		state.specs[spec.Key] = spec
		byTarget[spec.Key.Target] = append(byTarget[spec.Key.Target], spec.Key)
	}

	// A task waits for every task whose target its own target directly
	// depends on. Edges leaving the batch impose no ordering: those
	// artifacts are either still valid or recomputed on demand.
	for key := range state.specs {
		degree := 0
		for _, dep := range s.graph.DirectDeps(key.Target) {
			for _, producer := range byTarget[dep] {
				if producer != key {
					state.waiters[producer] = append(state.waiters[producer], key)
					degree++
				}
			}
		}
		state.inDegree[key] = degree
		if degree == 0 {
			state.ready = append(state.ready, key)
		}
	}

	return state
}

func (state *runState) runExecutionLoop() error {
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}
	return state.errs
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.s.workers && state.ctx.Err() == nil {
		key := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.setStatus(key, domain.TaskRunning)

		spec := state.specs[key]
		go state.executeTask(spec)
	}
}

func (state *runState) executeTask(spec memo.RecomputeSpec) {
	_, err := state.s.engine.Compute(state.ctx, spec.Key, spec.Inputs)
	state.resultsCh <- result{key: spec.Key, err: err}
}

func (state *runState) handleResult(res result) {
	state.active--

	switch {
	case errors.Is(res.err, domain.ErrTaskCancelled) || errors.Is(res.err, domain.ErrTaskSuperseded):
		state.s.setStatus(res.key, domain.TaskCancelled)
	case res.err != nil:
		state.s.setStatus(res.key, domain.TaskDone)
		state.errs = errors.Join(state.errs, zerr.With(res.err, "target", int(res.key.Target)))
	default:
		state.s.setStatus(res.key, domain.TaskDone)
	}

	// Unblock dependents regardless of outcome: a failed producer's error
	// artifact is cached and dependents surface it through diagnostics.
	for _, waiter := range state.waiters[res.key] {
		state.inDegree[waiter]--
		if state.inDegree[waiter] == 0 {
			state.ready = append(state.ready, waiter)
		}
	}
}
