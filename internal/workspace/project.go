// Package workspace owns the set of open projects and routes edits and
// filesystem events to the project they belong to.
package workspace

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/engine/graph"
	"go.vellum.sh/vellum/internal/engine/memo"
	"go.vellum.sh/vellum/internal/engine/scheduler"
)

// Project is one workspace rooted at a directory, compiled as a single
// dependency-connected unit. It owns a source graph, a compute engine and a
// scheduler; all three are released when the project closes.
//
// The graph and engine carry their own locks, so reads from unrelated
// projects never contend. Edits are additionally serialized per project to
// keep per-path arrival order.
type Project struct {
	root    string
	cfg     domain.ProjectConfig
	graph   *graph.Graph
	engine  *memo.Engine
	sched   *scheduler.Scheduler
	scanner ports.DependencyScanner
	logger  ports.Logger
	closed  atomic.Bool

	// editMu serializes content mutations: edits to a given file apply
	// strictly in arrival order.
	editMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[domain.CacheKey]memo.RecomputeSpec
}

func newProject(
	root string,
	cfg domain.ProjectConfig,
	recipes *memo.Registry,
	newScanner ports.ScannerFactory,
	logger ports.Logger,
	tracer ports.Tracer,
) (*Project, error) {
	cfg = cfg.WithDefaults()
	if len(cfg.Roots) == 0 {
		cfg.Roots = []string{root}
	}
	scanner := newScanner(cfg.Roots...)

	g := graph.New()
	engine, err := memo.NewEngine(g, recipes, tracer, cfg.Cache)
	if err != nil {
		return nil, err
	}

	return &Project{
		root:    root,
		cfg:     cfg,
		graph:   g,
		engine:  engine,
		sched:   scheduler.New(engine, g, tracer, cfg.Workers),
		scanner: scanner,
		logger:  logger,
		pending: make(map[domain.CacheKey]memo.RecomputeSpec),
	}, nil
}

// Root returns the project's absolute root directory.
func (p *Project) Root() string { return p.root }

// Config returns the project's configuration with defaults applied.
func (p *Project) Config() domain.ProjectConfig { return p.cfg }

// Graph exposes the project's source graph.
func (p *Project) Graph() *graph.Graph { return p.graph }

// Engine exposes the project's compute engine.
func (p *Project) Engine() *memo.Engine { return p.engine }

// RegisterFile adds a source file to the project's graph at revision 0 and
// records the dependency edges its content references.
func (p *Project) RegisterFile(path string, content []byte) (domain.FileID, error) {
	if p.closed.Load() {
		return domain.InvalidFileID, domain.Tag(domain.ErrProjectClosed, "root", p.root)
	}

	p.editMu.Lock()
	defer p.editMu.Unlock()

	id, err := p.graph.Register(path, content)
	if err != nil {
		return domain.InvalidFileID, err
	}
	p.syncEdges(path, id, content)
	return id, nil
}

// UpdateFile replaces a file's content, rescans its references and queues
// recompute specs for every invalidated artifact. An unknown path is
// registered instead: editors and watchers both announce new files this way.
func (p *Project) UpdateFile(path string, content []byte) error {
	if p.closed.Load() {
		return domain.Tag(domain.ErrProjectClosed, "root", p.root)
	}

	p.editMu.Lock()
	defer p.editMu.Unlock()

	id, ok := p.graph.Lookup(path)
	if !ok {
		id, err := p.graph.Register(path, content)
		if err != nil {
			return err
		}
		p.syncEdges(path, id, content)
		return nil
	}

	stale, err := p.graph.Update(path, content)
	if err != nil {
		return err
	}
	p.syncEdges(path, id, content)
	p.queue(p.engine.Invalidate(stale))
	return nil
}

// RemoveFile drops a file from the graph and queues recompute specs for its
// dependents.
func (p *Project) RemoveFile(path string) error {
	if p.closed.Load() {
		return domain.Tag(domain.ErrProjectClosed, "root", p.root)
	}

	p.editMu.Lock()
	defer p.editMu.Unlock()

	stale, err := p.graph.Remove(path)
	if err != nil {
		return err
	}
	p.queue(p.engine.Invalidate(stale))
	return nil
}

// ApplyEdit applies an in-memory document edit from an editor transport.
func (p *Project) ApplyEdit(edit domain.DocumentEdit) error {
	return p.UpdateFile(edit.Path, edit.NewContent)
}

// ApplyFileEvent applies an on-disk change reported by the watcher bridge.
func (p *Project) ApplyFileEvent(event domain.FileSystemEvent) error {
	switch event.Kind {
	case domain.FileRemoved:
		return p.RemoveFile(event.Path)
	case domain.FileCreated, domain.FileModified:
		content, err := os.ReadFile(event.Path)
		if err != nil {
			return domain.TagWrap(domain.ErrSourceReadFailed, err, "path", event.Path)
		}
		return p.UpdateFile(event.Path, content)
	default:
		return domain.Tag(domain.ErrUnknownFile, "path", event.Path)
	}
}

// Compute returns the artifact of the given kind for path, executing the
// recipe only on a cache miss. Declared inputs are the file and its
// transitive dependencies at the current revision.
func (p *Project) Compute(ctx context.Context, kind domain.RecipeKind, path string) (domain.Artifact, error) {
	if p.closed.Load() {
		return domain.Artifact{}, domain.Tag(domain.ErrProjectClosed, "root", p.root)
	}

	id, ok := p.graph.Lookup(path)
	if !ok {
		return domain.Artifact{}, domain.Tag(domain.ErrUnknownFile, "path", path)
	}

	deps, err := p.graph.TransitiveDeps(id)
	if err != nil {
		return domain.Artifact{}, err
	}

	inputs := append([]domain.FileID{id}, deps...)
	return p.engine.Compute(ctx, domain.CacheKey{Kind: kind, Target: id}, inputs)
}

// Recompute drains the pending invalidation queue and runs the scheduler over
// it, then sweeps aged cache entries. It returns when the batch settles.
func (p *Project) Recompute(ctx context.Context) error {
	if p.closed.Load() {
		return domain.Tag(domain.ErrProjectClosed, "root", p.root)
	}

	p.pendingMu.Lock()
	specs := make([]memo.RecomputeSpec, 0, len(p.pending))
	for _, spec := range p.pending {
		specs = append(specs, spec)
	}
	p.pending = make(map[domain.CacheKey]memo.RecomputeSpec)
	p.pendingMu.Unlock()

	err := p.sched.Run(ctx, specs)
	p.engine.Sweep()
	return err
}

// PendingTasks returns the number of queued recompute specs.
func (p *Project) PendingTasks() int {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	return len(p.pending)
}

func (p *Project) queue(specs []memo.RecomputeSpec) {
	if len(specs) == 0 {
		return
	}
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	for _, spec := range specs {
		p.pending[spec.Key] = spec
	}
}

// syncEdges reconciles the graph's edges for id against the references found
// in content. A reference that would close a cycle is rejected edge-by-edge;
// the rest of the file's edges stay intact.
func (p *Project) syncEdges(path string, id domain.FileID, content []byte) {
	refs, diags := p.scanner.ScanDependencies(path, content)
	for _, d := range diags {
		p.logger.Warn(d.Message, "path", d.Path, "line", d.Range.Start.Line)
	}

	wanted := make(map[domain.FileID]domain.EdgeKind, len(refs))
	for _, ref := range refs {
		target, ok := p.graph.Lookup(ref.Path)
		if !ok {
			var err error
			target, err = p.registerFromDisk(ref.Path)
			if err != nil {
				p.logger.Warn("unresolved reference", "from", path, "to", ref.Path)
				continue
			}
		}
		wanted[target] = ref.Kind
	}

	for _, dep := range p.graph.DirectDeps(id) {
		if _, ok := wanted[dep]; !ok {
			_ = p.graph.RemoveEdge(id, dep)
		}
	}
	for target, kind := range wanted {
		if err := p.graph.AddEdge(id, target, kind); err != nil {
			p.logger.Warn("rejected dependency edge", "from", path, "error", err.Error())
		}
	}
}

// registerFromDisk lazily tracks a referenced file the first time something
// points at it. Its own references are scanned in turn.
func (p *Project) registerFromDisk(path string) (domain.FileID, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.InvalidFileID, domain.TagWrap(domain.ErrSourceReadFailed, err)
	}
	id, err := p.graph.Register(path, content)
	if err != nil {
		return domain.InvalidFileID, err
	}
	p.syncEdges(path, id, content)
	return id, nil
}

// Contains reports whether path lives under the project root or one of its
// configured source roots.
func (p *Project) Contains(path string) bool {
	return p.matchLen(path) >= 0
}

// matchLen returns the length of the longest project root containing path,
// or -1 when no root contains it. The registry routes a path to the project
// with the longest match.
func (p *Project) matchLen(path string) int {
	best := -1
	if within(p.root, path) {
		best = len(p.root)
	}
	for _, r := range p.cfg.Roots {
		if len(r) > best && within(r, path) {
			best = len(r)
		}
	}
	return best
}

// WatchRoots returns the directories the watcher must cover: the project
// root plus every configured source root outside it.
func (p *Project) WatchRoots() []string {
	roots := []string{p.root}
	for _, r := range p.cfg.Roots {
		if !within(p.root, r) {
			roots = append(roots, r)
		}
	}
	return roots
}

// close releases the project's caches. The registry removes it from routing
// before calling this.
func (p *Project) close() {
	if p.closed.Swap(true) {
		return
	}
	p.engine.Purge()

	p.pendingMu.Lock()
	p.pending = make(map[domain.CacheKey]memo.RecomputeSpec)
	p.pendingMu.Unlock()
}
