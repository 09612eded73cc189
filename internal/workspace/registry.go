package workspace

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"

	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/engine/memo"
)

// Registry tracks the open projects and routes paths to the one that owns
// them. Roots never overlap, so routing picks the unique root that prefixes
// the path.
type Registry struct {
	recipes    *memo.Registry
	newScanner ports.ScannerFactory
	logger     ports.Logger
	tracer     ports.Tracer

	mu       sync.RWMutex
	projects map[string]*Project
}

// NewRegistry returns an empty registry. Every project it opens shares the
// recipe registry; each project gets its own scanner resolving against that
// project's source roots.
func NewRegistry(
	recipes *memo.Registry,
	newScanner ports.ScannerFactory,
	logger ports.Logger,
	tracer ports.Tracer,
) *Registry {
	return &Registry{
		recipes:    recipes,
		newScanner: newScanner,
		logger:     logger,
		tracer:     tracer,
		projects:   make(map[string]*Project),
	}
}

// Open creates a project rooted at root. A root that nests inside, contains,
// or equals an already-open root is rejected.
func (r *Registry) Open(root string, cfg domain.ProjectConfig) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, domain.TagWrap(domain.ErrPathNotInWorkspace, err, "root", root)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for existing := range r.projects {
		if within(existing, abs) || within(abs, existing) {
			return nil, domain.Tag(domain.ErrProjectOverlap, "root", abs, "existing", existing)
		}
	}

	p, err := newProject(abs, cfg, r.recipes, r.newScanner, r.logger, r.tracer)
	if err != nil {
		return nil, err
	}
	r.projects[abs] = p
	r.logger.Info("opened project", "root", abs, "name", p.cfg.Name)
	return p, nil
}

// Close removes the project rooted at root and releases its caches. Closing
// an unknown root is a no-op.
func (r *Registry) Close(root string) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return
	}

	r.mu.Lock()
	p, ok := r.projects[abs]
	delete(r.projects, abs)
	r.mu.Unlock()

	if ok {
		p.close()
		r.logger.Info("closed project", "root", abs)
	}
}

// CloseAll closes every open project.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	projects := r.projects
	r.projects = make(map[string]*Project)
	r.mu.Unlock()

	for _, p := range projects {
		p.close()
	}
}

// Route returns the project owning path: the one whose project root or
// configured source root is the longest prefix containing it.
func (r *Registry) Route(path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, domain.TagWrap(domain.ErrPathNotInWorkspace, err, "path", path)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Project
	bestLen := -1
	for _, p := range r.projects {
		if n := p.matchLen(abs); n > bestLen {
			bestLen, best = n, p
		}
	}
	if best == nil {
		return nil, domain.Tag(domain.ErrPathNotInWorkspace, "path", abs)
	}
	return best, nil
}

// Projects returns the open projects ordered by root.
func (r *Registry) Projects() []*Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].root < out[j].root })
	return out
}

// ApplyFileEvent implements ports.EventSink.
func (r *Registry) ApplyFileEvent(_ context.Context, event domain.FileSystemEvent) error {
	p, err := r.Route(event.Path)
	if err != nil {
		return err
	}
	return p.ApplyFileEvent(event)
}

// RecomputeAll implements ports.EventSink. Projects with an empty queue are
// skipped.
func (r *Registry) RecomputeAll(ctx context.Context) error {
	var errs []error
	for _, p := range r.Projects() {
		if p.PendingTasks() == 0 {
			continue
		}
		if err := p.Recompute(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// within reports whether path is root itself or lives under it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}
