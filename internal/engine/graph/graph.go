// Package graph implements the source graph: tracked files, content revisions
// and import/include dependency edges for one project.
package graph

import (
	"iter"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.vellum.sh/vellum/internal/core/domain"
)

// Graph is an arena of file nodes addressed by domain.FileID with adjacency
// lists in both directions. All methods are safe for concurrent use; reads
// take a read lock, mutations take the exclusive lock. The graph is the only
// holder of file content and revision state for a project.
type Graph struct {
	mu     sync.RWMutex
	nodes  []*node
	byPath map[domain.InternedPath]domain.FileID
	clock  domain.Revision
}

type node struct {
	id          domain.FileID
	path        domain.InternedPath
	content     []byte
	fingerprint uint64
	revision    domain.Revision

	// deps are outgoing edges: files this node depends on.
	deps []edge
	// dependents are reverse edges: files depending on this node.
	dependents []domain.FileID

	deleted bool
	// hasArtifact tracks whether the compute engine holds a cached artifact
	// for this file. Invalidation traversal does not descend past a node
	// without one (lazy propagation).
	hasArtifact bool
	stale       bool
}

type edge struct {
	to   domain.FileID
	kind domain.EdgeKind
}

// New creates an empty source graph.
func New() *Graph {
	return &Graph{
		byPath: make(map[domain.InternedPath]domain.FileID),
	}
}

// Register adds a file to the graph at revision 0 and returns its id.
// Registering a path that is already tracked returns domain.ErrDuplicateFile.
func (g *Graph) Register(path string, content []byte) (domain.FileID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := domain.NewInternedPath(path)
	if id, ok := g.byPath[p]; ok && !g.nodes[id].deleted {
		return domain.InvalidFileID, domain.Tag(domain.ErrDuplicateFile, "path", p.String())
	}

	id := domain.FileID(len(g.nodes))
	g.nodes = append(g.nodes, &node{
		id:          id,
		path:        p,
		content:     content,
		fingerprint: xxhash.Sum64(content),
	})
	g.byPath[p] = id
	return id, nil
}

// Update replaces a file's content under a new revision and marks every
// transitively dependent file stale. Traversal stops below files without a
// cached artifact: there is nothing to invalidate downstream of them. The
// returned set contains the updated file and every file marked stale.
func (g *Graph) Update(path string, content []byte) ([]domain.FileID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, err := g.lookupLive(path)
	if err != nil {
		return nil, err
	}

	g.clock++
	n.revision = g.clock
	n.content = content
	n.fingerprint = xxhash.Sum64(content)
	n.stale = true

	return g.invalidateFrom(n), nil
}

// Remove deletes a file from the graph. The node's id is retired, its revision
// is bumped one final time so cache entries recorded against it can never
// validate again, and its dependents are marked stale like on an update.
func (g *Graph) Remove(path string) ([]domain.FileID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, err := g.lookupLive(path)
	if err != nil {
		return nil, err
	}

	g.clock++
	n.revision = g.clock
	n.content = nil
	n.fingerprint = 0
	n.deleted = true
	n.stale = true
	delete(g.byPath, n.path)

	stale := g.invalidateFrom(n)

	// Drop edges touching the node so traversals never revisit it.
	for _, e := range n.deps {
		g.nodes[e.to].removeDependent(n.id)
	}
	n.deps = nil
	for _, dep := range n.dependents {
		g.nodes[dep].removeDep(n.id)
	}
	n.dependents = nil

	return stale, nil
}

// invalidateFrom marks origin and its transitive dependents stale, stopping
// below nodes with no cached artifact. Caller holds the write lock.
func (g *Graph) invalidateFrom(origin *node) []domain.FileID {
	marked := []domain.FileID{origin.id}
	seen := map[domain.FileID]bool{origin.id: true}
	queue := []domain.FileID{origin.id}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, dep := range g.nodes[cur].dependents {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			d := g.nodes[dep]
			d.stale = true
			marked = append(marked, dep)
			if d.hasArtifact {
				queue = append(queue, dep)
			}
		}
	}

	return marked
}

// AddEdge records that from depends on to. Adding an edge that would close a
// cycle returns domain.ErrCycleDetected and leaves the graph unchanged.
func (g *Graph) AddEdge(from, to domain.FileID, kind domain.EdgeKind) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkLive(from); err != nil {
		return err
	}
	if err := g.checkLive(to); err != nil {
		return err
	}

	for _, e := range g.nodes[from].deps {
		if e.to == to && e.kind == kind {
			return nil // already recorded
		}
	}

	if from == to || g.reaches(to, from) {
		return domain.Tag(domain.ErrCycleDetected, "cycle", g.cyclePath(to, from))
	}

	g.nodes[from].deps = append(g.nodes[from].deps, edge{to: to, kind: kind})
	g.nodes[to].dependents = append(g.nodes[to].dependents, from)
	return nil
}

// RemoveEdge removes the dependency of from on to, regardless of kind.
func (g *Graph) RemoveEdge(from, to domain.FileID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkLive(from); err != nil {
		return err
	}
	if err := g.checkLive(to); err != nil {
		return err
	}

	g.nodes[from].removeDep(to)
	g.nodes[to].removeDependent(from)
	return nil
}

// reaches reports whether start transitively depends on target.
// Caller holds at least the read lock.
func (g *Graph) reaches(start, target domain.FileID) bool {
	if start == target {
		return true
	}
	seen := map[domain.FileID]bool{start: true}
	stack := []domain.FileID{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.nodes[cur].deps {
			if e.to == target {
				return true
			}
			if !seen[e.to] {
				seen[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	return false
}

// cyclePath renders the dependency chain from start to target for a cycle error.
func (g *Graph) cyclePath(start, target domain.FileID) string {
	parent := map[domain.FileID]domain.FileID{}
	seen := map[domain.FileID]bool{start: true}
	queue := []domain.FileID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			break
		}
		for _, e := range g.nodes[cur].deps {
			if !seen[e.to] {
				seen[e.to] = true
				parent[e.to] = cur
				queue = append(queue, e.to)
			}
		}
	}

	// Walk back from target to start, then print forward with the closing edge.
	var chain []domain.FileID
	for cur := target; ; cur = parent[cur] {
		chain = append(chain, cur)
		if cur == start {
			break
		}
		if _, ok := parent[cur]; !ok {
			break
		}
	}

	path := ""
	for i := len(chain) - 1; i >= 0; i-- {
		path += g.nodes[chain[i]].path.String() + " -> "
	}
	return path + g.nodes[start].path.String()
}

// Lookup resolves a path to its file id.
func (g *Graph) Lookup(path string) (domain.FileID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.byPath[domain.NewInternedPath(path)]
	return id, ok
}

// Revision returns the current revision of a file.
func (g *Graph) Revision(id domain.FileID) (domain.Revision, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkLive(id); err != nil {
		return 0, err
	}
	return g.nodes[id].revision, nil
}

// File returns a snapshot of the file at its current revision. Content slices
// are replaced wholesale on update and never mutated in place, so the snapshot
// stays stable after the lock is released.
func (g *Graph) File(id domain.FileID) (domain.SourceFile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.fileLocked(id)
}

// Snapshot returns snapshots and revisions for the given ids, in order.
func (g *Graph) Snapshot(ids []domain.FileID) ([]domain.SourceFile, []domain.Revision, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	files := make([]domain.SourceFile, len(ids))
	revs := make([]domain.Revision, len(ids))
	for i, id := range ids {
		f, err := g.fileLocked(id)
		if err != nil {
			return nil, nil, err
		}
		files[i] = f
		revs[i] = f.Revision
	}
	return files, revs, nil
}

func (g *Graph) fileLocked(id domain.FileID) (domain.SourceFile, error) {
	if err := g.checkLive(id); err != nil {
		return domain.SourceFile{}, err
	}
	n := g.nodes[id]
	return domain.SourceFile{
		ID:          n.id,
		Path:        n.path,
		Content:     n.content,
		Revision:    n.revision,
		Fingerprint: n.fingerprint,
	}, nil
}

// DirectDeps returns the files id directly depends on.
func (g *Graph) DirectDeps(id domain.FileID) []domain.FileID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.live(id) {
		return nil
	}
	out := make([]domain.FileID, 0, len(g.nodes[id].deps))
	for _, e := range g.nodes[id].deps {
		out = append(out, e.to)
	}
	return out
}

// Dependents returns the files directly depending on id.
func (g *Graph) Dependents(id domain.FileID) []domain.FileID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.live(id) {
		return nil
	}
	out := make([]domain.FileID, len(g.nodes[id].dependents))
	copy(out, g.nodes[id].dependents)
	return out
}

// TransitiveDeps returns every file id transitively depends on, in BFS order,
// excluding id itself.
func (g *Graph) TransitiveDeps(id domain.FileID) ([]domain.FileID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.checkLive(id); err != nil {
		return nil, err
	}

	var out []domain.FileID
	seen := map[domain.FileID]bool{id: true}
	queue := []domain.FileID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.nodes[cur].deps {
			if !seen[e.to] {
				seen[e.to] = true
				out = append(out, e.to)
				queue = append(queue, e.to)
			}
		}
	}
	return out, nil
}

// SetArtifact records whether the compute engine holds a cached artifact for
// the file. Caching an artifact also clears the stale mark.
func (g *Graph) SetArtifact(id domain.FileID, present bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.live(id) {
		return
	}
	g.nodes[id].hasArtifact = present
	if present {
		g.nodes[id].stale = false
	}
}

// Stale reports whether the file is marked stale.
func (g *Graph) Stale(id domain.FileID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.live(id) && g.nodes[id].stale
}

// Clock returns the project's current revision clock.
func (g *Graph) Clock() domain.Revision {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.clock
}

// Len returns the number of live files.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.byPath)
}

// Walk returns an iterator over snapshots of all live files in arena order.
func (g *Graph) Walk() iter.Seq[domain.SourceFile] {
	return func(yield func(domain.SourceFile) bool) {
		g.mu.RLock()
		snapshot := make([]domain.SourceFile, 0, len(g.byPath))
		for _, n := range g.nodes {
			if n.deleted {
				continue
			}
			snapshot = append(snapshot, domain.SourceFile{
				ID:          n.id,
				Path:        n.path,
				Content:     n.content,
				Revision:    n.revision,
				Fingerprint: n.fingerprint,
			})
		}
		g.mu.RUnlock()

		for _, f := range snapshot {
			if !yield(f) {
				return
			}
		}
	}
}

func (g *Graph) lookupLive(path string) (*node, error) {
	id, ok := g.byPath[domain.NewInternedPath(path)]
	if !ok {
		return nil, domain.Tag(domain.ErrUnknownFile, "path", path)
	}
	return g.nodes[id], nil
}

func (g *Graph) live(id domain.FileID) bool {
	return id >= 0 && int(id) < len(g.nodes) && !g.nodes[id].deleted
}

func (g *Graph) checkLive(id domain.FileID) error {
	if id < 0 || int(id) >= len(g.nodes) {
		return domain.Tag(domain.ErrUnknownFile, "id", int(id))
	}
	if g.nodes[id].deleted {
		return domain.Tag(domain.ErrFileDeleted, "path", g.nodes[id].path.String())
	}
	return nil
}

// removeDep drops every edge to the given target: a pair may be connected by
// more than one edge kind.
func (n *node) removeDep(to domain.FileID) {
	n.deps = slices.DeleteFunc(n.deps, func(e edge) bool { return e.to == to })
}

func (n *node) removeDependent(from domain.FileID) {
	n.dependents = slices.DeleteFunc(n.dependents, func(d domain.FileID) bool { return d == from })
}
