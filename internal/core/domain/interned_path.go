package domain

import (
	"path/filepath"
	"unique"
)

// InternedPath is a value object wrapping a unique.Handle[string] for a cleaned
// file path. Paths are repeated heavily across the graph, the cache index and
// diagnostics, so interning keeps comparisons cheap and memory flat.
type InternedPath struct {
	h unique.Handle[string]
}

// NewInternedPath cleans the given path and interns it.
func NewInternedPath(path string) InternedPath {
	return InternedPath{h: unique.Make(filepath.Clean(path))}
}

// String returns the underlying cleaned path.
func (p InternedPath) String() string {
	return p.h.Value()
}

// Handle returns the underlying unique.Handle[string].
func (p InternedPath) Handle() unique.Handle[string] {
	return p.h
}

// IsZero reports whether the path was never set.
func (p InternedPath) IsZero() bool {
	return p == InternedPath{}
}

// MarshalText implements encoding.TextMarshaler.
func (p InternedPath) MarshalText() ([]byte, error) {
	return []byte(p.h.Value()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *InternedPath) UnmarshalText(text []byte) error {
	p.h = unique.Make(filepath.Clean(string(text)))
	return nil
}
