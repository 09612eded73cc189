package domain

import "time"

// ProjectConfig is the typed configuration handed to the core when a project
// is opened. The schema and its loader live outside the core; this struct is
// the contract between them.
type ProjectConfig struct {
	// Name is the project's display name.
	Name string
	// Entry is the absolute path of the project's entry point document. The
	// loader resolves config-relative values against the project root.
	Entry string
	// Roots are the absolute source directories references resolve against
	// and the watcher covers. Empty means the project root alone.
	Roots []string
	// FontDirs are directories handed to the external typesetting engine.
	FontDirs []string
	// Workers bounds parallel recompute tasks; zero means one per CPU.
	Workers int
	// DebounceWindow is how long the watcher bridge coalesces filesystem events.
	DebounceWindow time.Duration
	// Cache tunes the artifact cache eviction policy.
	Cache CacheConfig
}

// CacheConfig tunes the compute engine's eviction policy.
type CacheConfig struct {
	// MaxEntries caps the number of cached artifacts per project.
	MaxEntries int
	// MaxRevisionAge evicts entries not accessed within this many revisions.
	MaxRevisionAge Revision
}

const (
	// DefaultMaxEntries is the default artifact cache capacity.
	DefaultMaxEntries = 4096
	// DefaultMaxRevisionAge is the default revision-age eviction horizon.
	DefaultMaxRevisionAge Revision = 64
	// DefaultDebounceWindow is the default watcher coalescing window.
	DefaultDebounceWindow = 50 * time.Millisecond
)

// ConfigFileName is the name of the per-project configuration file.
const ConfigFileName = "vellum.yaml"

// WithDefaults fills zero-valued tunables with their defaults.
func (c ProjectConfig) WithDefaults() ProjectConfig {
	c.Cache = c.Cache.WithDefaults()
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = DefaultDebounceWindow
	}
	return c
}

// WithDefaults fills zero-valued cache tunables with their defaults.
func (c CacheConfig) WithDefaults() CacheConfig {
	if c.MaxEntries <= 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	if c.MaxRevisionAge == 0 {
		c.MaxRevisionAge = DefaultMaxRevisionAge
	}
	return c
}
