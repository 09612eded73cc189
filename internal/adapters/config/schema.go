package config

// ProjectFile represents the structure of the vellum.yaml configuration file.
type ProjectFile struct {
	Version        string    `yaml:"version"`
	Project        string    `yaml:"project"`
	Entry          string    `yaml:"entry"`
	Roots          []string  `yaml:"roots"`
	Fonts          []string  `yaml:"fonts"`
	Workers        int       `yaml:"workers"`
	DebounceWindow string    `yaml:"debounceWindow"`
	Cache          *CacheDTO `yaml:"cache"`
}

// CacheDTO represents the artifact cache section of the configuration.
type CacheDTO struct {
	MaxEntries     int    `yaml:"maxEntries"`
	MaxRevisionAge uint64 `yaml:"maxRevisionAge"`
}
