// Package config provides the configuration loader for vellum.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
)

var _ ports.ConfigLoader = (*Loader)(nil)

var validProjectNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// supportedVersions are the config schema versions this build understands.
var supportedVersions = []string{"", "1"}

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	fs     FileSystem
	logger ports.Logger
}

// NewLoader creates a new Loader reading from the OS filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{fs: NewOSFS(), logger: logger}
}

// NewLoaderWithFS creates a Loader on an arbitrary filesystem.
func NewLoaderWithFS(fsys FileSystem, logger ports.Logger) *Loader {
	return &Loader{fs: fsys, logger: logger}
}

// DiscoverRoot walks up from cwd until it finds a directory containing
// vellum.yaml and returns that directory.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	currentDir := filepath.Clean(cwd)

	for {
		configPath := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := l.fs.Stat(configPath); err == nil {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", domain.Tag(domain.ErrConfigNotFound, "cwd", cwd)
}

// Load reads root/vellum.yaml and returns the validated project configuration
// with defaults applied.
func (l *Loader) Load(root string) (domain.ProjectConfig, error) {
	configPath := filepath.Join(root, domain.ConfigFileName)

	raw, err := l.fs.ReadFile(configPath)
	if err != nil {
		return domain.ProjectConfig{}, domain.TagWrap(domain.ErrConfigReadFailed, err, "path", configPath)
	}

	var file ProjectFile
	if parseErr := yaml.Unmarshal(raw, &file); parseErr != nil {
		return domain.ProjectConfig{}, domain.TagWrap(domain.ErrConfigParseFailed, parseErr, "path", configPath)
	}

	cfg, err := l.buildConfig(root, &file)
	if err != nil {
		return domain.ProjectConfig{}, zerr.With(err, "path", configPath)
	}
	return cfg, nil
}

func (l *Loader) buildConfig(root string, file *ProjectFile) (domain.ProjectConfig, error) {
	if !slices.Contains(supportedVersions, file.Version) {
		return domain.ProjectConfig{}, domain.Tag(domain.ErrInvalidConfig, "version", file.Version)
	}

	if file.Project == "" || !validProjectNameRegex.MatchString(file.Project) {
		return domain.ProjectConfig{}, domain.Tag(domain.ErrInvalidConfig,
			"project_name", file.Project, "reason", "project name must match [a-zA-Z0-9_-]+")
	}

	if file.Entry == "" {
		return domain.ProjectConfig{}, domain.Tag(domain.ErrNoEntryPoint, "project", file.Project)
	}

	if file.Workers < 0 {
		return domain.ProjectConfig{}, domain.Tag(domain.ErrInvalidConfig, "workers", file.Workers)
	}

	var window time.Duration
	if file.DebounceWindow != "" {
		var err error
		window, err = time.ParseDuration(file.DebounceWindow)
		if err != nil || window < 0 {
			return domain.ProjectConfig{}, domain.Tag(domain.ErrInvalidConfig, "debounceWindow", file.DebounceWindow)
		}
	}

	cfg := domain.ProjectConfig{
		Name:           file.Project,
		Entry:          resolvePath(root, file.Entry),
		Roots:          l.resolveRoots(root, file.Roots),
		FontDirs:       l.resolveFontDirs(root, file.Fonts),
		Workers:        file.Workers,
		DebounceWindow: window,
	}
	if file.Cache != nil {
		cfg.Cache = domain.CacheConfig{
			MaxEntries:     file.Cache.MaxEntries,
			MaxRevisionAge: domain.Revision(file.Cache.MaxRevisionAge),
		}
	}
	return cfg.WithDefaults(), nil
}

// resolveRoots makes the configured source roots absolute. Missing
// directories are kept but flagged: they may be created later.
func (l *Loader) resolveRoots(root string, roots []string) []string {
	if len(roots) == 0 {
		return []string{root}
	}

	resolved := make([]string, 0, len(roots))
	for _, r := range roots {
		abs := resolvePath(root, r)
		if ok, err := l.fs.IsDir(abs); err != nil || !ok {
			l.logger.Warn(fmt.Sprintf("source root %s does not exist yet", r))
		}
		resolved = append(resolved, abs)
	}
	return resolved
}

// resolveFontDirs expands font directory globs against the project root.
func (l *Loader) resolveFontDirs(root string, patterns []string) []string {
	var dirs []string
	for _, pattern := range patterns {
		matches, err := l.fs.Glob(resolvePath(root, pattern))
		if err != nil || len(matches) == 0 {
			l.logger.Warn(fmt.Sprintf("font pattern %s matched nothing", pattern))
			continue
		}
		for _, match := range matches {
			if ok, _ := l.fs.IsDir(match); ok {
				dirs = append(dirs, match)
			}
		}
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(root, p))
}
