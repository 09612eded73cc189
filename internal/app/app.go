// Package app implements the application layer for vellum.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.vellum.sh/vellum/internal/adapters/typeset"
	"go.vellum.sh/vellum/internal/adapters/watcher"
	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/workspace"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	registry     *workspace.Registry
	bridge       *watcher.Bridge
	logger       ports.Logger
	stdout       io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	registry *workspace.Registry,
	bridge *watcher.Bridge,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		registry:     registry,
		bridge:       bridge,
		logger:       log,
		stdout:       os.Stdout,
	}
}

// WithOutput redirects result output. This is primarily used for testing.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// CompileOptions configuration for the Compile method.
type CompileOptions struct {
	Kind string
}

// Compile opens the project containing dir, computes the entry artifact once
// and prints it.
func (a *App) Compile(ctx context.Context, dir string, opts CompileOptions) error {
	project, err := a.openProject(dir)
	if err != nil {
		return err
	}
	defer a.registry.Close(project.Root())

	artifact, err := a.computeEntry(ctx, project, opts.Kind)
	if err != nil {
		return err
	}

	a.printArtifact(project.Config().Entry, artifact)
	if artifact.HasErrors() {
		return domain.Tag(domain.ErrRecipeFailed, "entry", project.Config().Entry)
	}
	return nil
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	Kind string
}

// Watch opens the project containing dir, computes the entry artifact, then
// keeps recompiling on filesystem changes until ctx is cancelled.
func (a *App) Watch(ctx context.Context, dir string, opts WatchOptions) error {
	project, err := a.openProject(dir)
	if err != nil {
		return err
	}
	defer a.registry.Close(project.Root())

	if artifact, err := a.computeEntry(ctx, project, opts.Kind); err != nil {
		// A failing entry still enters watch mode: the next edit may fix it.
		a.logger.Error(err)
	} else {
		a.printArtifact(project.Config().Entry, artifact)
	}

	err = a.bridge.Watch(ctx, project.WatchRoots()...)
	if ctx.Err() != nil {
		// Cancelled by signal: a clean shutdown, not a failure.
		return nil
	}
	return err
}

// openProject discovers the project root for dir, loads its configuration and
// registers the entry document.
func (a *App) openProject(dir string) (*workspace.Project, error) {
	root, err := a.configLoader.DiscoverRoot(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := a.configLoader.Load(root)
	if err != nil {
		return nil, err
	}

	project, err := a.registry.Open(root, cfg)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(cfg.Entry)
	if err != nil {
		a.registry.Close(root)
		return nil, domain.TagWrap(domain.ErrSourceReadFailed, err, "path", cfg.Entry)
	}
	if _, err := project.RegisterFile(cfg.Entry, content); err != nil {
		a.registry.Close(root)
		return nil, err
	}

	a.logger.Info("project ready", "name", cfg.Name, "files", project.Graph().Len())
	return project, nil
}

func (a *App) computeEntry(ctx context.Context, project *workspace.Project, kind string) (domain.Artifact, error) {
	recipeKind := typeset.KindFingerprint
	if kind != "" {
		recipeKind = domain.RecipeKind(kind)
	}
	return project.Compute(ctx, recipeKind, project.Config().Entry)
}

func (a *App) printArtifact(entry string, artifact domain.Artifact) {
	for _, d := range artifact.Diagnostics {
		_, _ = fmt.Fprintf(a.stdout, "%s:%d:%d: %s: %s\n",
			d.Path, d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message)
	}
	_, _ = fmt.Fprintf(a.stdout, "%s %s %016x\n", entry, artifact.Kind, artifact.Digest)
}
