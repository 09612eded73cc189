// Package main is the entry point for the vellum incremental compiler.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.vellum.sh/vellum/cmd/vellum/commands"
	"go.vellum.sh/vellum/internal/adapters/detector"
	"go.vellum.sh/vellum/internal/adapters/telemetry"
	"go.vellum.sh/vellum/internal/app"
	_ "go.vellum.sh/vellum/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stderr io.Writer,
	provider ComponentProvider,
	opts ...func(*app.App),
) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, _, err := provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		// Write directly to stderr passed in
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}

	// Apply options
	for _, opt := range opts {
		opt(components.App)
	}

	// Pick the log format: VELLUM_LOG_FORMAT overrides TTY/CI detection.
	format := detector.ResolveFormat(detector.DetectEnvironment(), os.Getenv("VELLUM_LOG_FORMAT"))
	components.Logger.SetJSON(format == detector.FormatJSON)

	// Install the tracer provider. VELLUM_TRACE feeds span completions to the
	// logger; without it spans are recorded but not exported.
	shutdownTracing := telemetry.Init(components.Logger, os.Getenv("VELLUM_TRACE") != "")
	defer func() { _ = shutdownTracing(context.WithoutCancel(ctx)) }()

	// 2. Interface - CLI
	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		return 1
	}
	return 0
}
