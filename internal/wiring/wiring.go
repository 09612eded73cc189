// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.vellum.sh/vellum/internal/adapters/config"
	_ "go.vellum.sh/vellum/internal/adapters/logger"
	_ "go.vellum.sh/vellum/internal/adapters/telemetry"
	_ "go.vellum.sh/vellum/internal/adapters/typeset"
	_ "go.vellum.sh/vellum/internal/adapters/watcher"
	// Register app and workspace nodes.
	_ "go.vellum.sh/vellum/internal/app"
	_ "go.vellum.sh/vellum/internal/workspace"
)
