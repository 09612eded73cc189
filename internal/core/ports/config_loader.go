package ports

import "go.vellum.sh/vellum/internal/core/domain"

// ConfigLoader defines the interface for loading project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration for the project rooted at root.
	Load(root string) (domain.ProjectConfig, error)

	// DiscoverRoot walks up from cwd to find the nearest directory containing
	// a vellum.yaml. It returns domain.ErrConfigNotFound when none exists.
	DiscoverRoot(cwd string) (string, error)
}
