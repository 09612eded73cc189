// Package ports defines the core interfaces for the application.
package ports

import "io"

// Logger defines the logging interface used across the core.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	// Info logs an informational message with optional key/value attributes.
	Info(msg string, args ...any)
	// Warn logs a warning message with optional key/value attributes.
	Warn(msg string, args ...any)
	// Error logs an error, unwrapping cause chains where possible.
	Error(err error)
	// SetOutput redirects log output; nil restores the default destination.
	SetOutput(w io.Writer)
	// SetJSON switches between JSON and pretty output.
	SetJSON(enable bool)
}
