package shared

import "context"

// Component defines the interface every long-lived server component
// implements so the server can shut them down uniformly.
type Component interface {
	// GetType returns the component type identifier
	GetType() string

	// Shutdown gracefully shuts down the component
	Shutdown(ctx context.Context) error
}
