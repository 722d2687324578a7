package config

import "time"

// Network constants for the health/metrics endpoint.
const (
	// Selected to avoid common development ports like 8080, 3000, 5000
	HTTPServerPort = 2852

	LocalhostAddress = "127.0.0.1"
)

// Upstream constants
const (
	DefaultUpstreamBaseURL = "https://app.smartsuite.com/api/v1"
)

// Cache constants
const (
	DefaultCachePath = "smartsuite-cache.db"

	// Default record TTL when no per-table configuration exists
	DefaultCacheTTL = 12 * time.Hour

	// Performance counter auto-flush thresholds
	DefaultPerfFlushOps      = 100
	DefaultPerfFlushInterval = 5 * time.Minute

	// Number of tables picked by auto warm selection
	DefaultWarmCount = 5
)

// DefaultConfigFileName is the config file name, resolved against the
// current working directory.
const DefaultConfigFileName = "smartsuite-server.yml"
