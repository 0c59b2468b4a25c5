package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxUploadSizeMB = 256
	DefaultCleanupInterval = 5 * time.Minute

	// Processing defaults
	DefaultTaskTimeout        = 120 * time.Second
	DefaultSessionTTL         = 60 * time.Minute
	DefaultMediaWorkers       = 4
	DefaultInitialDecodeLines = 2000
	DefaultExtendDecodeLines  = 2000

	// Viewer defaults
	DefaultInitialWindow      = 50
	DefaultWindowStep         = 50
	DefaultMediaOmittedMarker = "<Media omitted>"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
