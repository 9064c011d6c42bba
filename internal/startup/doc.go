// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - PORT: HTTP server port (default: 8080)
//   - DATA_DIR: Path to the data directory for the database and caches (default: /data)
//   - MEDIA_DIR: Path to an optional local media directory (default: unset, local playlists disabled)
//   - SHARE_BASE_URL: Origin of the remote share service (default: https://cloud.example.com)
//   - TRACKS_SUBFOLDER: Subfolder tracks must be read from; empty means the folder root
//   - ARTIST_SUBFOLDER: Subfolder scanned for artist images (default: artist)
//   - LISTING_CACHE_TTL: Lifetime of cached folder listings as Go duration (default: 60s)
//   - STREAM_API_BASE / STREAM_API_KEY: Privileged stream API; unset streams through the local proxy
//   - PROBE_ENABLED: Enable background duration probing (default: true)
//   - PROBE_BATCH_SIZE: Tracks probed concurrently per batch (default: 3)
//   - PROBE_BATCH_DELAY: Pause between probe batches as Go duration (default: 100ms)
//   - PROBE_TIMEOUT: Hard per-probe timeout as Go duration (default: 10s)
//   - QUEUE_RECENT_WINDOW: Recently played tracks a shuffle regeneration avoids (default: 3)
//   - SESSION_TTL: Idle playlist session lifetime as Go duration (default: 4h)
//   - IMAGE_FETCH_TIMEOUT: Artist image subfolder fetch timeout as Go duration (default: 5s)
//   - ARTWORK_ENABLED: Enable the on-disk artist image cache (default: true)
//   - VIPS_ENABLED: Prefer libvips for image processing (default: true)
//   - METRICS_ENABLED: Expose the Prometheus /metrics endpoint (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_LIMIT: Container memory limit for automatic GOMEMLIMIT configuration
//   - MEMORY_RATIO: Percentage of MEMORY_LIMIT for Go heap (default: 0.85)
//   - GOMEMLIMIT: Direct override for Go's memory limit
//
// # Directory Setup
//
// The package validates and creates required directories:
//   - Data directory: Required, must be writable (holds the SQLite database,
//     the artwork cache, and materialized local sources)
//   - Artwork directory: Optional, artwork caching is disabled if not writable
//   - Media directory: Checked but not created (should be mounted)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogDatabaseInit]: Database initialization timing
//   - [LogProbeInit]: Duration prober setup and ffprobe availability
//   - [LogArtworkInit]: Artwork cache configuration and libvips availability
//   - [LogLibraryInit]: Local library configuration
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	// Initialize components...
//	startup.LogDatabaseInit(dbInitDuration)
//	startup.LogProbeInit(config.ProbeEnabled)
//
//	// Start server...
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
//
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	// ... cleanup ...
//	startup.LogShutdownComplete()
package startup
