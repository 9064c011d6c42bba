// Package metrics provides Prometheus instrumentation for the shareplay application.
//
// This package defines and exposes various metrics that can be scraped by Prometheus
// to monitor the health, performance, and behavior of the application. All metrics
// are prefixed with "shareplay_" to avoid naming collisions with other applications.
//
// # Metric Categories
//
// The metrics are organized into the following categories:
//
// ## HTTP Metrics
//
// Track HTTP request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
// Monitor duration store query performance and storage:
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBConnectionsOpen: Gauge of open database connections
//   - DBSizeBytes: Gauge of database file sizes (main, WAL, SHM)
//
// ## Share Client Metrics
//
// Track requests against the remote file share:
//   - ShareRequestsTotal: Counter of share requests by operation and status
//   - ShareRequestDuration: Histogram of share request duration by operation
//   - ShareRequestRetries: Counter of retried share requests
//   - ListingCacheHits / ListingCacheMisses: Listing page cache effectiveness
//
// ## Listing Parser Metrics
//
// Track listing page extraction:
//   - ListingEntriesParsed: Counter of extracted entries by kind
//   - ListingParseFallbacks: Counter of pages that needed the fallback scan
//   - ListingParseEmpty: Counter of pages that yielded no entries
//
// ## Probe Metrics
//
// Monitor background duration probing:
//   - ProbeRunsTotal: Counter of probe runs
//   - ProbeLastRunTimestamp / ProbeLastRunDuration: Last run bookkeeping
//   - ProbesTotal: Counter of individual probes by status
//   - ProbeBatchesTotal: Counter of completed probe batches
//   - ProbeDuration: Histogram of individual probe duration
//   - ProbeRunning: Gauge indicating if a probe run is active
//
// ## Source Cache Metrics
//
// Monitor playable source materialization and reuse:
//   - SourceCacheMaterializations: Counter by status
//   - SourceCacheHits / SourceCacheMisses / SourceCacheReleases
//   - SourceCacheSize / SourceCacheCount
//
// ## Artwork Metrics
//
// Monitor artwork caching:
//   - ArtworkGenerationsTotal: Counter by decoder and status
//   - ArtworkGenerationDuration: Histogram of generation time by decoder
//   - ArtworkCacheHits / ArtworkCacheMisses
//   - ArtworkCacheSize / ArtworkCacheCount
//
// ## Player Metrics
//
// Track playback sessions and queue activity:
//   - PlaylistsCreatedTotal: Counter by source and status
//   - PlaylistTracks: Histogram of playlist sizes by source
//   - PlayerSessionsActive: Gauge of active playback sessions
//   - PlayerEventsTotal: Counter of playback events by type
//
// ## Authentication Metrics
//
// Track access gate activity:
//   - AuthAttemptsTotal: Counter by status (success/failure)
//   - ActiveSessions: Gauge of active authenticated sessions
//
// ## Filesystem Metrics
//
// Track NFS retry behavior, labeled by operation and volume:
//   - FilesystemRetryAttempts / FilesystemRetrySuccess / FilesystemRetryFailures
//   - FilesystemStaleErrors
//   - FilesystemRetryDuration
//
// ## Application Info
//
// Expose build information:
//   - AppInfo: Gauge with version, commit, and Go version labels
//
// # Usage
//
// Metrics are automatically registered with the default Prometheus registry
// using promauto. To expose them, mount the promhttp.Handler() on your
// metrics endpoint:
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// # Recording Metrics
//
// To record metrics from other packages, import this package and use the
// exported metric variables:
//
//	import "shareplay/internal/metrics"
//
//	// Increment a counter
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/playlists", "200").Inc()
//
//	// Observe a histogram value
//	metrics.HTTPRequestDuration.WithLabelValues("GET", "/api/playlists").Observe(0.123)
//
//	// Set a gauge value
//	metrics.DBConnectionsOpen.Set(5)
//
// # Collector
//
// The package provides a [Collector] type that periodically gathers
// statistics from a [StatsProvider] and updates the corresponding gauges:
//
//	collector := metrics.NewCollector(statsProvider, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// The collector automatically updates:
//   - Active playback sessions
//   - Local library track count
//   - Cached duration, source, and artwork counts and sizes
//
// # Prometheus Queries
//
// Example PromQL queries for common use cases:
//
// Request rate by endpoint:
//
//	sum(rate(shareplay_http_requests_total[5m])) by (path)
//
// P95 response time:
//
//	histogram_quantile(0.95, sum(rate(shareplay_http_request_duration_seconds_bucket[5m])) by (le))
//
// Share fetch error rate:
//
//	sum(rate(shareplay_share_requests_total{status="error"}[5m])) /
//	sum(rate(shareplay_share_requests_total[5m]))
//
// Artwork cache hit rate:
//
//	rate(shareplay_artwork_cache_hits_total[5m]) /
//	(rate(shareplay_artwork_cache_hits_total[5m]) + rate(shareplay_artwork_cache_misses_total[5m]))
//
// Probe timeout ratio:
//
//	rate(shareplay_probes_total{status="timeout"}[1h]) /
//	rate(shareplay_probes_total[1h])
package metrics
