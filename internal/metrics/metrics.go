package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shareplay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shareplay_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shareplay_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Share client metrics
var (
	ShareRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_share_requests_total",
			Help: "Total number of requests to the remote file share",
		},
		[]string{"operation", "status"}, // operation: "listing", "image"
	)

	ShareRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shareplay_share_request_duration_seconds",
			Help:    "Remote share request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	ShareRequestRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_share_request_retries_total",
			Help: "Total number of retried share requests",
		},
		[]string{"operation"},
	)

	ListingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_listing_cache_hits_total",
			Help: "Total number of listing cache hits",
		},
	)

	ListingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_listing_cache_misses_total",
			Help: "Total number of listing cache misses",
		},
	)
)

// Listing parser metrics
var (
	ListingEntriesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_listing_entries_parsed_total",
			Help: "Total number of entries extracted from listing pages",
		},
		[]string{"kind"}, // "audio", "image", "folder", "other"
	)

	ListingParseFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_listing_parse_fallbacks_total",
			Help: "Total number of listing pages that required the fallback scan",
		},
	)

	ListingParseEmpty = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_listing_parse_empty_total",
			Help: "Total number of listing pages that yielded no entries",
		},
	)
)

// Resolver metrics
var (
	ResolvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_resolves_total",
			Help: "Total number of share folder resolutions",
		},
		[]string{"status"},
	)

	ResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shareplay_resolve_duration_seconds",
			Help:    "Share folder resolution duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Duration probe metrics
var (
	ProbeRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_probe_runs_total",
			Help: "Total number of duration probe runs",
		},
	)

	ProbeLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_probe_last_run_timestamp",
			Help: "Timestamp of the last duration probe run",
		},
	)

	ProbeLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_probe_last_run_duration_seconds",
			Help: "Duration of the last probe run in seconds",
		},
	)

	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_probes_total",
			Help: "Total number of individual track probes",
		},
		[]string{"status"}, // "success", "timeout", "error", "skipped"
	)

	ProbeBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_probe_batches_total",
			Help: "Total number of probe batches completed",
		},
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shareplay_probe_duration_seconds",
			Help:    "Individual track probe duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ProbeRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_probe_running",
			Help: "Whether a duration probe run is in progress (1 = running, 0 = idle)",
		},
	)
)

// Source cache metrics
var (
	SourceCacheMaterializations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_source_cache_materializations_total",
			Help: "Total number of playable source materializations",
		},
		[]string{"status"},
	)

	SourceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_source_cache_hits_total",
			Help: "Total number of source cache hits",
		},
	)

	SourceCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_source_cache_misses_total",
			Help: "Total number of source cache misses",
		},
	)

	SourceCacheReleases = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_source_cache_releases_total",
			Help: "Total number of source cache releases",
		},
	)

	SourceCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_source_cache_size_bytes",
			Help: "Total size of materialized playable sources in bytes",
		},
	)

	SourceCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_source_cache_count",
			Help: "Number of materialized playable sources",
		},
	)
)

// Artwork metrics
var (
	ArtworkGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_artwork_generations_total",
			Help: "Total number of artwork cache generations",
		},
		[]string{"decoder", "status"}, // decoder: "vips", "imaging", "placeholder"
	)

	ArtworkGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shareplay_artwork_generation_duration_seconds",
			Help:    "Artwork generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"decoder"},
	)

	ArtworkCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_artwork_cache_hits_total",
			Help: "Total number of artwork cache hits",
		},
	)

	ArtworkCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_artwork_cache_misses_total",
			Help: "Total number of artwork cache misses",
		},
	)

	ArtworkCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_artwork_cache_size_bytes",
			Help: "Total size of the artwork cache in bytes",
		},
	)

	ArtworkCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_artwork_cache_count",
			Help: "Number of artwork files in the cache",
		},
	)
)

// Player metrics
var (
	PlaylistsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_playlists_created_total",
			Help: "Total number of playlists created",
		},
		[]string{"source", "status"}, // source: "share", "local"
	)

	PlaylistTracks = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shareplay_playlist_tracks",
			Help:    "Number of tracks in created playlists",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"source"},
	)

	PlayerSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_player_sessions_active",
			Help: "Number of active playback sessions",
		},
	)

	PlayerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_player_events_total",
			Help: "Total number of playback events",
		},
		[]string{"event"}, // "next", "prev", "select", "shuffle", "repeat", "ended", "volume"
	)
)

// Library metrics
var (
	LibraryTracksTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_library_tracks_total",
			Help: "Number of audio tracks in the local library",
		},
	)

	DurationsCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_durations_cached",
			Help: "Number of track durations in the persistent cache",
		},
	)
)

// Memory pressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_memory_usage_ratio",
			Help: "Memory usage as a ratio of the configured limit (0.0-1.0)",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_memory_paused",
			Help: "Whether background processing is paused due to memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shareplay_memory_gc_pauses_total",
			Help: "Total number of times processing was paused for memory pressure",
		},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shareplay_active_sessions",
			Help: "Number of active authenticated sessions",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareplay_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shareplay_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shareplay_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
