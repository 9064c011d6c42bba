package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"shareplay/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Port    string
	DataDir string

	// Share ingestion
	ShareBaseURL    string
	TracksSubfolder string
	ArtistSubfolder string
	ListingCacheTTL time.Duration

	// Optional privileged stream API; with both unset, remote tracks
	// stream through the local proxy.
	StreamAPIBase string
	StreamAPIKey  string

	// Local library (optional)
	MediaDir string

	// Duration probing
	ProbeEnabled    bool
	ProbeBatchSize  int
	ProbeBatchDelay time.Duration
	ProbeTimeout    time.Duration

	// Queue engine
	RecentWindow int
	SessionTTL   time.Duration

	// Artwork caching
	ImageFetchTimeout time.Duration

	LogHealthChecks bool
	MetricsEnabled  bool

	// Derived paths
	DatabasePath string
	ArtworkDir   string
	SourcesDir   string

	// Feature flags based on directory/config availability
	ArtworkEnabled bool
	VipsEnabled    bool
	LibraryEnabled bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	port := getEnv("PORT", "8080")
	dataDir := getEnv("DATA_DIR", "/data")
	mediaDir := getEnv("MEDIA_DIR", "")
	shareBaseURL := getEnv("SHARE_BASE_URL", "https://cloud.example.com")
	tracksSubfolder := getEnv("TRACKS_SUBFOLDER", "")
	artistSubfolder := getEnv("ARTIST_SUBFOLDER", "artist")
	listingCacheTTL := getEnvDuration("LISTING_CACHE_TTL", 60*time.Second)
	streamAPIBase := getEnv("STREAM_API_BASE", "")
	streamAPIKey := getEnv("STREAM_API_KEY", "")
	probeEnabled := getEnvBool("PROBE_ENABLED", true)
	probeBatchSize := getEnvInt("PROBE_BATCH_SIZE", 3)
	probeBatchDelay := getEnvDuration("PROBE_BATCH_DELAY", 100*time.Millisecond)
	probeTimeout := getEnvDuration("PROBE_TIMEOUT", 10*time.Second)
	recentWindow := getEnvInt("QUEUE_RECENT_WINDOW", 3)
	sessionTTL := getEnvDuration("SESSION_TTL", 4*time.Hour)
	imageFetchTimeout := getEnvDuration("IMAGE_FETCH_TIMEOUT", 5*time.Second)
	artworkEnabled := getEnvBool("ARTWORK_ENABLED", true)
	vipsEnabled := getEnvBool("VIPS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  PORT:                %s", port)
	logging.Info("  DATA_DIR:            %s", dataDir)
	logging.Info("  MEDIA_DIR:           %s", valueOrUnset(mediaDir))
	logging.Info("  SHARE_BASE_URL:      %s", shareBaseURL)
	logging.Info("  TRACKS_SUBFOLDER:    %s", valueOrUnset(tracksSubfolder))
	logging.Info("  ARTIST_SUBFOLDER:    %s", artistSubfolder)
	logging.Info("  LISTING_CACHE_TTL:   %s", listingCacheTTL)
	logging.Info("  STREAM_API_BASE:     %s", valueOrUnset(streamAPIBase))
	logging.Info("  STREAM_API_KEY:      %s", maskSecret(streamAPIKey))
	logging.Info("  PROBE_ENABLED:       %v", probeEnabled)
	logging.Info("  PROBE_BATCH_SIZE:    %d", probeBatchSize)
	logging.Info("  PROBE_BATCH_DELAY:   %s", probeBatchDelay)
	logging.Info("  PROBE_TIMEOUT:       %s", probeTimeout)
	logging.Info("  QUEUE_RECENT_WINDOW: %d", recentWindow)
	logging.Info("  SESSION_TTL:         %s", sessionTTL)
	logging.Info("  IMAGE_FETCH_TIMEOUT: %s", imageFetchTimeout)
	logging.Info("  ARTWORK_ENABLED:     %v", artworkEnabled)
	logging.Info("  VIPS_ENABLED:        %v", vipsEnabled)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if probeBatchSize < 1 {
		logging.Warn("  PROBE_BATCH_SIZE below 1, using 1")
		probeBatchSize = 1
	}
	if recentWindow < 0 {
		logging.Warn("  QUEUE_RECENT_WINDOW below 0, using 0")
		recentWindow = 0
	}

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	logging.Info("  Data directory (absolute): %s", dataDir)

	if mediaDir != "" {
		mediaDir, err = filepath.Abs(mediaDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
		}
		logging.Info("  Media directory (absolute): %s", mediaDir)

		// Check media directory (warning only; local playlists fail per
		// request if it stays broken)
		if err := ensureDirectory(mediaDir, "media"); err != nil {
			logging.Warn("  Media directory issue: %v", err)
		}
	}

	config := &Config{
		Port:              port,
		DataDir:           dataDir,
		ShareBaseURL:      shareBaseURL,
		TracksSubfolder:   tracksSubfolder,
		ArtistSubfolder:   artistSubfolder,
		ListingCacheTTL:   listingCacheTTL,
		StreamAPIBase:     streamAPIBase,
		StreamAPIKey:      streamAPIKey,
		MediaDir:          mediaDir,
		ProbeEnabled:      probeEnabled,
		ProbeBatchSize:    probeBatchSize,
		ProbeBatchDelay:   probeBatchDelay,
		ProbeTimeout:      probeTimeout,
		RecentWindow:      recentWindow,
		SessionTTL:        sessionTTL,
		ImageFetchTimeout: imageFetchTimeout,
		LogHealthChecks:   logHealthChecks,
		MetricsEnabled:    metricsEnabled,
		DatabasePath:      filepath.Join(dataDir, "shareplay.db"),
		ArtworkDir:        filepath.Join(dataDir, "artwork"),
		SourcesDir:        filepath.Join(dataDir, "sources"),
		VipsEnabled:       vipsEnabled,
		LibraryEnabled:    mediaDir != "",
	}

	// Ensure base data directory exists (required for the database)
	if err := ensureDirectory(dataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}

	// Test write access for the database (required)
	logging.Debug("  Testing data directory write access...")
	if err := testWriteAccess(dataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	// Setup artwork cache directory (optional)
	config.ArtworkEnabled = artworkEnabled && setupOptionalDir(config.ArtworkDir, "artwork")
	if artworkEnabled && !config.ArtworkEnabled {
		logging.Warn("  Artwork caching disabled; remote image URLs will be served directly")
	}

	// Summary
	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:       ENABLED (required)")
	logging.Info("    Probing:        %s", enabledString(config.ProbeEnabled))
	logging.Info("    Artwork cache:  %s", enabledString(config.ArtworkEnabled))
	logging.Info("    Local library:  %s", enabledString(config.LibraryEnabled))
	logging.Info("    Privileged API: %s", enabledString(config.StreamAPIBase != "" && config.StreamAPIKey != ""))
	logging.Info("    Metrics:        %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	testFile := filepath.Join(path, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("    failed to remove test file %s: %v", testFile, err)
		// Still return true since write succeeded
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

func maskSecret(v string) string {
	if v == "" {
		return "(unset)"
	}
	return "(set)"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogProbeInit logs duration prober initialization and checks ffprobe
func LogProbeInit(enabled bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DURATION PROBER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if !enabled {
		logging.Warn("  Duration probing disabled")
		logging.Warn("  Tracks will report a duration of 0 until enabled")
		return
	}

	if err := checkFFprobe(); err != nil {
		logging.Warn("  ffprobe check failed: %v", err)
		logging.Warn("  Duration probing may not work correctly")
	} else {
		logging.Info("  [OK] ffprobe is available")
	}
}

// LogArtworkInit logs artwork cache initialization
func LogArtworkInit(enabled, vipsAvailable bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ARTWORK CACHE INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if !enabled {
		logging.Info("  Artwork caching disabled")
		logging.Info("  Remote image URLs will be served directly")
		return
	}

	if vipsAvailable {
		logging.Info("  [OK] libvips available for image processing")
	} else {
		logging.Info("  libvips unavailable, using pure-Go image processing")
	}
}

// LogLibraryInit logs local library initialization
func LogLibraryInit(mediaDir string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LOCAL LIBRARY INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if mediaDir == "" {
		logging.Info("  No media directory configured; local playlists disabled")
		return
	}
	logging.Info("  [OK] Local library at %s", mediaDir)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		// Sort group keys
		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		// Print routes by group
		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	// Remove leading slash
	path = strings.TrimPrefix(path, "/")

	// Get first segment
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	// Special handling for API routes
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("    Health:        http://0.0.0.0:%s/healthz", config.Port)
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    API:           http://localhost:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.Port)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   _____ __                    ____  __
  / ___// /_  ____ _________  / __ \/ /___ ___  __
  \__ \/ __ \/ __ '/ ___/ _ \/ /_/ / / __ '/ / / /
 ___/ / / / / /_/ / /  /  __/ ____/ / /_/ / /_/ /
/____/_/ /_/\__,_/_/   \___/_/   /_/\__,_/\__, /
                                         /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "media" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func checkFFprobe() error {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return fmt.Errorf("ffprobe not found in PATH")
	}
	logging.Debug("  ffprobe path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe", "-version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get ffprobe version: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  ffprobe version: %s", strings.TrimSpace(lines[0]))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration value for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
