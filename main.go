// Package main is the entry point for the shareplay server.
//
// Shareplay turns a shared folder on a remote file-share service into a
// playable music queue: it scrapes the folder's HTML listing, resolves
// the tracks and artist images inside, and serves a playback API with
// shuffle, repeat, duration probing, and artwork caching. An optional
// local media directory can be played through the same queue engine.
//
// Startup runs through a fixed sequence: memory limits from the
// container environment, configuration from environment variables (see
// the startup package for the full list), the SQLite duration/auth
// database, libvips for image processing, the share client and folder
// resolver, the source and artwork caches, the duration prober, and
// finally the session manager and HTTP server. Shutdown unwinds the
// same components on SIGINT/SIGTERM.
//
// Background goroutines run for the life of the process: the idle
// session sweep, the memory monitor, and the metrics collector. Probe
// runs and artwork warms are kicked off per playlist load.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"shareplay/internal/artwork"
	"shareplay/internal/database"
	"shareplay/internal/filesystem"
	"shareplay/internal/handlers"
	"shareplay/internal/library"
	"shareplay/internal/listing"
	"shareplay/internal/logging"
	"shareplay/internal/memory"
	"shareplay/internal/metrics"
	"shareplay/internal/middleware"
	"shareplay/internal/player"
	"shareplay/internal/probe"
	"shareplay/internal/resolver"
	"shareplay/internal/share"
	"shareplay/internal/sourcecache"
	"shareplay/internal/startup"
	"shareplay/internal/streamurl"
)

func main() {
	startTime := time.Now()

	// Set GOMEMLIMIT from the container's memory limit before anything
	// allocates in earnest.
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Filesystem retry metrics and volume labeling
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	volumes := map[string]string{"data": config.DataDir}
	if config.MediaDir != "" {
		volumes["media"] = config.MediaDir
	}
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(volumes))

	// Memory monitor feeds backpressure to the probe and artwork pools
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// libvips is optional; without it artwork falls back to pure-Go
	// image processing
	vipsActive := false
	if config.ArtworkEnabled && config.VipsEnabled {
		if err := artwork.InitVips(); err != nil {
			logging.Warn("libvips initialization failed: %v", err)
		} else {
			vipsActive = true
		}
	}
	startup.LogArtworkInit(config.ArtworkEnabled, vipsActive)

	// Share ingestion stack: HTTP client, listing parser, stream URL
	// resolution, folder resolver
	shareConfig := share.DefaultConfig(config.ShareBaseURL)
	shareConfig.ImageTimeout = config.ImageFetchTimeout
	shareConfig.ListingTTL = config.ListingCacheTTL
	client := share.NewClient(shareConfig)

	urls := streamurl.NewResolver(streamurl.Config{
		APIBaseURL: config.StreamAPIBase,
		APIKey:     config.StreamAPIKey,
	})

	res := resolver.New(client, listing.NewRowParser(), urls, resolver.Config{
		TracksSubfolder:   config.TracksSubfolder,
		ArtistSubfolder:   config.ArtistSubfolder,
		ImageFetchTimeout: config.ImageFetchTimeout,
	})

	// Source cache holds materialized local copies for range serving
	sources, err := sourcecache.New(config.SourcesDir)
	if err != nil {
		startup.LogFatal("Failed to initialize source cache: %v", err)
	}

	artConfig := artwork.DefaultConfig()
	artConfig.Enabled = config.ArtworkEnabled
	artConfig.VipsEnabled = vipsActive
	art, err := artwork.New(config.ArtworkDir, client, monitor, artConfig)
	if err != nil {
		startup.LogFatal("Failed to initialize artwork cache: %v", err)
	}

	// Local library (optional)
	lib := library.New(config.MediaDir)
	startup.LogLibraryInit(config.MediaDir)

	// Duration prober
	startup.LogProbeInit(config.ProbeEnabled)
	prober := probe.New(db, monitor, probe.Config{
		BatchSize:  config.ProbeBatchSize,
		BatchDelay: config.ProbeBatchDelay,
		Timeout:    config.ProbeTimeout,
		Enabled:    config.ProbeEnabled,
	})

	// Session manager owns playlists and their background work
	manager := player.NewManager(res, lib, db, prober, art, sources, player.Config{
		SessionTTL:   config.SessionTTL,
		RecentWindow: config.RecentWindow,
	})
	manager.Start()

	// Metrics
	var collector *metrics.Collector
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		collector = metrics.NewCollector(manager, time.Minute)
		collector.Start()
	}

	// Initialize handlers
	h := handlers.New(manager, client, art, sources, db, prober)

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply authentication middleware
	authedRouter := h.AuthMiddleware(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(authedRouter)

	// Apply metrics middleware
	meteredHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)

	// Apply compression middleware
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(meteredHandler)

	// Create server. WriteTimeout stays 0 so long audio streams are
	// bounded by the streaming package, not the server.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, manager, collector, monitor, vipsActive)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/required", h.CheckAuthRequired).Methods("GET")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")

	// Playlist lifecycle and queue navigation
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/playlists", h.CreatePlaylist).Methods("POST")
	api.HandleFunc("/playlists/{id}", h.GetPlaylist).Methods("GET")
	api.HandleFunc("/playlists/{id}", h.DeletePlaylist).Methods("DELETE")
	api.HandleFunc("/playlists/{id}/next", h.NextTrack).Methods("POST")
	api.HandleFunc("/playlists/{id}/prev", h.PrevTrack).Methods("POST")
	api.HandleFunc("/playlists/{id}/select", h.SelectTrack).Methods("POST")
	api.HandleFunc("/playlists/{id}/shuffle", h.SetShuffle).Methods("POST")
	api.HandleFunc("/playlists/{id}/repeat", h.SetRepeat).Methods("POST")
	api.HandleFunc("/playlists/{id}/volume", h.SetVolume).Methods("POST")
	api.HandleFunc("/playlists/{id}/ended", h.TrackEnded).Methods("POST")
	api.HandleFunc("/playlists/{id}/durations", h.GetDurations).Methods("GET")
	api.HandleFunc("/playlists/{id}/qr", h.GetQR).Methods("GET")

	// Streaming
	api.HandleFunc("/stream/remote/{id}", h.StreamRemote).Methods("GET", "HEAD")
	api.HandleFunc("/stream/local/{ref}", h.StreamLocal).Methods("GET", "HEAD")

	// Artwork. The fixed placeholder path registers before the key
	// pattern so {key} does not swallow it.
	api.HandleFunc("/artwork/placeholder", h.GetPlaceholder).Methods("GET")
	api.HandleFunc("/artwork/{key}", h.GetArtwork).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server, manager *player.Manager, collector *metrics.Collector,
	monitor *memory.Monitor, vipsActive bool) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownStep("Closing playback sessions")
	manager.Shutdown()
	startup.LogShutdownStepComplete("Playback sessions closed")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if vipsActive {
		startup.LogShutdownStep("Shutting down libvips")
		artwork.ShutdownVips()
		startup.LogShutdownStepComplete("libvips shut down")
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
