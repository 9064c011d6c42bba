package handlers

import (
	"net/http"
	"runtime"
	"time"

	"shareplay/internal/probe"
	"shareplay/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Engine state
	ActiveSessions  int          `json:"activeSessions"`
	CachedDurations int          `json:"cachedDurations"`
	LibraryTracks   int          `json:"libraryTracks,omitempty"`
	Probe           probe.Health `json:"probe"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports engine state: session counts, duration cache
// size, and the prober snapshot. The service accepts traffic as soon
// as it is constructed (folder resolution happens per playlist), so
// this always returns 200; a degraded status flags probe trouble
// without failing the check.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if h.manager != nil {
		stats := h.manager.GetStats()
		response.ActiveSessions = stats.ActiveSessions
		response.CachedDurations = stats.CachedDurations
		response.LibraryTracks = stats.LibraryTracks
	}

	if h.prober != nil {
		response.Probe = h.prober.Health()
		// Every probe failing means ffprobe is broken or the share is
		// unreachable; durations will never converge.
		if response.Probe.Runs > 0 && response.Probe.TracksProbed == 0 && response.Probe.Failures > 0 {
			response.Status = statusDegraded
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the engine is serving. There is no
// warm-up phase: playlists resolve lazily on creation.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{
		"status": "ready",
	})
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
