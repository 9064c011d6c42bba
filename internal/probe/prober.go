package probe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"shareplay/internal/database"
	"shareplay/internal/filesystem"
	"shareplay/internal/logging"
	"shareplay/internal/memory"
	"shareplay/internal/metrics"
)

// Default probe pacing. Batches are deliberately small: the share
// throttles aggressive clients, and a playlist is usable without
// durations anyway.
const (
	DefaultBatchSize  = 3
	DefaultBatchDelay = 100 * time.Millisecond
	DefaultTimeout    = 10 * time.Second
)

// Config controls probe pacing and timeouts.
type Config struct {
	BatchSize  int
	BatchDelay time.Duration
	Timeout    time.Duration
	Enabled    bool
}

// DefaultConfig returns the standard prober configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:  DefaultBatchSize,
		BatchDelay: DefaultBatchDelay,
		Timeout:    DefaultTimeout,
		Enabled:    true,
	}
}

// Target is one track to measure. Key is the content identity the
// result is cached under; Source is what ffprobe reads, a URL for
// remote tracks or a filesystem path for local ones.
type Target struct {
	Key    string
	Source string
	Local  bool
}

// Health is a snapshot of prober activity for the health endpoint.
type Health struct {
	Enabled         bool      `json:"enabled"`
	Running         bool      `json:"running"`
	Runs            int64     `json:"runs"`
	TracksProbed    int64     `json:"tracksProbed"`
	Failures        int64     `json:"failures"`
	LastRun         time.Time `json:"lastRun"`
	LastRunDuration float64   `json:"lastRunSeconds"`
}

// Prober measures track durations in paced batches and persists results
// through the database.
type Prober struct {
	store   *database.Database
	monitor *memory.Monitor
	config  Config
	retry   filesystem.RetryConfig

	mu       sync.Mutex
	inflight map[string]bool

	// probeFn is swapped out in tests.
	probeFn func(ctx context.Context, source string) (float64, error)

	running     atomic.Int64
	runs        atomic.Int64
	probed      atomic.Int64
	failed      atomic.Int64
	lastRunUnix atomic.Int64
	lastRunMs   atomic.Int64
}

// New creates a prober writing results to store. monitor may be nil.
func New(store *database.Database, monitor *memory.Monitor, config Config) *Prober {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Prober{
		store:    store,
		monitor:  monitor,
		config:   config,
		retry:    filesystem.DefaultRetryConfig(),
		inflight: make(map[string]bool),
		probeFn:  DurationProbe,
	}
}

// Run probes the given targets, merging results into the duration cache
// after every batch. It blocks until all batches finish or ctx is
// canceled; playlist loads call it on a background goroutine. Targets
// already cached or claimed by a concurrent run are skipped.
func (p *Prober) Run(ctx context.Context, targets []Target) {
	if !p.config.Enabled || len(targets) == 0 {
		return
	}

	pending := p.claim(targets)
	if len(pending) == 0 {
		return
	}
	defer p.release(pending)

	start := time.Now()
	p.runs.Add(1)
	p.running.Add(1)
	metrics.ProbeRunsTotal.Inc()
	metrics.ProbeRunning.Inc()
	defer func() {
		p.running.Add(-1)
		metrics.ProbeRunning.Dec()
		p.lastRunUnix.Store(time.Now().Unix())
		p.lastRunMs.Store(time.Since(start).Milliseconds())
		metrics.ProbeLastRunTimestamp.SetToCurrentTime()
		metrics.ProbeLastRunDuration.Set(time.Since(start).Seconds())
	}()

	logging.Info("Probing %d of %d tracks for duration (batches of %d)", len(pending), len(targets), p.config.BatchSize)

	for len(pending) > 0 {
		if ctx.Err() != nil {
			logging.Debug("Probe run canceled with %d tracks left", len(pending))
			return
		}
		if p.monitor != nil {
			p.monitor.WaitIfPaused()
		}

		n := p.config.BatchSize
		if n > len(pending) {
			n = len(pending)
		}
		batch := pending[:n]
		pending = pending[n:]

		results := p.probeBatch(ctx, batch)
		metrics.ProbeBatchesTotal.Inc()

		// Persist per batch so a crash or cancellation keeps what was
		// already measured.
		if len(results) > 0 {
			if _, err := p.store.MergeDurations(ctx, results); err != nil {
				logging.Error("Failed to persist probed durations: %v", err)
			}
		}

		if len(pending) > 0 && p.config.BatchDelay > 0 {
			delay := p.config.BatchDelay
			// Back off harder while memory is tight; a slow probe run is
			// cheaper than an OOM kill.
			if p.monitor != nil && p.monitor.ShouldThrottle() {
				delay *= 4
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}
}

// claim filters out cached and in-flight keys and marks the remainder
// as in flight.
func (p *Prober) claim(targets []Target) []Target {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending := make([]Target, 0, len(targets))
	for _, t := range targets {
		if t.Key == "" || t.Source == "" {
			continue
		}
		if _, cached := p.store.Duration(t.Key); cached {
			metrics.ProbesTotal.WithLabelValues("skipped").Inc()
			continue
		}
		if p.inflight[t.Key] {
			metrics.ProbesTotal.WithLabelValues("skipped").Inc()
			continue
		}
		p.inflight[t.Key] = true
		pending = append(pending, t)
	}
	return pending
}

func (p *Prober) release(targets []Target) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range targets {
		delete(p.inflight, t.Key)
	}
}

// InFlight returns how many keys are currently being probed.
func (p *Prober) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

// probeBatch measures one batch concurrently and returns the successful
// results.
func (p *Prober) probeBatch(ctx context.Context, batch []Target) map[string]float64 {
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[string]float64, len(batch))

	for _, target := range batch {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()

			seconds, status := p.probeOne(ctx, t)
			metrics.ProbesTotal.WithLabelValues(status).Inc()
			if seconds > 0 {
				mu.Lock()
				results[t.Key] = seconds
				mu.Unlock()
			}
		}(target)
	}
	wg.Wait()
	return results
}

// probeOne measures a single target, reporting a status for metrics. A
// failed or timed-out probe yields 0, which is never cached, so the key
// stays eligible for a later pass.
func (p *Prober) probeOne(ctx context.Context, target Target) (float64, string) {
	start := time.Now()
	defer func() {
		metrics.ProbeDuration.Observe(time.Since(start).Seconds())
	}()

	if target.Local {
		// Readability check with NFS retries. The handle is ephemeral:
		// closed on every path, ffprobe reopens the path itself.
		f, err := filesystem.OpenWithRetry(target.Source, p.retry)
		if err != nil {
			logging.Warn("Probe skipping unreadable file %s: %v", target.Source, err)
			p.failed.Add(1)
			return 0, "error"
		}
		f.Close()
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	seconds, err := p.probeFn(probeCtx, target.Source)
	switch {
	case errors.Is(probeCtx.Err(), context.DeadlineExceeded):
		logging.Warn("Probe timed out after %v: %s", p.config.Timeout, target.Source)
		p.failed.Add(1)
		return 0, "timeout"
	case err != nil:
		logging.Warn("Probe failed for %s: %v", target.Source, err)
		p.failed.Add(1)
		return 0, "error"
	case seconds <= 0:
		p.failed.Add(1)
		return 0, "error"
	}

	p.probed.Add(1)
	return seconds, "success"
}

// Health returns a snapshot of prober activity.
func (p *Prober) Health() Health {
	h := Health{
		Enabled:         p.config.Enabled,
		Running:         p.running.Load() > 0,
		Runs:            p.runs.Load(),
		TracksProbed:    p.probed.Load(),
		Failures:        p.failed.Load(),
		LastRunDuration: float64(p.lastRunMs.Load()) / 1000,
	}
	if unix := p.lastRunUnix.Load(); unix > 0 {
		h.LastRun = time.Unix(unix, 0)
	}
	return h
}
