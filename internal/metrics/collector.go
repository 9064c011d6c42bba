package metrics

import (
	"time"

	"shareplay/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	ActiveSessions  int
	LibraryTracks   int
	CachedDurations int
	CachedSources   int
	SourceBytes     int64
	CachedArtwork   int
	ArtworkBytes    int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	PlayerSessionsActive.Set(float64(stats.ActiveSessions))
	LibraryTracksTotal.Set(float64(stats.LibraryTracks))
	DurationsCached.Set(float64(stats.CachedDurations))
	SourceCacheCount.Set(float64(stats.CachedSources))
	SourceCacheSize.Set(float64(stats.SourceBytes))
	ArtworkCacheCount.Set(float64(stats.CachedArtwork))
	ArtworkCacheSize.Set(float64(stats.ArtworkBytes))

	logging.Debug("Metrics collected: sessions=%d, tracks=%d, durations=%d, sources=%d, artwork=%d",
		stats.ActiveSessions, stats.LibraryTracks, stats.CachedDurations, stats.CachedSources, stats.CachedArtwork)
}
