package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"shareplay/internal/artwork"
	"shareplay/internal/database"
	"shareplay/internal/library"
	"shareplay/internal/logging"
	"shareplay/internal/metrics"
	"shareplay/internal/playlist"
	"shareplay/internal/probe"
	"shareplay/internal/resolver"
	"shareplay/internal/sourcecache"
)

const (
	// DefaultSessionTTL is how long an untouched session survives
	// before the sweep closes it.
	DefaultSessionTTL = 4 * time.Hour

	sweepInterval = 5 * time.Minute
)

// ErrTrackNotFound is returned when no session holds the requested
// track.
var ErrTrackNotFound = errors.New("track not found in any session")

// FolderResolver resolves a share folder reference into tracks.
// Satisfied by resolver.Resolver.
type FolderResolver interface {
	Resolve(ctx context.Context, folderRef string) (*resolver.Folder, error)
}

// Config controls session lifetime and queue behavior.
type Config struct {
	SessionTTL   time.Duration
	RecentWindow int
}

// DefaultConfig returns the standard manager configuration.
func DefaultConfig() Config {
	return Config{
		SessionTTL:   DefaultSessionTTL,
		RecentWindow: playlist.DefaultRecentWindow,
	}
}

// Manager owns the live playlist sessions and the background work a
// playlist load kicks off.
type Manager struct {
	resolver FolderResolver
	library  *library.Library
	store    *database.Database
	prober   *probe.Prober
	artwork  *artwork.Cache
	sources  *sourcecache.Cache
	config   Config

	mu       sync.RWMutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager wires a session manager. prober and artwork may be nil;
// playlist loads then skip the corresponding background work.
func NewManager(res FolderResolver, lib *library.Library, store *database.Database,
	prober *probe.Prober, art *artwork.Cache, sources *sourcecache.Cache, config Config) *Manager {
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	if config.RecentWindow <= 0 {
		config.RecentWindow = playlist.DefaultRecentWindow
	}

	return &Manager{
		resolver: res,
		library:  lib,
		store:    store,
		prober:   prober,
		artwork:  art,
		sources:  sources,
		config:   config,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
}

// Start launches the idle-session sweep.
func (m *Manager) Start() {
	go m.sweepLoop()
}

// Shutdown stops the sweep and closes every session.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.CloseAll()
}

// CreateFromShare resolves a share folder reference and opens a session
// for its tracks. Duration probing and artwork warming continue in the
// background after it returns.
func (m *Manager) CreateFromShare(ctx context.Context, folderRef string) (*Session, error) {
	folder, err := m.resolver.Resolve(ctx, folderRef)
	if err != nil {
		metrics.PlaylistsCreatedTotal.WithLabelValues(SourceShare, "error").Inc()
		return nil, err
	}

	s := m.register(SourceShare, folder.DisplayName, folder.FolderURL, folder.Tracks)
	m.kickoff(folder.Tracks)
	return s, nil
}

// CreateFromLocal scans a directory of the local library into a
// session. subdir is relative to the media root; "" loads the root.
func (m *Manager) CreateFromLocal(subdir string) (*Session, error) {
	if m.library == nil || !m.library.Enabled() {
		metrics.PlaylistsCreatedTotal.WithLabelValues(SourceLocal, "error").Inc()
		return nil, library.ErrNoMediaDir
	}

	folder, err := m.library.Scan(subdir)
	if err != nil {
		metrics.PlaylistsCreatedTotal.WithLabelValues(SourceLocal, "error").Inc()
		return nil, err
	}

	s := m.register(SourceLocal, folder.DisplayName, "", folder.Tracks)
	m.kickoff(folder.Tracks)
	return s, nil
}

// register stamps artwork keys, creates the session, and tracks it.
func (m *Manager) register(source, displayName, folderURL string, tracks []playlist.Track) *Session {
	for i := range tracks {
		if tracks[i].ArtistImageURL != "" {
			tracks[i].ArtworkKey = artwork.KeyFor(tracks[i].ArtistImageURL)
		}
	}

	status := "success"
	if len(tracks) == 0 {
		status = "no_files"
	}
	metrics.PlaylistsCreatedTotal.WithLabelValues(source, status).Inc()
	metrics.PlaylistTracks.WithLabelValues(source).Observe(float64(len(tracks)))

	s := &Session{
		ID:          uuid.New().String(),
		Source:      source,
		DisplayName: displayName,
		FolderURL:   folderURL,
		state:       playlist.NewState(tracks),
		cfg:         playlist.Config{RecentWindow: m.config.RecentWindow},
		acquired:    make(map[string]sourcecache.Source),
		lastUsed:    time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.PlayerSessionsActive.Set(float64(count))
	logging.Info("Created %s playlist session %s (%q, %d tracks)", source, s.ID, displayName, len(tracks))
	return s
}

// kickoff starts duration probing and artwork warming for freshly
// loaded tracks. Both run detached from the request context so a fast
// client disconnect does not abandon them.
func (m *Manager) kickoff(tracks []playlist.Track) {
	if m.prober != nil {
		if targets := probeTargets(tracks); len(targets) > 0 {
			go m.prober.Run(context.Background(), targets)
		}
	}
	if m.artwork != nil && m.artwork.Enabled() {
		if urls := imageURLs(tracks); len(urls) > 0 {
			go m.artwork.Warm(context.Background(), urls)
		}
	}
}

// probeTargets maps tracks onto probe targets. Remote and generic
// tracks probe their canonical URL; local tracks probe the file itself.
func probeTargets(tracks []playlist.Track) []probe.Target {
	targets := make([]probe.Target, 0, len(tracks))
	for i := range tracks {
		t := &tracks[i]
		if t.ContentKey == "" {
			continue
		}
		if t.HasLocalSource() {
			targets = append(targets, probe.Target{Key: t.ContentKey, Source: t.LocalPath, Local: true})
			continue
		}
		targets = append(targets, probe.Target{Key: t.ContentKey, Source: t.ContentKey})
	}
	return targets
}

func imageURLs(tracks []playlist.Track) []string {
	urls := make([]string, 0, len(tracks))
	for i := range tracks {
		if u := tracks[i].ArtistImageURL; u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down one session, releasing its materialized sources.
// Returns false when the id is unknown.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return false
	}

	s.close(m.sources)
	metrics.PlayerSessionsActive.Set(float64(count))
	logging.Info("Closed playlist session %s (%q)", s.ID, s.DisplayName)
	return true
}

// CloseAll tears down every session. Shutdown path.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	closing := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		closing = append(closing, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range closing {
		s.close(m.sources)
	}
	metrics.PlayerSessionsActive.Set(0)

	if len(closing) > 0 {
		logging.Info("Closed %d playlist sessions", len(closing))
	}
}

// AcquireLocalSource materializes the local file behind a track ID for
// streaming. Any session holding the track may serve it; the owning
// session keeps the reference until it closes, so repeated range
// requests reuse one copy.
func (m *Manager) AcquireLocalSource(trackID string) (sourcecache.Source, error) {
	m.mu.RLock()
	var owner *Session
	for _, s := range m.sessions {
		if _, ok := s.localTrack(trackID); ok {
			owner = s
			break
		}
	}
	m.mu.RUnlock()

	if owner == nil {
		return sourcecache.Source{}, ErrTrackNotFound
	}
	return owner.acquireSource(m.sources, trackID)
}

// sweepLoop periodically reaps idle sessions.
func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.reap()
		case <-m.stop:
			return
		}
	}
}

// reap closes sessions idle past the TTL.
func (m *Manager) reap() {
	cutoff := time.Now().Add(-m.config.SessionTTL)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idleSince(cutoff) {
			delete(m.sessions, id)
			idle = append(idle, s)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if len(idle) == 0 {
		return
	}

	for _, s := range idle {
		s.close(m.sources)
		logging.Info("Reaped idle playlist session %s (%q)", s.ID, s.DisplayName)
	}
	metrics.PlayerSessionsActive.Set(float64(count))
}

// GetStats feeds the periodic metrics collector.
func (m *Manager) GetStats() metrics.Stats {
	m.mu.RLock()
	active := len(m.sessions)
	m.mu.RUnlock()

	stats := metrics.Stats{ActiveSessions: active}
	if m.library != nil {
		stats.LibraryTracks = m.library.LastCount()
	}
	if m.store != nil {
		stats.CachedDurations = m.store.CountDurations()
		m.store.UpdateMetrics()
	}
	if m.sources != nil {
		stats.CachedSources, stats.SourceBytes = m.sources.Stats()
	}
	if m.artwork != nil {
		stats.CachedArtwork, stats.ArtworkBytes = m.artwork.Stats()
	}
	return stats
}

