package player

import (
	"errors"
	"sync"
	"time"

	"shareplay/internal/metrics"
	"shareplay/internal/playlist"
	"shareplay/internal/sourcecache"
)

// Playlist sources.
const (
	SourceShare = "share"
	SourceLocal = "local"
)

// ErrSessionClosed is returned when a closed session is asked to
// acquire a playable source.
var ErrSessionClosed = errors.New("playlist session closed")

// Session is one active playlist with its playback state. The identity
// fields are immutable after creation; everything else is guarded by
// the mutex, so handler goroutines mutate the queue one at a time.
type Session struct {
	ID          string
	Source      string
	DisplayName string
	// FolderURL is the share folder the playlist was loaded from, kept
	// for re-sharing. Empty for local playlists.
	FolderURL string

	mu       sync.Mutex
	state    playlist.State
	shuffle  *playlist.ShuffleState
	cfg      playlist.Config
	acquired map[string]sourcecache.Source
	released bool
	lastUsed time.Time
}

// Len returns the track count.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Tracks)
}

// Next advances playback and returns the new current index.
func (s *Session) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	metrics.PlayerEventsTotal.WithLabelValues("next").Inc()
	return s.state.Next(s.shuffle, s.cfg)
}

// Prev steps playback backward and returns the new current index.
func (s *Session) Prev() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	metrics.PlayerEventsTotal.WithLabelValues("prev").Inc()
	return s.state.Prev(s.shuffle, s.cfg)
}

// Select jumps to the given track index.
func (s *Session) Select(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	if err := s.state.Select(index, s.shuffle); err != nil {
		return err
	}
	metrics.PlayerEventsTotal.WithLabelValues("select").Inc()
	return nil
}

// TrackEnd handles the client's report that the current track finished
// and returns what the client should do next.
func (s *Session) TrackEnd(replayFailed bool) playlist.EndAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	metrics.PlayerEventsTotal.WithLabelValues("ended").Inc()
	return s.state.TrackEnd(s.shuffle, s.cfg, replayFailed)
}

// SetShuffled toggles shuffle mode.
func (s *Session) SetShuffled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	metrics.PlayerEventsTotal.WithLabelValues("shuffle").Inc()
	s.shuffle = s.state.SetShuffled(on)
}

// SetRepeated toggles repeat mode.
func (s *Session) SetRepeated(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	metrics.PlayerEventsTotal.WithLabelValues("repeat").Inc()
	s.state.SetRepeated(on)
	if on {
		s.shuffle = nil
	}
}

// SetVolume stores the playback volume, clamped to [0, 1].
func (s *Session) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	metrics.PlayerEventsTotal.WithLabelValues("volume").Inc()
	s.state.SetVolume(v)
}

// snapshot returns a copy of the playback state. The track slice is
// shared with the session but never mutated after creation.
func (s *Session) snapshot() playlist.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// localTrack returns the track with the given ID if it plays from a
// local file.
func (s *Session) localTrack(trackID string) (playlist.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Tracks {
		t := &s.state.Tracks[i]
		if t.ID == trackID && t.HasLocalSource() {
			return *t, true
		}
	}
	return playlist.Track{}, false
}

// acquireSource materializes the local file behind trackID, reusing the
// reference this session already holds when the client re-requests the
// same track.
func (s *Session) acquireSource(cache *sourcecache.Cache, trackID string) (sourcecache.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return sourcecache.Source{}, ErrSessionClosed
	}
	if src, ok := s.acquired[trackID]; ok {
		return src, nil
	}

	var path string
	for i := range s.state.Tracks {
		t := &s.state.Tracks[i]
		if t.ID == trackID && t.HasLocalSource() {
			path = t.LocalPath
			break
		}
	}
	if path == "" {
		return sourcecache.Source{}, ErrTrackNotFound
	}

	src, err := cache.Acquire(path)
	if err != nil {
		return sourcecache.Source{}, err
	}
	s.acquired[trackID] = src
	s.lastUsed = time.Now()
	return src, nil
}

// close releases the session's materialized sources. Safe to call more
// than once; only the first call drops the references.
func (s *Session) close(cache *sourcecache.Cache) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.released = true

	for _, src := range s.acquired {
		if cache != nil {
			cache.Release(src.Key)
		}
	}
	s.acquired = nil
}

// idleSince reports whether the session saw no activity after cutoff.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed.Before(cutoff)
}
