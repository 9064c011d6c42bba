package player

import (
	"net/url"

	"shareplay/internal/playlist"
)

// Serving paths baked into track views. The handlers register routes
// under the same prefixes.
const (
	ArtworkPathPrefix = "/api/artwork/"
	PlaceholderPath   = "/api/artwork/placeholder"
)

// TrackView is the client-facing rendition of one track.
type TrackView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	URL        string  `json:"url"`
	ArtworkURL string  `json:"artworkUrl"`
	Duration   float64 `json:"duration"`
}

// View is the client-facing snapshot of a session.
type View struct {
	ID           string      `json:"id"`
	Source       string      `json:"source"`
	DisplayName  string      `json:"displayName"`
	FolderURL    string      `json:"folderUrl,omitempty"`
	CurrentIndex int         `json:"currentIndex"`
	Shuffled     bool        `json:"shuffled"`
	Repeated     bool        `json:"repeated"`
	Volume       float64     `json:"volume"`
	Tracks       []TrackView `json:"tracks"`
}

// View builds the JSON payload for a session, folding in whatever
// durations the probe has cached so far.
func (m *Manager) View(s *Session) View {
	state := s.snapshot()

	keys := make([]string, 0, len(state.Tracks))
	for i := range state.Tracks {
		keys = append(keys, state.Tracks[i].ContentKey)
	}
	durations := m.durationsByKey(keys)

	tracks := make([]TrackView, 0, len(state.Tracks))
	for i := range state.Tracks {
		t := &state.Tracks[i]
		tracks = append(tracks, TrackView{
			ID:         t.ID,
			Name:       t.Name,
			Title:      t.Title,
			Artist:     t.Artist,
			URL:        t.PlaybackURL(),
			ArtworkURL: m.artworkURL(t),
			Duration:   durations[t.ContentKey],
		})
	}

	return View{
		ID:           s.ID,
		Source:       s.Source,
		DisplayName:  s.DisplayName,
		FolderURL:    s.FolderURL,
		CurrentIndex: state.CurrentIndex,
		Shuffled:     state.Shuffled,
		Repeated:     state.Repeated,
		Volume:       state.Volume,
		Tracks:       tracks,
	}
}

// Durations returns the probed durations known so far, keyed by track
// ID. Tracks the probe has not measured yet are absent; clients poll
// until the map stops growing.
func (m *Manager) Durations(s *Session) map[string]float64 {
	state := s.snapshot()

	keys := make([]string, 0, len(state.Tracks))
	for i := range state.Tracks {
		keys = append(keys, state.Tracks[i].ContentKey)
	}
	byKey := m.durationsByKey(keys)

	out := make(map[string]float64, len(byKey))
	for i := range state.Tracks {
		t := &state.Tracks[i]
		if seconds, ok := byKey[t.ContentKey]; ok {
			out[t.ID] = seconds
		}
	}
	return out
}

func (m *Manager) durationsByKey(keys []string) map[string]float64 {
	if m.store == nil {
		return map[string]float64{}
	}
	return m.store.DurationSnapshot(keys)
}

// artworkURL picks the image URL a client should render for a track:
// the cached artwork endpoint when caching is on, the remote image
// directly when it is off, and a generated placeholder when the track
// matched no artist image at all.
func (m *Manager) artworkURL(t *playlist.Track) string {
	if t.ArtistImageURL == "" {
		return PlaceholderPath + "?name=" + url.QueryEscape(t.Artist)
	}
	if m.artwork == nil || !m.artwork.Enabled() {
		return t.ArtistImageURL
	}
	return ArtworkPathPrefix + t.ArtworkKey + "?name=" + url.QueryEscape(t.Artist)
}
