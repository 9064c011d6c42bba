package playlist

// LocalStreamPrefix is the path under which materialized local tracks
// are served, keyed by track ID.
const LocalStreamPrefix = "/api/stream/local/"

// Track is one playable item in a playlist. Exactly one of the three
// source fields is authoritative, with precedence remote stream URL,
// then generic URL, then local path.
type Track struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	Artist string `json:"artist"`

	RemoteStreamURL string `json:"-"`
	GenericURL      string `json:"-"`
	LocalPath       string `json:"-"`

	ArtistImageURL string `json:"-"`
	ArtworkKey     string `json:"-"`

	// ContentKey identifies the underlying content across sessions and
	// restarts: the canonical file URL for remote tracks, the URL itself
	// for generic tracks, and name plus size for local files. Duration
	// cache entries are keyed by it.
	ContentKey string `json:"-"`
}

// PlaybackURL returns the URL a client plays this track from. Local
// tracks stream through the local endpoint by track ID.
func (t *Track) PlaybackURL() string {
	switch {
	case t.RemoteStreamURL != "":
		return t.RemoteStreamURL
	case t.GenericURL != "":
		return t.GenericURL
	case t.LocalPath != "":
		return LocalStreamPrefix + t.ID
	default:
		return ""
	}
}

// HasLocalSource reports whether the track plays from a local file.
func (t *Track) HasLocalSource() bool {
	return t.RemoteStreamURL == "" && t.GenericURL == "" && t.LocalPath != ""
}
