package listing

import "shareplay/internal/mediatypes"

// Kind classifies a parsed listing entry.
type Kind string

const (
	// KindAudio is a playable audio file entry.
	KindAudio Kind = "audio"
	// KindImage is an image file entry.
	KindImage Kind = "image"
	// KindFolder is a subfolder entry.
	KindFolder Kind = "folder"
	// KindOther is a file entry of no interest to playback.
	KindOther Kind = "other"
)

// Entry is one row parsed out of a remote folder listing page, before it is
// turned into a track or an artist image.
type Entry struct {
	ID   string
	Name string
	Kind Kind
}

// Parser turns raw listing HTML into entries.
//
// Implementations never fail: markup with no recognizable rows yields an
// empty slice, which callers treat as "no rows found" rather than an error.
// Scraping sits behind this interface so the strategy can be swapped for a
// real markup parser without touching the resolver.
type Parser interface {
	Parse(html string) []Entry
}

// kindForName classifies a file entry by its extension.
func kindForName(name string) Kind {
	switch mediatypes.GetFileType(name) {
	case mediatypes.FileTypeAudio:
		return KindAudio
	case mediatypes.FileTypeImage:
		return KindImage
	default:
		return KindOther
	}
}
