package trackname

import (
	"regexp"
	"strings"

	"shareplay/internal/mediatypes"
)

// UnknownArtist is the artist reported when a file name carries no
// recognizable artist segment.
const UnknownArtist = "Local File"

// Parsed holds the title and artist extracted from a file name.
type Parsed struct {
	Title  string
	Artist string
}

var (
	// "Moonlight (Debussy)": trailing parenthetical is the artist
	parenPattern = regexp.MustCompile(`^(.*?)\s*\(([^)]+)\)\s*$`)

	// "Respire by Mylene": case-insensitive " by " separator
	byPattern = regexp.MustCompile(`(?i)^(.*?)\s+by\s+(.+)$`)
)

// Parse extracts a title and artist from an audio file name. The extension is
// stripped first, then the patterns "Title (Artist)", "Title - Artist", and
// "Title by Artist" are tried in that order; the first match wins. Names that
// match none of them become a title with the artist set to UnknownArtist.
//
// The Artist-Image matching and every display surface share this function, so
// a given file name always yields the same pair.
func Parse(name string) Parsed {
	base := strings.TrimSpace(mediatypes.StripExt(name))

	if m := parenPattern.FindStringSubmatch(base); m != nil {
		title := strings.TrimSpace(m[1])
		artist := strings.TrimSpace(m[2])
		if title != "" && artist != "" {
			return Parsed{Title: title, Artist: artist}
		}
	}

	if before, after, found := strings.Cut(base, " - "); found {
		title := strings.TrimSpace(before)
		artist := strings.TrimSpace(after)
		if title != "" && artist != "" {
			return Parsed{Title: title, Artist: artist}
		}
	}

	if m := byPattern.FindStringSubmatch(base); m != nil {
		title := strings.TrimSpace(m[1])
		artist := strings.TrimSpace(m[2])
		if title != "" && artist != "" {
			return Parsed{Title: title, Artist: artist}
		}
	}

	return Parsed{Title: base, Artist: UnknownArtist}
}
