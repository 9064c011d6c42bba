package resolver

import (
	"strings"

	"shareplay/internal/listing"
	"shareplay/internal/mediatypes"
	"shareplay/internal/trackname"
)

// buildImageIndex maps normalized image file stems to share file IDs.
// The stem is the artist name the image stands for. First entry wins on
// duplicates, so the dedicated artist subfolder takes precedence over
// strays next to the tracks.
func buildImageIndex(images []listing.Entry) map[string]string {
	index := make(map[string]string, len(images))
	for _, img := range images {
		key := normalizeArtist(mediatypes.StripExt(img.Name))
		if key == "" {
			continue
		}
		if _, ok := index[key]; !ok {
			index[key] = img.ID
		}
	}
	return index
}

// matchArtist returns the image file ID for an artist, or "" when there
// is no exact match after normalization. Unattributed tracks never
// match.
func matchArtist(index map[string]string, artist string) string {
	if artist == "" || artist == trackname.UnknownArtist {
		return ""
	}
	return index[normalizeArtist(artist)]
}

// normalizeArtist lowercases and collapses whitespace so matching is
// insensitive to casing and stray spaces.
func normalizeArtist(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
