// Package trackname extracts display titles and artists from audio file names.
//
// Remote shares rarely carry tag metadata, so the file name is the only
// source of display information. Parse recognizes three naming conventions,
// tried in order with the first match winning:
//
//	"Moonlight (Debussy).mp3"       -> {Title: "Moonlight", Artist: "Debussy"}
//	"Clair de Lune - Debussy.flac"  -> {Title: "Clair de Lune", Artist: "Debussy"}
//	"Respire by Mylene.wav"         -> {Title: "Respire", Artist: "Mylene"}
//
// Names matching none of the patterns keep the whole stripped name as the
// title with the artist set to UnknownArtist.
//
// The artist-image matcher and the playlist display surfaces both call Parse
// on the same names, so the function must stay deterministic and total. It
// never returns an error.
package trackname
