// Package library scans the local media directory into playable track
// lists.
//
// A scan reads one directory level (playlists map to folders, not
// trees), keeps only audio files, and enriches each track from its
// embedded tags when present, falling back to file name parsing. Paths
// are validated against the configured root so requests cannot wander
// out of the library.
package library
