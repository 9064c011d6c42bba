// Package handlers provides the HTTP request handlers for the shareplay API.
//
// It includes handlers for:
//   - Playlist creation from share folders and the local library
//   - Playback navigation (next, prev, select, shuffle, repeat, track end)
//   - Remote stream proxying and local source streaming
//   - Artist artwork serving with placeholder generation
//   - Optional password authentication and sessions
//   - Health checks, version info, and Prometheus metrics
package handlers
