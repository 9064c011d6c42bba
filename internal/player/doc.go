// Package player owns playback sessions. A session pairs one loaded
// playlist with its queue state; the manager creates sessions from
// share folders or the local library, hands navigation to the queue
// engine, and releases materialized sources when sessions close or go
// idle.
package player
