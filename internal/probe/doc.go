// Package probe measures track durations with ffprobe and feeds the
// duration cache.
//
// Probing runs in the background after a playlist loads, in small
// batches with a delay between them so the remote share never sees a
// thundering herd. Each probe is bounded by a timeout; a track that
// cannot be measured simply stays unknown and playback is never blocked
// on it. Keys already cached or currently being probed are skipped, so
// overlapping playlist loads do not duplicate work.
package probe
