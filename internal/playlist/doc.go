// Package playlist implements the playback queue engine.
//
// A State holds the loaded track list plus the playback flags (shuffle,
// repeat, volume); ShuffleState carries the shuffle permutation, its
// consumption pointer, and a bounded recency history. All operations are
// plain state transitions with no I/O so they can be driven identically
// from HTTP handlers and from tests. Callers own synchronization: the
// player serializes access per session.
//
// Shuffle semantics: forward steps consume a pre-generated permutation
// that excludes the current track and the recent window, regenerating on
// exhaustion; backward steps walk the permutation back, and past the
// bottom of that history a fresh permutation (excluding only the current
// track) is served from its end. With more than one track a shuffle step
// never lands on the track that is already playing.
package playlist
