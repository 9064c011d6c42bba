// Package database provides SQLite-backed persistence for shareplay.
//
// The database holds two small tables: probed track durations keyed by
// content identity, and the optional access password hash. Durations are
// loaded into an in-memory snapshot once at startup; merges write through
// to both the snapshot and the durations table so a restart never loses
// probe work.
//
// Duration merges are monotonic: a positive recorded value is never
// overwritten by a later zero. Zero results (probe timeouts and failures)
// are not persisted at all, so the affected keys stay eligible for a
// later probe pass.
package database
