package database

import (
	"context"
	"fmt"
	"time"

	"shareplay/internal/logging"
	"shareplay/internal/metrics"
)

// loadDurations populates the in-memory snapshot from the durations table.
// Called once from New.
func (d *Database) loadDurations(ctx context.Context) error {
	start := time.Now()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(queryCtx, "SELECT key, seconds FROM durations")
	recordQuery("load_durations", start, err)
	if err != nil {
		return fmt.Errorf("failed to query durations: %w", err)
	}
	defer rows.Close()

	loaded := make(map[string]float64)
	for rows.Next() {
		var key string
		var seconds float64
		if err := rows.Scan(&key, &seconds); err != nil {
			return fmt.Errorf("failed to scan duration row: %w", err)
		}
		loaded[key] = seconds
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read durations: %w", err)
	}

	d.durMu.Lock()
	d.durations = loaded
	d.durMu.Unlock()

	metrics.DurationsCached.Set(float64(len(loaded)))
	return nil
}

// MergeDurations writes a batch of probe results into the table and the
// snapshot. Non-positive values are dropped: a failed or timed-out probe
// reports 0 and must neither clobber a known duration nor mark the key
// as probed. Returns the number of values actually merged.
func (d *Database) MergeDurations(ctx context.Context, results map[string]float64) (int, error) {
	positive := make(map[string]float64, len(results))
	for key, seconds := range results {
		if seconds > 0 {
			positive[key] = seconds
		}
	}
	if len(positive) == 0 {
		return 0, nil
	}

	txCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	txStart := time.Now()
	tx, err := d.db.BeginTx(txCtx, nil)
	recordQuery("begin_transaction", txStart, err)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(txCtx, `
		INSERT INTO durations (key, seconds, updated_at)
		VALUES (?, ?, strftime('%s','now'))
		ON CONFLICT(key) DO UPDATE SET
			seconds    = excluded.seconds,
			updated_at = excluded.updated_at
		WHERE excluded.seconds > 0`)
	if err != nil {
		rollback(tx)
		return 0, fmt.Errorf("failed to prepare merge: %w", err)
	}
	defer stmt.Close()

	mergeStart := time.Now()
	var mergeErr error
	for key, seconds := range positive {
		if _, err := stmt.ExecContext(txCtx, key, seconds); err != nil {
			mergeErr = fmt.Errorf("failed to merge duration for %q: %w", key, err)
			break
		}
	}
	recordQuery("merge_durations", mergeStart, mergeErr)
	if mergeErr != nil {
		rollback(tx)
		return 0, mergeErr
	}

	commitStart := time.Now()
	err = tx.Commit()
	recordQuery("commit", commitStart, err)
	if err != nil {
		return 0, fmt.Errorf("failed to commit durations: %w", err)
	}

	d.durMu.Lock()
	for key, seconds := range positive {
		d.durations[key] = seconds
	}
	count := len(d.durations)
	d.durMu.Unlock()

	metrics.DurationsCached.Set(float64(count))
	return len(positive), nil
}

func rollback(tx interface{ Rollback() error }) {
	start := time.Now()
	err := tx.Rollback()
	recordQuery("rollback", start, err)
	if err != nil {
		logging.Warn("Transaction rollback failed: %v", err)
	}
}

// Duration returns the cached duration for a content key, if known.
func (d *Database) Duration(key string) (float64, bool) {
	d.durMu.RLock()
	defer d.durMu.RUnlock()
	seconds, ok := d.durations[key]
	return seconds, ok
}

// DurationSnapshot returns the known durations for the given keys.
// Keys without a cached value are omitted.
func (d *Database) DurationSnapshot(keys []string) map[string]float64 {
	d.durMu.RLock()
	defer d.durMu.RUnlock()

	out := make(map[string]float64, len(keys))
	for _, key := range keys {
		if seconds, ok := d.durations[key]; ok {
			out[key] = seconds
		}
	}
	return out
}

// CountDurations returns the size of the in-memory snapshot.
func (d *Database) CountDurations() int {
	d.durMu.RLock()
	defer d.durMu.RUnlock()
	return len(d.durations)
}

// CountStoredDurations counts rows in the durations table. Used by the
// health endpoint as a cheap end-to-end database check.
func (d *Database) CountStoredDurations(ctx context.Context) (int, error) {
	start := time.Now()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(queryCtx, "SELECT COUNT(*) FROM durations").Scan(&count)
	recordQuery("count_durations", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count durations: %w", err)
	}
	return count, nil
}
