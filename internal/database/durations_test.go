package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMergeDurations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	merged, err := db.MergeDurations(ctx, map[string]float64{
		"https://share.example/files/abc": 183.4,
		"track.mp3|4194304":               240.0,
	})
	if err != nil {
		t.Fatalf("MergeDurations() error = %v", err)
	}
	if merged != 2 {
		t.Errorf("MergeDurations() merged = %d, want 2", merged)
	}

	if got, ok := db.Duration("https://share.example/files/abc"); !ok || got != 183.4 {
		t.Errorf("Duration() = %v, %v, want 183.4, true", got, ok)
	}
	if got := db.CountDurations(); got != 2 {
		t.Errorf("CountDurations() = %d, want 2", got)
	}
}

func TestMergeDurationsDropsNonPositive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	merged, err := db.MergeDurations(ctx, map[string]float64{
		"timed-out.mp3|100": 0,
		"broken.mp3|200":    -1,
	})
	if err != nil {
		t.Fatalf("MergeDurations() error = %v", err)
	}
	if merged != 0 {
		t.Errorf("MergeDurations() merged = %d, want 0", merged)
	}

	if _, ok := db.Duration("timed-out.mp3|100"); ok {
		t.Error("zero duration should not be cached; key must stay probe-eligible")
	}
}

func TestMergeDurationsMonotonic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.MergeDurations(ctx, map[string]float64{"song.mp3|1000": 95.5}); err != nil {
		t.Fatalf("MergeDurations() error = %v", err)
	}

	// A later failed probe for the same key reports 0. The recorded
	// value must survive.
	if _, err := db.MergeDurations(ctx, map[string]float64{"song.mp3|1000": 0}); err != nil {
		t.Fatalf("MergeDurations() error = %v", err)
	}
	if got, ok := db.Duration("song.mp3|1000"); !ok || got != 95.5 {
		t.Errorf("Duration() after zero merge = %v, %v, want 95.5, true", got, ok)
	}

	// A later positive value replaces the old one.
	if _, err := db.MergeDurations(ctx, map[string]float64{"song.mp3|1000": 96.1}); err != nil {
		t.Fatalf("MergeDurations() error = %v", err)
	}
	if got, _ := db.Duration("song.mp3|1000"); got != 96.1 {
		t.Errorf("Duration() after positive merge = %v, want 96.1", got)
	}
}

func TestDurationsPersistAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := db.MergeDurations(ctx, map[string]float64{"persisted.mp3|42": 61.2}); err != nil {
		t.Fatalf("MergeDurations() error = %v", err)
	}
	db.Close()

	db2, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db2.Close()

	if got, ok := db2.Duration("persisted.mp3|42"); !ok || got != 61.2 {
		t.Errorf("Duration() after reopen = %v, %v, want 61.2, true", got, ok)
	}

	count, err := db2.CountStoredDurations(ctx)
	if err != nil {
		t.Fatalf("CountStoredDurations() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountStoredDurations() = %d, want 1", count)
	}
}

func TestDurationSnapshot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.MergeDurations(ctx, map[string]float64{"a|1": 10, "b|2": 20}); err != nil {
		t.Fatalf("MergeDurations() error = %v", err)
	}

	got := db.DurationSnapshot([]string{"a|1", "b|2", "unknown|3"})
	if len(got) != 2 {
		t.Fatalf("DurationSnapshot() returned %d entries, want 2", len(got))
	}
	if got["a|1"] != 10 || got["b|2"] != 20 {
		t.Errorf("DurationSnapshot() = %v", got)
	}
	if _, ok := got["unknown|3"]; ok {
		t.Error("DurationSnapshot() should omit unknown keys")
	}
}

func TestMergeDurationsEmpty(t *testing.T) {
	db := newTestDB(t)

	merged, err := db.MergeDurations(context.Background(), nil)
	if err != nil {
		t.Fatalf("MergeDurations(nil) error = %v", err)
	}
	if merged != 0 {
		t.Errorf("MergeDurations(nil) merged = %d, want 0", merged)
	}
}
