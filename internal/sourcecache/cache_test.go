package sourcecache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	c, err := New(filepath.Join(t.TempDir(), "sources"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func writeAudio(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAcquireMaterializes(t *testing.T) {
	c := newTestCache(t)
	path := writeAudio(t, t.TempDir(), "song.mp3", []byte("audio bytes"))

	src, err := c.Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if src.Token == "" || src.Name != "song.mp3" || src.Size != int64(len("audio bytes")) {
		t.Errorf("Source = %+v", src)
	}
	if filepath.Ext(src.Token) != ".mp3" {
		t.Errorf("token %q should keep the source extension", src.Token)
	}

	copied, err := os.ReadFile(src.Path)
	if err != nil {
		t.Fatalf("materialized copy unreadable: %v", err)
	}
	if string(copied) != "audio bytes" {
		t.Errorf("materialized copy = %q", copied)
	}

	if got, ok := c.ByToken(src.Token); !ok || got.Path != src.Path {
		t.Errorf("ByToken() = %+v, %v", got, ok)
	}
}

func TestAcquireSharesOneCopy(t *testing.T) {
	c := newTestCache(t)
	path := writeAudio(t, t.TempDir(), "shared.mp3", []byte("data"))

	first, err := c.Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	second, err := c.Acquire(path)
	if err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}

	if first.Token != second.Token || first.Path != second.Path {
		t.Errorf("same content produced two copies: %q vs %q", first.Path, second.Path)
	}
	if got := c.Refs(first.Key); got != 2 {
		t.Errorf("Refs() = %d, want 2", got)
	}

	files, err := os.ReadDir(c.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("cache dir holds %d files, want 1", len(files))
	}
}

func TestReleaseDeletesAtZero(t *testing.T) {
	c := newTestCache(t)
	path := writeAudio(t, t.TempDir(), "refcounted.mp3", []byte("data"))

	src, _ := c.Acquire(path)
	c.Acquire(path)

	c.Release(src.Key)
	if _, err := os.Stat(src.Path); err != nil {
		t.Fatalf("copy deleted while still referenced: %v", err)
	}

	c.Release(src.Key)
	if _, err := os.Stat(src.Path); !os.IsNotExist(err) {
		t.Error("copy should be deleted once the last reference drops")
	}
	if _, ok := c.ByToken(src.Token); ok {
		t.Error("ByToken() should miss after full release")
	}

	// Double release is a no-op.
	c.Release(src.Key)
	c.Release("never-acquired")
}

func TestAcquireDistinguishesContent(t *testing.T) {
	c := newTestCache(t)
	dirA := t.TempDir()
	dirB := t.TempDir()

	pathA := writeAudio(t, dirA, "same.mp3", []byte("data"))
	pathB := writeAudio(t, dirB, "same.mp3", []byte("data"))

	// Force distinct modification times so the identities differ.
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(pathB, old, old); err != nil {
		t.Fatal(err)
	}

	srcA, err := c.Acquire(pathA)
	if err != nil {
		t.Fatal(err)
	}
	srcB, err := c.Acquire(pathB)
	if err != nil {
		t.Fatal(err)
	}

	if srcA.Key == srcB.Key {
		t.Error("files with different mtimes should have distinct identities")
	}
	if count, _ := c.Stats(); count != 2 {
		t.Errorf("Stats() count = %d, want 2", count)
	}
}

func TestAcquireMissingFile(t *testing.T) {
	c := newTestCache(t)

	if _, err := c.Acquire(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Error("Acquire() of a missing file should fail")
	}
}

func TestStats(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()

	c.Acquire(writeAudio(t, dir, "a.mp3", []byte("12345")))
	c.Acquire(writeAudio(t, dir, "b.mp3", []byte("1234567890")))

	count, bytes := c.Stats()
	if count != 2 || bytes != 15 {
		t.Errorf("Stats() = %d, %d, want 2, 15", count, bytes)
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t)
	src, _ := c.Acquire(writeAudio(t, t.TempDir(), "a.mp3", []byte("data")))

	c.Clear()

	if count, _ := c.Stats(); count != 0 {
		t.Errorf("Stats() count = %d after Clear, want 0", count)
	}
	if _, err := os.Stat(src.Path); !os.IsNotExist(err) {
		t.Error("Clear() should remove materialized copies")
	}
}

func TestNewSweepsStaleCopies(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sources")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "leftover.mp3")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(dir); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("New() should sweep stale copies from a previous run")
	}
}
