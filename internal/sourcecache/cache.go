package sourcecache

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"shareplay/internal/filesystem"
	"shareplay/internal/logging"
	"shareplay/internal/metrics"
)

// Source is a materialized copy of a local file, addressable by token.
type Source struct {
	Key   string
	Token string
	Path  string
	Name  string
	Size  int64
}

type entry struct {
	source Source
	refs   int
}

// Cache holds the materialized copies. All methods are safe for
// concurrent use; materialization happens under the lock so a given
// identity is copied at most once no matter how many sessions race.
type Cache struct {
	dir   string
	retry filesystem.RetryConfig

	mu      sync.Mutex
	byKey   map[string]*entry
	byToken map[string]*entry
}

// New creates a source cache rooted at dir, creating it if needed and
// sweeping out copies left behind by an unclean shutdown.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create source cache directory: %w", err)
	}

	c := &Cache{
		dir:     dir,
		retry:   filesystem.DefaultRetryConfig(),
		byKey:   make(map[string]*entry),
		byToken: make(map[string]*entry),
	}

	if stale, err := os.ReadDir(dir); err == nil && len(stale) > 0 {
		for _, f := range stale {
			os.Remove(filepath.Join(dir, f.Name()))
		}
		logging.Info("Swept %d stale materialized sources from %s", len(stale), dir)
	}

	return c, nil
}

// IdentityKey builds the content identity for a local file. Two files
// with the same name, size, and modification time are treated as the
// same content regardless of which directory they were scanned from.
func IdentityKey(name string, size int64, modTime time.Time) string {
	return fmt.Sprintf("%s|%d|%d", name, size, modTime.Unix())
}

// Acquire materializes the file at path (or reuses the existing copy)
// and takes a reference on it.
func (c *Cache) Acquire(path string) (Source, error) {
	info, err := filesystem.StatWithRetry(path, c.retry)
	if err != nil {
		metrics.SourceCacheMaterializations.WithLabelValues("error").Inc()
		return Source{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	key := IdentityKey(info.Name(), info.Size(), info.ModTime())

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byKey[key]; ok {
		e.refs++
		metrics.SourceCacheHits.Inc()
		return e.source, nil
	}
	metrics.SourceCacheMisses.Inc()

	src, err := c.materialize(path, info.Name(), info.Size(), key)
	if err != nil {
		metrics.SourceCacheMaterializations.WithLabelValues("error").Inc()
		return Source{}, err
	}
	metrics.SourceCacheMaterializations.WithLabelValues("success").Inc()

	e := &entry{source: src, refs: 1}
	c.byKey[key] = e
	c.byToken[src.Token] = e
	c.updateGauges()

	logging.Debug("Materialized %s as %s (%d bytes)", path, src.Token, src.Size)
	return src, nil
}

// materialize copies the file into the cache directory. Caller holds
// the lock.
func (c *Cache) materialize(path, name string, size int64, key string) (Source, error) {
	token := fmt.Sprintf("%x%s", md5.Sum([]byte(key)), strings.ToLower(filepath.Ext(name)))
	dst := filepath.Join(c.dir, token)

	in, err := filesystem.OpenWithRetry(path, c.retry)
	if err != nil {
		return Source{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return Source{}, fmt.Errorf("failed to create materialized copy: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return Source{}, fmt.Errorf("failed to copy %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return Source{}, fmt.Errorf("failed to finish materialized copy: %w", err)
	}

	return Source{Key: key, Token: token, Path: dst, Name: name, Size: size}, nil
}

// Release drops one reference on a key. The materialized copy is
// deleted when the last reference goes. Releasing an unknown or
// already-fully-released key is a no-op, so double releases on session
// teardown are harmless.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byKey[key]
	if !ok {
		return
	}
	metrics.SourceCacheReleases.Inc()

	e.refs--
	if e.refs > 0 {
		return
	}

	delete(c.byKey, key)
	delete(c.byToken, e.source.Token)
	if err := os.Remove(e.source.Path); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove materialized source %s: %v", e.source.Path, err)
	}
	c.updateGauges()
}

// ByToken looks up a materialized source for streaming.
func (c *Cache) ByToken(token string) (Source, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byToken[token]
	if !ok {
		return Source{}, false
	}
	return e.source, true
}

// Refs returns the current reference count for a key.
func (c *Cache) Refs(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byKey[key]; ok {
		return e.refs
	}
	return 0
}

// Stats returns the number of cached copies and their total bytes.
func (c *Cache) Stats() (int, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsLocked()
}

func (c *Cache) statsLocked() (int, int64) {
	var bytes int64
	for _, e := range c.byKey {
		bytes += e.source.Size
	}
	return len(c.byKey), bytes
}

// updateGauges refreshes the cache gauges. Caller holds the lock.
func (c *Cache) updateGauges() {
	count, bytes := c.statsLocked()
	metrics.SourceCacheCount.Set(float64(count))
	metrics.SourceCacheSize.Set(float64(bytes))
}

// Clear drops every entry and copy regardless of reference counts.
// Shutdown path.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.byKey {
		if err := os.Remove(e.source.Path); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove materialized source %s: %v", e.source.Path, err)
		}
	}
	c.byKey = make(map[string]*entry)
	c.byToken = make(map[string]*entry)
	c.updateGauges()
}
