package artwork

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"shareplay/internal/logging"
	"shareplay/internal/memory"
	"shareplay/internal/metrics"
	"shareplay/internal/workers"
)

const (
	// DefaultMaxSize bounds the longer edge of a cached image.
	DefaultMaxSize = 512
	// DefaultQuality is the JPEG quality of cached images.
	DefaultQuality = 85
)

// Fetcher downloads an image by URL. Satisfied by the share client.
type Fetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, string, error)
}

// Config controls artwork caching.
type Config struct {
	Enabled     bool
	VipsEnabled bool
	MaxSize     int
	Quality     int
	Workers     int
}

// DefaultConfig returns the standard artwork configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		VipsEnabled: true,
		MaxSize:     DefaultMaxSize,
		Quality:     DefaultQuality,
	}
}

// Cache is the on-disk artist image cache. Keys are derived from the
// remote image URL, so the same artist image shared by many playlists
// is fetched once.
type Cache struct {
	dir     string
	fetcher Fetcher
	monitor *memory.Monitor
	config  Config

	mu        sync.RWMutex
	fallbacks map[string]string
}

// validKey matches the md5-hex cache keys produced by KeyFor. Serving
// paths use it to reject anything that could escape the cache dir.
var validKey = regexp.MustCompile(`^[0-9a-f]{32}$`)

// KeyFor derives the cache key for a remote image URL.
func KeyFor(imageURL string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(imageURL)))
}

// ValidKey reports whether s has the shape of a cache key.
func ValidKey(s string) bool {
	return validKey.MatchString(s)
}

// New creates the artwork cache rooted at dir. monitor may be nil.
func New(dir string, fetcher Fetcher, monitor *memory.Monitor, config Config) (*Cache, error) {
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMaxSize
	}
	if config.Quality <= 0 {
		config.Quality = DefaultQuality
	}
	if config.Workers <= 0 {
		config.Workers = workers.ForIO(8)
	}

	if config.Enabled {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artwork cache directory: %w", err)
		}
	}

	return &Cache{
		dir:       dir,
		fetcher:   fetcher,
		monitor:   monitor,
		config:    config,
		fallbacks: make(map[string]string),
	}, nil
}

// Enabled reports whether artwork caching is on.
func (c *Cache) Enabled() bool {
	return c.config.Enabled
}

// Warm fetches and caches the given image URLs on a bounded worker
// pool. Already-cached and known-bad URLs are skipped. Blocks until the
// pool drains; playlist loads run it on a background goroutine.
func (c *Cache) Warm(ctx context.Context, urls []string) {
	if !c.config.Enabled || len(urls) == 0 {
		return
	}

	seen := make(map[string]bool, len(urls))
	unique := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" && !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < c.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if c.monitor != nil {
					c.monitor.WaitIfPaused()
				}
				c.generate(ctx, u)
			}
		}()
	}

	for _, u := range unique {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case jobs <- u:
		}
	}
	close(jobs)
	wg.Wait()
}

// generate fetches one image and writes its normalized JPEG, recording
// a fallback to the remote URL when the bytes cannot be used.
func (c *Cache) generate(ctx context.Context, imageURL string) {
	key := KeyFor(imageURL)
	if _, ok := c.Path(key); ok {
		return
	}
	if _, ok := c.FallbackURL(key); ok {
		return
	}

	data, _, err := c.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		logging.Warn("Artwork fetch failed for %s, will redirect clients to the remote: %v", imageURL, err)
		c.setFallback(key, imageURL)
		return
	}

	start := time.Now()
	encoded, decoder, err := c.encode(data)
	if err != nil {
		logging.Warn("Artwork decode failed for %s, will redirect clients to the remote: %v", imageURL, err)
		c.setFallback(key, imageURL)
		metrics.ArtworkGenerationsTotal.WithLabelValues(decoder, "error").Inc()
		return
	}

	if err := os.WriteFile(c.filePath(key), encoded, 0o644); err != nil {
		logging.Error("Failed to write artwork %s: %v", key, err)
		metrics.ArtworkGenerationsTotal.WithLabelValues(decoder, "error").Inc()
		return
	}

	metrics.ArtworkGenerationsTotal.WithLabelValues(decoder, "success").Inc()
	metrics.ArtworkGenerationDuration.WithLabelValues(decoder).Observe(time.Since(start).Seconds())
	c.updateGauges()
}

// encode normalizes raw image bytes to a bounded JPEG, reporting which
// decoder produced it. The vips path shrinks at decode time; its
// failures fall through to the pure-Go decoder, which handles the odd
// format vips builds lack.
func (c *Cache) encode(data []byte) ([]byte, string, error) {
	if c.config.VipsEnabled && IsVipsAvailable() {
		out, err := encodeWithVips(data, c.config.MaxSize, c.config.Quality)
		if err == nil {
			return out, "vips", nil
		}
		logging.Debug("vips artwork decode failed, trying imaging: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "imaging", fmt.Errorf("failed to decode image: %w", err)
	}
	img = imaging.Fit(img, c.config.MaxSize, c.config.MaxSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.config.Quality}); err != nil {
		return nil, "imaging", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), "imaging", nil
}

func (c *Cache) filePath(key string) string {
	return filepath.Join(c.dir, key+".jpg")
}

// Path returns the on-disk path for a cached key.
func (c *Cache) Path(key string) (string, bool) {
	if !c.config.Enabled || !ValidKey(key) {
		return "", false
	}
	p := c.filePath(key)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// FallbackURL returns the remote URL recorded for a key that could not
// be cached.
func (c *Cache) FallbackURL(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.fallbacks[key]
	return u, ok
}

func (c *Cache) setFallback(key, imageURL string) {
	c.mu.Lock()
	c.fallbacks[key] = imageURL
	c.mu.Unlock()
}

// Resolve reports how a key should be served: from the local path, by
// redirect to the fallback URL, or not at all.
func (c *Cache) Resolve(key string) (path, fallback string, ok bool) {
	if p, hit := c.Path(key); hit {
		metrics.ArtworkCacheHits.Inc()
		return p, "", true
	}
	if u, hit := c.FallbackURL(key); hit {
		metrics.ArtworkCacheHits.Inc()
		return "", u, true
	}
	metrics.ArtworkCacheMisses.Inc()
	return "", "", false
}

// Stats returns the number of cached images and their total bytes.
func (c *Cache) Stats() (int, int64) {
	if !c.config.Enabled {
		return 0, 0
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0
	}

	var count int
	var bytes int64
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		bytes += info.Size()
	}
	return count, bytes
}

func (c *Cache) updateGauges() {
	count, bytes := c.Stats()
	metrics.ArtworkCacheCount.Set(float64(count))
	metrics.ArtworkCacheSize.Set(float64(bytes))
}
