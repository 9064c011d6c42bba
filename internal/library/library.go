package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"shareplay/internal/filesystem"
	"shareplay/internal/logging"
	"shareplay/internal/mediatypes"
	"shareplay/internal/metrics"
	"shareplay/internal/playlist"
	"shareplay/internal/trackname"
)

// ErrNoMediaDir is returned when no local media directory is configured.
var ErrNoMediaDir = errors.New("no media directory configured")

// Folder is a scanned directory ready to become a playlist.
type Folder struct {
	DisplayName string
	Tracks      []playlist.Track
}

// Library scans directories under a configured root.
type Library struct {
	dir       string
	retry     filesystem.RetryConfig
	lastCount atomic.Int64
}

// New creates a library rooted at dir. An empty dir disables local
// playlists entirely.
func New(dir string) *Library {
	return &Library{dir: dir, retry: filesystem.DefaultRetryConfig()}
}

// Enabled reports whether a media directory is configured.
func (l *Library) Enabled() bool {
	return l.dir != ""
}

// Dir returns the configured media root.
func (l *Library) Dir() string {
	return l.dir
}

// LastCount returns the track count of the most recent scan.
func (l *Library) LastCount() int {
	return int(l.lastCount.Load())
}

// Scan reads one directory level below the root into a Folder. subdir
// is relative; "" scans the root itself. Subdirectories and non-audio
// files are skipped, and a folder with no audio yields an empty track
// list with a nil error.
func (l *Library) Scan(subdir string) (*Folder, error) {
	if !l.Enabled() {
		return nil, ErrNoMediaDir
	}

	full, err := l.resolve(subdir)
	if err != nil {
		return nil, err
	}

	entries, err := filesystem.ReadDirWithRetry(full, l.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", full, err)
	}

	tracks := make([]playlist.Track, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !mediatypes.IsAudioFile(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logging.Warn("Skipping unreadable library file %s: %v", name, err)
			continue
		}

		path := filepath.Join(full, name)
		title, artist := l.describe(path, name)
		tracks = append(tracks, playlist.Track{
			ID:         uuid.NewString(),
			Name:       name,
			Title:      title,
			Artist:     artist,
			LocalPath:  path,
			ContentKey: fmt.Sprintf("%s|%d", name, info.Size()),
		})
	}

	l.lastCount.Store(int64(len(tracks)))
	metrics.LibraryTracksTotal.Set(float64(len(tracks)))

	return &Folder{
		DisplayName: filepath.Base(full),
		Tracks:      tracks,
	}, nil
}

// resolve joins subdir onto the root and rejects anything that escapes
// it.
func (l *Library) resolve(subdir string) (string, error) {
	full := filepath.Join(l.dir, subdir)

	absRoot, err := filepath.Abs(l.dir)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if absFull != absRoot && !strings.HasPrefix(absFull, absRoot+string(filepath.Separator)) {
		return "", os.ErrPermission
	}

	info, err := filesystem.StatWithRetry(full, l.retry)
	if err != nil {
		return "", fmt.Errorf("directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", subdir)
	}
	return full, nil
}

// describe derives a track's title and artist, preferring embedded tags
// over the file name.
func (l *Library) describe(path, name string) (string, string) {
	parsed := trackname.Parse(name)
	title, artist := parsed.Title, parsed.Artist

	f, err := filesystem.OpenWithRetry(path, l.retry)
	if err != nil {
		return title, artist
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return title, artist
	}
	if t := strings.TrimSpace(m.Title()); t != "" {
		title = t
	}
	if a := strings.TrimSpace(m.Artist()); a != "" {
		artist = a
	}
	return title, artist
}
