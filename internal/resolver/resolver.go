package resolver

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"shareplay/internal/listing"
	"shareplay/internal/logging"
	"shareplay/internal/metrics"
	"shareplay/internal/playlist"
	"shareplay/internal/share"
	"shareplay/internal/streamurl"
	"shareplay/internal/trackname"
)

// ErrTracksFolderNotFound is returned when a tracks subfolder is
// configured but the resolved folder has no matching subfolder.
var ErrTracksFolderNotFound = errors.New("tracks subfolder not found")

// DefaultArtistSubfolder is the subfolder name fragment searched for
// artist images when none is configured.
const DefaultArtistSubfolder = "artist"

// Config controls folder resolution.
type Config struct {
	// TracksSubfolder, when non-empty, names the subfolder tracks must
	// be read from instead of the folder root. Matching is a
	// case-insensitive substring test on folder entry names.
	TracksSubfolder string

	// ArtistSubfolder names the subfolder scanned for artist images.
	ArtistSubfolder string

	// ImageFetchTimeout bounds the artist image subfolder fetch.
	ImageFetchTimeout time.Duration
}

// DefaultConfig returns the standard resolver configuration.
func DefaultConfig() Config {
	return Config{
		ArtistSubfolder:   DefaultArtistSubfolder,
		ImageFetchTimeout: 5 * time.Second,
	}
}

// Folder is the result of resolving a share folder reference.
type Folder struct {
	FolderID    string
	FolderURL   string
	DisplayName string
	Tracks      []playlist.Track
}

// Resolver resolves share folder references into track lists.
type Resolver struct {
	client *share.Client
	parser listing.Parser
	urls   *streamurl.Resolver
	config Config
}

// New builds a Resolver on top of a share client, a listing parser, and
// a stream URL resolver.
func New(client *share.Client, parser listing.Parser, urls *streamurl.Resolver, config Config) *Resolver {
	if config.ArtistSubfolder == "" {
		config.ArtistSubfolder = DefaultArtistSubfolder
	}
	if config.ImageFetchTimeout <= 0 {
		config.ImageFetchTimeout = 5 * time.Second
	}
	return &Resolver{client: client, parser: parser, urls: urls, config: config}
}

// Resolve fetches and parses the referenced folder into a Folder. An
// empty track list with a nil error means the folder resolved but holds
// no playable audio.
func (r *Resolver) Resolve(ctx context.Context, folderRef string) (*Folder, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.ResolvesTotal.WithLabelValues(status).Inc()
		metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	}()

	folderID, err := share.ParseFolderRef(folderRef)
	if err != nil {
		return nil, err
	}

	page, err := r.client.FetchListing(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch folder %s: %w", folderID, err)
	}

	entries := r.parser.Parse(page)
	images := r.artistImages(ctx, entries)

	source := entries
	if r.config.TracksSubfolder != "" {
		sub := findFolder(entries, r.config.TracksSubfolder)
		if sub == nil {
			status = "not_found"
			return nil, fmt.Errorf("%w: no subfolder matching %q", ErrTracksFolderNotFound, r.config.TracksSubfolder)
		}
		subPage, err := r.client.FetchListing(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch tracks subfolder %q: %w", sub.Name, err)
		}
		source = r.parser.Parse(subPage)
	}

	// Images sitting next to the tracks also count, after the dedicated
	// subfolder.
	for _, e := range source {
		if e.Kind == listing.KindImage {
			images = append(images, e)
		}
	}
	index := buildImageIndex(images)

	folder := &Folder{
		FolderID:    folderID,
		FolderURL:   r.client.FolderURL(folderID),
		DisplayName: displayName(page),
		Tracks:      r.buildTracks(source, index),
	}

	if len(folder.Tracks) == 0 {
		status = "no_files"
	} else {
		status = "success"
	}
	logging.Info("Resolved folder %s (%q): %d tracks, %d artist images", folderID, folder.DisplayName, len(folder.Tracks), len(index))
	return folder, nil
}

// artistImages fetches the image subfolder listing, returning its image
// entries. Failures degrade to no artwork.
func (r *Resolver) artistImages(ctx context.Context, entries []listing.Entry) []listing.Entry {
	folder := findFolder(entries, r.config.ArtistSubfolder)
	if folder == nil {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.config.ImageFetchTimeout)
	defer cancel()

	page, err := r.client.FetchListing(fetchCtx, folder.ID)
	if err != nil {
		logging.Warn("Artist image folder %q fetch failed, continuing without artwork: %v", folder.Name, err)
		return nil
	}

	var images []listing.Entry
	for _, e := range r.parser.Parse(page) {
		if e.Kind == listing.KindImage {
			images = append(images, e)
		}
	}
	return images
}

// buildTracks converts audio entries into playable tracks, attaching
// matched artist image URLs.
func (r *Resolver) buildTracks(entries []listing.Entry, index map[string]string) []playlist.Track {
	tracks := make([]playlist.Track, 0, len(entries))
	for _, e := range entries {
		if e.Kind != listing.KindAudio {
			continue
		}

		parsed := trackname.Parse(e.Name)
		track := playlist.Track{
			ID:              uuid.NewString(),
			Name:            e.Name,
			Title:           parsed.Title,
			Artist:          parsed.Artist,
			RemoteStreamURL: r.urls.Resolve(e.ID),
			ContentKey:      r.client.FileURL(e.ID),
		}
		if imageID := matchArtist(index, parsed.Artist); imageID != "" {
			track.ArtistImageURL = r.client.FileURL(imageID)
		}
		tracks = append(tracks, track)
	}
	return tracks
}

// findFolder returns the first folder entry whose name contains the
// fragment, ignoring case.
func findFolder(entries []listing.Entry, fragment string) *listing.Entry {
	needle := strings.ToLower(fragment)
	for i := range entries {
		e := &entries[i]
		if e.Kind == listing.KindFolder && strings.Contains(strings.ToLower(e.Name), needle) {
			return e
		}
	}
	return nil
}

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// titleSuffixes are the share service's localized page title suffixes,
// stripped to recover the folder's display name.
var titleSuffixes = []string{
	"shared folder",
	"dossier partagé",
	"carpeta compartida",
	"freigegebener ordner",
	"cartella condivisa",
}

// displayName extracts the folder name from the listing page title.
func displayName(page string) string {
	m := titlePattern.FindStringSubmatch(page)
	if m == nil {
		return "Shared Folder"
	}

	title := strings.TrimSpace(html.UnescapeString(m[1]))
	lower := strings.ToLower(title)
	for _, suffix := range titleSuffixes {
		if strings.HasSuffix(lower, suffix) {
			title = strings.TrimSpace(title[:len(title)-len(suffix)])
			title = strings.TrimRight(title, "-–—|:· ")
			title = strings.TrimSpace(title)
			break
		}
	}

	if title == "" {
		return "Shared Folder"
	}
	return title
}
