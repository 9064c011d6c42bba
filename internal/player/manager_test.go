package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shareplay/internal/artwork"
	"shareplay/internal/database"
	"shareplay/internal/library"
	"shareplay/internal/playlist"
	"shareplay/internal/resolver"
	"shareplay/internal/sourcecache"
)

type stubResolver struct {
	folder *resolver.Folder
	err    error
}

func (r *stubResolver) Resolve(ctx context.Context, folderRef string) (*resolver.Folder, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.folder, nil
}

func shareTracks(n int) []playlist.Track {
	tracks := make([]playlist.Track, n)
	for i := range tracks {
		tracks[i] = playlist.Track{
			ID:              fmt.Sprintf("track-%d", i),
			Name:            fmt.Sprintf("Song %d by Artist %d.mp3", i, i),
			Title:           fmt.Sprintf("Song %d", i),
			Artist:          fmt.Sprintf("Artist %d", i),
			RemoteStreamURL: fmt.Sprintf("https://cloud.example.com/stream/%d", i),
			ContentKey:      fmt.Sprintf("https://cloud.example.com/files/%d", i),
		}
	}
	return tracks
}

func newTestManager(t *testing.T, res FolderResolver, lib *library.Library) *Manager {
	t.Helper()

	store, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sources, err := sourcecache.New(filepath.Join(t.TempDir(), "sources"))
	if err != nil {
		t.Fatalf("sourcecache.New() error = %v", err)
	}

	art, err := artwork.New(t.TempDir(), nil, nil, artwork.Config{Enabled: false})
	if err != nil {
		t.Fatalf("artwork.New() error = %v", err)
	}

	return NewManager(res, lib, store, nil, art, sources, Config{SessionTTL: time.Hour})
}

func newMediaDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range map[string]string{
		"Respire by Mylene.mp3": "aaaaaaaa",
		"Second Song.mp3":       "bbbb",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCreateFromShare(t *testing.T) {
	tracks := shareTracks(3)
	tracks[1].ArtistImageURL = "https://cloud.example.com/img/artist1.jpg"

	res := &stubResolver{folder: &resolver.Folder{
		FolderID:    "abcdefghij1234567890",
		FolderURL:   "https://cloud.example.com/folders/abcdefghij1234567890",
		DisplayName: "Road Trip",
		Tracks:      tracks,
	}}
	m := newTestManager(t, res, nil)

	s, err := m.CreateFromShare(context.Background(), "abcdefghij1234567890")
	if err != nil {
		t.Fatalf("CreateFromShare() error = %v", err)
	}

	if got, ok := m.Get(s.ID); !ok || got != s {
		t.Fatal("created session not retrievable by id")
	}

	view := m.View(s)
	if view.Source != SourceShare {
		t.Errorf("Source = %q, want %q", view.Source, SourceShare)
	}
	if view.DisplayName != "Road Trip" {
		t.Errorf("DisplayName = %q", view.DisplayName)
	}
	if view.FolderURL != res.folder.FolderURL {
		t.Errorf("FolderURL = %q", view.FolderURL)
	}
	if view.CurrentIndex != 0 || view.Volume != 1.0 {
		t.Errorf("initial state = index %d volume %v", view.CurrentIndex, view.Volume)
	}
	if len(view.Tracks) != 3 {
		t.Fatalf("got %d tracks, want 3", len(view.Tracks))
	}
	if view.Tracks[0].URL != tracks[0].RemoteStreamURL {
		t.Errorf("track URL = %q, want remote stream URL", view.Tracks[0].URL)
	}

	// Artwork caching is disabled in this manager, so the matched track
	// should point straight at the remote image.
	if view.Tracks[1].ArtworkURL != tracks[1].ArtistImageURL {
		t.Errorf("matched ArtworkURL = %q, want remote image URL", view.Tracks[1].ArtworkURL)
	}
	if !strings.HasPrefix(view.Tracks[0].ArtworkURL, PlaceholderPath) {
		t.Errorf("unmatched ArtworkURL = %q, want placeholder", view.Tracks[0].ArtworkURL)
	}
}

func TestCreateFromShareResolveError(t *testing.T) {
	boom := errors.New("listing fetch failed")
	m := newTestManager(t, &stubResolver{err: boom}, nil)

	if _, err := m.CreateFromShare(context.Background(), "ref"); !errors.Is(err, boom) {
		t.Fatalf("CreateFromShare() error = %v, want %v", err, boom)
	}
	if stats := m.GetStats(); stats.ActiveSessions != 0 {
		t.Errorf("ActiveSessions = %d after failed create", stats.ActiveSessions)
	}
}

func TestCreateFromShareEmptyFolder(t *testing.T) {
	res := &stubResolver{folder: &resolver.Folder{DisplayName: "Empty", Tracks: []playlist.Track{}}}
	m := newTestManager(t, res, nil)

	s, err := m.CreateFromShare(context.Background(), "ref")
	if err != nil {
		t.Fatalf("CreateFromShare() error = %v", err)
	}

	view := m.View(s)
	if len(view.Tracks) != 0 {
		t.Errorf("got %d tracks, want 0", len(view.Tracks))
	}
	if view.CurrentIndex != -1 {
		t.Errorf("CurrentIndex = %d, want -1 for an empty playlist", view.CurrentIndex)
	}

	// Navigation on an empty playlist is a no-op, never a panic.
	s.Next()
	s.Prev()
	if idx := m.View(s).CurrentIndex; idx != -1 {
		t.Errorf("CurrentIndex after navigation = %d, want -1", idx)
	}
}

func TestCreateFromLocal(t *testing.T) {
	m := newTestManager(t, nil, library.New(newMediaDir(t)))

	s, err := m.CreateFromLocal("")
	if err != nil {
		t.Fatalf("CreateFromLocal() error = %v", err)
	}

	view := m.View(s)
	if view.Source != SourceLocal {
		t.Errorf("Source = %q, want %q", view.Source, SourceLocal)
	}
	if view.FolderURL != "" {
		t.Errorf("FolderURL = %q, want empty for local playlists", view.FolderURL)
	}
	if len(view.Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(view.Tracks))
	}
	for _, tv := range view.Tracks {
		if !strings.HasPrefix(tv.URL, playlist.LocalStreamPrefix) {
			t.Errorf("track URL = %q, want %s prefix", tv.URL, playlist.LocalStreamPrefix)
		}
	}
}

func TestCreateFromLocalDisabled(t *testing.T) {
	for _, lib := range []*library.Library{nil, library.New("")} {
		m := newTestManager(t, nil, lib)
		if _, err := m.CreateFromLocal(""); !errors.Is(err, library.ErrNoMediaDir) {
			t.Errorf("CreateFromLocal() error = %v, want ErrNoMediaDir", err)
		}
	}
}

func TestNavigation(t *testing.T) {
	res := &stubResolver{folder: &resolver.Folder{DisplayName: "Nav", Tracks: shareTracks(5)}}
	m := newTestManager(t, res, nil)
	s, err := m.CreateFromShare(context.Background(), "ref")
	if err != nil {
		t.Fatal(err)
	}

	if idx := s.Next(); idx != 1 {
		t.Errorf("Next() = %d, want 1", idx)
	}
	if idx := s.Prev(); idx != 0 {
		t.Errorf("Prev() = %d, want 0", idx)
	}
	if err := s.Select(3); err != nil {
		t.Errorf("Select(3) error = %v", err)
	}
	if err := s.Select(99); err == nil {
		t.Error("Select(99) should fail")
	}

	s.SetVolume(2.5)
	if v := m.View(s).Volume; v != 1.0 {
		t.Errorf("Volume = %v, want clamp to 1.0", v)
	}

	s.SetShuffled(true)
	if view := m.View(s); !view.Shuffled || view.Repeated {
		t.Errorf("after shuffle on: shuffled=%v repeated=%v", view.Shuffled, view.Repeated)
	}
	current := m.View(s).CurrentIndex
	for i := 0; i < 20; i++ {
		next := s.Next()
		if next == current {
			t.Fatal("shuffled Next() returned the current index")
		}
		current = next
	}

	s.SetRepeated(true)
	if view := m.View(s); view.Shuffled || !view.Repeated {
		t.Errorf("after repeat on: shuffled=%v repeated=%v", view.Shuffled, view.Repeated)
	}
	if s.shuffle != nil {
		t.Error("shuffle state should be dropped when repeat takes over")
	}
}

func TestTrackEnd(t *testing.T) {
	res := &stubResolver{folder: &resolver.Folder{DisplayName: "End", Tracks: shareTracks(3)}}
	m := newTestManager(t, res, nil)
	s, err := m.CreateFromShare(context.Background(), "ref")
	if err != nil {
		t.Fatal(err)
	}

	s.SetRepeated(true)
	if action := s.TrackEnd(false); action != playlist.EndReplay {
		t.Errorf("TrackEnd(false) = %v, want replay in repeat mode", action)
	}
	if idx := m.View(s).CurrentIndex; idx != 0 {
		t.Errorf("CurrentIndex = %d after replay, want 0", idx)
	}

	if action := s.TrackEnd(true); action != playlist.EndAdvance {
		t.Errorf("TrackEnd(true) = %v, want advance after a failed replay", action)
	}
	if idx := m.View(s).CurrentIndex; idx != 1 {
		t.Errorf("CurrentIndex = %d after advance, want 1", idx)
	}
}

func TestAcquireLocalSource(t *testing.T) {
	m := newTestManager(t, nil, library.New(newMediaDir(t)))
	s, err := m.CreateFromLocal("")
	if err != nil {
		t.Fatal(err)
	}
	trackID := m.View(s).Tracks[0].ID

	src, err := m.AcquireLocalSource(trackID)
	if err != nil {
		t.Fatalf("AcquireLocalSource() error = %v", err)
	}
	if _, err := os.Stat(src.Path); err != nil {
		t.Fatalf("materialized copy not on disk: %v", err)
	}

	// A second request for the same track reuses the session's
	// reference instead of taking another one.
	again, err := m.AcquireLocalSource(trackID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Token != src.Token {
		t.Errorf("second acquire token = %q, want %q", again.Token, src.Token)
	}
	if refs := m.sources.Refs(src.Key); refs != 1 {
		t.Errorf("Refs = %d, want 1 after repeated acquires by one session", refs)
	}

	if !m.Close(s.ID) {
		t.Fatal("Close() = false for a live session")
	}
	if refs := m.sources.Refs(src.Key); refs != 0 {
		t.Errorf("Refs = %d after close, want 0", refs)
	}
	if _, err := os.Stat(src.Path); !os.IsNotExist(err) {
		t.Errorf("materialized copy still on disk after close: %v", err)
	}

	if _, err := m.AcquireLocalSource(trackID); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("acquire after close error = %v, want ErrTrackNotFound", err)
	}
}

func TestAcquireLocalSourceSharedAcrossSessions(t *testing.T) {
	dir := newMediaDir(t)
	m := newTestManager(t, nil, library.New(dir))

	s1, err := m.CreateFromLocal("")
	if err != nil {
		t.Fatal(err)
	}
	s2, err := m.CreateFromLocal("")
	if err != nil {
		t.Fatal(err)
	}

	name := m.View(s1).Tracks[0].Name
	var id2 string
	for _, tv := range m.View(s2).Tracks {
		if tv.Name == name {
			id2 = tv.ID
		}
	}
	if id2 == "" {
		t.Fatal("second session missing the shared track")
	}

	src1, err := m.AcquireLocalSource(m.View(s1).Tracks[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	src2, err := m.AcquireLocalSource(id2)
	if err != nil {
		t.Fatal(err)
	}

	if src1.Token != src2.Token {
		t.Errorf("sessions materialized different copies: %q vs %q", src1.Token, src2.Token)
	}
	if refs := m.sources.Refs(src1.Key); refs != 2 {
		t.Errorf("Refs = %d, want 2 with two sessions holding the track", refs)
	}
	if count, _ := m.sources.Stats(); count != 1 {
		t.Errorf("cache holds %d copies, want 1", count)
	}

	m.Close(s1.ID)
	if refs := m.sources.Refs(src1.Key); refs != 1 {
		t.Errorf("Refs = %d after first close, want 1", refs)
	}
	m.Close(s2.ID)
	if refs := m.sources.Refs(src1.Key); refs != 0 {
		t.Errorf("Refs = %d after second close, want 0", refs)
	}
}

func TestAcquireUnknownTrack(t *testing.T) {
	m := newTestManager(t, nil, nil)
	if _, err := m.AcquireLocalSource("nope"); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("error = %v, want ErrTrackNotFound", err)
	}
}

func TestCloseUnknownSession(t *testing.T) {
	m := newTestManager(t, nil, nil)
	if m.Close("nope") {
		t.Error("Close() = true for an unknown id")
	}
}

func TestDurations(t *testing.T) {
	tracks := shareTracks(3)
	res := &stubResolver{folder: &resolver.Folder{DisplayName: "Durations", Tracks: tracks}}
	m := newTestManager(t, res, nil)

	s, err := m.CreateFromShare(context.Background(), "ref")
	if err != nil {
		t.Fatal(err)
	}

	// Nothing probed yet.
	if d := m.Durations(s); len(d) != 0 {
		t.Errorf("Durations = %v before any merge", d)
	}

	merged := map[string]float64{
		tracks[0].ContentKey: 181.5,
		tracks[2].ContentKey: 96.0,
	}
	if _, err := m.store.MergeDurations(context.Background(), merged); err != nil {
		t.Fatal(err)
	}

	d := m.Durations(s)
	if len(d) != 2 {
		t.Fatalf("Durations has %d entries, want 2", len(d))
	}
	if d[tracks[0].ID] != 181.5 || d[tracks[2].ID] != 96.0 {
		t.Errorf("Durations = %v", d)
	}

	view := m.View(s)
	if view.Tracks[0].Duration != 181.5 || view.Tracks[1].Duration != 0 {
		t.Errorf("view durations = %v / %v", view.Tracks[0].Duration, view.Tracks[1].Duration)
	}
}

func TestReap(t *testing.T) {
	m := newTestManager(t, nil, library.New(newMediaDir(t)))
	s, err := m.CreateFromLocal("")
	if err != nil {
		t.Fatal(err)
	}
	src, err := m.AcquireLocalSource(m.View(s).Tracks[0].ID)
	if err != nil {
		t.Fatal(err)
	}

	// Fresh sessions survive a sweep.
	m.reap()
	if _, ok := m.Get(s.ID); !ok {
		t.Fatal("fresh session reaped")
	}

	s.mu.Lock()
	s.lastUsed = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	m.reap()
	if _, ok := m.Get(s.ID); ok {
		t.Error("idle session still registered after sweep")
	}
	if refs := m.sources.Refs(src.Key); refs != 0 {
		t.Errorf("Refs = %d after reap, want 0", refs)
	}
}

func TestShutdown(t *testing.T) {
	res := &stubResolver{folder: &resolver.Folder{DisplayName: "Bye", Tracks: shareTracks(2)}}
	m := newTestManager(t, res, nil)
	m.Start()

	s1, _ := m.CreateFromShare(context.Background(), "a")
	s2, _ := m.CreateFromShare(context.Background(), "b")

	m.Shutdown()
	if _, ok := m.Get(s1.ID); ok {
		t.Error("session survived shutdown")
	}
	if _, ok := m.Get(s2.ID); ok {
		t.Error("session survived shutdown")
	}

	// A second shutdown is harmless.
	m.Shutdown()
}

func TestGetStats(t *testing.T) {
	lib := library.New(newMediaDir(t))
	res := &stubResolver{folder: &resolver.Folder{DisplayName: "Stats", Tracks: shareTracks(2)}}
	m := newTestManager(t, res, lib)

	if _, err := m.CreateFromShare(context.Background(), "ref"); err != nil {
		t.Fatal(err)
	}
	local, err := m.CreateFromLocal("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.AcquireLocalSource(m.View(local).Tracks[0].ID); err != nil {
		t.Fatal(err)
	}

	stats := m.GetStats()
	if stats.ActiveSessions != 2 {
		t.Errorf("ActiveSessions = %d, want 2", stats.ActiveSessions)
	}
	if stats.LibraryTracks != 2 {
		t.Errorf("LibraryTracks = %d, want 2", stats.LibraryTracks)
	}
	if stats.CachedSources != 1 {
		t.Errorf("CachedSources = %d, want 1", stats.CachedSources)
	}
	if stats.SourceBytes == 0 {
		t.Error("SourceBytes = 0 with a materialized copy")
	}
}

func TestProbeTargets(t *testing.T) {
	tracks := []playlist.Track{
		{ID: "a", ContentKey: "https://cloud.example.com/files/a"},
		{ID: "b", LocalPath: "/media/b.mp3", ContentKey: "b.mp3|1234"},
		{ID: "c"}, // no content identity, skipped
		{ID: "d", GenericURL: "https://elsewhere.example.com/d.mp3", ContentKey: "https://elsewhere.example.com/d.mp3"},
	}

	targets := probeTargets(tracks)
	if len(targets) != 3 {
		t.Fatalf("got %d targets, want 3", len(targets))
	}
	if targets[0].Local || targets[0].Source != tracks[0].ContentKey {
		t.Errorf("remote target = %+v", targets[0])
	}
	if !targets[1].Local || targets[1].Source != "/media/b.mp3" || targets[1].Key != "b.mp3|1234" {
		t.Errorf("local target = %+v", targets[1])
	}
	if targets[2].Local || targets[2].Source != tracks[3].GenericURL {
		t.Errorf("generic target = %+v", targets[2])
	}
}
