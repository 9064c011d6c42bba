package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"shareplay/internal/library"
	"shareplay/internal/logging"
	"shareplay/internal/player"
	"shareplay/internal/resolver"
	"shareplay/internal/share"
)

// CreatePlaylistRequest selects what to load: a share folder reference
// (URL or raw id) or a directory of the local library.
type CreatePlaylistRequest struct {
	FolderRef string `json:"folderRef"`
	LocalDir  string `json:"localDir"`
	Source    string `json:"source"`
}

// CreatePlaylistResponse wraps the created playlist. Status is
// "no_files" when the folder resolved but held nothing playable.
type CreatePlaylistResponse struct {
	Status   string      `json:"status"`
	Playlist player.View `json:"playlist"`
}

// NavigationResponse reports the playback position after a navigation
// event. Track is omitted while the playlist is empty.
type NavigationResponse struct {
	Action       string            `json:"action,omitempty"`
	CurrentIndex int               `json:"currentIndex"`
	Track        *player.TrackView `json:"track,omitempty"`
	Shuffled     bool              `json:"shuffled"`
	Repeated     bool              `json:"repeated"`
	Volume       float64           `json:"volume"`
}

// CreatePlaylist loads a playlist from a share folder or the local
// library and opens a playback session for it.
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req CreatePlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var (
		s   *player.Session
		err error
	)
	switch {
	case req.FolderRef != "":
		s, err = h.manager.CreateFromShare(r.Context(), req.FolderRef)
	case req.Source == player.SourceLocal || req.LocalDir != "":
		s, err = h.manager.CreateFromLocal(req.LocalDir)
	default:
		writeJSONError(w, "folderRef or localDir is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.writePlaylistError(w, err)
		return
	}

	view := h.manager.View(s)
	status := "ok"
	if len(view.Tracks) == 0 {
		status = "no_files"
	}
	writeJSON(w, CreatePlaylistResponse{Status: status, Playlist: view})
}

// writePlaylistError maps playlist creation failures onto status codes.
func (h *Handlers) writePlaylistError(w http.ResponseWriter, err error) {
	logging.Warn("Playlist creation failed: %v", err)

	var shareErr *share.Error
	switch {
	case errors.Is(err, share.ErrInvalidFolderRef):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, resolver.ErrTracksFolderNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, library.ErrNoMediaDir):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, os.ErrPermission):
		writeJSONError(w, "Invalid path", http.StatusForbidden)
	case errors.Is(err, fs.ErrNotExist):
		writeJSONError(w, "Directory not found", http.StatusNotFound)
	case errors.As(err, &shareErr):
		if shareErr.StatusCode == http.StatusNotFound {
			writeJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			writeJSONError(w, err.Error(), http.StatusBadGateway)
		}
	default:
		writeJSONError(w, "Failed to create playlist", http.StatusInternalServerError)
	}
}

// session resolves the {id} path variable, writing a 404 when the
// session is unknown.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*player.Session, bool) {
	id := mux.Vars(r)["id"]
	s, ok := h.manager.Get(id)
	if !ok {
		writeJSONError(w, "Playlist not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

// GetPlaylist returns the current playlist snapshot.
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.manager.View(s))
}

// DeletePlaylist closes a playback session, releasing whatever local
// sources it held.
func (h *Handlers) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.manager.Close(id) {
		writeJSONError(w, "Playlist not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"status": "closed"})
}

// navigationResponse snapshots the position after a queue transition.
func (h *Handlers) navigationResponse(s *player.Session, action string) NavigationResponse {
	view := h.manager.View(s)
	resp := NavigationResponse{
		Action:       action,
		CurrentIndex: view.CurrentIndex,
		Shuffled:     view.Shuffled,
		Repeated:     view.Repeated,
		Volume:       view.Volume,
	}
	if view.CurrentIndex >= 0 && view.CurrentIndex < len(view.Tracks) {
		track := view.Tracks[view.CurrentIndex]
		resp.Track = &track
	}
	return resp
}

// NextTrack advances playback.
func (h *Handlers) NextTrack(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Next()
	writeJSON(w, h.navigationResponse(s, ""))
}

// PrevTrack steps playback backward.
func (h *Handlers) PrevTrack(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Prev()
	writeJSON(w, h.navigationResponse(s, ""))
}

// SelectTrack jumps to a chosen track index.
func (h *Handlers) SelectTrack(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Index int `json:"index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.Select(req.Index); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, h.navigationResponse(s, ""))
}

// SetShuffle toggles shuffle mode.
func (h *Handlers) SetShuffle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.SetShuffled(req.Enabled)
	writeJSON(w, h.navigationResponse(s, ""))
}

// SetRepeat toggles repeat mode.
func (h *Handlers) SetRepeat(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.SetRepeated(req.Enabled)
	writeJSON(w, h.navigationResponse(s, ""))
}

// SetVolume stores the playback volume.
func (h *Handlers) SetVolume(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Volume float64 `json:"volume"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.SetVolume(req.Volume)
	writeJSON(w, h.navigationResponse(s, ""))
}

// TrackEnded handles the client's report that the current track played
// to completion (or that a repeat-mode replay failed), and tells it
// whether to replay or advance.
func (h *Handlers) TrackEnded(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		ReplayFailed bool `json:"replayFailed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	action := s.TrackEnd(req.ReplayFailed)
	writeJSON(w, h.navigationResponse(s, action.String()))
}

// GetDurations returns the probed track durations known so far, keyed
// by track ID. Clients poll this while the background probe fills in.
func (h *Handlers) GetDurations(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.manager.Durations(s))
}

// QR limits.
const (
	qrDefaultSize = 256
	qrMinSize     = 64
	qrMaxSize     = 1024
)

// GetQR renders the playlist's source folder URL as a QR PNG so the
// folder can be reshared across devices. Local playlists have no
// shareable URL.
func (h *Handlers) GetQR(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if s.FolderURL == "" {
		writeJSONError(w, "Playlist has no shareable URL", http.StatusNotFound)
		return
	}

	size := qrDefaultSize
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil {
		size = v
	}
	if size < qrMinSize {
		size = qrMinSize
	}
	if size > qrMaxSize {
		size = qrMaxSize
	}

	png, err := qrcode.Encode(s.FolderURL, qrcode.Medium, size)
	if err != nil {
		logging.Error("Failed to encode QR for %s: %v", s.FolderURL, err)
		writeJSONError(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(png); err != nil {
		logging.Debug("QR write failed: %v", err)
	}
}
