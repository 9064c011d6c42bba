package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"shareplay/internal/logging"
	"shareplay/internal/player"
	"shareplay/internal/share"
	"shareplay/internal/streaming"
)

// passthroughHeaders are copied from the share service's response so
// clients can seek. Everything else from the upstream is dropped.
var passthroughHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Last-Modified",
	"ETag",
}

// StreamRemote proxies file bytes from the share service, forwarding
// the client's Range header so seeking works end to end. Writes go
// through the timeout writer so a stalled client cannot pin the
// upstream connection forever.
func (h *Handlers) StreamRemote(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["id"]
	if fileID == "" {
		writeJSONError(w, "File id is required", http.StatusBadRequest)
		return
	}

	resp, err := h.client.Stream(r.Context(), fileID, r.Header.Get("Range"))
	if err != nil {
		var shareErr *share.Error
		if errors.As(err, &shareErr) && shareErr.StatusCode == http.StatusNotFound {
			writeJSONError(w, "File not found", http.StatusNotFound)
			return
		}
		logging.Warn("Remote stream failed for %s: %v", fileID, err)
		writeJSONError(w, "Upstream stream failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for _, name := range passthroughHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	// HEAD requests want headers only.
	if r.Method == http.MethodHead {
		return
	}

	if err := streaming.StreamWithTimeout(r.Context(), w, resp.Body, streaming.DefaultTimeoutWriterConfig()); err != nil {
		// Disconnects and timeouts mid-stream are routine; the client
		// re-requests at the offset it needs.
		logging.Debug("Remote stream for %s ended early: %v", fileID, err)
	}
}

// StreamLocal serves a materialized local source. The path segment is
// normally a track ID, materializing on first use; a token of an
// already-materialized copy (recognizable by its extension) is served
// directly. http.ServeFile answers range requests from the copy.
func (h *Handlers) StreamLocal(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	if ref == "" {
		writeJSONError(w, "Track id is required", http.StatusBadRequest)
		return
	}

	if strings.Contains(ref, ".") {
		src, ok := h.sources.ByToken(ref)
		if !ok {
			writeJSONError(w, "Source not found", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, src.Path)
		return
	}

	src, err := h.manager.AcquireLocalSource(ref)
	if err != nil {
		if errors.Is(err, player.ErrTrackNotFound) || errors.Is(err, player.ErrSessionClosed) {
			writeJSONError(w, "Track not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to materialize local source for %s: %v", ref, err)
		writeJSONError(w, "Failed to prepare local source", http.StatusInternalServerError)
		return
	}

	http.ServeFile(w, r, src.Path)
}
