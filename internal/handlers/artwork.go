package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"shareplay/internal/artwork"
	"shareplay/internal/logging"
)

// GetArtwork serves a cached artist image. Keys whose image could not
// be decoded redirect to the original remote URL; keys not cached yet
// (the warm pool may still be working) fall back to a generated
// placeholder when the request names the artist.
func (h *Handlers) GetArtwork(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if !artwork.ValidKey(key) {
		writeJSONError(w, "Invalid artwork key", http.StatusBadRequest)
		return
	}

	path, fallback, ok := h.artwork.Resolve(key)
	switch {
	case ok && path != "":
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeFile(w, r, path)
	case ok && fallback != "":
		http.Redirect(w, r, fallback, http.StatusFound)
	default:
		if name := r.URL.Query().Get("name"); name != "" {
			h.servePlaceholder(w, name)
			return
		}
		writeJSONError(w, "Artwork not found", http.StatusNotFound)
	}
}

// GetPlaceholder serves generated artwork for tracks that matched no
// artist image.
func (h *Handlers) GetPlaceholder(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Unknown"
	}
	h.servePlaceholder(w, name)
}

func (h *Handlers) servePlaceholder(w http.ResponseWriter, name string) {
	png, err := artwork.Placeholder(name)
	if err != nil {
		logging.Error("Failed to render placeholder artwork for %q: %v", name, err)
		writeJSONError(w, "Failed to render placeholder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(png); err != nil {
		logging.Debug("Placeholder write failed: %v", err)
	}
}
