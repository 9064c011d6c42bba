package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"shareplay/internal/database"
	"shareplay/internal/logging"
	"shareplay/internal/metrics"
)

const (
	// SessionCookieName is the name of the auth session cookie.
	SessionCookieName = "shareplay_session"

	// authSessionDuration is how long a login lasts. Activity slides
	// the expiry forward.
	authSessionDuration = 24 * time.Hour
)

// sessionStore keeps issued auth tokens in memory. Tokens do not
// survive a restart; clients just log in again.
type sessionStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	ttl    time.Duration
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
	}
}

// create issues a new random token.
func (st *sessionStore) create() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	st.mu.Lock()
	st.tokens[token] = time.Now().Add(st.ttl)
	count := len(st.tokens)
	st.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	return token, nil
}

// validate checks a token and slides its expiry forward. Expired
// tokens are removed as they are seen.
func (st *sessionStore) validate(token string) bool {
	if token == "" {
		return false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	expiry, ok := st.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(st.tokens, token)
		metrics.ActiveSessions.Set(float64(len(st.tokens)))
		return false
	}
	st.tokens[token] = time.Now().Add(st.ttl)
	return true
}

// drop forgets a token.
func (st *sessionStore) drop(token string) {
	st.mu.Lock()
	delete(st.tokens, token)
	count := len(st.tokens)
	st.mu.Unlock()
	metrics.ActiveSessions.Set(float64(count))
}

// LoginRequest carries the access password.
type LoginRequest struct {
	Password string `json:"password"`
}

// AuthResponse is the response from authentication endpoints.
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// authRequired reports whether an access password is configured.
// Database errors fail closed.
func (h *Handlers) authRequired(r *http.Request) bool {
	set, err := h.db.AccessPasswordSet(r.Context())
	if err != nil {
		logging.Error("Failed to check access password: %v", err)
		return true
	}
	return set
}

// CheckAuthRequired tells clients whether they need to log in at all.
func (h *Handlers) CheckAuthRequired(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]bool{"required": h.authRequired(r)})
}

// Login validates the access password and issues a session cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if !h.authRequired(r) {
		writeJSONError(w, "No access password configured", http.StatusForbidden)
		return
	}

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.ValidateAccessPassword(r.Context(), req.Password); err != nil {
		if errors.Is(err, database.ErrInvalidPassword) {
			logging.Warn("Failed login attempt")
			metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
			writeJSONError(w, "Invalid password", http.StatusUnauthorized)
			return
		}
		logging.Error("Password validation failed: %v", err)
		writeJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	token, err := h.auth.create()
	if err != nil {
		logging.Error("Failed to create session token: %v", err)
		writeJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(authSessionDuration),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	logging.Info("Login succeeded, session expires in %v", authSessionDuration)
	writeJSON(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(authSessionDuration.Seconds()),
	})
}

// Logout ends the current session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		h.auth.drop(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, AuthResponse{Success: true, Message: "Logged out"})
}

// CheckAuth verifies the current session.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	if !h.authRequired(r) {
		writeJSON(w, AuthResponse{Success: true, Message: "Authentication disabled"})
		return
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || !h.auth.validate(cookie.Value) {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(authSessionDuration.Seconds()),
	})
}

// exemptFromAuth lists paths that must stay reachable without a
// session: probes, metrics, version, and the auth endpoints themselves.
func exemptFromAuth(path string) bool {
	switch path {
	case "/health", "/healthz", "/livez", "/readyz", "/version", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/api/auth/")
}

// AuthMiddleware gates the API behind the access password. With no
// password configured every request passes through.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exemptFromAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if !h.authRequired(r) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || !h.auth.validate(cookie.Value) {
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Sliding expiration: keep the cookie in step with the token.
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    cookie.Value,
			Path:     "/",
			Expires:  time.Now().Add(authSessionDuration),
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})

		next.ServeHTTP(w, r)
	})
}
