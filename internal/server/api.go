package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"soundlens/internal/session"
	"soundlens/internal/shared"
	"soundlens/internal/spotify"
	"soundlens/internal/tasks"
)

// APIHandler serves the JSON data routes backing the dashboard.
type APIHandler struct {
	spotify  *spotify.Client
	engine   *tasks.DashboardEngine
	sessions *session.Manager
	logger   *log.Logger
}

// NewAPIHandler wires the data routes over the Spotify client and the
// dashboard engine.
func NewAPIHandler(
	client *spotify.Client,
	engine *tasks.DashboardEngine,
	sessions *session.Manager,
	logger *log.Logger,
) *APIHandler {
	return &APIHandler{
		spotify:  client,
		engine:   engine,
		sessions: sessions,
		logger:   logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{
		"/",
		"/health",
		"/api/profile",
		"/api/top-tracks",
		"/api/recently-played",
		"/api/playlists",
		"/api/song-of-the-day",
	}
}

// ServeHTTP dispatches to the matching data route.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		h.index(w, r)
	case "/health":
		h.health(w, r)
	case "/api/profile":
		h.profile(w, r)
	case "/api/top-tracks":
		h.topTracks(w, r)
	case "/api/recently-played":
		h.recentlyPlayed(w, r)
	case "/api/playlists":
		h.playlists(w, r)
	case "/api/song-of-the-day":
		h.songOfTheDay(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := shared.MarshalJSON(data, false)
	if err != nil {
		h.logger.Error("failed to marshal response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *APIHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// authed rejects the request with 401 when no live session exists. The
// session layer refreshes expiring tokens on its own; a false here means the
// user has to log in again.
func (h *APIHandler) authed(w http.ResponseWriter, r *http.Request) bool {
	if h.sessions.Authenticated(r.Context()) {
		return true
	}
	h.writeError(w, http.StatusUnauthorized, "not authenticated")
	return false
}

// upstream maps a Spotify client error to a response.
func (h *APIHandler) upstream(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotAuthenticated) {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	h.logger.Error("upstream request failed", "error", err)
	h.writeError(w, http.StatusBadGateway, "upstream request failed")
}

// index is a minimal landing view: logged-out users go to the login view,
// logged-in users get a plain index of the data routes.
func (h *APIHandler) index(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Authenticated(r.Context()) {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head><title>soundlens</title></head>
<body>
    <h1>soundlens</h1>
    <ul>
        <li><a href="/api/profile">Profile</a></li>
        <li><a href="/api/top-tracks">Top tracks</a></li>
        <li><a href="/api/recently-played">Recently played</a></li>
        <li><a href="/api/playlists">Playlists</a></li>
        <li><a href="/api/song-of-the-day">Song of the day</a></li>
        <li><a href="/logout">Log out</a></li>
    </ul>
</body>
</html>
`)
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"authenticated": h.sessions.Authenticated(r.Context()),
	})
}

func (h *APIHandler) profile(w http.ResponseWriter, r *http.Request) {
	if !h.authed(w, r) {
		return
	}

	profile, err := h.spotify.Profile(r.Context())
	if err != nil {
		h.upstream(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}

func (h *APIHandler) topTracks(w http.ResponseWriter, r *http.Request) {
	if !h.authed(w, r) {
		return
	}

	timeRange := spotify.TimeRange(r.URL.Query().Get("range"))
	if timeRange == "" {
		timeRange = spotify.RangeMedium
	}
	if !timeRange.Valid() {
		h.writeError(w, http.StatusBadRequest, "invalid range")
		return
	}

	tracks, err := h.spotify.TopTracks(r.Context(), timeRange, 0)
	if err != nil {
		h.upstream(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"range":  timeRange,
		"tracks": tracks,
	})
}

func (h *APIHandler) recentlyPlayed(w http.ResponseWriter, r *http.Request) {
	if !h.authed(w, r) {
		return
	}

	sync, err := h.engine.SyncHistory(r.Context(), nil)
	if err != nil {
		h.upstream(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"items": sync.Events})
}

func (h *APIHandler) playlists(w http.ResponseWriter, r *http.Request) {
	if !h.authed(w, r) {
		return
	}

	playlists, err := h.spotify.Playlists(r.Context(), 0)
	if err != nil {
		h.upstream(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"items": playlists})
}

// songOfTheDay syncs the latest plays into the local history, then computes
// (or replays from cache) today's pick over the stored window.
func (h *APIHandler) songOfTheDay(w http.ResponseWriter, r *http.Request) {
	if !h.authed(w, r) {
		return
	}

	daily, ok, err := h.engine.PickOfTheDay(r.Context(), nil)
	if err != nil {
		h.logger.Error("failed to compute pick", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to compute pick")
		return
	}
	if !ok {
		h.writeError(w, http.StatusNotFound, "no listening history in the last 30 days")
		return
	}

	h.writeJSON(w, http.StatusOK, daily)
}
