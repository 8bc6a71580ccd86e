package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"soundlens/internal/session"
)

// AuthHandler serves the browser-facing auth routes in serve mode: the login
// view, the authorization redirect, the callback, and logout.
type AuthHandler struct {
	sessions *session.Manager
	logger   *log.Logger
}

// NewAuthHandler creates an AuthHandler over the given session manager.
func NewAuthHandler(sessions *session.Manager, logger *log.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"/login", "/login/start", "/callback", "/logout"}
}

// ServeHTTP dispatches to the matching auth route.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.loginView(w, r)
	case "/login/start":
		h.start(w, r)
	case "/callback":
		h.callback(w, r)
	case "/logout":
		h.logout(w, r)
	default:
		http.NotFound(w, r)
	}
}

// loginView renders the logged-out view.
func (h *AuthHandler) loginView(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>soundlens</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        a { color: #1DB954; font-weight: bold; }
    </style>
</head>
<body>
    <div class="container">
        <h1>soundlens</h1>
        <p><a href="/login/start">Log in with Spotify</a></p>
    </div>
</body>
</html>
`)
}

// start begins the authorization round trip: a fresh state value is persisted
// and the user agent is redirected to the authorization endpoint.
func (h *AuthHandler) start(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.sessions.BeginLogin(r.Context())
	if err != nil {
		h.logger.Error("failed to begin login", "error", err)
		http.Error(w, "Failed to begin login", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// callback consumes the code/state (or error) parameters of the redirect back
// from the authorization endpoint. An error parameter aborts back to the
// login view without a token exchange; so does a state mismatch.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Warn("authorization denied", "error", errParam)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if err := h.sessions.CompleteLogin(r.Context(), code, state); err != nil {
		h.logger.Warn("login failed", "error", err)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// logout tears the session down and returns to the login view. Idempotent.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", "error", err)
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}
