package server

import (
	"fmt"
	"net/http"
	"sync"

	"soundlens/internal/session"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	err error
}

func (o OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the OAuth2 callback for the CLI login flow. The
// session manager performs the state comparison and code exchange; the
// handler relays the outcome through a one-shot result channel so the CLI can
// wait for completion.
//
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	sessions    *session.Manager
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth callback handler over the given session
// manager.
func NewOAuthHandler(sessions *session.Manager) *OAuthHandler {
	return &OAuthHandler{
		sessions:   sessions,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// An error parameter or a state mismatch aborts the flow without a token
// exchange; otherwise the authorization code is exchanged and persisted.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		err := fmt.Errorf("authorization callback carried no code")
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	if err := h.sessions.CompleteLogin(r.Context(), code, state); err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Login failed", http.StatusBadRequest)
		return
	}

	h.Send(OAuthResult{})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
