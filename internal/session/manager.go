package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"soundlens/internal/shared"
)

const (
	// refreshThreshold is how close to expiry a token may get before a
	// silent refresh is attempted.
	refreshThreshold = 5 * time.Minute

	// watchInterval is the cadence of the background expiry check.
	watchInterval = time.Minute
)

// Manager owns a single authenticated session: it generates the login
// redirect, completes the authorization-code exchange, refreshes the access
// token before expiry, and tears the session down on logout.
//
// At most one refresh is in flight at a time; concurrent callers share the
// outcome of the in-flight attempt.
type Manager struct {
	auth   Exchanger
	store  Store
	logger *log.Logger
	now    func() time.Time

	mu         sync.Mutex
	token      *oauth2.Token
	loaded     bool
	refreshing chan struct{}
	refreshErr error

	// kick wakes the watcher for an immediate check after the session
	// changes.
	kick chan struct{}
}

// NewManager creates a Manager over the given exchanger and store.
func NewManager(auth Exchanger, store Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Manager{
		auth:   auth,
		store:  store,
		logger: shared.WithLogger(logger, "component", "session"),
		now:    time.Now,
		kick:   make(chan struct{}, 1),
	}
}

// BeginLogin generates and persists a fresh anti-forgery state value and
// returns the authorization URL the user agent should be sent to.
func (m *Manager) BeginLogin(ctx context.Context) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", err
	}

	if err := m.store.SaveState(ctx, state); err != nil {
		return "", fmt.Errorf("failed to persist state: %w", err)
	}

	return m.auth.AuthCodeURL(state), nil
}

// CompleteLogin verifies the state echoed back by the authorization redirect
// against the stored value and exchanges the code for tokens. The comparison
// fails closed: no exchange is attempted on mismatch.
func (m *Manager) CompleteLogin(ctx context.Context, code, returnedState string) error {
	stored, err := m.store.TakeState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stored state: %w", err)
	}

	if stored == "" || stored != returnedState {
		return shared.ErrStateMismatch
	}

	token, err := m.auth.Exchange(ctx, code)
	if err != nil {
		return err
	}

	if err := m.setToken(ctx, token); err != nil {
		return err
	}

	m.logger.Info("login complete", "expiry", token.Expiry)
	m.wake()
	return nil
}

// Authenticated reports whether a session is currently held.
func (m *Manager) Authenticated(ctx context.Context) bool {
	token, err := m.current(ctx)
	return err == nil && token != nil && token.AccessToken != ""
}

// Expiry returns the current token's expiry, or the zero time when logged out.
func (m *Manager) Expiry(ctx context.Context) time.Time {
	token, err := m.current(ctx)
	if err != nil || token == nil {
		return time.Time{}
	}
	return token.Expiry
}

// AccessToken returns a bearer token valid for upstream calls, refreshing
// first when the token is within the expiry threshold. An expired token that
// cannot be refreshed is never returned.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	if err := m.RefreshIfNeeded(ctx); err != nil {
		m.mu.Lock()
		expired := m.token == nil || !m.token.Expiry.After(m.now())
		m.mu.Unlock()
		if expired {
			return "", fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		// Not yet expired; the failed early refresh will be retried by
		// the watcher.
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil || m.token.AccessToken == "" {
		return "", shared.ErrNotAuthenticated
	}
	if !m.token.Expiry.After(m.now()) {
		return "", fmt.Errorf("%w: token expired", shared.ErrNotAuthenticated)
	}

	return m.token.AccessToken, nil
}

// RefreshIfNeeded refreshes the token when it expires within the threshold.
// A token further out is left alone and no network call is made. Concurrent
// callers during a refresh wait for and share the in-flight attempt's result.
func (m *Manager) RefreshIfNeeded(ctx context.Context) error {
	if _, err := m.current(ctx); err != nil {
		return err
	}

	m.mu.Lock()

	if m.token == nil || m.token.AccessToken == "" {
		m.mu.Unlock()
		return shared.ErrNotAuthenticated
	}

	if m.token.Expiry.Sub(m.now()) > refreshThreshold {
		m.mu.Unlock()
		return nil
	}

	if m.refreshing != nil {
		done := m.refreshing
		m.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		m.mu.Lock()
		err := m.refreshErr
		m.mu.Unlock()
		return err
	}

	done := make(chan struct{})
	m.refreshing = done
	refreshToken := m.token.RefreshToken
	m.mu.Unlock()

	err := m.refresh(ctx, refreshToken)

	m.mu.Lock()
	m.refreshErr = err
	m.refreshing = nil
	close(done)
	m.mu.Unlock()

	return err
}

// refresh performs the refresh grant and commits the result. The refresh
// token is replaced only when the response carried a new one; rotation is
// optional upstream.
func (m *Manager) refresh(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return shared.ErrNoRefreshToken
	}

	token, err := m.auth.Refresh(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	if err := m.setToken(ctx, token); err != nil {
		return err
	}

	m.logger.Debug("token refreshed", "expiry", token.Expiry)
	return nil
}

// Logout clears all persisted session fields. Calling it with no session is a
// no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	hadSession := m.token != nil
	m.token = nil
	m.loaded = true
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if hadSession {
		m.logger.Info("logged out")
	}
	return nil
}

// Watch runs the periodic expiry check until ctx is cancelled: once
// immediately, then every minute, plus immediately whenever the session
// changes. A failed refresh tears the session down rather than surfacing an
// error mid-session.
func (m *Manager) Watch(ctx context.Context) {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	m.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		case <-m.kick:
			m.check(ctx)
		}
	}
}

// check performs one silent refresh attempt and forces logout when the
// session can no longer be kept alive.
func (m *Manager) check(ctx context.Context) {
	token, err := m.current(ctx)
	if err != nil || token == nil || token.AccessToken == "" {
		return
	}

	if err := m.RefreshIfNeeded(ctx); err != nil {
		m.logger.Warn("silent refresh failed, logging out", "error", err)
		if err := m.Logout(ctx); err != nil {
			m.logger.Error("failed to tear down session", "error", err)
		}
	}
}

// setToken commits a new token to memory and storage.
func (m *Manager) setToken(ctx context.Context, token *oauth2.Token) error {
	if err := m.store.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.loaded = true
	m.mu.Unlock()

	return nil
}

// current returns the in-memory token, loading it from the store on first
// use.
func (m *Manager) current(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	if m.loaded {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	token, err := m.store.LoadToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	m.mu.Lock()
	if !m.loaded {
		m.token = token
		m.loaded = true
	}
	token = m.token
	m.mu.Unlock()

	return token, nil
}

// wake nudges the watcher for an immediate check.
func (m *Manager) wake() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}
