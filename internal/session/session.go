// Package session owns the OAuth2 token lifecycle: acquisition, persistence,
// expiry tracking, and silent refresh.
package session

import (
	"context"

	"golang.org/x/oauth2"
)

// Store persists the session fields between runs. Implementations back onto
// local key-value storage; see repositories.SessionRepository for the SQLite
// one and MemoryStore for tests.
type Store interface {
	// LoadToken returns the persisted token, or nil when logged out.
	LoadToken(ctx context.Context) (*oauth2.Token, error)

	// SaveToken replaces the persisted token.
	SaveToken(ctx context.Context, token *oauth2.Token) error

	// SaveState persists the anti-forgery state value generated at login.
	SaveState(ctx context.Context, state string) error

	// TakeState returns the stored state and clears it. The value is
	// single-use: a second call returns an empty string.
	TakeState(ctx context.Context) (string, error)

	// Clear removes all persisted session fields.
	Clear(ctx context.Context) error
}

// Exchanger performs the wire exchanges against the authorization server.
// Implemented by spotify.Authenticator.
type Exchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}
