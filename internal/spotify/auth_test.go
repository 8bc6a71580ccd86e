package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"soundlens/internal/shared"
)

// tokenServer records the last token request and replies with the configured
// status and body.
type tokenServer struct {
	status int
	body   string

	lastAuth string
	lastForm map[string]string
}

func (s *tokenServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth = r.Header.Get("Authorization")

		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.lastForm = make(map[string]string)
		for key := range r.PostForm {
			s.lastForm[key] = r.PostForm.Get(key)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		w.Write([]byte(s.body))
	}
}

func newTestAuthenticator(t *testing.T, srv *tokenServer) *Authenticator {
	t.Helper()

	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	auth, err := NewAuthenticator("client-id", "client-secret", "http://localhost:8080/callback",
		WithHTTPClient(ts.Client()),
		WithTokenURL(ts.URL),
	)
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}

	return auth
}

func TestNewAuthenticator(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		if _, err := NewAuthenticator("", "secret", "http://localhost/cb"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("missing client id error = %v, want ErrMissingCredentials", err)
		}
		if _, err := NewAuthenticator("id", "", "http://localhost/cb"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("missing secret error = %v, want ErrMissingCredentials", err)
		}
	})

	t.Run("auth code url", func(t *testing.T) {
		auth, err := NewAuthenticator("client-id", "client-secret", "http://localhost:8080/callback")
		if err != nil {
			t.Fatalf("NewAuthenticator() error = %v", err)
		}

		u := auth.AuthCodeURL("state-abc123")

		for _, want := range []string{
			"https://accounts.spotify.com/authorize",
			"state=state-abc123",
			"client_id=client-id",
			"show_dialog=true",
			"user-top-read",
		} {
			if !strings.Contains(u, want) {
				t.Errorf("AuthCodeURL() = %q, missing %q", u, want)
			}
		}
	})
}

func TestExchange(t *testing.T) {
	t.Run("sends an authorization code grant", func(t *testing.T) {
		srv := &tokenServer{status: http.StatusOK, body: `{
			"access_token": "acc-1",
			"token_type": "Bearer",
			"refresh_token": "ref-1",
			"expires_in": 3600
		}`}
		auth := newTestAuthenticator(t, srv)

		base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		auth.now = func() time.Time { return base }

		token, err := auth.Exchange(context.Background(), "code-xyz")
		if err != nil {
			t.Fatalf("Exchange() error = %v", err)
		}

		if token.AccessToken != "acc-1" {
			t.Errorf("AccessToken = %q, want acc-1", token.AccessToken)
		}
		if token.RefreshToken != "ref-1" {
			t.Errorf("RefreshToken = %q, want ref-1", token.RefreshToken)
		}
		if want := base.Add(time.Hour); !token.Expiry.Equal(want) {
			t.Errorf("Expiry = %v, want %v", token.Expiry, want)
		}

		if got := srv.lastForm["grant_type"]; got != "authorization_code" {
			t.Errorf("grant_type = %q, want authorization_code", got)
		}
		if got := srv.lastForm["code"]; got != "code-xyz" {
			t.Errorf("code = %q, want code-xyz", got)
		}
		if got := srv.lastForm["redirect_uri"]; got != "http://localhost:8080/callback" {
			t.Errorf("redirect_uri = %q", got)
		}
	})

	t.Run("authenticates with http basic", func(t *testing.T) {
		srv := &tokenServer{status: http.StatusOK, body: `{"access_token": "acc", "expires_in": 60}`}
		auth := newTestAuthenticator(t, srv)

		if _, err := auth.Exchange(context.Background(), "code"); err != nil {
			t.Fatalf("Exchange() error = %v", err)
		}

		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:client-secret"))
		if srv.lastAuth != want {
			t.Errorf("Authorization = %q, want %q", srv.lastAuth, want)
		}
	})

	t.Run("defaults the token type", func(t *testing.T) {
		srv := &tokenServer{status: http.StatusOK, body: `{"access_token": "acc", "expires_in": 60}`}
		auth := newTestAuthenticator(t, srv)

		token, err := auth.Exchange(context.Background(), "code")
		if err != nil {
			t.Fatalf("Exchange() error = %v", err)
		}
		if token.TokenType != "Bearer" {
			t.Errorf("TokenType = %q, want Bearer", token.TokenType)
		}
	})

	t.Run("surfaces the accounts error payload", func(t *testing.T) {
		srv := &tokenServer{status: http.StatusBadRequest, body: `{
			"error": "invalid_grant",
			"error_description": "Invalid authorization code"
		}`}
		auth := newTestAuthenticator(t, srv)

		_, err := auth.Exchange(context.Background(), "bad-code")
		if !errors.Is(err, shared.ErrTokenExchangeFailed) {
			t.Fatalf("Exchange() error = %v, want ErrTokenExchangeFailed", err)
		}
		if !strings.Contains(err.Error(), "invalid_grant") {
			t.Errorf("error %q missing upstream code", err)
		}
		if !strings.Contains(err.Error(), "Invalid authorization code") {
			t.Errorf("error %q missing upstream description", err)
		}
	})

	t.Run("falls back to the status code on an opaque error body", func(t *testing.T) {
		srv := &tokenServer{status: http.StatusServiceUnavailable, body: `upstream down`}
		auth := newTestAuthenticator(t, srv)

		_, err := auth.Exchange(context.Background(), "code")
		if !errors.Is(err, shared.ErrTokenExchangeFailed) {
			t.Fatalf("Exchange() error = %v, want ErrTokenExchangeFailed", err)
		}
		if !strings.Contains(err.Error(), "status 503") {
			t.Errorf("error %q missing status code", err)
		}
	})

	t.Run("rejects a response without an access token", func(t *testing.T) {
		srv := &tokenServer{status: http.StatusOK, body: `{"expires_in": 3600}`}
		auth := newTestAuthenticator(t, srv)

		if _, err := auth.Exchange(context.Background(), "code"); !errors.Is(err, shared.ErrTokenExchangeFailed) {
			t.Errorf("Exchange() error = %v, want ErrTokenExchangeFailed", err)
		}
	})
}

func TestRefreshGrant(t *testing.T) {
	t.Run("sends a refresh token grant", func(t *testing.T) {
		srv := &tokenServer{status: http.StatusOK, body: `{
			"access_token": "acc-2",
			"expires_in": 3600
		}`}
		auth := newTestAuthenticator(t, srv)

		token, err := auth.Refresh(context.Background(), "ref-1")
		if err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}

		if got := srv.lastForm["grant_type"]; got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		if got := srv.lastForm["refresh_token"]; got != "ref-1" {
			t.Errorf("refresh_token = %q, want ref-1", got)
		}
		if token.AccessToken != "acc-2" {
			t.Errorf("AccessToken = %q, want acc-2", token.AccessToken)
		}
		// Rotation is optional upstream; an omitted refresh token passes
		// through empty and the caller keeps the prior one.
		if token.RefreshToken != "" {
			t.Errorf("RefreshToken = %q, want empty", token.RefreshToken)
		}
	})

	t.Run("requires a refresh token", func(t *testing.T) {
		srv := &tokenServer{status: http.StatusOK, body: `{"access_token": "acc", "expires_in": 60}`}
		auth := newTestAuthenticator(t, srv)

		if _, err := auth.Refresh(context.Background(), ""); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("Refresh() error = %v, want ErrNoRefreshToken", err)
		}
		if srv.lastForm != nil {
			t.Error("Refresh() hit the token endpoint without a refresh token")
		}
	})
}

func TestTokenResponseDecoding(t *testing.T) {
	// The accounts service reports lifetimes in seconds.
	var tr tokenResponse
	body := `{"access_token": "a", "token_type": "Bearer", "expires_in": 3600, "scope": "user-top-read"}`
	if err := json.Unmarshal([]byte(body), &tr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tr.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", tr.ExpiresIn)
	}
}
