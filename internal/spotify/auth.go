package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"soundlens/internal/shared"
)

const (
	authURL  = "https://accounts.spotify.com/authorize"
	tokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes requested at login. Read-only access to the listening data the
// dashboard shows.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"user-read-recently-played",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// Authenticator performs the OAuth2 Authorization Code exchanges against the
// Spotify accounts service.
//
// The exchange and refresh POSTs are issued directly rather than through
// [oauth2.Config.Exchange] so the expiry computation, refresh-token retention,
// and upstream error payloads stay explicit.
type Authenticator struct {
	config *oauth2.Config
	client *http.Client

	// tokenURL is overridable for tests.
	tokenURL string
	now      func() time.Time
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithHTTPClient sets the HTTP client used for token requests.
func WithHTTPClient(c *http.Client) AuthenticatorOption {
	return func(a *Authenticator) { a.client = c }
}

// WithTokenURL overrides the accounts token endpoint.
func WithTokenURL(u string) AuthenticatorOption {
	return func(a *Authenticator) { a.tokenURL = u }
}

// NewAuthenticator creates an Authenticator for the given application
// credentials. Returns [shared.ErrMissingCredentials] when the client id or
// secret is empty.
func NewAuthenticator(clientID, clientSecret, redirectURI string, opts ...AuthenticatorOption) (*Authenticator, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client id and secret are required", shared.ErrMissingCredentials)
	}

	a := &Authenticator{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		client:   &http.Client{Timeout: 30 * time.Second},
		tokenURL: tokenURL,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// AuthCodeURL builds the authorization redirect for the given state value.
// show_dialog forces the consent screen so account switching stays possible.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for tokens. The returned token's
// expiry is the exchange time plus the server-reported lifetime.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {a.config.RedirectURL},
	}
	return a.post(ctx, form)
}

// Refresh performs a refresh-token grant. The response may omit the refresh
// token; rotation is optional upstream, so the caller retains the prior one
// when the returned token carries none.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return a.post(ctx, form)
}

// post issues a form-encoded token request authenticated with HTTP Basic.
func (a *Authenticator) post(ctx context.Context, form url.Values) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(a.config.ClientID, a.config.ClientSecret)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchangeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", shared.ErrTokenExchangeFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload authError
		if json.Unmarshal(body, &payload) == nil && payload.Code != "" {
			return nil, fmt.Errorf("%w: %s: %s", shared.ErrTokenExchangeFailed, payload.Code, payload.Description)
		}
		return nil, fmt.Errorf("%w: status %d", shared.ErrTokenExchangeFailed, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", shared.ErrTokenExchangeFailed, err)
	}

	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access token", shared.ErrTokenExchangeFailed)
	}

	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return &oauth2.Token{
		AccessToken:  tr.AccessToken,
		TokenType:    tokenType,
		RefreshToken: tr.RefreshToken,
		Expiry:       a.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}
