// Spotify Web API client for the listening dashboard.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"soundlens/internal/models"
	"soundlens/internal/shared"
)

const baseURL = "https://api.spotify.com/v1"

// apiRateLimit is the steady request rate against the Web API.
const apiRateLimit = rate.Limit(8)

// TokenProvider supplies a valid bearer token for API calls. Implementations
// must never return an expired token without an attempted refresh.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// TimeRange selects the aggregation window for top tracks.
type TimeRange string

const (
	RangeShort  TimeRange = "short_term"
	RangeMedium TimeRange = "medium_term"
	RangeLong   TimeRange = "long_term"
)

// Valid reports whether r is one of the ranges the API accepts.
func (r TimeRange) Valid() bool {
	switch r {
	case RangeShort, RangeMedium, RangeLong:
		return true
	}
	return false
}

// Client is a Spotify Web API client scoped to the endpoints the dashboard
// consumes.
type Client struct {
	tokens  TokenProvider
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithClient sets the HTTP client used for API requests.
func WithClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a Client that authenticates requests through the given
// token provider.
func NewClient(tokens TokenProvider, opts ...ClientOption) *Client {
	c := &Client{
		tokens:  tokens,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(apiRateLimit, 1),
		baseURL: baseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs an authenticated GET against the Web API and decodes the JSON
// response into result.
func (c *Client) get(ctx context.Context, endpoint string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload apiError
		if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Error.Message != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, payload.Error.Message)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Profile retrieves the current authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var user User
	if err := c.get(ctx, "/me", &user); err != nil {
		return nil, err
	}

	profile := user.Model()
	return &profile, nil
}

// TopTracks retrieves the user's top tracks for the given time range.
// market=from_token improves the odds of playable preview URLs.
func (c *Client) TopTracks(ctx context.Context, timeRange TimeRange, limit int) ([]models.Track, error) {
	if !timeRange.Valid() {
		return nil, fmt.Errorf("%w: time range %q", shared.ErrInvalidArgument, timeRange)
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	endpoint := fmt.Sprintf("/me/top/tracks?time_range=%s&limit=%d&market=from_token", timeRange, limit)

	var page PaginatedTracks
	if err := c.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for _, t := range page.Items {
		tracks = append(tracks, t.Model())
	}

	return tracks, nil
}

// RecentlyPlayed retrieves the user's most recent playback events, newest
// first. Entries with malformed timestamps are skipped.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]models.PlayEvent, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/player/recently-played?limit=%d", limit)

	var history PlayHistory
	if err := c.get(ctx, endpoint, &history); err != nil {
		return nil, err
	}

	events := make([]models.PlayEvent, 0, len(history.Items))
	for _, item := range history.Items {
		event, err := item.Model()
		if err != nil {
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

// Playlists retrieves the user's playlists.
func (c *Client) Playlists(ctx context.Context, limit int) ([]models.Playlist, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d", limit)

	var page PaginatedPlaylists
	if err := c.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(page.Items))
	for _, p := range page.Items {
		playlists = append(playlists, p.Model())
	}

	return playlists, nil
}

// Track retrieves a single track by ID, used to look up preview URLs on
// demand.
func (c *Client) Track(ctx context.Context, trackID string) (*models.Track, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/tracks/%s?market=from_token", url.PathEscape(trackID))

	var t Track
	if err := c.get(ctx, endpoint, &t); err != nil {
		return nil, err
	}

	track := t.Model()
	return &track, nil
}
