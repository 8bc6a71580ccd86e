package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"soundlens/internal/models"
	"soundlens/internal/pick"
	"soundlens/internal/repositories"
	"soundlens/internal/shared"
	"soundlens/internal/spotify"
	"soundlens/internal/tasks"
	tu "soundlens/internal/testing"
)

// upstreamAPI is a canned Spotify Web API for handler tests.
type upstreamAPI struct {
	status    int
	lastQuery map[string]string
}

func (u *upstreamAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u.lastQuery = make(map[string]string)
		for key := range r.URL.Query() {
			u.lastQuery[key] = r.URL.Query().Get(key)
		}

		if u.status != 0 {
			http.Error(w, `{"error": {"status": 500, "message": "server error"}}`, u.status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/me":
			w.Write([]byte(`{"id": "user-1", "display_name": "Test Listener", "followers": {"total": 3}}`))
		case "/me/top/tracks":
			w.Write([]byte(`{"items": [{"id": "trk-1", "name": "Top Song", "album": {}}]}`))
		case "/me/playlists":
			w.Write([]byte(`{"items": [{"id": "pl-1", "name": "Morning Mix", "tracks": {"total": 5}}]}`))
		default:
			http.NotFound(w, r)
		}
	}
}

type apiFixture struct {
	handler  *APIHandler
	service  *tu.MockMusicService
	upstream *upstreamAPI
}

// newAPIFixture assembles an APIHandler over an in-memory database, a stub
// authorization server, a canned Web API, and a mock for the engine's
// service. When authenticated is set, the fixture logs in first.
func newAPIFixture(t *testing.T, authenticated bool) *apiFixture {
	t.Helper()

	logger := shared.NewLogger(&bytes.Buffer{})
	sessions := newTestSessions(t, &stubExchanger{})
	if authenticated {
		login(t, sessions)
	}

	upstream := &upstreamAPI{}
	ts := httptest.NewServer(upstream.handler())
	t.Cleanup(ts.Close)

	client := spotify.NewClient(sessions,
		spotify.WithBaseURL(ts.URL),
		spotify.WithClient(ts.Client()),
	)

	db := tu.NewTestDB(t)
	service := &tu.MockMusicService{}
	engine := tasks.NewDashboardEngine(
		service,
		repositories.NewPlayEventRepository(db),
		pick.NewMemo(repositories.NewPickRepository(db), logger),
	)

	return &apiFixture{
		handler:  NewAPIHandler(client, engine, sessions, logger),
		service:  service,
		upstream: upstream,
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	t.Run("logged out", func(t *testing.T) {
		fx := newAPIFixture(t, false)

		rec := get(t, fx.handler, "/health")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		body := decodeBody(t, rec)
		if body["status"] != "ok" {
			t.Errorf("status field = %v", body["status"])
		}
		if body["authenticated"] != false {
			t.Errorf("authenticated = %v, want false", body["authenticated"])
		}
	})

	t.Run("logged in", func(t *testing.T) {
		fx := newAPIFixture(t, true)

		body := decodeBody(t, get(t, fx.handler, "/health"))
		if body["authenticated"] != true {
			t.Errorf("authenticated = %v, want true", body["authenticated"])
		}
	})
}

func TestRequiresSession(t *testing.T) {
	fx := newAPIFixture(t, false)

	routes := []string{
		"/api/profile",
		"/api/top-tracks",
		"/api/recently-played",
		"/api/playlists",
		"/api/song-of-the-day",
	}

	for _, route := range routes {
		t.Run(route, func(t *testing.T) {
			rec := get(t, fx.handler, route)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if body := decodeBody(t, rec); body["error"] != "not authenticated" {
				t.Errorf("error = %v", body["error"])
			}
		})
	}
}

func TestIndex(t *testing.T) {
	t.Run("logged out redirects to login", func(t *testing.T) {
		fx := newAPIFixture(t, false)

		rec := get(t, fx.handler, "/")
		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/login" {
			t.Errorf("Location = %q, want /login", got)
		}
	})

	t.Run("logged in lists the data routes", func(t *testing.T) {
		fx := newAPIFixture(t, true)

		rec := get(t, fx.handler, "/")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "/api/song-of-the-day") {
			t.Error("index missing the song-of-the-day link")
		}
	})
}

func TestProfileRoute(t *testing.T) {
	t.Run("returns the profile", func(t *testing.T) {
		fx := newAPIFixture(t, true)

		rec := get(t, fx.handler, "/api/profile")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if body := decodeBody(t, rec); body["displayName"] != "Test Listener" {
			t.Errorf("displayName = %v", body["displayName"])
		}
	})

	t.Run("upstream failure maps to bad gateway", func(t *testing.T) {
		fx := newAPIFixture(t, true)
		fx.upstream.status = http.StatusInternalServerError

		rec := get(t, fx.handler, "/api/profile")
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
		if body := decodeBody(t, rec); body["error"] != "upstream request failed" {
			t.Errorf("error = %v", body["error"])
		}
	})
}

func TestTopTracksRoute(t *testing.T) {
	t.Run("defaults to the medium range", func(t *testing.T) {
		fx := newAPIFixture(t, true)

		rec := get(t, fx.handler, "/api/top-tracks")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		body := decodeBody(t, rec)
		if body["range"] != "medium_term" {
			t.Errorf("range = %v, want medium_term", body["range"])
		}
		if got := fx.upstream.lastQuery["time_range"]; got != "medium_term" {
			t.Errorf("upstream time_range = %q", got)
		}
	})

	t.Run("honors the range parameter", func(t *testing.T) {
		fx := newAPIFixture(t, true)

		rec := get(t, fx.handler, "/api/top-tracks?range=long_term")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := fx.upstream.lastQuery["time_range"]; got != "long_term" {
			t.Errorf("upstream time_range = %q, want long_term", got)
		}
	})

	t.Run("rejects an unknown range", func(t *testing.T) {
		fx := newAPIFixture(t, true)

		rec := get(t, fx.handler, "/api/top-tracks?range=last_week")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if body := decodeBody(t, rec); body["error"] != "invalid range" {
			t.Errorf("error = %v", body["error"])
		}
	})
}

func TestRecentlyPlayedRoute(t *testing.T) {
	fx := newAPIFixture(t, true)

	now := time.Now()
	fx.service.RecentFn = func(ctx context.Context, limit int) ([]models.PlayEvent, error) {
		return []models.PlayEvent{
			tu.Play("trk-1", "First", 50, now.Add(-time.Hour)),
			tu.Play("trk-2", "Second", 60, now.Add(-2*time.Hour)),
		}, nil
	}

	rec := get(t, fx.handler, "/api/recently-played")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	items, ok := body["items"].([]any)
	if !ok {
		t.Fatalf("items = %T", body["items"])
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
}

func TestSongOfTheDayRoute(t *testing.T) {
	t.Run("returns the daily pick", func(t *testing.T) {
		fx := newAPIFixture(t, true)

		now := time.Now()
		fx.service.RecentFn = func(ctx context.Context, limit int) ([]models.PlayEvent, error) {
			return []models.PlayEvent{
				tu.Play("trk-1", "Chosen", 55, now.Add(-time.Hour)),
				tu.Play("trk-1", "Chosen", 55, now.Add(-3*time.Hour)),
			}, nil
		}

		rec := get(t, fx.handler, "/api/song-of-the-day")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}

		body := decodeBody(t, rec)
		track, ok := body["track"].(map[string]any)
		if !ok {
			t.Fatalf("track = %T", body["track"])
		}
		if track["name"] != "Chosen" {
			t.Errorf("track name = %v", track["name"])
		}
		if body["date"] != now.Format(models.PickDateLayout) {
			t.Errorf("date = %v", body["date"])
		}
	})

	t.Run("no history in the window", func(t *testing.T) {
		fx := newAPIFixture(t, true)

		rec := get(t, fx.handler, "/api/song-of-the-day")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if body := decodeBody(t, rec); body["error"] != "no listening history in the last 30 days" {
			t.Errorf("error = %v", body["error"])
		}
	})

	t.Run("same pick on repeated requests", func(t *testing.T) {
		fx := newAPIFixture(t, true)

		now := time.Now()
		fx.service.RecentFn = func(ctx context.Context, limit int) ([]models.PlayEvent, error) {
			return []models.PlayEvent{
				tu.Play("trk-1", "First", 55, now.Add(-time.Hour)),
				tu.Play("trk-2", "Second", 60, now.Add(-2*time.Hour)),
				tu.Play("trk-3", "Third", 45, now.Add(-3*time.Hour)),
			}, nil
		}

		first := decodeBody(t, get(t, fx.handler, "/api/song-of-the-day"))
		second := decodeBody(t, get(t, fx.handler, "/api/song-of-the-day"))

		firstTrack := first["track"].(map[string]any)
		secondTrack := second["track"].(map[string]any)
		if firstTrack["id"] != secondTrack["id"] {
			t.Errorf("pick changed between requests: %v vs %v", firstTrack["id"], secondTrack["id"])
		}
	})
}

func TestPlaylistsRoute(t *testing.T) {
	fx := newAPIFixture(t, true)

	rec := get(t, fx.handler, "/api/playlists")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	items, ok := body["items"].([]any)
	if !ok {
		t.Fatalf("items = %T", body["items"])
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if name := items[0].(map[string]any)["name"]; name != "Morning Mix" {
		t.Errorf("playlist name = %v", name)
	}
}
