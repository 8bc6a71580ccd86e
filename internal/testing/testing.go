// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"soundlens/internal/models"
	"soundlens/internal/shared"
	"soundlens/internal/spotify"
)

// MockMusicService is a test double for the Spotify client surface used by
// the dashboard engine. Unset functions return empty results.
type MockMusicService struct {
	ProfileFn   func(ctx context.Context) (*models.Profile, error)
	TopFn       func(ctx context.Context, timeRange spotify.TimeRange, limit int) ([]models.Track, error)
	RecentFn    func(ctx context.Context, limit int) ([]models.PlayEvent, error)
	PlaylistsFn func(ctx context.Context, limit int) ([]models.Playlist, error)
}

func (m *MockMusicService) Profile(ctx context.Context) (*models.Profile, error) {
	if m.ProfileFn != nil {
		return m.ProfileFn(ctx)
	}
	return &models.Profile{ID: "mock"}, nil
}

func (m *MockMusicService) TopTracks(ctx context.Context, timeRange spotify.TimeRange, limit int) ([]models.Track, error) {
	if m.TopFn != nil {
		return m.TopFn(ctx, timeRange, limit)
	}
	return []models.Track{}, nil
}

func (m *MockMusicService) RecentlyPlayed(ctx context.Context, limit int) ([]models.PlayEvent, error) {
	if m.RecentFn != nil {
		return m.RecentFn(ctx, limit)
	}
	return []models.PlayEvent{}, nil
}

func (m *MockMusicService) Playlists(ctx context.Context, limit int) ([]models.Playlist, error) {
	if m.PlaylistsFn != nil {
		return m.PlaylistsFn(ctx, limit)
	}
	return []models.Playlist{}, nil
}

// NewTestDB opens an in-memory sqlite database with migrations applied and
// registers cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A shared in-memory database only exists on a single connection.
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// Play builds a play event for the given track at the given time.
func Play(trackID, name string, popularity int, playedAt time.Time) models.PlayEvent {
	return models.PlayEvent{
		Track: models.Track{
			ID:         trackID,
			Name:       name,
			Artists:    []string{"Test Artist"},
			AlbumName:  "Test Album",
			DurationMS: 180000,
			Popularity: popularity,
		},
		PlayedAt: playedAt,
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}
