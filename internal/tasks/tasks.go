// package tasks orchestrates dashboard data flows over the Spotify client and
// the local play history.
//
// The core abstraction is DashboardEngine, which syncs play history into
// storage, derives the memoized daily pick, and assembles library snapshots.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"soundlens/internal/models"
	"soundlens/internal/pick"
	"soundlens/internal/shared"
	"soundlens/internal/spotify"
)

// recentFetchLimit is how many plays a sync pulls from Spotify; the API caps
// the recently-played window at this size.
const recentFetchLimit = 50

// MusicService is the slice of the Spotify client the engine depends on.
type MusicService interface {
	Profile(ctx context.Context) (*models.Profile, error)
	TopTracks(ctx context.Context, timeRange spotify.TimeRange, limit int) ([]models.Track, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]models.PlayEvent, error)
	Playlists(ctx context.Context, limit int) ([]models.Playlist, error)
}

// HistoryStore persists the rolling play history window.
type HistoryStore interface {
	Upsert(ctx context.Context, events []models.PlayEvent) (int, error)
	ListSince(ctx context.Context, cutoff time.Time) ([]models.PlayEvent, error)
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// Memoizer computes or replays the daily pick over a window of events.
type Memoizer interface {
	Today(ctx context.Context, events []models.PlayEvent) (*models.DailyPick, bool, error)
	Recompute(ctx context.Context, events []models.PlayEvent) (*models.DailyPick, bool, error)
}

// SyncResult contains the outcome of a history sync.
type SyncResult struct {
	Fetched  int                // Plays returned by Spotify
	Inserted int                // New plays stored (dedup skips the rest)
	Events   []models.PlayEvent // The fetched batch, newest first
}

// SnapshotResult contains all dashboard data fetched in one pass.
type SnapshotResult struct {
	Profile   *models.Profile               // Authenticated user
	Top       map[string][]models.Track     // Top tracks keyed by time range
	Recent    []models.PlayEvent            // Recently played window
	Playlists []models.Playlist             // Library playlists
	Errors    map[string]error              // Failed fetches keyed by section
}

// DashboardEngine orchestrates sync, pick, snapshot and export operations.
type DashboardEngine struct {
	service MusicService
	store   HistoryStore
	picks   Memoizer
	now     func() time.Time
}

// NewDashboardEngine creates a DashboardEngine with the provided dependencies.
func NewDashboardEngine(service MusicService, store HistoryStore, picks Memoizer) *DashboardEngine {
	return &DashboardEngine{
		service: service,
		store:   store,
		picks:   picks,
		now:     time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *DashboardEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// SyncHistory pulls the latest plays from Spotify and folds them into the
// stored history. Plays already stored are skipped; rows older than the
// scoring window are pruned.
func (e *DashboardEngine) SyncHistory(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchRecentUpdate(1, 2))

	events, err := e.service.RecentlyPlayed(ctx, recentFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch recently played: %v", shared.ErrAPIRequest, err)
	}

	inserted, err := e.store.Upsert(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("failed to store play history: %w", err)
	}

	// Rows past the scoring window never influence a pick again.
	if _, err := e.store.Prune(ctx, pick.WindowStart(e.now())); err != nil {
		return nil, fmt.Errorf("failed to prune play history: %w", err)
	}

	e.sendProgress(progress, storeHistoryUpdate(2, 2, inserted))

	return &SyncResult{
		Fetched:  len(events),
		Inserted: inserted,
		Events:   events,
	}, nil
}

// PickOfTheDay syncs the latest plays, loads the scoring window from storage
// and returns today's pick. A failed sync degrades to the stored window; the
// second return is false when no plays fall inside the window.
func (e *DashboardEngine) PickOfTheDay(ctx context.Context, progress chan<- ProgressUpdate) (*models.DailyPick, bool, error) {
	if _, err := e.SyncHistory(ctx, progress); err != nil {
		e.sendProgress(progress, ProgressUpdate{
			Phase:   StoreHistory,
			Step:    1,
			Total:   2,
			Message: fmt.Sprintf("Sync failed, using stored history: %v", err),
		})
	}

	e.sendProgress(progress, computePickUpdate(2, 2))

	window, err := e.store.ListSince(ctx, pick.WindowStart(e.now()))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load play history: %w", err)
	}

	daily, ok, err := e.picks.Today(ctx, window)
	if err != nil || !ok {
		return nil, false, err
	}

	e.sendProgress(progress, pickReadyUpdate(2, 2, daily))
	return daily, true, nil
}

// RecomputePick is PickOfTheDay bypassing the memo cache.
func (e *DashboardEngine) RecomputePick(ctx context.Context, progress chan<- ProgressUpdate) (*models.DailyPick, bool, error) {
	if _, err := e.SyncHistory(ctx, progress); err != nil {
		e.sendProgress(progress, ProgressUpdate{
			Phase:   StoreHistory,
			Step:    1,
			Total:   2,
			Message: fmt.Sprintf("Sync failed, using stored history: %v", err),
		})
	}

	e.sendProgress(progress, computePickUpdate(2, 2))

	window, err := e.store.ListSince(ctx, pick.WindowStart(e.now()))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load play history: %w", err)
	}

	daily, ok, err := e.picks.Recompute(ctx, window)
	if err != nil || !ok {
		return nil, false, err
	}

	e.sendProgress(progress, pickReadyUpdate(2, 2, daily))
	return daily, true, nil
}

// Snapshot fetches every dashboard section in one pass. Individual section
// failures land in Errors rather than aborting the whole snapshot.
func (e *DashboardEngine) Snapshot(ctx context.Context, progress chan<- ProgressUpdate) (*SnapshotResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	result := &SnapshotResult{
		Top:    make(map[string][]models.Track),
		Errors: make(map[string]error),
	}

	ranges := []spotify.TimeRange{spotify.RangeShort, spotify.RangeMedium, spotify.RangeLong}
	totalSteps := 3 + len(ranges)
	step := 0

	step++
	e.sendProgress(progress, fetchProfileUpdate(step, totalSteps))
	if profile, err := e.service.Profile(ctx); err != nil {
		result.Errors["profile"] = err
	} else {
		result.Profile = profile
	}

	for _, timeRange := range ranges {
		step++
		e.sendProgress(progress, fetchTopUpdate(step, totalSteps, string(timeRange)))
		if tracks, err := e.service.TopTracks(ctx, timeRange, 0); err != nil {
			result.Errors["top_"+string(timeRange)] = err
		} else {
			result.Top[string(timeRange)] = tracks
		}
	}

	step++
	e.sendProgress(progress, fetchRecentUpdate(step, totalSteps))
	if sync, err := e.SyncHistory(ctx, nil); err != nil {
		result.Errors["recent"] = err
	} else {
		result.Recent = sync.Events
	}

	step++
	e.sendProgress(progress, fetchPlaylistsUpdate(step, totalSteps))
	if playlists, err := e.service.Playlists(ctx, 0); err != nil {
		result.Errors["playlists"] = err
	} else {
		result.Playlists = playlists
	}

	return result, nil
}
