package ui

import (
	"soundlens/internal/models"
	"soundlens/internal/spotify"
)

// pickFetchedMsg carries today's pick; ok is false when no plays fall inside
// the scoring window.
type pickFetchedMsg struct {
	pick *models.DailyPick
	ok   bool
	err  error
}

// topFetchedMsg carries a top-tracks ranking for one time range.
type topFetchedMsg struct {
	timeRange spotify.TimeRange
	tracks    []models.Track
	err       error
}

// recentFetchedMsg carries the freshly synced recently-played window.
type recentFetchedMsg struct {
	events []models.PlayEvent
	err    error
}

// playlistsFetchedMsg carries the user's library playlists.
type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}
