package tasks

import (
	"fmt"

	"soundlens/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchRecent Phase = iota
	StoreHistory
	ComputePick
	FetchProfile
	FetchTop
	FetchPlaylists
	ExportList
)

func (p Phase) String() string {
	switch p {
	case FetchRecent:
		return "fetch_recent"
	case StoreHistory:
		return "store_history"
	case ComputePick:
		return "compute_pick"
	case FetchProfile:
		return "fetch_profile"
	case FetchTop:
		return "fetch_top"
	case FetchPlaylists:
		return "fetch_playlists"
	case ExportList:
		return "export_list"
	default:
		return ""
	}
}

func fetchRecentUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecent,
		Step:    step,
		Total:   total,
		Message: "Fetching recently played tracks from Spotify...",
	}
}

func storeHistoryUpdate(step, total, inserted int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StoreHistory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Stored %d new plays", inserted),
	}
}

func computePickUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ComputePick,
		Step:    step,
		Total:   total,
		Message: "Computing song of the day...",
	}
}

func pickReadyUpdate(step, total int, p *models.DailyPick) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ComputePick,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Song of the day: %s - %s", p.Track.ArtistLine(), p.Track.Name),
		Data:    p,
	}
}

func fetchProfileUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfile,
		Step:    step,
		Total:   total,
		Message: "Fetching profile...",
	}
}

func fetchTopUpdate(step, total int, timeRange string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTop,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching top tracks (%s)...", timeRange),
	}
}

func fetchPlaylistsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    step,
		Total:   total,
		Message: "Fetching playlists...",
	}
}

func exportingListUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
