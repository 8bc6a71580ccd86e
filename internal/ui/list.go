package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"soundlens/internal/models"
	"soundlens/internal/shared"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = eventItem{}
	_ list.Item = playlistItem{}
)

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := i.track.ArtistLine()
	if i.track.AlbumName != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.AlbumName)
	}
	return fmt.Sprintf("%s [%s]", desc, shared.FormatDuration(i.track.DurationMS))
}

// eventItem wraps [models.PlayEvent] to implement [list.Item].
type eventItem struct {
	event models.PlayEvent
}

func (i eventItem) FilterValue() string { return i.event.Track.Name }
func (i eventItem) Title() string       { return i.event.Track.Name }
func (i eventItem) Description() string {
	return fmt.Sprintf("%s • %s", i.event.Track.ArtistLine(), i.event.PlayedAt.Local().Format("Jan 2 15:04"))
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}
