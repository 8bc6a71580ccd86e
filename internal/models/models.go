package models

import (
	"strings"
	"time"
)

// PickDateLayout is the storage key format for a daily pick's calendar date.
const PickDateLayout = "2006-01-02"

// Track represents a Spotify track snapshot.
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	AlbumName   string   `json:"albumName"`
	AlbumImage  string   `json:"albumImage"`
	DurationMS  int      `json:"duration"`
	Popularity  int      `json:"popularity"`
	PreviewURL  string   `json:"previewUrl"`
	ExternalURL string   `json:"externalUrl"`
	IsPlayable  bool     `json:"isPlayable"`
}

// PrimaryArtist returns the first credited artist, or an empty string.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// ArtistLine returns all credited artists joined for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// HasPreview reports whether the track carries a playable preview URL.
func (t Track) HasPreview() bool {
	return t.PreviewURL != ""
}

// PlayEvent is one historical playback record. Many events may reference the
// same track; repeats count toward play frequency.
type PlayEvent struct {
	Track    Track     `json:"track"`
	PlayedAt time.Time `json:"playedAt"`
}

// Playlist represents a playlist in the user's library.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	TrackCount  int    `json:"trackCount"`
	ExternalURL string `json:"externalUrl"`
}

// Profile represents the authenticated user's Spotify profile.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Product     string `json:"product"`
	Followers   int    `json:"followers"`
	ImageURL    string `json:"imageUrl"`
}

// DailyPick is the memoized "song of the day" result. For a given calendar
// date the same pick is returned on every call; it is superseded at the next
// local midnight.
type DailyPick struct {
	Track      Track    `json:"track"`
	PlayCount  int      `json:"playCount"`
	TimeWindow string   `json:"timeWindow"`
	Factors    []string `json:"factors"`
	Date       string   `json:"date"`
}
