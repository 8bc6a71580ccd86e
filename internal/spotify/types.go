package spotify

import (
	"time"

	"soundlens/internal/models"
)

type followers struct {
	Total int `json:"total"`
}

// User represents a Spotify user profile.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
	Images      []Image   `json:"images"`
}

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// Track represents a Spotify track.
type Track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Artists      []Artist     `json:"artists"`
	Album        Album        `json:"album"`
	DurationMS   int          `json:"duration_ms"`
	Explicit     bool         `json:"explicit"`
	Popularity   int          `json:"popularity"`
	PreviewURL   string       `json:"preview_url"`
	ExternalURLs externalURLs `json:"external_urls"`
	IsPlayable   *bool        `json:"is_playable"`
	URI          string       `json:"uri"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album represents a Spotify album.
type Album struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ReleaseDate string  `json:"release_date"`
	TotalTracks int     `json:"total_tracks"`
	Images      []Image `json:"images"`
	URI         string  `json:"uri"`
}

// PaginatedTracks represents a paginated response of tracks (e.g. /me/top/tracks).
type PaginatedTracks struct {
	Items    []Track `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// PlayHistoryItem represents one entry of /me/player/recently-played.
type PlayHistoryItem struct {
	Track    Track  `json:"track"`
	PlayedAt string `json:"played_at"`
}

// PlayHistory represents the recently-played response.
type PlayHistory struct {
	Items []PlayHistoryItem `json:"items"`
	Next  *string           `json:"next"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SimplePlaylist represents a simplified playlist object (used in lists).
type SimplePlaylist struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Public       bool                 `json:"public"`
	Tracks       simplePlaylistTracks `json:"tracks"`
	Images       []Image              `json:"images"`
	ExternalURLs externalURLs         `json:"external_urls"`
	URI          string               `json:"uri"`
}

// PaginatedPlaylists represents a paginated response of playlists.
type PaginatedPlaylists struct {
	Items    []SimplePlaylist `json:"items"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
	Next     *string          `json:"next"`
	Previous *string          `json:"previous"`
}

// apiError is the error envelope the Web API attaches to non-2xx responses.
type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// tokenResponse is the JSON body of a successful token exchange or refresh.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// authError is the error payload of the accounts service.
type authError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func firstImageURL(images []Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// Model converts a wire track to its domain snapshot.
func (t Track) Model() models.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	return models.Track{
		ID:          t.ID,
		Name:        t.Name,
		Artists:     artists,
		AlbumName:   t.Album.Name,
		AlbumImage:  firstImageURL(t.Album.Images),
		DurationMS:  t.DurationMS,
		Popularity:  t.Popularity,
		PreviewURL:  t.PreviewURL,
		ExternalURL: t.ExternalURLs.Spotify,
		IsPlayable:  t.IsPlayable == nil || *t.IsPlayable,
	}
}

// Model converts a play history entry to a domain PlayEvent. Entries with an
// unparseable timestamp are dropped by the caller.
func (i PlayHistoryItem) Model() (models.PlayEvent, error) {
	playedAt, err := time.Parse(time.RFC3339, i.PlayedAt)
	if err != nil {
		return models.PlayEvent{}, err
	}

	return models.PlayEvent{
		Track:    i.Track.Model(),
		PlayedAt: playedAt,
	}, nil
}

// Model converts a wire playlist to its domain snapshot.
func (p SimplePlaylist) Model() models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    firstImageURL(p.Images),
		TrackCount:  p.Tracks.Total,
		ExternalURL: p.ExternalURLs.Spotify,
	}
}

// Model converts a wire user to a domain profile.
func (u User) Model() models.Profile {
	return models.Profile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Product:     u.Product,
		Followers:   u.Followers.Total,
		ImageURL:    firstImageURL(u.Images),
	}
}
