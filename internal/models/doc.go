// Package models defines the domain entities for the soundlens listening dashboard.
//
// The package contains three categories of types:
//
// 1. Snapshots of upstream Spotify data:
//   - [Track] : track metadata as returned by the Web API
//   - [Playlist] : playlist metadata for the playlist browser
//   - [Profile] : the authenticated user's profile
//
// 2. History:
//   - [PlayEvent] : one playback record; immutable once fetched
//
// 3. Derived results:
//   - [DailyPick] : the memoized "song of the day", keyed by local calendar date
package models
