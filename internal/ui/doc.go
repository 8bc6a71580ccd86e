// Package ui implements an interactive terminal dashboard using bubbletea's
// Elm architecture.
//
// The TUI presents the listening dashboard across four tabs:
//  1. [PickView] : Today's deterministic song of the day
//  2. [TopTracksView] : Top tracks over a Spotify time range
//  3. [RecentView] : The recently played window
//  4. [PlaylistView] : The user's playlists
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern; data loads flow in as typed messages produced by tea.Cmd fetchers
// over the Spotify client and the local play history.
//
// Keyboard navigation uses vim-style bindings (j/k, tab, 1-4, r, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
