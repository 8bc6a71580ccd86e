package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	nextTab key.Binding
	pick    key.Binding
	top     key.Binding
	recent  key.Binding
	lists   key.Binding
	cycle   key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		nextTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		pick:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "pick")),
		top:     key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "top tracks")),
		recent:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "recent")),
		lists:   key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "playlists")),
		cycle:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "time range")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextTab, k.refresh, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.nextTab},
		{k.pick, k.top, k.recent, k.lists},
		{k.cycle, k.refresh, k.quit},
	}
}
