package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"soundlens/internal/models"
	"soundlens/internal/spotify"
	"soundlens/internal/tasks"
)

// ViewState represents the current tab in the TUI.
type ViewState int

const (
	PickView ViewState = iota
	TopTracksView
	RecentView
	PlaylistView
)

// rangeLabels maps a Spotify time range to its tab caption.
var rangeLabels = map[spotify.TimeRange]string{
	spotify.RangeShort:  "4 weeks",
	spotify.RangeMedium: "6 months",
	spotify.RangeLong:   "all time",
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	svc    tasks.MusicService
	engine *tasks.DashboardEngine

	width  int
	height int

	pick     *models.DailyPick
	havePick bool

	timeRange    spotify.TimeRange
	topList      list.Model
	topLoaded    bool
	recentList   list.Model
	recentLoaded bool
	listList     list.Model
	listsLoaded  bool

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, svc tasks.MusicService, engine *tasks.DashboardEngine) *Model {
	return &Model{
		ctx:       ctx,
		view:      PickView,
		svc:       svc,
		engine:    engine,
		timeRange: spotify.RangeMedium,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init kicks off the initial data loads.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchPick(false),
		m.fetchTop(m.timeRange),
		m.fetchRecent(),
		m.fetchPlaylists(),
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case pickFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.pick = msg.pick
		m.havePick = msg.ok
		return m, nil

	case topFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.topList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.topList.Title = fmt.Sprintf("Top Tracks (%s)", rangeLabels[msg.timeRange])
		m.topLoaded = true
		m.resizeLists()
		return m, nil

	case recentFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, len(msg.events))
		for i, event := range msg.events {
			items[i] = eventItem{event: event}
		}
		m.recentList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.recentList.Title = "Recently Played"
		m.recentLoaded = true
		m.resizeLists()
		return m, nil

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.listList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.listList.Title = "Playlists"
		m.listsLoaded = true
		m.resizeLists()
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current tab.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	switch m.view {
	case PickView:
		return m.renderPick()
	case TopTracksView:
		return m.renderList(m.topList, m.topLoaded)
	case RecentView:
		return m.renderList(m.recentList, m.recentLoaded)
	case PlaylistView:
		return m.renderList(m.listList, m.listsLoaded)
	default:
		return ""
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.view = (m.view + 1) % 4
		return m, nil
	case "1":
		m.view = PickView
		return m, nil
	case "2":
		m.view = TopTracksView
		return m, nil
	case "3":
		m.view = RecentView
		return m, nil
	case "4":
		m.view = PlaylistView
		return m, nil
	case "t":
		if m.view == TopTracksView {
			m.timeRange = nextRange(m.timeRange)
			m.topLoaded = false
			return m, m.fetchTop(m.timeRange)
		}
	case "r":
		m.err = nil
		return m, m.refreshCurrent()
	}

	return m.updateLists(msg)
}

func nextRange(r spotify.TimeRange) spotify.TimeRange {
	switch r {
	case spotify.RangeShort:
		return spotify.RangeMedium
	case spotify.RangeMedium:
		return spotify.RangeLong
	default:
		return spotify.RangeShort
	}
}

func (m *Model) refreshCurrent() tea.Cmd {
	switch m.view {
	case PickView:
		return m.fetchPick(true)
	case TopTracksView:
		return m.fetchTop(m.timeRange)
	case RecentView:
		return m.fetchRecent()
	case PlaylistView:
		return m.fetchPlaylists()
	}
	return nil
}

func (m *Model) resizeLists() {
	if m.width == 0 {
		return
	}
	if m.topLoaded {
		m.topList.SetSize(m.width-4, m.height-8)
	}
	if m.recentLoaded {
		m.recentList.SetSize(m.width-4, m.height-8)
	}
	if m.listsLoaded {
		m.listList.SetSize(m.width-4, m.height-8)
	}
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TopTracksView:
		if m.topLoaded {
			m.topList, cmd = m.topList.Update(msg)
		}
	case RecentView:
		if m.recentLoaded {
			m.recentList, cmd = m.recentList.Update(msg)
		}
	case PlaylistView:
		if m.listsLoaded {
			m.listList, cmd = m.listList.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) fetchPick(recompute bool) tea.Cmd {
	return func() tea.Msg {
		var (
			daily *models.DailyPick
			ok    bool
			err   error
		)
		if recompute {
			daily, ok, err = m.engine.RecomputePick(m.ctx, nil)
		} else {
			daily, ok, err = m.engine.PickOfTheDay(m.ctx, nil)
		}
		return pickFetchedMsg{pick: daily, ok: ok, err: err}
	}
}

func (m *Model) fetchTop(timeRange spotify.TimeRange) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.svc.TopTracks(m.ctx, timeRange, 50)
		return topFetchedMsg{timeRange: timeRange, tracks: tracks, err: err}
	}
}

func (m *Model) fetchRecent() tea.Cmd {
	return func() tea.Msg {
		sync, err := m.engine.SyncHistory(m.ctx, nil)
		if err != nil {
			return recentFetchedMsg{err: err}
		}
		return recentFetchedMsg{events: sync.Events}
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.svc.Playlists(m.ctx, 0)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) renderPick() string {
	title := styles.title.Render("Song of the Day")
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())

	if m.pick == nil && !m.havePick {
		body := styles.help.Render("No listening history in the last 30 days.\nPlay something and press r.")
		return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
	}
	if m.pick == nil {
		return fmt.Sprintf("%s\n%s\n\n%s", title, styles.help.Render("Loading..."), helpView)
	}

	var b strings.Builder
	b.WriteString(styles.accent.Render(fmt.Sprintf("%s - %s", m.pick.Track.ArtistLine(), m.pick.Track.Name)))
	if m.pick.Track.AlbumName != "" {
		b.WriteString(fmt.Sprintf("\nAlbum: %s", m.pick.Track.AlbumName))
	}
	b.WriteString(fmt.Sprintf("\nPlays: %d in the last %s", m.pick.PlayCount, m.pick.TimeWindow))
	if len(m.pick.Factors) > 0 {
		b.WriteString(fmt.Sprintf("\n%s", styles.warn.Render(strings.Join(m.pick.Factors, " • "))))
	}
	b.WriteString(fmt.Sprintf("\n\n%s", styles.help.Render(m.pick.Date)))

	return fmt.Sprintf("%s\n%s\n\n%s", title, b.String(), helpView)
}

func (m *Model) renderList(l list.Model, loaded bool) string {
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	if !loaded {
		return fmt.Sprintf("%s\n\n%s", styles.help.Render("Loading..."), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", l.View(), helpView)
}
