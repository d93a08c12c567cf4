package ui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/amverse/songbook/internal/cache"
	"github.com/amverse/songbook/internal/catalog"
	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/playlists"
	"github.com/amverse/songbook/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	SongDetailView
	PlaylistListView
	PlaylistDetailView
)

// categoryCycle is the order the category filter steps through; the empty
// entry means no filter.
var categoryCycle = []models.Category{
	"",
	models.CategoryPraise,
	models.CategoryWorship,
	models.CategoryChristmas,
	models.CategoryEaster,
	models.CategoryOther,
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	catalog  *catalog.Catalog
	playlist *playlists.Syncer
	store    *cache.Store

	width  int
	height int

	songList     list.Model
	songs        []models.Song
	selectedSong *models.Song

	playlistList     list.Model
	playlistEntries  []models.Playlist
	selectedPlaylist *models.Playlist

	search     textinput.Model
	searching  bool
	term       string
	categoryIx int
	sortMode   catalog.SortMode

	degraded bool
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies. Browsing
// preferences from the previous run are restored when a store is given.
func NewModel(ctx context.Context, cat *catalog.Catalog, syncer *playlists.Syncer, store *cache.Store) *Model {
	search := textinput.New()
	search.Placeholder = "search songs"
	search.CharLimit = 64

	m := &Model{
		ctx:      ctx,
		view:     SongListView,
		catalog:  cat,
		playlist: syncer,
		store:    store,
		search:   search,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.restoreBrowseState()

	return m
}

func (m *Model) restoreBrowseState() {
	if m.store == nil {
		return
	}
	state := m.store.BrowseStateSnapshot()

	m.term = state.SearchTerm
	m.search.SetValue(state.SearchTerm)
	m.sortMode = catalog.ParseSortMode(state.SortOrder)
	m.help.ShowAll = !state.SidebarCollapsed
	for i, c := range categoryCycle {
		if string(c) == state.FilterBy {
			m.categoryIx = i
			break
		}
	}
	if state.SelectedSong != "" {
		m.catalog.Select(state.SelectedSong)
	}
	// Detail views need a loaded collection, so only the list views restore.
	if v, err := strconv.Atoi(state.CurrentView); err == nil && ViewState(v) == PlaylistListView {
		m.view = PlaylistListView
	}
}

// quit persists the browsing state and exits the program.
func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.store != nil {
		err := m.store.SaveBrowseState(cache.BrowseState{
			SearchTerm:       m.term,
			SortOrder:        m.sortMode.String(),
			FilterBy:         string(categoryCycle[m.categoryIx]),
			SelectedSong:     m.catalog.Selected(),
			CurrentView:      strconv.Itoa(int(m.view)),
			SidebarCollapsed: !m.help.ShowAll,
		})
		if err != nil {
			m.err = err
		}
	}
	return m, tea.Quit
}

// Init kicks off the initial catalog load.
func (m *Model) Init() tea.Cmd {
	return m.loadSongs(false)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.songList.Width() == 0 {
			m.songList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		switch m.view {
		case SongListView:
			return m.handleSongListKeys(msg)
		case SongDetailView:
			return m.handleSongDetailKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case PlaylistDetailView:
			return m.handlePlaylistDetailKeys(msg)
		}

	case songsLoadedMsg:
		if msg.err != nil && !msg.degraded {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.degraded = msg.degraded
		m.songs = msg.songs
		m.rebuildSongList()
		return m, nil

	case playlistsLoadedMsg:
		if msg.err != nil && !msg.degraded {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.degraded = msg.degraded
		m.playlistEntries = msg.playlists
		m.rebuildPlaylistList()
		m.view = PlaylistListView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	header := ""
	if m.degraded {
		header = styles.warn.Render("offline: showing cached data") + "\n"
	}

	switch m.view {
	case SongListView:
		return header + m.renderSongList()
	case SongDetailView:
		return header + m.renderSongDetail()
	case PlaylistListView:
		return header + m.renderPlaylistList()
	case PlaylistDetailView:
		return header + m.renderPlaylistDetail()
	default:
		return ""
	}
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.term = m.search.Value()
		m.rebuildSongList()
		return m, nil
	case "esc":
		m.searching = false
		m.search.SetValue(m.term)
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.category):
		m.categoryIx = (m.categoryIx + 1) % len(categoryCycle)
		m.rebuildSongList()
		return m, nil
	case key.Matches(msg, m.keys.sort):
		m.sortMode = (m.sortMode + 1) % 3
		m.rebuildSongList()
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.loadSongs(true)
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.playlists):
		return m, m.loadPlaylists()
	case key.Matches(msg, m.keys.favorite):
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			m.catalog.ToggleFavorite(item.song.ID)
			m.rebuildSongList()
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			song := item.song
			m.selectedSong = &song
			m.catalog.Select(song.ID)
			m.view = SongDetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleSongDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.back):
		m.view = SongListView
		m.selectedSong = nil
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if m.selectedSong != nil {
			m.catalog.ToggleFavorite(m.selectedSong.ID)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.back):
		m.view = SongListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			playlist := item.playlist
			m.selectedPlaylist = &playlist
			m.playlist.Select(playlist.ID)
			m.view = PlaylistDetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.selectedPlaylist = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadSongs(reload bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if reload {
			err = m.catalog.Reload(m.ctx)
		} else {
			err = m.catalog.Load(m.ctx)
		}

		songs := m.catalog.Songs()
		if err != nil {
			if errors.Is(err, shared.ErrDegraded) {
				return songsLoadedMsg{songs: songs, degraded: true, err: err}
			}
			return songsLoadedMsg{err: err}
		}
		return songsLoadedMsg{songs: songs}
	}
}

func (m *Model) loadPlaylists() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.playlist.List(m.ctx)
		if err != nil {
			if errors.Is(err, shared.ErrDegraded) {
				return playlistsLoadedMsg{playlists: entries, degraded: true, err: err}
			}
			return playlistsLoadedMsg{err: err}
		}
		return playlistsLoadedMsg{playlists: entries}
	}
}

// visibleSongs applies the current search term, category, and sort. An
// empty term delegates to the exact filter shared with the CLI; a non-empty
// term matches fuzzily and orders by match quality.
func (m *Model) visibleSongs() []models.Song {
	category := categoryCycle[m.categoryIx]

	if m.term == "" {
		return catalog.FilterAndSort(m.songs, "", category, m.sortMode)
	}

	candidates := catalog.FilterAndSort(m.songs, "", category, m.sortMode)

	titles := make([]string, len(candidates))
	for i, s := range candidates {
		titles[i] = s.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(m.term, titles)
	sort.Sort(ranks)

	out := make([]models.Song, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, candidates[r.OriginalIndex])
	}

	return out
}

func (m *Model) rebuildSongList() {
	visible := m.visibleSongs()

	items := make([]list.Item, len(visible))
	for i, s := range visible {
		items[i] = songItem{song: s, favorite: m.catalog.IsFavorite(s.ID)}
	}

	m.songList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.songList.Title = m.songListTitle()
	m.songList.SetFilteringEnabled(false)
	m.songList.SetSize(m.width-4, m.height-8)
}

func (m *Model) songListTitle() string {
	parts := []string{"Songs"}
	if category := categoryCycle[m.categoryIx]; category != "" {
		parts = append(parts, string(category))
	}
	if m.term != "" {
		parts = append(parts, fmt.Sprintf("%q", m.term))
	}
	return strings.Join(parts, " · ")
}

func (m *Model) rebuildPlaylistList() {
	items := make([]list.Item, len(m.playlistEntries))
	for i, p := range m.playlistEntries {
		items[i] = playlistItem{playlist: p}
	}

	m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.playlistList.Title = "Playlists"
	m.playlistList.SetSize(m.width-4, m.height-8)
}

func (m *Model) renderSongList() string {
	if m.searching {
		return fmt.Sprintf("%s\n\n%s", m.search.View(), m.songList.View())
	}

	return fmt.Sprintf("%s\n\n%s", m.songList.View(), m.help.View(m.keys))
}

func (m *Model) renderSongDetail() string {
	if m.selectedSong == nil {
		return ""
	}
	song := m.selectedSong

	title := styles.title.Render(song.Title)

	meta := string(song.Category)
	if song.Artist != "" {
		meta = fmt.Sprintf("%s · %s", song.Artist, meta)
	}
	if m.catalog.IsFavorite(song.ID) {
		meta = styles.favorite.Render("★") + " " + meta
	}

	var body strings.Builder
	if song.Chords != "" {
		body.WriteString(styles.ok.Render("Chords"))
		body.WriteString("\n")
		body.WriteString(song.Chords)
		body.WriteString("\n\n")
	}
	if song.Lyrics != "" {
		body.WriteString(song.Lyrics)
		body.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.favorite, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", title, styles.help.Render(meta), body.String(), helpView)
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderPlaylistDetail() string {
	if m.selectedPlaylist == nil {
		return ""
	}
	playlist := m.selectedPlaylist

	title := styles.title.Render(playlist.Name)

	var body strings.Builder
	if playlist.Description != "" {
		body.WriteString(styles.help.Render(playlist.Description))
		body.WriteString("\n\n")
	}
	for i, id := range playlist.SongIDs {
		line := fmt.Sprintf("%d. (unknown song %s)", i+1, id)
		if song, err := m.catalog.Song(id); err == nil {
			line = fmt.Sprintf("%d. %s", i+1, song.Title)
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	if len(playlist.SongIDs) == 0 {
		body.WriteString(styles.help.Render("empty playlist"))
		body.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, body.String(), helpView)
}
