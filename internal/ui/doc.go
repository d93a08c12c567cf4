// Package ui implements an interactive terminal interface using bubbletea's
// Elm architecture.
//
// The TUI provides a multi-view browser over the synchronized catalog:
//  1. [SongListView] : Browse, search, and filter the song catalog
//  2. [SongDetailView] : Chord sheet and lyrics for one song
//  3. [PlaylistListView] : The user's playlists
//  4. [PlaylistDetailView] : Songs inside a selected playlist
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Catalog loads run as tea.Cmd goroutines; a degraded load (cached snapshot
// served because the server is unreachable) is surfaced in the header rather
// than treated as an error.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, q) with
// contextual help displayed via charmbracelet/bubbles/help. The search
// prompt matches fuzzily; category and sort cycling use the exact filter
// rules shared with the CLI.
//
// Browsing preferences (search term, sort order, category filter, selection,
// view, help expansion) persist across runs through the cache store and are
// restored by [NewModel] and saved again on quit.
package ui
