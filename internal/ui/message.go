package ui

import (
	"github.com/amverse/songbook/internal/models"
)

// songsLoadedMsg carries the result of a catalog load. degraded is set when
// the collection came from the cached snapshot instead of the server.
type songsLoadedMsg struct {
	songs    []models.Song
	degraded bool
	err      error
}

// playlistsLoadedMsg carries the result of a playlist list fetch.
type playlistsLoadedMsg struct {
	playlists []models.Playlist
	degraded  bool
	err       error
}
