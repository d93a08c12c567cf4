package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/amverse/songbook/internal/models"
)

var (
	_ list.Item = songItem{}
	_ list.Item = playlistItem{}
)

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song     models.Song
	favorite bool
}

func (i songItem) FilterValue() string { return i.song.Title }

func (i songItem) Title() string {
	if i.favorite {
		return "★ " + i.song.Title
	}
	return i.song.Title
}

func (i songItem) Description() string {
	desc := string(i.song.Category)
	if i.song.Artist != "" {
		desc = fmt.Sprintf("%s • %s", i.song.Artist, desc)
	}
	return desc
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d songs", len(i.playlist.SongIDs))
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}
