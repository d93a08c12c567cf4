// Playlist endpoints: CRUD, membership, sharing.
package services

import (
	"context"
	"net/http"

	"github.com/amverse/songbook/internal/models"
)

// ListPlaylists retrieves the authenticated user's playlists.
//
// Calls GET /api/playlists.
func (c *Client) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	if err := c.doRequest(ctx, http.MethodGet, "/api/playlists", nil, &playlists); err != nil {
		return nil, err
	}

	return playlists, nil
}

// CreatePlaylist creates a playlist owned by the authenticated user and
// returns the server's representation.
//
// Calls POST /api/playlists.
func (c *Client) CreatePlaylist(ctx context.Context, playlist models.Playlist) (*models.Playlist, error) {
	var created models.Playlist
	if err := c.doRequest(ctx, http.MethodPost, "/api/playlists", playlist, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// UpdatePlaylist replaces a playlist's fields and returns the server's
// representation.
//
// Calls PUT /api/playlists/{id}.
func (c *Client) UpdatePlaylist(ctx context.Context, playlistID string, playlist models.Playlist) (*models.Playlist, error) {
	var updated models.Playlist
	if err := c.doRequest(ctx, http.MethodPut, "/api/playlists/"+playlistID, playlist, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeletePlaylist removes a playlist.
//
// Calls DELETE /api/playlists/{id}.
func (c *Client) DeletePlaylist(ctx context.Context, playlistID string) error {
	return c.doRequest(ctx, http.MethodDelete, "/api/playlists/"+playlistID, nil, nil)
}

// AddPlaylistSong appends a song to a playlist and returns the updated
// playlist.
//
// Calls POST /api/playlists/{id}/songs.
func (c *Client) AddPlaylistSong(ctx context.Context, playlistID, songID string) (*models.Playlist, error) {
	payload := map[string]string{"songId": songID}

	var updated models.Playlist
	if err := c.doRequest(ctx, http.MethodPost, "/api/playlists/"+playlistID+"/songs", payload, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// RemovePlaylistSong removes a song from a playlist and returns the updated
// playlist.
//
// Calls DELETE /api/playlists/{id}/songs/{songId}.
func (c *Client) RemovePlaylistSong(ctx context.Context, playlistID, songID string) (*models.Playlist, error) {
	var updated models.Playlist
	if err := c.doRequest(ctx, http.MethodDelete, "/api/playlists/"+playlistID+"/songs/"+songID, nil, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// SharePlaylist sends a denormalized playlist snapshot to another user.
// The recipient receives an independent copy, not a live reference.
//
// Calls POST /api/playlists/{id}/share.
func (c *Client) SharePlaylist(ctx context.Context, share models.PlaylistShare) error {
	return c.doRequest(ctx, http.MethodPost, "/api/playlists/"+share.PlaylistID+"/share", share, nil)
}
