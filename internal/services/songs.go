// Song catalog endpoints.
package services

import (
	"context"
	"net/http"

	"github.com/amverse/songbook/internal/models"
)

// ListSongs retrieves the full song catalog.
//
// Calls GET /songs.
func (c *Client) ListSongs(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	if err := c.doRequest(ctx, http.MethodGet, "/songs", nil, &songs); err != nil {
		return nil, err
	}

	return songs, nil
}

// GetSong retrieves a single song by ID.
//
// Calls GET /songs/{id}.
func (c *Client) GetSong(ctx context.Context, songID string) (*models.Song, error) {
	var song models.Song
	if err := c.doRequest(ctx, http.MethodGet, "/songs/"+songID, nil, &song); err != nil {
		return nil, err
	}

	return &song, nil
}

// CreateSong creates a song and returns the server's representation,
// including the server-assigned ID and timestamps.
//
// Calls POST /songs. Requires the admin role.
func (c *Client) CreateSong(ctx context.Context, song models.Song) (*models.Song, error) {
	var created models.Song
	if err := c.doRequest(ctx, http.MethodPost, "/songs", song, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// UpdateSong replaces a song's fields and returns the server's representation.
//
// Calls PUT /songs/{id}. Requires the admin role.
func (c *Client) UpdateSong(ctx context.Context, songID string, song models.Song) (*models.Song, error) {
	var updated models.Song
	if err := c.doRequest(ctx, http.MethodPut, "/songs/"+songID, song, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteSong removes a song from the catalog.
//
// Calls DELETE /songs/{id}. Requires the admin role.
func (c *Client) DeleteSong(ctx context.Context, songID string) error {
	return c.doRequest(ctx, http.MethodDelete, "/songs/"+songID, nil, nil)
}
