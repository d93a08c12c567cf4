// package services defines the typed API interfaces backing the catalog,
// playlist, session, and notification layers.
package services

import (
	"context"

	"github.com/amverse/songbook/internal/models"
)

// SongAPI is the remote surface for the song catalog.
type SongAPI interface {
	// ListSongs retrieves the full song catalog.
	ListSongs(ctx context.Context) ([]models.Song, error)

	// GetSong retrieves a single song by ID.
	GetSong(ctx context.Context, songID string) (*models.Song, error)

	// CreateSong creates a song and returns the server's representation.
	CreateSong(ctx context.Context, song models.Song) (*models.Song, error)

	// UpdateSong replaces a song's fields and returns the server's representation.
	UpdateSong(ctx context.Context, songID string, song models.Song) (*models.Song, error)

	// DeleteSong removes a song from the catalog.
	DeleteSong(ctx context.Context, songID string) error
}

// PlaylistAPI is the remote surface for playlists, membership, and sharing.
type PlaylistAPI interface {
	// ListPlaylists retrieves the authenticated user's playlists.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)

	// CreatePlaylist creates a playlist and returns the server's representation.
	CreatePlaylist(ctx context.Context, playlist models.Playlist) (*models.Playlist, error)

	// UpdatePlaylist replaces a playlist's fields and returns the server's representation.
	UpdatePlaylist(ctx context.Context, playlistID string, playlist models.Playlist) (*models.Playlist, error)

	// DeletePlaylist removes a playlist.
	DeletePlaylist(ctx context.Context, playlistID string) error

	// AddPlaylistSong appends a song to a playlist and returns the updated playlist.
	AddPlaylistSong(ctx context.Context, playlistID, songID string) (*models.Playlist, error)

	// RemovePlaylistSong removes a song from a playlist and returns the updated playlist.
	RemovePlaylistSong(ctx context.Context, playlistID, songID string) (*models.Playlist, error)

	// SharePlaylist sends a denormalized playlist snapshot to another user.
	SharePlaylist(ctx context.Context, share models.PlaylistShare) error
}

// AuthAPI is the remote surface for authentication and account recovery.
type AuthAPI interface {
	// Login exchanges credentials for a session.
	Login(ctx context.Context, username, password string) (*models.Session, error)

	// Register creates an account and returns the resulting session.
	Register(ctx context.Context, username, email, password string) (*models.Session, error)

	// Profile retrieves the authenticated user's profile.
	Profile(ctx context.Context) (*models.User, error)

	// Logout invalidates the server-side session. Best effort.
	Logout(ctx context.Context) error

	// ForgotPassword requests a password reset email.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword completes a password reset with an emailed token.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// NotificationAPI is the remote surface for share notifications.
type NotificationAPI interface {
	// ListNotifications retrieves the authenticated user's notifications,
	// newest first.
	ListNotifications(ctx context.Context) ([]models.Notification, error)

	// MarkNotificationRead acknowledges a notification.
	MarkNotificationRead(ctx context.Context, notificationID string) error
}
