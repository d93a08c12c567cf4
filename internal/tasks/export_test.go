package tasks

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/shared"
	tu "github.com/amverse/songbook/internal/testing"
)

type mockSongAPI struct {
	songs []models.Song
	err   error
}

func (m *mockSongAPI) ListSongs(ctx context.Context) ([]models.Song, error) {
	return m.songs, m.err
}

func (m *mockSongAPI) GetSong(ctx context.Context, songID string) (*models.Song, error) {
	return nil, shared.ErrNotFound
}

func (m *mockSongAPI) CreateSong(ctx context.Context, song models.Song) (*models.Song, error) {
	return nil, shared.ErrForbidden
}

func (m *mockSongAPI) UpdateSong(ctx context.Context, songID string, song models.Song) (*models.Song, error) {
	return nil, shared.ErrForbidden
}

func (m *mockSongAPI) DeleteSong(ctx context.Context, songID string) error {
	return shared.ErrForbidden
}

type mockPlaylistAPI struct {
	playlists []models.Playlist
	err       error
}

func (m *mockPlaylistAPI) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return m.playlists, m.err
}

func (m *mockPlaylistAPI) CreatePlaylist(ctx context.Context, playlist models.Playlist) (*models.Playlist, error) {
	return nil, shared.ErrForbidden
}

func (m *mockPlaylistAPI) UpdatePlaylist(ctx context.Context, playlistID string, playlist models.Playlist) (*models.Playlist, error) {
	return nil, shared.ErrForbidden
}

func (m *mockPlaylistAPI) DeletePlaylist(ctx context.Context, playlistID string) error {
	return shared.ErrForbidden
}

func (m *mockPlaylistAPI) AddPlaylistSong(ctx context.Context, playlistID, songID string) (*models.Playlist, error) {
	return nil, shared.ErrForbidden
}

func (m *mockPlaylistAPI) RemovePlaylistSong(ctx context.Context, playlistID, songID string) (*models.Playlist, error) {
	return nil, shared.ErrForbidden
}

func (m *mockPlaylistAPI) SharePlaylist(ctx context.Context, share models.PlaylistShare) error {
	return shared.ErrForbidden
}

func TestExporterRun(t *testing.T) {
	songs := &mockSongAPI{songs: []models.Song{
		{ID: "s1", Title: "Amazing Grace", Category: models.CategoryWorship},
		{ID: "s2", Title: "Silent Night", Category: models.CategoryChristmas},
	}}
	playlists := &mockPlaylistAPI{playlists: []models.Playlist{
		{ID: "p1", Name: "Sunday Set", SongIDs: []string{"s1"}},
		{ID: "p2", Name: "Christmas Eve", SongIDs: []string{"s2"}},
	}}

	t.Run("exports catalog, playlists, and manifest", func(t *testing.T) {
		dir := t.TempDir()

		prog := make(chan ProgressUpdate, 16)
		e := NewExporter(songs, playlists, nil)

		result, err := e.Run(context.Background(), prog, ExportOpts{
			OutputDir: dir,
			RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.SongCount != 2 || result.SuccessCount != 2 || result.FailedCount != 0 {
			t.Errorf("unexpected result %+v", result)
		}

		tu.AssertDirExists(t, dir)
		tu.AssertFileExists(t, filepath.Join(dir, "songs.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "Sunday Set.json"))

		data := tu.MustReadFile(t, filepath.Join(dir, "manifest.json"))

		var manifest ExportResult
		if err := json.Unmarshal([]byte(data), &manifest); err != nil {
			t.Fatalf("expected valid manifest JSON, got %v", err)
		}
		if manifest.TotalPlaylists != 2 {
			t.Errorf("unexpected manifest %+v", manifest)
		}
		if manifest.ManifestPath != filepath.Join(dir, "manifest.json") {
			t.Errorf("expected manifest to record its own path, got %q", manifest.ManifestPath)
		}

		if len(prog) == 0 {
			t.Error("expected progress updates")
		}
	})

	t.Run("unreachable catalog aborts the run", func(t *testing.T) {
		e := NewExporter(&mockSongAPI{err: shared.ErrTransport}, playlists, nil)

		if _, err := e.Run(context.Background(), nil, ExportOpts{OutputDir: t.TempDir(), RateLimit: 1000}); err == nil {
			t.Error("expected error when the catalog fetch fails")
		}
	})

	t.Run("canceled context stops the export", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		e := NewExporter(songs, playlists, nil)
		if _, err := e.Run(ctx, nil, ExportOpts{OutputDir: t.TempDir(), RateLimit: 0.001}); err == nil {
			t.Error("expected error from canceled context")
		}
	})
}
