package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/amverse/songbook/internal/cache"
	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/shared"
	tu "github.com/amverse/songbook/internal/testing"
)

type stubSongAPI struct {
	songs []models.Song
	err   error
}

func (s *stubSongAPI) ListSongs(ctx context.Context) ([]models.Song, error) {
	return s.songs, s.err
}

func (s *stubSongAPI) GetSong(ctx context.Context, songID string) (*models.Song, error) {
	for _, song := range s.songs {
		if song.ID == songID {
			return &song, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubSongAPI) CreateSong(ctx context.Context, song models.Song) (*models.Song, error) {
	song.ID = "srv-new"
	s.songs = append(s.songs, song)
	return &song, nil
}

func (s *stubSongAPI) UpdateSong(ctx context.Context, songID string, song models.Song) (*models.Song, error) {
	song.ID = songID
	return &song, nil
}

func (s *stubSongAPI) DeleteSong(ctx context.Context, songID string) error {
	return nil
}

type stubPlaylistAPI struct {
	playlists []models.Playlist
	err       error
}

func (s *stubPlaylistAPI) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return s.playlists, s.err
}

func (s *stubPlaylistAPI) CreatePlaylist(ctx context.Context, playlist models.Playlist) (*models.Playlist, error) {
	playlist.ID = "srv-pl"
	s.playlists = append(s.playlists, playlist)
	return &playlist, nil
}

func (s *stubPlaylistAPI) UpdatePlaylist(ctx context.Context, playlistID string, playlist models.Playlist) (*models.Playlist, error) {
	playlist.ID = playlistID
	return &playlist, nil
}

func (s *stubPlaylistAPI) DeletePlaylist(ctx context.Context, playlistID string) error {
	return nil
}

func (s *stubPlaylistAPI) AddPlaylistSong(ctx context.Context, playlistID, songID string) (*models.Playlist, error) {
	return nil, shared.ErrNotFound
}

func (s *stubPlaylistAPI) RemovePlaylistSong(ctx context.Context, playlistID, songID string) (*models.Playlist, error) {
	return nil, shared.ErrNotFound
}

func (s *stubPlaylistAPI) SharePlaylist(ctx context.Context, share models.PlaylistShare) error {
	return nil
}

type stubAuthAPI struct {
	session *models.Session
	err     error
	resets  []string
}

func (s *stubAuthAPI) Login(ctx context.Context, username, password string) (*models.Session, error) {
	return s.session, s.err
}

func (s *stubAuthAPI) Register(ctx context.Context, username, email, password string) (*models.Session, error) {
	return s.session, s.err
}

func (s *stubAuthAPI) Profile(ctx context.Context) (*models.User, error) {
	if s.session == nil {
		return nil, shared.ErrUnauthorized
	}
	return s.session.Profile, nil
}

func (s *stubAuthAPI) Logout(ctx context.Context) error { return nil }

func (s *stubAuthAPI) ForgotPassword(ctx context.Context, email string) error {
	s.resets = append(s.resets, email)
	return nil
}

func (s *stubAuthAPI) ResetPassword(ctx context.Context, token, newPassword string) error {
	return nil
}

type stubNotificationAPI struct {
	notifications []models.Notification
	read          []string
}

func (s *stubNotificationAPI) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	return s.notifications, nil
}

func (s *stubNotificationAPI) MarkNotificationRead(ctx context.Context, notificationID string) error {
	s.read = append(s.read, notificationID)
	return nil
}

func testSession(role models.Role) *models.Session {
	return &models.Session{
		UserID:   "user-1",
		Username: "frances",
		Role:     role,
		Token: &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			Expiry:       time.Now().Add(time.Hour),
		},
	}
}

// newTestRunner builds a runner with an in-memory store, a bytes.Buffer
// output, and stub APIs so no network or filesystem is touched.
func newTestRunner(t *testing.T, opts RunnerOpts) (*Runner, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	opts.Output = output
	opts.Logger = shared.NewLogger(nil)

	if opts.Store == nil {
		store, err := cache.Open(":memory:", opts.Logger)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		opts.Store = store
	}
	if opts.SongAPI == nil {
		opts.SongAPI = &stubSongAPI{}
	}
	if opts.PlaylistAPI == nil {
		opts.PlaylistAPI = &stubPlaylistAPI{}
	}
	if opts.AuthAPI == nil {
		opts.AuthAPI = &stubAuthAPI{}
	}
	if opts.NotificationAPI == nil {
		opts.NotificationAPI = &stubNotificationAPI{}
	}

	runner, err := NewRunner(opts)
	if err != nil {
		t.Fatalf("failed to create runner: %v", err)
	}

	return runner, output
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner, _ := newTestRunner(t, RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.catalog == nil || runner.playlist == nil || runner.session == nil {
				t.Error("expected cores to be wired")
			}
			if runner.exporter == nil || runner.poller == nil {
				t.Error("expected exporter and poller to be wired")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			store, err := cache.Open(":memory:", nil)
			if err != nil {
				t.Fatalf("failed to open store: %v", err)
			}
			defer store.Close()

			runner, err := NewRunner(RunnerOpts{Store: store})
			if err != nil {
				t.Fatalf("failed to create runner: %v", err)
			}

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			runner, output := newTestRunner(t, RunnerOpts{})

			data := map[string]string{"key": "value"}
			if err := runner.writeJSON(data, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner, _ := newTestRunner(t, RunnerOpts{})
			runner.output = &tu.FWriter{}

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			runner, _ := newTestRunner(t, RunnerOpts{})
			limited := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner.output = &limited

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})
		commands := runner.register()

		if len(commands) != 14 {
			t.Errorf("expected 14 commands, got %d", len(commands))
		}

		names := map[string]bool{}
		for _, c := range commands {
			names[c.Name] = true
		}
		for _, want := range []string{"setup", "login", "songs", "playlists", "notifications", "export", "cache", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestRunnerResume(t *testing.T) {
	t.Run("without cached session", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})

		err := runner.resume(context.Background())

		if err == nil {
			t.Fatal("expected error without a cached session")
		}
		if !strings.Contains(err.Error(), "not logged in") {
			t.Errorf("expected login hint, got %v", err)
		}
	})

	t.Run("with cached session", func(t *testing.T) {
		store, err := cache.Open(":memory:", nil)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		t.Cleanup(func() { store.Close() })

		if err := store.SaveSession(testSession(models.RoleReader)); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		runner, _ := newTestRunner(t, RunnerOpts{Store: store})

		if err := runner.resume(context.Background()); err != nil {
			t.Fatalf("expected resume to succeed, got %v", err)
		}
		if runner.session.Current() == nil {
			t.Fatal("expected a current session after resume")
		}
		if got := runner.session.Current().Username; got != "frances" {
			t.Errorf("expected username frances, got %s", got)
		}
	})
}

func TestRunnerLoginFlow(t *testing.T) {
	t.Run("login runs the migration sweep and reports it", func(t *testing.T) {
		store, err := cache.Open(":memory:", nil)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		t.Cleanup(func() { store.Close() })

		local := models.Playlist{
			ID:   shared.NewLocalID(),
			Name: "Sunday Set",
		}
		if err := store.SaveLocalPlaylists([]models.Playlist{local}); err != nil {
			t.Fatalf("failed to seed local playlists: %v", err)
		}

		runner, _ := newTestRunner(t, RunnerOpts{
			Store:       store,
			AuthAPI:     &stubAuthAPI{session: testSession(models.RoleReader)},
			PlaylistAPI: &stubPlaylistAPI{},
		})

		if _, err := runner.session.Login(context.Background(), "frances", "secret"); err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}

		if runner.lastMigration == nil {
			t.Fatal("expected a migration report after login")
		}
		if len(runner.lastMigration.Migrated) != 1 || runner.lastMigration.Migrated[0] != "Sunday Set" {
			t.Errorf("expected Sunday Set to migrate, got %+v", runner.lastMigration)
		}
	})
}

func TestRunnerCommandActions(t *testing.T) {
	seedSession := func(t *testing.T) *cache.Store {
		t.Helper()
		store, err := cache.Open(":memory:", nil)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		if err := store.SaveSession(testSession(models.RoleReader)); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		return store
	}

	t.Run("songs list prints the catalog", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{
			Store: seedSession(t),
			SongAPI: &stubSongAPI{songs: []models.Song{
				{ID: "s1", Title: "Amazing Grace", Category: models.CategoryWorship},
				{ID: "s2", Title: "Joy to the World", Category: models.CategoryChristmas},
			}},
		})

		cmd := songsCommand(runner)
		err := cmd.Run(context.Background(), []string{"songs", "list"})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Amazing Grace") {
			t.Errorf("expected song titles in output, got %s", output.String())
		}
		if !strings.Contains(output.String(), "Songs (2)") {
			t.Errorf("expected header with count, got %s", output.String())
		}
	})

	t.Run("songs list falls back to the cache when the server is down", func(t *testing.T) {
		store := seedSession(t)
		if err := store.SaveSongs([]models.Song{{ID: "s1", Title: "Cached Hymn"}}); err != nil {
			t.Fatalf("failed to seed songs: %v", err)
		}

		runner, output := newTestRunner(t, RunnerOpts{
			Store:   store,
			SongAPI: &stubSongAPI{err: shared.ErrTransport},
		})

		cmd := songsCommand(runner)
		err := cmd.Run(context.Background(), []string{"songs", "list"})

		if err != nil {
			t.Fatalf("expected degraded fallback, got %v", err)
		}
		if !strings.Contains(output.String(), "Cached Hymn") {
			t.Errorf("expected cached song in output, got %s", output.String())
		}
		if !strings.Contains(output.String(), "cached") {
			t.Errorf("expected degradation warning, got %s", output.String())
		}
	})

	t.Run("songs add requires the admin role", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Store: seedSession(t)})

		cmd := songsCommand(runner)
		err := cmd.Run(context.Background(), []string{"songs", "add", "--title", "New Song"})

		if !errors.Is(err, shared.ErrAdminRequired) {
			t.Errorf("expected ErrAdminRequired, got %v", err)
		}
	})

	t.Run("playlists create lands locally when logged out", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})

		cmd := playlistsCommand(runner)
		err := cmd.Run(context.Background(), []string{"playlists", "create", "Road Trip"})

		if err != nil {
			t.Fatalf("expected local create to succeed, got %v", err)
		}
		if !strings.Contains(output.String(), "locally") {
			t.Errorf("expected local-tier notice, got %s", output.String())
		}

		locals, ok := runner.store.LocalPlaylists()
		if !ok || len(locals) != 1 || locals[0].Name != "Road Trip" {
			t.Errorf("expected Road Trip in the local tier, got %+v", locals)
		}
	})

	t.Run("playlists list shows the local tier when logged out", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})

		if err := playlistsCommand(runner).Run(context.Background(), []string{"playlists", "create", "Road Trip"}); err != nil {
			t.Fatalf("expected local create to succeed, got %v", err)
		}
		output.Reset()

		err := playlistsCommand(runner).Run(context.Background(), []string{"playlists", "list"})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Road Trip") {
			t.Errorf("expected the local playlist listed, got %s", output.String())
		}
		if !strings.Contains(output.String(), "local playlists only") {
			t.Errorf("expected the logged-out notice, got %s", output.String())
		}
	})

	t.Run("notifications read marks the entry", func(t *testing.T) {
		api := &stubNotificationAPI{}
		runner, output := newTestRunner(t, RunnerOpts{
			Store:           seedSession(t),
			NotificationAPI: api,
		})

		cmd := notificationsCommand(runner)
		err := cmd.Run(context.Background(), []string{"notifications", "read", "n1"})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(api.read) != 1 || api.read[0] != "n1" {
			t.Errorf("expected n1 marked read, got %v", api.read)
		}
		if !strings.Contains(output.String(), "n1") {
			t.Errorf("expected confirmation, got %s", output.String())
		}
	})

	t.Run("forgot-password goes through the injected auth service", func(t *testing.T) {
		api := &stubAuthAPI{}
		runner, output := newTestRunner(t, RunnerOpts{AuthAPI: api})

		cmd := forgotPasswordCommand(runner)
		err := cmd.Run(context.Background(), []string{"forgot-password", "--email", "frances@example.com"})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(api.resets) != 1 || api.resets[0] != "frances@example.com" {
			t.Errorf("expected reset request recorded, got %v", api.resets)
		}
		if !strings.Contains(output.String(), "frances@example.com") {
			t.Errorf("expected confirmation, got %s", output.String())
		}
	})

	t.Run("cache clear empties the store", func(t *testing.T) {
		store := seedSession(t)
		runner, output := newTestRunner(t, RunnerOpts{Store: store})

		cmd := cacheCommand(runner)
		err := cmd.Run(context.Background(), []string{"cache", "clear"})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "cleared") {
			t.Errorf("expected confirmation, got %s", output.String())
		}

		keys, err := store.Keys()
		if err != nil {
			t.Fatalf("failed to list keys: %v", err)
		}
		if len(keys) != 0 {
			t.Errorf("expected empty cache, got %v", keys)
		}
	})
}
