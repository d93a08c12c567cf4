package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/shared"
)

// PlaylistsList prints the playlists. When logged out, only the local
// tier is shown.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	var playlists []models.Playlist

	if err := r.resume(ctx); err != nil {
		playlists = r.playlist.Pending("")
		if len(playlists) > 0 {
			r.writePlainln("⚠ Not logged in, showing local playlists only")
		}
	} else {
		var err error
		playlists, err = r.playlist.List(ctx)
		if err != nil {
			if !errors.Is(err, shared.ErrDegraded) {
				return err
			}
			r.writePlainln("⚠ Server unreachable, showing cached playlists")
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	if len(playlists) == 0 {
		return r.writePlainln("No playlists yet")
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for _, playlist := range playlists {
		marker := " "
		if shared.IsLocalID(playlist.ID) {
			marker = "○"
		}
		r.writePlainln("%s %s (%d songs) [%s]", marker, playlist.Name, len(playlist.SongIDs), playlist.ID)
	}

	return nil
}

// PlaylistsShow prints one playlist with its songs resolved through
// the catalog where possible.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	if err := r.resume(ctx); err == nil {
		if _, err := r.playlist.List(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
			return err
		}
		if err := r.catalog.Load(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
			return err
		}
	}

	playlist, err := r.playlist.Playlist(playlistID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, true)
	}

	r.writePlainHeader(playlist.Name)
	if playlist.Description != "" {
		r.writePlainln("%s", playlist.Description)
	}
	for i, songID := range playlist.SongIDs {
		if song, err := r.catalog.Song(songID); err == nil {
			r.writePlainln("%d. %s", i+1, song.Title)
		} else {
			r.writePlainln("%d. (unknown song id %s)", i+1, songID)
		}
	}

	return nil
}

// PlaylistsCreate creates a playlist. Logged out it lands in the
// local tier and migrates on the next login.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}
	description := cmd.String("description")

	if err := r.resume(ctx); err != nil {
		playlist, err := r.playlist.CreateLocal(name, description)
		if err != nil {
			return err
		}
		return r.writePlainln("○ Created %q locally (%s), it syncs on your next login", playlist.Name, playlist.ID)
	}

	playlist, err := r.playlist.CreateOrUpdate(ctx, models.Playlist{
		Name:        name,
		Description: description,
	})
	if err != nil {
		return err
	}

	return r.writePlainln("✓ Created %q (%s)", playlist.Name, playlist.ID)
}

// PlaylistsRename updates a playlist's name and description.
func (r *Runner) PlaylistsRename(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	if _, err := r.playlist.List(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
		return err
	}

	playlist, err := r.playlist.Playlist(playlistID)
	if err != nil {
		return err
	}

	if v := cmd.String("name"); v != "" {
		playlist.Name = v
	}
	if v := cmd.String("description"); v != "" {
		playlist.Description = v
	}

	updated, err := r.playlist.CreateOrUpdate(ctx, *playlist)
	if err != nil {
		return err
	}

	return r.writePlainln("✓ Updated %q", updated.Name)
}

// PlaylistsAddSong appends a song to a playlist.
func (r *Runner) PlaylistsAddSong(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	playlistID := cmd.StringArg("id")
	songID := cmd.StringArg("song-id")
	if playlistID == "" || songID == "" {
		return fmt.Errorf("%w: playlist id and song id are required", shared.ErrMissingArgument)
	}

	if _, err := r.playlist.List(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
		return err
	}

	playlist, err := r.playlist.AddSong(ctx, playlistID, songID)
	if err != nil {
		return err
	}

	return r.writePlainln("✓ Added %s to %q", songID, playlist.Name)
}

// PlaylistsRemoveSong removes a song from a playlist. Removing a song
// that is already gone succeeds.
func (r *Runner) PlaylistsRemoveSong(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	playlistID := cmd.StringArg("id")
	songID := cmd.StringArg("song-id")
	if playlistID == "" || songID == "" {
		return fmt.Errorf("%w: playlist id and song id are required", shared.ErrMissingArgument)
	}

	if _, err := r.playlist.List(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
		return err
	}

	playlist, err := r.playlist.RemoveSong(ctx, playlistID, songID)
	if err != nil {
		return err
	}

	return r.writePlainln("✓ Removed %s from %q", songID, playlist.Name)
}

// PlaylistsDelete deletes a playlist.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	if _, err := r.playlist.List(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
		return err
	}

	if err := r.playlist.Delete(ctx, playlistID); err != nil {
		return err
	}

	return r.writePlainln("✓ Deleted %s", playlistID)
}

// PlaylistsShare sends a playlist snapshot to other users.
func (r *Runner) PlaylistsShare(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}
	recipients := cmd.StringSlice("to")
	if len(recipients) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", shared.ErrMissingArgument)
	}

	if _, err := r.playlist.List(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
		return err
	}
	if err := r.catalog.Load(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
		return err
	}

	if err := r.playlist.Share(ctx, playlistID, recipients); err != nil {
		return err
	}

	return r.writePlainln("✓ Shared %s with %d recipient(s)", playlistID, len(recipients))
}

// PlaylistsMigrate re-runs the local playlist sweep by hand.
func (r *Runner) PlaylistsMigrate(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	report, err := r.playlist.Migrate(ctx, r.session.Current().UserID)
	if report != nil {
		r.printMigrationReport(report)
	}

	return err
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Manage playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:      "show",
				Usage:     "Print a playlist with its songs",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
				Action: r.PlaylistsShow,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Playlist description"},
				},
				Action: r.PlaylistsCreate,
			},
			{
				Name:      "rename",
				Usage:     "Rename a playlist or change its description",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New playlist name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
				},
				Action: r.PlaylistsRename,
			},
			{
				Name:      "add-song",
				Usage:     "Append a song to a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "song-id"}},
				Action:    r.PlaylistsAddSong,
			},
			{
				Name:      "remove-song",
				Usage:     "Remove a song from a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "song-id"}},
				Action:    r.PlaylistsRemoveSong,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.PlaylistsDelete,
			},
			{
				Name:      "share",
				Usage:     "Share a playlist snapshot with other users",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "to", Usage: "Recipient user id (repeatable)"},
				},
				Action: r.PlaylistsShare,
			},
			{
				Name:   "migrate",
				Usage:  "Sync local playlists to your account",
				Action: r.PlaylistsMigrate,
			},
		},
	}
}
