package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/amverse/songbook/internal/catalog"
	"github.com/amverse/songbook/internal/formatter"
	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/shared"
)

// SongsList loads the catalog and prints it, filtered and sorted. A
// degraded load still prints the cached collection with a warning.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	if err := r.catalog.Load(ctx); err != nil {
		if !errors.Is(err, shared.ErrDegraded) {
			return err
		}
		r.writePlainln("⚠ Server unreachable, showing cached songs")
	}

	var category models.Category
	if v := cmd.String("category"); v != "" {
		category = models.ParseCategory(v)
	}

	songs := catalog.FilterAndSort(
		r.catalog.Songs(),
		cmd.String("search"),
		category,
		catalog.ParseSortMode(cmd.String("sort")),
	)

	if cmd.Bool("json") {
		return r.writeJSON(songs, true)
	}

	if len(songs) == 0 {
		return r.writePlainln("No songs found")
	}

	r.writePlainHeader(fmt.Sprintf("Songs (%d)", len(songs)))
	for _, song := range songs {
		marker := " "
		if r.catalog.IsFavorite(song.ID) {
			marker = "★"
		}
		r.writePlainln("%s %s [%s] (%s)", marker, song.Title, song.Category, song.ID)
	}

	return nil
}

// SongsShow prints one song as a chord sheet and records the view.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	songID := cmd.StringArg("id")
	if songID == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}

	if err := r.catalog.Load(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
		return err
	}

	song, err := r.catalog.Song(songID)
	if err != nil {
		return err
	}
	r.catalog.Select(songID)

	if cmd.Bool("json") {
		return r.writeJSON(song, true)
	}

	return r.writePlain("%s", formatter.SongToMarkdown(*song))
}

// SongsAdd creates a song in the catalog. Requires the admin role.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}
	if !r.session.IsAdmin() {
		return fmt.Errorf("%w: only admins can modify the catalog", shared.ErrAdminRequired)
	}

	song := models.Song{
		Title:    cmd.String("title"),
		Artist:   cmd.String("artist"),
		Lyrics:   cmd.String("lyrics"),
		Chords:   cmd.String("chords"),
		Category: models.ParseCategory(cmd.String("category")),
	}

	created, err := r.catalog.Add(ctx, song)
	if err != nil {
		return err
	}

	return r.writePlainln("✓ Added %q (%s)", created.Title, created.ID)
}

// SongsEdit updates a song in place. Flags that are not set keep the
// current value.
func (r *Runner) SongsEdit(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}
	if !r.session.IsAdmin() {
		return fmt.Errorf("%w: only admins can modify the catalog", shared.ErrAdminRequired)
	}

	songID := cmd.StringArg("id")
	if songID == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}

	if err := r.catalog.Load(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
		return err
	}

	song, err := r.catalog.Song(songID)
	if err != nil {
		return err
	}

	if v := cmd.String("title"); v != "" {
		song.Title = v
	}
	if v := cmd.String("artist"); v != "" {
		song.Artist = v
	}
	if v := cmd.String("lyrics"); v != "" {
		song.Lyrics = v
	}
	if v := cmd.String("chords"); v != "" {
		song.Chords = v
	}
	if v := cmd.String("category"); v != "" {
		song.Category = models.ParseCategory(v)
	}

	updated, err := r.catalog.Update(ctx, songID, *song)
	if err != nil {
		return err
	}

	return r.writePlainln("✓ Updated %q", updated.Title)
}

// SongsRemove deletes a song from the catalog.
func (r *Runner) SongsRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}
	if !r.session.IsAdmin() {
		return fmt.Errorf("%w: only admins can modify the catalog", shared.ErrAdminRequired)
	}

	songID := cmd.StringArg("id")
	if songID == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}

	if err := r.catalog.Remove(ctx, songID); err != nil {
		return err
	}

	return r.writePlainln("✓ Removed %s", songID)
}

// SongsReload forces a fresh fetch. Unlike list, a failure here never
// falls back to the cache.
func (r *Runner) SongsReload(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	if err := r.catalog.Reload(ctx); err != nil {
		return err
	}

	return r.writePlainln("✓ Reloaded %d songs", len(r.catalog.Songs()))
}

// FavoritesList prints the favorite songs.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	if err := r.catalog.Load(ctx); err != nil && !errors.Is(err, shared.ErrDegraded) {
		return err
	}

	ids := r.catalog.Favorites()
	if len(ids) == 0 {
		return r.writePlainln("No favorites yet")
	}

	r.writePlainHeader(fmt.Sprintf("Favorites (%d)", len(ids)))
	for _, id := range ids {
		if song, err := r.catalog.Song(id); err == nil {
			r.writePlainln("★ %s (%s)", song.Title, song.ID)
		}
	}

	return nil
}

// FavoritesToggle flips a song's favorite status.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	songID := cmd.StringArg("id")
	if songID == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}

	if r.catalog.ToggleFavorite(songID) {
		return r.writePlainln("★ Added %s to favorites", songID)
	}

	return r.writePlainln("Removed %s from favorites", songID)
}

func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Browse and manage the song catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs, filtered and sorted",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Title substring to match"},
					&cli.StringFlag{Name: "category", Usage: "Filter by category (praise, worship, christmas, easter, other)"},
					&cli.StringFlag{Name: "sort", Usage: "Sort order: asc, desc, recent", Value: "asc"},
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
				Action: r.SongsList,
			},
			{
				Name:      "show",
				Usage:     "Print a song's chord sheet",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
				Action: r.SongsShow,
			},
			{
				Name:  "add",
				Usage: "Add a song to the catalog (admin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Song title", Required: true},
					&cli.StringFlag{Name: "artist", Usage: "Artist or author"},
					&cli.StringFlag{Name: "lyrics", Usage: "Lyrics text"},
					&cli.StringFlag{Name: "chords", Usage: "Chord chart text"},
					&cli.StringFlag{Name: "category", Usage: "Category", Value: "other"},
				},
				Action: r.SongsAdd,
			},
			{
				Name:      "edit",
				Usage:     "Edit a song (admin)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Song title"},
					&cli.StringFlag{Name: "artist", Usage: "Artist or author"},
					&cli.StringFlag{Name: "lyrics", Usage: "Lyrics text"},
					&cli.StringFlag{Name: "chords", Usage: "Chord chart text"},
					&cli.StringFlag{Name: "category", Usage: "Category"},
				},
				Action: r.SongsEdit,
			},
			{
				Name:      "remove",
				Usage:     "Remove a song from the catalog (admin)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongsRemove,
			},
			{
				Name:   "reload",
				Usage:  "Force a fresh fetch from the server",
				Action: r.SongsReload,
			},
		},
	}
}

func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "favorites",
		Usage: "Manage favorite songs",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List favorite songs",
				Action: r.FavoritesList,
			},
			{
				Name:      "toggle",
				Usage:     "Toggle a song's favorite status",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.FavoritesToggle,
			},
		},
	}
}
