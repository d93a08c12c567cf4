package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/amverse/songbook/internal/tasks"
)

// Export runs a bulk export of the catalog and every playlist, streaming
// progress lines as it goes.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		OutputDir: cmd.String("dir"),
		Format:    cmd.String("format"),
		RateLimit: cmd.Float("rate"),
	}
	if opts.OutputDir == "" {
		opts.OutputDir = r.config.Export.Directory
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = r.config.Export.RateLimit
	}

	prog := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlainln("  [%s] %s", update.Phase, update.Message)
		}
	}()

	result, err := r.exporter.Run(ctx, prog, opts)
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d songs and %d/%d playlists to %s",
		result.SongCount, result.SuccessCount, result.TotalPlaylists, result.OutputDirectory)
	for _, pr := range result.Results {
		if pr.Error != nil {
			r.writePlainln("  ✗ %s: %v", pr.PlaylistName, pr.Error)
		}
	}

	return nil
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the catalog and playlists to files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Output directory"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format: json, csv, markdown, txt", Value: "json"},
			&cli.FloatFlag{Name: "rate", Usage: "Max requests per second against the server"},
		},
		Action: r.Export,
	}
}
