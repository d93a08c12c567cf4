// Bulk export of the catalog and playlists to disk.
package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/amverse/songbook/internal/formatter"
	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/services"
	"github.com/amverse/songbook/internal/shared"
)

// ExportOpts configures a bulk export run.
type ExportOpts struct {
	OutputDir string  // Base output directory (default: songbook_export_{epoch})
	Format    string  // Export format: json, csv, markdown, txt (default: json)
	RateLimit float64 // Requests per second against the server (default: 2)
}

// PlaylistExportResult records the outcome for one playlist.
type PlaylistExportResult struct {
	PlaylistID   string `json:"playlistId"`
	PlaylistName string `json:"playlistName"`
	FilePath     string `json:"filePath,omitempty"`
	Success      bool   `json:"success"`
	Error        error  `json:"-"`
}

// ExportResult summarizes a bulk export run.
type ExportResult struct {
	SongCount       int                    `json:"songCount"`
	SongsPath       string                 `json:"songsPath"`
	TotalPlaylists  int                    `json:"totalPlaylists"`
	SuccessCount    int                    `json:"successCount"`
	FailedCount     int                    `json:"failedCount"`
	OutputDirectory string                 `json:"outputDirectory"`
	ManifestPath    string                 `json:"manifestPath"`
	ExportedAt      time.Time              `json:"exportedAt"`
	Results         []PlaylistExportResult `json:"results"`
}

// Exporter writes the song catalog and the user's playlists to disk.
type Exporter struct {
	songs     services.SongAPI
	playlists services.PlaylistAPI
	logger    *log.Logger
}

// NewExporter creates an exporter over the given API surfaces.
func NewExporter(songs services.SongAPI, playlists services.PlaylistAPI, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Exporter{
		songs:     songs,
		playlists: playlists,
		logger:    logger,
	}
}

// Run exports the catalog and every playlist, one server request per
// playlist paced by the rate limiter, then writes a manifest summarizing
// the run. Partial playlist failures are recorded in the result rather
// than aborting the export. Progress updates are sent to prog when it is
// non-nil.
func (e *Exporter) Run(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("songbook_export_%d", time.Now().Unix())
	}
	if opts.Format == "" {
		opts.Format = "json"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	songs, err := e.songs.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog for export: %w", err)
	}

	e.sendProgress(prog, exportingSongsUpdate(len(songs)))

	songsPath, err := formatter.WriteSongsExport(songs, opts.OutputDir, opts.Format)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	playlists, err := e.playlists.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists for export: %w", err)
	}

	result := &ExportResult{
		SongCount:       len(songs),
		SongsPath:       songsPath,
		TotalPlaylists:  len(playlists),
		OutputDirectory: opts.OutputDir,
		ExportedAt:      time.Now().UTC(),
		Results:         make([]PlaylistExportResult, 0, len(playlists)),
	}

	for i, playlist := range playlists {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(playlists), playlist.Name))

		path, err := formatter.WritePlaylistExport(playlist, byID, opts.OutputDir, opts.Format)
		if err != nil {
			e.logger.Warnf("failed to export playlist %q: %v", playlist.Name, err)
			result.FailedCount++
			result.Results = append(result.Results, PlaylistExportResult{
				PlaylistID:   playlist.ID,
				PlaylistName: playlist.Name,
				Success:      false,
				Error:        err,
			})
			continue
		}

		result.SuccessCount++
		result.Results = append(result.Results, PlaylistExportResult{
			PlaylistID:   playlist.ID,
			PlaylistName: playlist.Name,
			FilePath:     path,
			Success:      true,
		})
	}

	e.sendProgress(prog, writingManifestUpdate())

	result.ManifestPath = filepath.Join(opts.OutputDir, "manifest.json")

	manifest, err := formatter.ToJSON(result)
	if err != nil {
		return result, err
	}

	if err := os.WriteFile(result.ManifestPath, manifest, 0644); err != nil {
		return result, fmt.Errorf("failed to write manifest: %w", err)
	}

	e.logger.Infof("exported %d songs and %d/%d playlists to %s",
		result.SongCount, result.SuccessCount, result.TotalPlaylists, opts.OutputDir)

	return result, nil
}

// sendProgress delivers an update without blocking when the receiver is
// slow or absent.
func (e *Exporter) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}

	select {
	case prog <- update:
	default:
	}
}
