package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/amverse/songbook/internal/cache"
	"github.com/amverse/songbook/internal/catalog"
	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/playlists"
	"github.com/amverse/songbook/internal/services"
	"github.com/amverse/songbook/internal/session"
	"github.com/amverse/songbook/internal/shared"
	"github.com/amverse/songbook/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	auth     services.AuthAPI
	notify   services.NotificationAPI
	store    *cache.Store
	session  *session.Manager
	catalog  *catalog.Catalog
	playlist *playlists.Syncer
	exporter *tasks.Exporter
	poller   *tasks.Poller
	logger   *log.Logger
	output   io.Writer

	lastMigration *playlists.MigrationReport
}

// RunnerOpts contains configuration options for creating a Runner.
//
// The API fields default to the HTTP client when left nil; tests inject
// mocks through them.
type RunnerOpts struct {
	Config          *shared.Config
	Client          *services.Client
	Store           *cache.Store
	SongAPI         services.SongAPI
	PlaylistAPI     services.PlaylistAPI
	AuthAPI         services.AuthAPI
	NotificationAPI services.NotificationAPI
	Logger          *log.Logger
	Output          io.Writer
}

// NewRunner creates a new Runner with the provided configuration, wiring
// the session manager, the catalog, the playlist syncer, the exporter, and
// the notification poller. The migration sweep is registered as a
// post-login hook and the poller as a session-scoped task.
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Client == nil {
		opts.Client = services.NewClient(opts.Config.Server.BaseURL, opts.Config.Server.Timeout(), opts.Logger)
	}
	if opts.SongAPI == nil {
		opts.SongAPI = opts.Client
	}
	if opts.PlaylistAPI == nil {
		opts.PlaylistAPI = opts.Client
	}
	if opts.AuthAPI == nil {
		opts.AuthAPI = opts.Client
	}
	if opts.NotificationAPI == nil {
		opts.NotificationAPI = opts.Client
	}

	if opts.Store == nil {
		store, err := cache.Open(opts.Config.Cache.Path, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
		opts.Store = store
	}

	r := &Runner{
		config: opts.Config,
		auth:   opts.AuthAPI,
		notify: opts.NotificationAPI,
		store:  opts.Store,
		logger: opts.Logger,
		output: opts.Output,
	}

	r.catalog = catalog.New(opts.SongAPI, opts.Store, shared.WithLogger(opts.Logger, "component", "catalog"))
	r.playlist = playlists.New(opts.PlaylistAPI, opts.Store, r.catalog, shared.WithLogger(opts.Logger, "component", "playlists"))
	r.session = session.NewManager(opts.AuthAPI, opts.Client, opts.Store, shared.WithLogger(opts.Logger, "component", "session"))
	r.exporter = tasks.NewExporter(opts.SongAPI, opts.PlaylistAPI, opts.Logger)

	r.poller = tasks.NewPoller(opts.NotificationAPI, opts.Config.Notifications.PollInterval(), func(notifications []models.Notification) {
		for _, n := range notifications {
			if !n.Read {
				r.logger.Infof("notification: %s", n.Message)
			}
		}
	}, opts.Logger)

	r.session.RegisterPostLogin(func(ctx context.Context, s *models.Session) error {
		report, err := r.playlist.Migrate(ctx, s.UserID)
		r.lastMigration = report
		return err
	})
	r.session.RegisterTask(r.poller)

	return r, nil
}

// SetLogger swaps the runner's logger, keeping the session and cores on the
// old one. Used by the TUI to redirect its own output to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the snapshot store.
func (r *Runner) Close() error {
	r.playlist.Reset()
	return r.store.Close()
}

// resume restores the cached session so authenticated commands work across
// invocations. Commands that require a login call this first.
func (r *Runner) resume(ctx context.Context) error {
	if r.session.Current() != nil {
		return nil
	}
	if _, err := r.session.Resume(ctx); err != nil {
		return fmt.Errorf("not logged in, run 'songbook login': %w", err)
	}

	// The sweep state does not survive restarts; mark the resumed session
	// swept by re-running the idempotent sweep.
	if _, err := r.playlist.Migrate(ctx, r.session.Current().UserID); err != nil {
		r.logger.Warnf("migration sweep failed: %v", err)
	}

	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, registerCommand, whoamiCommand,
		forgotPasswordCommand, resetPasswordCommand,
		songsCommand, favoritesCommand, playlistsCommand, notificationsCommand,
		exportCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) printMigrationReport(report *playlists.MigrationReport) {
	if len(report.Migrated) > 0 {
		r.writePlainln("Migrated %d local playlists to your account:", len(report.Migrated))
		for _, name := range report.Migrated {
			r.writePlainln("  • %s", name)
		}
	}
	if len(report.Skipped) > 0 {
		r.writePlainln("Skipped %d playlists that already exist:", len(report.Skipped))
		for _, name := range report.Skipped {
			r.writePlainln("  • %s", name)
		}
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
