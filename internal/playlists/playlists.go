// Package playlists synchronizes the user's playlists with the server and
// repairs the local-only records left behind by pre-login use.
//
// A playlist record moves through three states: unowned-local (created
// before any login, stored only in the local cache tier), owned-local
// (tagged with a user during the migration sweep but not yet created
// server-side), and synced (the server's canonical copy). Records owned by
// a different user are orphaned and filtered out of display.
//
// The migration sweep runs as a post-login hook. Until the sweep for the
// current session has finished, every server mutation fails with
// shared.ErrMigrationPending so a half-migrated tier can never be mutated
// into an inconsistent shape.
package playlists

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/amverse/songbook/internal/cache"
	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/services"
	"github.com/amverse/songbook/internal/shared"
)

// SongResolver supplies song metadata for denormalized shares. The catalog
// implements it.
type SongResolver interface {
	Song(songID string) (*models.Song, error)
}

// MigrationReport summarizes a sweep for user-visible confirmation.
type MigrationReport struct {
	Migrated []string // playlist names created server-side
	Skipped  []string // names that already existed and were merged away
	Tagged   int      // unowned records claimed by the user this sweep
}

// Syncer owns the playlist collection and the migration state machine.
// All methods are safe for concurrent use.
type Syncer struct {
	api      services.PlaylistAPI
	store    *cache.Store
	resolver SongResolver
	logger   *log.Logger

	mu        sync.Mutex
	playlists []models.Playlist
	swept     bool
	selected  string
}

// New creates a syncer. resolver may be nil; shares then carry song ids
// without title metadata.
func New(api services.PlaylistAPI, store *cache.Store, resolver SongResolver, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Syncer{
		api:      api,
		store:    store,
		resolver: resolver,
		logger:   logger,
	}
}

// CreateLocal records a playlist in the local cache tier without touching
// the server. This is the pre-login path; the record stays unowned until a
// migration sweep claims it.
func (s *Syncer) CreateLocal(name, description string) (*models.Playlist, error) {
	playlist := models.Playlist{
		ID:          shared.NewLocalID(),
		Name:        name,
		Description: description,
	}
	if err := playlist.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	local, _ := s.store.LocalPlaylists()
	local = append(local, playlist)

	if err := s.store.SaveLocalPlaylists(local); err != nil {
		return nil, fmt.Errorf("failed to persist local playlist: %w", err)
	}

	s.logger.Debugf("created local playlist %q", name)

	return &playlist, nil
}

// Pending returns the local-tier records visible to userID: unowned records
// and records already tagged with userID. Records orphaned by another user
// are filtered out.
func (s *Syncer) Pending(userID string) []models.Playlist {
	local, _ := s.store.LocalPlaylists()

	visible := make([]models.Playlist, 0, len(local))
	for _, p := range local {
		if p.Unowned() || p.OwnerID == userID {
			visible = append(visible, p)
		}
	}

	return visible
}

// Migrate is the login-time sweep. It tags unowned local records with
// userID, creates server-side copies of tagged records whose normalized
// name is not already taken, purges migrated records from the local tier,
// and adopts the resulting server set. Running the sweep twice yields the
// same server set.
//
// The sweep completing, successfully or not, opens the mutation gate.
func (s *Syncer) Migrate(ctx context.Context, userID string) (*MigrationReport, error) {
	defer func() {
		s.mu.Lock()
		s.swept = true
		s.mu.Unlock()
	}()

	report := &MigrationReport{}

	local, _ := s.store.LocalPlaylists()
	for i := range local {
		if local[i].Unowned() {
			local[i].OwnerID = userID
			report.Tagged++
		}
	}
	if report.Tagged > 0 {
		if err := s.store.SaveLocalPlaylists(local); err != nil {
			return report, fmt.Errorf("failed to persist ownership tags: %w", err)
		}
	}

	remote, err := s.api.ListPlaylists(ctx)
	if err != nil {
		return report, fmt.Errorf("migration sweep could not reach the server: %w", err)
	}

	taken := make(map[string]bool, len(remote))
	for _, p := range remote {
		taken[shared.NormalizeName(p.Name)] = true
	}

	var failed []models.Playlist
	var sweepErr error

	for _, p := range local {
		if p.OwnerID != userID {
			// Orphaned by another account; leave it alone.
			failed = append(failed, p)
			continue
		}

		key := shared.NormalizeName(p.Name)
		if taken[key] {
			report.Skipped = append(report.Skipped, p.Name)
			continue
		}

		created, err := s.api.CreatePlaylist(ctx, models.Playlist{
			Name:        p.Name,
			Description: p.Description,
			SongIDs:     p.SongIDs,
		})
		if err != nil {
			s.logger.Warnf("failed to migrate playlist %q: %v", p.Name, err)
			failed = append(failed, p)
			sweepErr = err
			continue
		}

		taken[key] = true
		remote = append(remote, *created)
		report.Migrated = append(report.Migrated, p.Name)
	}

	if err := s.store.SaveLocalPlaylists(failed); err != nil {
		return report, fmt.Errorf("failed to purge migrated records: %w", err)
	}

	s.adopt(remote)

	if sweepErr != nil {
		return report, fmt.Errorf("migration sweep incomplete: %w", sweepErr)
	}

	s.logger.Infof("migration sweep done: %d migrated, %d skipped, %d tagged",
		len(report.Migrated), len(report.Skipped), report.Tagged)

	return report, nil
}

// gate rejects server mutations until the sweep for this session completed.
func (s *Syncer) gate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.swept {
		return shared.ErrMigrationPending
	}

	return nil
}

// Reset closes the mutation gate and drops the in-memory collection.
// Called on logout; the next login's sweep reopens the gate.
func (s *Syncer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swept = false
	s.playlists = nil
	s.selected = ""
}

// adopt replaces the in-memory collection and mirrors the snapshot.
func (s *Syncer) adopt(playlists []models.Playlist) {
	s.mu.Lock()
	s.playlists = playlists
	s.mu.Unlock()

	if err := s.store.SavePlaylists(playlists); err != nil {
		s.logger.Warnf("failed to mirror playlist snapshot: %v", err)
	}
}

// List fetches the server's playlist set. On transport failure the last
// snapshot is served with a degraded warning.
func (s *Syncer) List(ctx context.Context) ([]models.Playlist, error) {
	remote, err := s.api.ListPlaylists(ctx)
	if err == nil {
		s.adopt(remote)
		return remote, nil
	}

	if cached, ok := s.store.Playlists(); ok && len(cached) > 0 {
		s.mu.Lock()
		s.playlists = cached
		s.mu.Unlock()

		s.logger.Warnf("playlist list failed, serving snapshot: %v", err)

		return cached, fmt.Errorf("%w: serving %d cached playlists: %v", shared.ErrDegraded, len(cached), err)
	}

	return nil, fmt.Errorf("playlist list failed with no usable snapshot: %w", err)
}

// Playlists returns a copy of the current collection.
func (s *Syncer) Playlists() []models.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Playlist(nil), s.playlists...)
}

// Playlist returns the playlist with the given ID.
func (s *Syncer) Playlist(playlistID string) (*models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(playlistID)
}

// find looks a playlist up in the in-memory collection. Caller holds mu.
func (s *Syncer) find(playlistID string) (*models.Playlist, error) {
	for i := range s.playlists {
		if s.playlists[i].ID == playlistID {
			p := s.playlists[i]
			return &p, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
}

// replace swaps a playlist in the collection for the server's canonical
// object and mirrors the snapshot.
func (s *Syncer) replace(updated *models.Playlist) {
	s.mu.Lock()
	replaced := false
	for i := range s.playlists {
		if s.playlists[i].ID == updated.ID {
			s.playlists[i] = *updated
			replaced = true
			break
		}
	}
	if !replaced {
		s.playlists = append(s.playlists, *updated)
	}
	playlists := append([]models.Playlist(nil), s.playlists...)
	s.mu.Unlock()

	if err := s.store.SavePlaylists(playlists); err != nil {
		s.logger.Warnf("failed to mirror playlist snapshot: %v", err)
	}
}

// CreateOrUpdate creates the draft when its id is empty or transient, and
// updates the existing playlist otherwise. The server's canonical object is
// adopted and returned; failure leaves prior state untouched.
func (s *Syncer) CreateOrUpdate(ctx context.Context, draft models.Playlist) (*models.Playlist, error) {
	if err := s.gate(); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	if draft.ID == "" || shared.IsLocalID(draft.ID) {
		created, err := s.api.CreatePlaylist(ctx, models.Playlist{
			Name:        draft.Name,
			Description: draft.Description,
			SongIDs:     draft.SongIDs,
		})
		if err != nil {
			return nil, err
		}

		s.replace(created)

		return created, nil
	}

	updated, err := s.api.UpdatePlaylist(ctx, draft.ID, draft)
	if err != nil {
		return nil, err
	}

	s.replace(updated)

	return updated, nil
}

// AddSong appends a song to a playlist. A song already present is rejected
// with shared.ErrDuplicateSong and the sequence is left unchanged.
func (s *Syncer) AddSong(ctx context.Context, playlistID, songID string) (*models.Playlist, error) {
	if err := s.gate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	playlist, err := s.find(playlistID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if playlist.HasSong(songID) {
		return nil, fmt.Errorf("%w: %s already in %q", shared.ErrDuplicateSong, songID, playlist.Name)
	}

	updated, err := s.api.AddPlaylistSong(ctx, playlistID, songID)
	if err != nil {
		return nil, err
	}

	s.replace(updated)

	return updated, nil
}

// RemoveSong removes a song from a playlist. Removal is idempotent: a song
// that is not in the sequence, locally or server-side, is a success.
func (s *Syncer) RemoveSong(ctx context.Context, playlistID, songID string) (*models.Playlist, error) {
	if err := s.gate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	playlist, err := s.find(playlistID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !playlist.HasSong(songID) {
		return playlist, nil
	}

	updated, err := s.api.RemovePlaylistSong(ctx, playlistID, songID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Already gone server-side; drop it locally and call it done.
			playlist.SongIDs = withoutID(playlist.SongIDs, songID)
			s.replace(playlist)
			return playlist, nil
		}
		return nil, err
	}

	s.replace(updated)

	return updated, nil
}

// Delete removes a playlist. A server 404 counts as success; the selection
// is cleared when it pointed at the deleted playlist.
func (s *Syncer) Delete(ctx context.Context, playlistID string) error {
	if err := s.gate(); err != nil {
		return err
	}

	if err := s.api.DeletePlaylist(ctx, playlistID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	s.mu.Lock()
	kept := s.playlists[:0]
	for _, p := range s.playlists {
		if p.ID != playlistID {
			kept = append(kept, p)
		}
	}
	s.playlists = kept
	if s.selected == playlistID {
		s.selected = ""
	}
	playlists := append([]models.Playlist(nil), kept...)
	s.mu.Unlock()

	if err := s.store.SavePlaylists(playlists); err != nil {
		s.logger.Warnf("failed to mirror playlist snapshot: %v", err)
	}

	return nil
}

// Share dispatches a denormalized snapshot of the playlist to the
// recipients. Song titles are resolved so recipients can render the copy
// without a follow-up fetch; the recipient's copy has no live link back.
func (s *Syncer) Share(ctx context.Context, playlistID string, recipients []string) error {
	if err := s.gate(); err != nil {
		return err
	}
	if len(recipients) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", shared.ErrValidation)
	}

	s.mu.Lock()
	playlist, err := s.find(playlistID)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	share := models.PlaylistShare{
		PlaylistID:  playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		SongIDs:     append([]string(nil), playlist.SongIDs...),
		Recipients:  recipients,
	}

	for _, id := range playlist.SongIDs {
		snapshot := models.SharedSong{ID: id}
		if s.resolver != nil {
			if song, err := s.resolver.Song(id); err == nil {
				snapshot.Title = song.Title
				snapshot.Artist = song.Artist
			}
		}
		share.Songs = append(share.Songs, snapshot)
	}

	if err := s.api.SharePlaylist(ctx, share); err != nil {
		return err
	}

	s.logger.Infof("shared %q with %d recipients", playlist.Name, len(recipients))

	return nil
}

// Select marks a playlist as the current selection.
func (s *Syncer) Select(playlistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.find(playlistID); err != nil {
		return err
	}
	s.selected = playlistID

	return nil
}

// Selected returns the selected playlist ID, empty when nothing is selected.
func (s *Syncer) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func withoutID(ids []string, id string) []string {
	kept := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}

	return kept
}
