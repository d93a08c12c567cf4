// package cache implements the persistent snapshot store backing offline
// fallback.
//
// Each logical resource (songs, playlists, favorites, UI preferences, the
// session) is stored as one serialized value under one key. The store is a
// safety net, never a primary source of truth: callers read it only when the
// remote is unreachable, and overwrite it wholesale after every successful
// fetch or mutation. Whole-key replacement means a reader always sees a
// fully-formed prior snapshot or nothing.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/shared"
)

// Store persists serialized snapshots in SQLite.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// NewStore creates a Store over an open database. The caller is responsible
// for having run migrations.
func NewStore(db *sql.DB, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{db: db, logger: logger}
}

// Open opens (or creates) the snapshot database at path and runs migrations.
// Pass ":memory:" for an ephemeral store.
func Open(path string, logger *log.Logger) (*Store, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate snapshot store: %w", err)
	}
	return NewStore(db, logger), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set replaces the value under key with the JSON serialization of v.
func (s *Store) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot %s: %w", key, err)
	}

	query := `INSERT OR REPLACE INTO snapshots (key, value, updated_at) VALUES (?, ?, ?)`
	if _, err := s.db.Exec(query, key, data, time.Now()); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	return nil
}

// Get reads the value under key into dest. Returns false on a miss. A value
// that no longer deserializes is treated as a miss and logged; it is the
// price of schema drift, not an error the caller can act on.
func (s *Store) Get(key string, dest any) (bool, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT value FROM snapshots WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warnf("discarding corrupt snapshot %s: %v", key, err)
		return false, nil
	}
	return true, nil
}

// Delete removes the value under key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// Clear wipes every stored snapshot.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// Keys lists the stored snapshot keys with their last write time.
func (s *Store) Keys() (map[string]time.Time, error) {
	rows, err := s.db.Query(`SELECT key, updated_at FROM snapshots ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]time.Time)
	for rows.Next() {
		var key string
		var ts time.Time
		if err := rows.Scan(&key, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		keys[key] = ts
	}
	return keys, rows.Err()
}

// === Typed accessors ===

// Songs returns the last-known-good song collection.
func (s *Store) Songs() ([]models.Song, bool) {
	var songs []models.Song
	ok, err := s.Get(KeySongs, &songs)
	if err != nil {
		s.logger.Warnf("failed to read songs snapshot: %v", err)
		return nil, false
	}
	return songs, ok
}

// SaveSongs mirrors the song collection after a successful fetch or mutation.
func (s *Store) SaveSongs(songs []models.Song) error {
	return s.Set(KeySongs, songs)
}

// LocalPlaylists returns the cache-only playlist tier (Unowned-Local and
// Owned-Local records awaiting migration).
func (s *Store) LocalPlaylists() ([]models.Playlist, bool) {
	var playlists []models.Playlist
	ok, err := s.Get(KeyLocalPlaylists, &playlists)
	if err != nil {
		s.logger.Warnf("failed to read local playlists snapshot: %v", err)
		return nil, false
	}
	return playlists, ok
}

// SaveLocalPlaylists replaces the cache-only playlist tier.
func (s *Store) SaveLocalPlaylists(playlists []models.Playlist) error {
	return s.Set(KeyLocalPlaylists, playlists)
}

// Playlists returns the mirrored server-owned playlist collection.
func (s *Store) Playlists() ([]models.Playlist, bool) {
	var playlists []models.Playlist
	ok, err := s.Get(KeyPlaylists, &playlists)
	if err != nil {
		s.logger.Warnf("failed to read playlists snapshot: %v", err)
		return nil, false
	}
	return playlists, ok
}

// SavePlaylists mirrors the server-owned playlist collection.
func (s *Store) SavePlaylists(playlists []models.Playlist) error {
	return s.Set(KeyPlaylists, playlists)
}

// Favorites returns the locally stored favorite song ids.
func (s *Store) Favorites() ([]string, bool) {
	var ids []string
	ok, err := s.Get(KeyFavorites, &ids)
	if err != nil {
		s.logger.Warnf("failed to read favorites snapshot: %v", err)
		return nil, false
	}
	return ids, ok
}

// SaveFavorites replaces the favorite song id set.
func (s *Store) SaveFavorites(ids []string) error {
	return s.Set(KeyFavorites, ids)
}

// RecentlyViewed returns the bounded most-recent-first song id sequence.
func (s *Store) RecentlyViewed() ([]string, bool) {
	var ids []string
	ok, err := s.Get(KeyRecentlyViewed, &ids)
	if err != nil {
		s.logger.Warnf("failed to read recently viewed snapshot: %v", err)
		return nil, false
	}
	return ids, ok
}

// SaveRecentlyViewed replaces the recently-viewed sequence.
func (s *Store) SaveRecentlyViewed(ids []string) error {
	return s.Set(KeyRecentlyViewed, ids)
}

// Session returns the persisted session, if any.
func (s *Store) Session() (*models.Session, bool) {
	var session models.Session
	ok, err := s.Get(KeySession, &session)
	if err != nil {
		s.logger.Warnf("failed to read session snapshot: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &session, true
}

// SaveSession persists the session for startup resume.
func (s *Store) SaveSession(session *models.Session) error {
	return s.Set(KeySession, session)
}

// ClearSession removes the persisted session on logout or teardown.
func (s *Store) ClearSession() error {
	if err := s.Delete(KeySession); err != nil {
		return err
	}
	return s.Delete(KeyProfile)
}

// Profile returns the last fetched user profile.
func (s *Store) Profile() (*models.User, bool) {
	var user models.User
	ok, err := s.Get(KeyProfile, &user)
	if err != nil {
		s.logger.Warnf("failed to read profile snapshot: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &user, true
}

// SaveProfile mirrors the user profile after a successful fetch.
func (s *Store) SaveProfile(user *models.User) error {
	return s.Set(KeyProfile, user)
}

// BrowseState is the persisted TUI browsing state. Each field maps to its
// own snapshot key so a partial write cannot corrupt the rest.
type BrowseState struct {
	SearchTerm       string
	SortOrder        string
	FilterBy         string
	SelectedSong     string
	CurrentView      string
	SidebarCollapsed bool
}

// BrowseStateSnapshot restores the persisted browsing state. Missing keys
// leave the default in place.
func (s *Store) BrowseStateSnapshot() BrowseState {
	state := BrowseState{SidebarCollapsed: true}
	s.getPref(KeySearchTerm, &state.SearchTerm)
	s.getPref(KeySortOrder, &state.SortOrder)
	s.getPref(KeyFilterBy, &state.FilterBy)
	s.getPref(KeySelectedSong, &state.SelectedSong)
	s.getPref(KeyCurrentView, &state.CurrentView)
	s.getPref(KeySidebarCollapsed, &state.SidebarCollapsed)
	return state
}

// SaveBrowseState persists the browsing state, one key per field.
func (s *Store) SaveBrowseState(state BrowseState) error {
	for key, v := range map[string]any{
		KeySearchTerm:       state.SearchTerm,
		KeySortOrder:        state.SortOrder,
		KeyFilterBy:         state.FilterBy,
		KeySelectedSong:     state.SelectedSong,
		KeyCurrentView:      state.CurrentView,
		KeySidebarCollapsed: state.SidebarCollapsed,
	} {
		if err := s.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) getPref(key string, dest any) {
	if _, err := s.Get(key, dest); err != nil {
		s.logger.Warnf("failed to read %s snapshot: %v", key, err)
	}
}
