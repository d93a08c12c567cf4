// Package catalog holds the client-side song catalog state: the in-memory
// collection synchronized from the server, its offline fallback snapshot,
// and the per-user view state layered on top (selection, favorites,
// recently viewed).
//
// The remote is the source of truth. The cache is a safety net consulted
// only when a load fails; a reload requested by the user never falls back
// silently. An empty collection is always visibly either degraded or failed,
// never presented as a successful sync.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/amverse/songbook/internal/cache"
	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/services"
	"github.com/amverse/songbook/internal/shared"
)

// recentLimit caps the recently-viewed ring.
const recentLimit = 5

// State classifies the catalog's relationship to the server.
type State int

const (
	// StateIdle means no load has been attempted yet.
	StateIdle State = iota
	// StateReady means the collection reflects the last successful fetch.
	StateReady
	// StateDegraded means the remote failed and the collection was restored
	// from the cached snapshot.
	StateDegraded
	// StateFailed means the remote failed and no snapshot was available;
	// the collection is empty.
	StateFailed
)

// String implements fmt.Stringer for log output.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Catalog is the synchronized song collection plus user view state.
// All methods are safe for concurrent use.
type Catalog struct {
	api    services.SongAPI
	store  *cache.Store
	logger *log.Logger

	mu        sync.Mutex
	songs     []models.Song
	state     State
	lastErr   error
	seq       uint64 // last issued load sequence
	applied   uint64 // sequence of the last applied completion
	selected  string
	favorites []string
	recent    []string
}

// New creates a catalog. Favorites and the recently-viewed ring are restored
// from the snapshot store; the song collection itself is not adopted until a
// load fails (the cache is fallback, not startup state).
func New(api services.SongAPI, store *cache.Store, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	c := &Catalog{
		api:    api,
		store:  store,
		logger: logger,
		state:  StateIdle,
	}

	if favorites, ok := store.Favorites(); ok {
		c.favorites = favorites
	}
	if recent, ok := store.RecentlyViewed(); ok {
		c.recent = recent
	}

	return c
}

// Load fetches the catalog from the server. On success the collection is
// replaced wholesale, mirrored to the snapshot store, and stale references
// pruned. On failure a non-empty cached snapshot is adopted with a degraded
// warning; with no snapshot the collection is emptied and a hard error
// returned.
//
// Each load carries a sequence number; a completion that finishes after a
// newer load has already applied is discarded.
func (c *Catalog) Load(ctx context.Context) error {
	seq := c.nextSeq()

	songs, err := c.api.ListSongs(ctx)
	if err == nil {
		if !c.apply(seq, songs, StateReady, nil) {
			return nil
		}

		if err := c.store.SaveSongs(songs); err != nil {
			c.logger.Warnf("failed to mirror song snapshot: %v", err)
		}
		c.PruneDanglingRefs()

		return nil
	}

	if cached, ok := c.store.Songs(); ok && len(cached) > 0 {
		degraded := fmt.Errorf("%w: serving %d cached songs: %v", shared.ErrDegraded, len(cached), err)
		if !c.apply(seq, cached, StateDegraded, degraded) {
			return nil
		}

		c.logger.Warnf("catalog load failed, falling back to snapshot: %v", err)
		c.PruneDanglingRefs()

		return degraded
	}

	hard := fmt.Errorf("catalog load failed with no usable snapshot: %w", err)
	if !c.apply(seq, nil, StateFailed, hard) {
		return nil
	}

	return hard
}

// Reload is the user-initiated refresh. Failure surfaces the error and
// leaves the in-memory collection untouched; there is no cache fallback
// here because the user asked for fresh data.
func (c *Catalog) Reload(ctx context.Context) error {
	seq := c.nextSeq()

	songs, err := c.api.ListSongs(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()

		return fmt.Errorf("reload failed: %w", err)
	}

	if !c.apply(seq, songs, StateReady, nil) {
		return nil
	}

	if err := c.store.SaveSongs(songs); err != nil {
		c.logger.Warnf("failed to mirror song snapshot: %v", err)
	}
	c.PruneDanglingRefs()

	return nil
}

// nextSeq issues a new load sequence number.
func (c *Catalog) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// apply installs a load completion unless a newer one already landed.
// Returns false when the completion was stale and discarded.
func (c *Catalog) apply(seq uint64, songs []models.Song, state State, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.applied {
		c.logger.Debugf("discarding stale load completion %d (applied %d)", seq, c.applied)
		return false
	}

	c.applied = seq
	c.songs = songs
	c.state = state
	c.lastErr = err

	return true
}

// Add creates a song on the server and adopts the returned representation.
// Failure leaves the collection untouched.
func (c *Catalog) Add(ctx context.Context, song models.Song) (*models.Song, error) {
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	created, err := c.api.CreateSong(ctx, song)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.songs = append(c.songs, *created)
	songs := snapshot(c.songs)
	c.mu.Unlock()

	c.mirror(songs)

	return created, nil
}

// Update replaces a song on the server and adopts the returned
// representation. Failure leaves the collection untouched.
func (c *Catalog) Update(ctx context.Context, songID string, song models.Song) (*models.Song, error) {
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	updated, err := c.api.UpdateSong(ctx, songID, song)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i := range c.songs {
		if c.songs[i].ID == songID {
			c.songs[i] = *updated
			break
		}
	}
	songs := snapshot(c.songs)
	c.mu.Unlock()

	c.mirror(songs)

	return updated, nil
}

// Remove deletes a song on the server, drops it from the collection, and
// prunes any references that pointed at it.
func (c *Catalog) Remove(ctx context.Context, songID string) error {
	if err := c.api.DeleteSong(ctx, songID); err != nil {
		return err
	}

	c.mu.Lock()
	kept := c.songs[:0]
	for _, s := range c.songs {
		if s.ID != songID {
			kept = append(kept, s)
		}
	}
	c.songs = kept
	songs := snapshot(c.songs)
	c.mu.Unlock()

	c.mirror(songs)
	c.PruneDanglingRefs()

	return nil
}

func (c *Catalog) mirror(songs []models.Song) {
	if err := c.store.SaveSongs(songs); err != nil {
		c.logger.Warnf("failed to mirror song snapshot: %v", err)
	}
}

// PruneDanglingRefs drops references to songs that no longer exist: an
// invalid selection is cleared, and invalid favorites and recently-viewed
// entries are removed preserving the order of the survivors.
func (c *Catalog) PruneDanglingRefs() {
	c.mu.Lock()

	valid := make(map[string]bool, len(c.songs))
	for _, s := range c.songs {
		valid[s.ID] = true
	}

	if c.selected != "" && !valid[c.selected] {
		c.selected = ""
	}

	favorites, favoritesChanged := pruneIDs(c.favorites, valid)
	recent, recentChanged := pruneIDs(c.recent, valid)
	c.favorites = favorites
	c.recent = recent

	c.mu.Unlock()

	if favoritesChanged {
		if err := c.store.SaveFavorites(favorites); err != nil {
			c.logger.Warnf("failed to mirror favorites: %v", err)
		}
	}
	if recentChanged {
		if err := c.store.SaveRecentlyViewed(recent); err != nil {
			c.logger.Warnf("failed to mirror recently viewed: %v", err)
		}
	}
}

func pruneIDs(ids []string, valid map[string]bool) ([]string, bool) {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if valid[id] {
			kept = append(kept, id)
		}
	}

	return kept, len(kept) != len(ids)
}

// Songs returns a copy of the current collection.
func (c *Catalog) Songs() []models.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot(c.songs)
}

// Song returns the song with the given ID, or shared.ErrSongNotFound.
func (c *Catalog) Song(songID string) (*models.Song, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.songs {
		if c.songs[i].ID == songID {
			song := c.songs[i]
			return &song, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
}

// State reports the catalog's sync state.
func (c *Catalog) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error from the last load, nil when healthy.
func (c *Catalog) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Select marks a song as the current selection and records the view.
func (c *Catalog) Select(songID string) error {
	c.mu.Lock()
	found := false
	for i := range c.songs {
		if c.songs[i].ID == songID {
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
	}
	c.selected = songID
	c.mu.Unlock()

	c.RecordView(songID)

	return nil
}

// ClearSelection drops the current selection.
func (c *Catalog) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
}

// Selected returns the selected song ID, empty when nothing is selected.
func (c *Catalog) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// ToggleFavorite flips a song's favorite status and reports the new status.
// The favorites snapshot is mirrored on every change.
func (c *Catalog) ToggleFavorite(songID string) bool {
	c.mu.Lock()

	nowFavorite := true
	kept := c.favorites[:0]
	for _, id := range c.favorites {
		if id == songID {
			nowFavorite = false
			continue
		}
		kept = append(kept, id)
	}
	if nowFavorite {
		kept = append(kept, songID)
	}
	c.favorites = kept
	favorites := append([]string(nil), kept...)

	c.mu.Unlock()

	if err := c.store.SaveFavorites(favorites); err != nil {
		c.logger.Warnf("failed to mirror favorites: %v", err)
	}

	return nowFavorite
}

// IsFavorite reports whether a song is marked as a favorite.
func (c *Catalog) IsFavorite(songID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.favorites {
		if id == songID {
			return true
		}
	}

	return false
}

// Favorites returns the favorite song IDs in insertion order.
func (c *Catalog) Favorites() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.favorites...)
}

// RecordView pushes a song onto the recently-viewed ring: most recent first,
// duplicates collapse to the front, capped at five entries.
func (c *Catalog) RecordView(songID string) {
	c.mu.Lock()

	next := make([]string, 0, recentLimit)
	next = append(next, songID)
	for _, id := range c.recent {
		if id == songID {
			continue
		}
		if len(next) == recentLimit {
			break
		}
		next = append(next, id)
	}
	c.recent = next
	recent := append([]string(nil), next...)

	c.mu.Unlock()

	if err := c.store.SaveRecentlyViewed(recent); err != nil {
		c.logger.Warnf("failed to mirror recently viewed: %v", err)
	}
}

// RecentlyViewed returns the recently-viewed song IDs, most recent first.
func (c *Catalog) RecentlyViewed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.recent...)
}

func snapshot(songs []models.Song) []models.Song {
	return append([]models.Song(nil), songs...)
}
