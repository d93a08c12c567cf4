package models

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Category classifies a song within the catalog.
type Category string

const (
	CategoryPraise    Category = "praise"
	CategoryWorship   Category = "worship"
	CategoryChristmas Category = "christmas"
	CategoryEaster    Category = "easter"
	CategoryOther     Category = "other"
)

// ParseCategory maps a string to a known Category, defaulting to [CategoryOther].
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryPraise:
		return CategoryPraise
	case CategoryWorship:
		return CategoryWorship
	case CategoryChristmas:
		return CategoryChristmas
	case CategoryEaster:
		return CategoryEaster
	default:
		return CategoryOther
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPraise, CategoryWorship, CategoryChristmas, CategoryEaster, CategoryOther:
		return true
	}
	return false
}

// Song is a catalog entry. Only admins may create, modify, or delete songs;
// any authenticated member may read them.
type Song struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist,omitempty"`
	Lyrics    string    `json:"lyrics,omitempty"`
	Chords    string    `json:"chords,omitempty"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Validate checks required song fields.
func (s Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("song title is required")
	}
	if s.Category != "" && !s.Category.Valid() {
		return fmt.Errorf("unknown category %q", s.Category)
	}
	return nil
}

// Playlist is a named, ordered sequence of song ids owned by a single user.
// Before the first successful save the ID is a transient client-generated
// value; the server assigns the authoritative id on create.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SongIDs     []string  `json:"songIds"`
	OwnerID     string    `json:"ownerId,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Validate checks required playlist fields and rejects duplicate song ids.
func (p Playlist) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("playlist name is required")
	}
	seen := make(map[string]bool, len(p.SongIDs))
	for _, id := range p.SongIDs {
		if seen[id] {
			return fmt.Errorf("duplicate song id %s", id)
		}
		seen[id] = true
	}
	return nil
}

// HasSong reports whether songID is already in the playlist's sequence.
func (p Playlist) HasSong(songID string) bool {
	for _, id := range p.SongIDs {
		if id == songID {
			return true
		}
	}
	return false
}

// Unowned reports whether the playlist has no owning user yet. Unowned
// records exist only in the local cache tier and are repaired by the
// login-time migration sweep.
func (p Playlist) Unowned() bool {
	return p.OwnerID == ""
}

// SharedSong is the minimal song metadata embedded in a share so recipients
// can render the playlist without a follow-up fetch.
type SharedSong struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

// PlaylistShare is the denormalized snapshot dispatched to recipients.
// Accepting a share creates an independent copy; there is no live link back
// to the original playlist.
type PlaylistShare struct {
	PlaylistID  string       `json:"playlistId"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	SongIDs     []string     `json:"songIds"`
	Songs       []SharedSong `json:"songs"`
	Recipients  []string     `json:"recipients"`
	SenderID    string       `json:"senderId,omitempty"`
}

// Validate checks that the share carries a name and at least one recipient.
func (s PlaylistShare) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("share name is required")
	}
	if len(s.Recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	return nil
}

// Role distinguishes members who manage the catalog from those who read it.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleReader Role = "reader"
)

// User is a member profile as returned by the auth endpoints.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        Role   `json:"role"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Session is the authenticated identity plus its bearer credential. It is
// created on login, resumed from the snapshot cache at startup, and destroyed
// on logout or when a refresh attempt fails.
type Session struct {
	UserID   string        `json:"userId"`
	Username string        `json:"username"`
	Role     Role          `json:"role"`
	Token    *oauth2.Token `json:"token"`
	Profile  *User         `json:"profile,omitempty"`
}

// Valid reports whether the session carries a usable credential.
func (s *Session) Valid() bool {
	return s != nil && s.Token != nil && s.Token.AccessToken != ""
}

// IsAdmin reports whether the session's user may mutate the catalog.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// Notification is a polled inbox entry.
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"` // e.g. "playlist_share"
	Message   string         `json:"message"`
	Read      bool           `json:"read"`
	Share     *PlaylistShare `json:"share,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
