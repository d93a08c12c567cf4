package cache

// Logical resource keys for the snapshot store. Writes are whole-key
// replacements; there is no partial merge of a stored value.
const (
	KeySongs          = "songs"
	KeyLocalPlaylists = "playlists.local"
	KeyPlaylists      = "playlists"
	KeyFavorites      = "favorites"
	KeyRecentlyViewed = "recently_viewed"
	KeySession        = "session"
	KeyProfile        = "profile"

	// UI preference keys
	KeySearchTerm       = "search_term"
	KeySortOrder        = "sort_order"
	KeyFilterBy         = "filter_by"
	KeySelectedSong     = "selected_song"
	KeyCurrentView      = "current_view"
	KeySidebarCollapsed = "sidebar_collapsed"
)
