// Pure filtering and ordering over song collections.
package catalog

import (
	"sort"
	"strings"

	"github.com/amverse/songbook/internal/models"
)

// SortMode orders a filtered song list.
type SortMode int

const (
	// TitleAsc orders by title A to Z.
	TitleAsc SortMode = iota
	// TitleDesc orders by title Z to A.
	TitleDesc
	// RecentFirst orders newest additions first. Falls back to id ordering
	// when creation timestamps tie, ids being assigned monotonically.
	RecentFirst
)

// String returns the flag value ParseSortMode accepts for the mode.
func (m SortMode) String() string {
	switch m {
	case TitleDesc:
		return "desc"
	case RecentFirst:
		return "recent"
	default:
		return "asc"
	}
}

// ParseSortMode maps a flag value to a SortMode, defaulting to TitleAsc.
func ParseSortMode(s string) SortMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "title-desc":
		return TitleDesc
	case "recent", "newest":
		return RecentFirst
	default:
		return TitleAsc
	}
}

// FilterAndSort returns a new slice holding the songs whose title contains
// term (case-insensitive) and whose category matches exactly (empty category
// matches all), ordered by mode. The input is never modified and the sort
// is stable.
func FilterAndSort(songs []models.Song, term string, category models.Category, mode SortMode) []models.Song {
	term = strings.ToLower(strings.TrimSpace(term))

	out := make([]models.Song, 0, len(songs))
	for _, s := range songs {
		if term != "" && !strings.Contains(strings.ToLower(s.Title), term) {
			continue
		}
		if category != "" && s.Category != category {
			continue
		}
		out = append(out, s)
	}

	switch mode {
	case TitleDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) > strings.ToLower(out[j].Title)
		})
	case RecentFirst:
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID > out[j].ID
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	}

	return out
}
