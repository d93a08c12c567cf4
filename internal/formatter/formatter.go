// package formatter renders songs and playlists to exportable formats
// (JSON, CSV, Markdown chord sheets, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amverse/songbook/internal/models"
)

// SongToMarkdown renders a song as a Markdown chord sheet: metadata header,
// a fenced chords block, then the lyrics.
func SongToMarkdown(song models.Song) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", song.Title))
	if song.Artist != "" {
		buf.WriteString(fmt.Sprintf("**Artist**: %s\n", song.Artist))
	}
	if song.Category != "" {
		buf.WriteString(fmt.Sprintf("**Category**: %s\n", song.Category))
	}
	buf.WriteString("\n")

	if song.Chords != "" {
		buf.WriteString("## Chords\n\n")
		buf.WriteString("```\n")
		buf.WriteString(strings.TrimRight(song.Chords, "\n"))
		buf.WriteString("\n```\n\n")
	}

	if song.Lyrics != "" {
		buf.WriteString("## Lyrics\n\n")
		buf.WriteString(strings.TrimRight(song.Lyrics, "\n"))
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// SongsToCSV renders songs as CSV with columns: ID, Title, Artist, Category.
func SongsToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Category"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{song.ID, song.Title, song.Artist, string(song.Category)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaylistToMarkdown renders a playlist as a Markdown set list. Songs
// missing from the resolved map are listed by id.
func PlaylistToMarkdown(playlist models.Playlist, songs map[string]models.Song) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlist.Name))
	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(playlist.SongIDs)))

	buf.WriteString("## Songs\n\n")
	for i, id := range playlist.SongIDs {
		if song, ok := songs[id]; ok {
			artistPart := ""
			if song.Artist != "" {
				artistPart = fmt.Sprintf(" - %s", song.Artist)
			}
			buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, song.Title, artistPart))
		} else {
			buf.WriteString(fmt.Sprintf("%d. (unknown song %s)\n", i+1, id))
		}
	}

	return buf.Bytes()
}

// PlaylistToText renders a playlist as plain text.
func PlaylistToText(playlist models.Playlist, songs map[string]models.Song) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.Name))
	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(playlist.SongIDs)))

	for i, id := range playlist.SongIDs {
		if song, ok := songs[id]; ok {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, song.Title))
		} else {
			buf.WriteString(fmt.Sprintf("%d. (unknown song %s)\n", i+1, id))
		}
	}

	return buf.Bytes()
}

// ToJSON renders v as indented JSON.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return append(data, '\n'), nil
}

// playlistExport is the JSON shape of an exported playlist: the playlist
// plus its resolved songs, so the file stands alone.
type playlistExport struct {
	Playlist models.Playlist `json:"playlist"`
	Songs    []models.Song   `json:"songs"`
}

// WritePlaylistExport writes a playlist to dir in the given format
// ("json", "csv", "markdown", or "txt") and returns the written path.
func WritePlaylistExport(playlist models.Playlist, songs map[string]models.Song, dir, format string) (string, error) {
	var data []byte
	var err error
	var ext string

	switch format {
	case "markdown", "md":
		data = PlaylistToMarkdown(playlist, songs)
		ext = "md"
	case "txt", "text":
		data = PlaylistToText(playlist, songs)
		ext = "txt"
	case "csv":
		resolved := make([]models.Song, 0, len(playlist.SongIDs))
		for _, id := range playlist.SongIDs {
			if song, ok := songs[id]; ok {
				resolved = append(resolved, song)
			}
		}
		data, err = SongsToCSV(resolved)
		ext = "csv"
	case "json", "":
		resolved := make([]models.Song, 0, len(playlist.SongIDs))
		for _, id := range playlist.SongIDs {
			if song, ok := songs[id]; ok {
				resolved = append(resolved, song)
			}
		}
		data, err = ToJSON(playlistExport{Playlist: playlist, Songs: resolved})
		ext = "json"
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, SanitizeFilename(playlist.Name)+"."+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// WriteSongsExport writes the whole catalog to dir and returns the path.
func WriteSongsExport(songs []models.Song, dir, format string) (string, error) {
	var data []byte
	var err error
	var ext string

	switch format {
	case "csv":
		data, err = SongsToCSV(songs)
		ext = "csv"
	default:
		data, err = ToJSON(songs)
		ext = "json"
	}
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "songs."+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// SanitizeFilename replaces path separators and other unsafe characters so
// a playlist name can be used as a file name.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
	)

	sanitized := strings.TrimSpace(replacer.Replace(name))
	if sanitized == "" {
		sanitized = "untitled"
	}

	return sanitized
}
