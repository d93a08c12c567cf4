package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running
// operation, sent to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	ExportSongs Phase = iota
	ExportPlaylists
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case ExportSongs:
		return "export_songs"
	case ExportPlaylists:
		return "export_playlists"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func exportingSongsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSongs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Exporting %d songs...", total),
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Exporting playlist %d/%d: %s", step, total, name),
	}
}

func writingManifestUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: "Writing export manifest...",
	}
}
