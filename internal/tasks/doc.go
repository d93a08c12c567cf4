// Package tasks implements the background jobs that run alongside the
// interactive surfaces: the notification poller tied to the session
// lifetime, and the bulk exporter that writes the catalog and playlists to
// disk under a rate limit.
//
// Long-running operations emit [ProgressUpdate] values via channels for
// non-blocking status reporting to the CLI or UI layer.
package tasks
