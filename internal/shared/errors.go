package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication and session errors
	ErrAuthFailed    = fmt.Errorf("authentication failed")
	ErrUnauthorized  = fmt.Errorf("credential expired or invalid")
	ErrRefreshFailed = fmt.Errorf("token refresh failed")
	ErrNoSession     = fmt.Errorf("no active session")
	ErrForbidden     = fmt.Errorf("not authorized for this resource")
	ErrAdminRequired = fmt.Errorf("admin role required")

	// Remote API errors
	ErrTransport  = fmt.Errorf("remote unreachable")
	ErrNotFound   = fmt.Errorf("resource not found")
	ErrValidation = fmt.Errorf("validation failed")

	// Catalog state signals
	ErrDegraded   = fmt.Errorf("serving cached data")
	ErrEmptyCache = fmt.Errorf("no cached data available")

	// Playlist errors
	ErrMigrationPending = fmt.Errorf("playlist migration in progress")
	ErrDuplicateSong    = fmt.Errorf("song already in playlist")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrSongNotFound     = fmt.Errorf("song not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
