// Package services implements the HTTP client for the songbook server and
// the typed API surfaces built on top of it.
//
// # Client
//
// [Client] owns the base URL, the request timeout, and the bearer credential.
// Every request goes through a single doRequest path that attaches the
// credential, classifies failure status codes into shared sentinel errors,
// and performs at most one transparent token refresh on a 401 before
// replaying the request. A second 401 surfaces [shared.ErrUnauthorized] so
// the session layer can tear down.
//
// # API Surfaces
//
// The cores consume narrow interfaces rather than the concrete client:
//   - [SongAPI] : song catalog CRUD
//   - [PlaylistAPI] : playlist CRUD, membership, sharing
//   - [AuthAPI] : login, registration, profile, password recovery
//   - [NotificationAPI] : notification listing and acknowledgement
//
// [Client] implements all four. Tests substitute hand-written mocks.
//
// # Error Handling
//
// Status codes map to typed errors from the shared package:
//   - network failure, 5xx : [shared.ErrTransport]
//   - 401 (after refresh) : [shared.ErrUnauthorized]
//   - 403 : [shared.ErrForbidden]
//   - 404 : [shared.ErrNotFound]
//   - 400, 422 : [shared.ErrValidation]
package services
