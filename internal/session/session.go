// Package session manages the authenticated identity: login, registration,
// logout, resume-from-cache at startup, and the hooks that run after a
// successful login (the playlist migration sweep registers here).
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/amverse/songbook/internal/cache"
	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/services"
	"github.com/amverse/songbook/internal/shared"
)

// Credentials is the slice of the HTTP client the manager needs: installing
// the bearer token, observing transparent refreshes, and hearing about
// credentials rejected beyond recovery.
type Credentials interface {
	SetCredential(token *oauth2.Token)
	OnRefresh(fn func(*oauth2.Token))
	OnAuthFailure(fn func())
}

// Task is a background job tied to the session lifetime, started after
// login or resume and stopped on teardown.
type Task interface {
	Start(ctx context.Context)
	Stop()
}

// PostLoginHook runs after a successful login, before Login returns.
// Hooks run strictly in registration order.
type PostLoginHook func(ctx context.Context, session *models.Session) error

// Manager owns the current session, its cached snapshot, and the background
// tasks scoped to it.
type Manager struct {
	auth   services.AuthAPI
	creds  Credentials
	store  *cache.Store
	logger *log.Logger

	mu      sync.Mutex
	current *models.Session
	hooks   []PostLoginHook
	tasks   []Task
}

// NewManager creates a session manager. Transparent token refreshes are
// persisted back into the session snapshot so a restart resumes with the
// newest credential.
func NewManager(auth services.AuthAPI, creds Credentials, store *cache.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	m := &Manager{
		auth:   auth,
		creds:  creds,
		store:  store,
		logger: logger,
	}

	creds.OnRefresh(m.adoptToken)
	creds.OnAuthFailure(m.expire)

	return m
}

// RegisterPostLogin appends a hook to run after every successful login.
func (m *Manager) RegisterPostLogin(hook PostLoginHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// RegisterTask attaches a background task to the session lifetime.
func (m *Manager) RegisterTask(task Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

// Login authenticates, persists the session snapshot, runs the post-login
// hooks in order, and starts session-scoped tasks. A failing hook is logged
// and does not fail the login; the affected subsystem stays gated until its
// own retry path succeeds.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.Session, error) {
	session, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return m.adopt(ctx, session)
}

// Register creates an account and establishes a session, following the same
// adoption path as Login.
func (m *Manager) Register(ctx context.Context, username, email, password string) (*models.Session, error) {
	session, err := m.auth.Register(ctx, username, email, password)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return m.adopt(ctx, session)
}

func (m *Manager) adopt(ctx context.Context, session *models.Session) (*models.Session, error) {
	m.creds.SetCredential(session.Token)

	if err := m.store.SaveSession(session); err != nil {
		m.logger.Warnf("failed to persist session snapshot: %v", err)
	}

	m.mu.Lock()
	m.current = session
	hooks := make([]PostLoginHook, len(m.hooks))
	copy(hooks, m.hooks)
	tasks := m.tasks
	m.mu.Unlock()

	for _, hook := range hooks {
		if err := hook(ctx, session); err != nil {
			m.logger.Warnf("post-login hook failed: %v", err)
		}
	}

	for _, task := range tasks {
		task.Start(ctx)
	}

	m.logger.Infof("logged in as %s", session.Username)

	return session, nil
}

// Resume restores the session from its cached snapshot at startup. Returns
// shared.ErrNoSession when no usable snapshot exists. Post-login hooks do not
// run on resume; the migration sweep is a login-time event.
func (m *Manager) Resume(ctx context.Context) (*models.Session, error) {
	session, ok := m.store.Session()
	if !ok || !session.Valid() {
		return nil, shared.ErrNoSession
	}

	m.creds.SetCredential(session.Token)

	m.mu.Lock()
	m.current = session
	tasks := m.tasks
	m.mu.Unlock()

	for _, task := range tasks {
		task.Start(ctx)
	}

	m.logger.Debugf("resumed session for %s", session.Username)

	return session, nil
}

// Logout invalidates the server-side session when reachable, then tears the
// local session down regardless.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.auth.Logout(ctx); err != nil {
		m.logger.Warnf("server logout failed: %v", err)
	}

	m.Teardown()

	return nil
}

// Teardown clears the credential and the session snapshot, and stops
// session-scoped tasks. Called on logout and when the server rejects the
// credential beyond refresh.
func (m *Manager) Teardown() {
	m.mu.Lock()
	m.current = nil
	tasks := m.tasks
	m.mu.Unlock()

	for _, task := range tasks {
		task.Stop()
	}

	m.creds.SetCredential(nil)

	if err := m.store.ClearSession(); err != nil {
		m.logger.Warnf("failed to clear session snapshot: %v", err)
	}
}

// Current returns the active session, or nil when logged out.
func (m *Manager) Current() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsAdmin reports whether the active session may mutate the catalog.
func (m *Manager) IsAdmin() bool {
	return m.Current().IsAdmin()
}

// Profile fetches the authenticated user's profile and folds it into the
// current session.
func (m *Manager) Profile(ctx context.Context) (*models.User, error) {
	user, err := m.auth.Profile(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrTransport) {
			if cached, ok := m.store.Profile(); ok {
				m.logger.Warnf("profile fetch failed, serving cached copy: %v", err)
				return cached, nil
			}
		}
		return nil, err
	}

	if err := m.store.SaveProfile(user); err != nil {
		m.logger.Warnf("failed to persist profile snapshot: %v", err)
	}

	m.mu.Lock()
	if m.current != nil {
		m.current.Profile = user
		m.current.Role = user.Role
	}
	session := m.current
	m.mu.Unlock()

	if session != nil {
		if err := m.store.SaveSession(session); err != nil {
			m.logger.Warnf("failed to persist session snapshot: %v", err)
		}
	}

	return user, nil
}

// expire tears the session down after a refresh failure or a post-refresh
// 401. The stale snapshot must not survive, or every later invocation would
// resume a dead session and hammer the refresh endpoint again.
func (m *Manager) expire() {
	if m.Current() == nil {
		return
	}

	m.logger.Warn("credential rejected and refresh failed, session cleared; log in again")
	m.Teardown()
}

// adoptToken replaces the session credential after a transparent refresh.
func (m *Manager) adoptToken(token *oauth2.Token) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return
	}
	m.current.Token = token
	session := m.current
	m.mu.Unlock()

	if err := m.store.SaveSession(session); err != nil {
		m.logger.Warnf("failed to persist refreshed credential: %v", err)
	}
}
