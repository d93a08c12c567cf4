// HTTP client for the songbook server.
//
// One request path, one refresh attempt, typed errors out.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/amverse/songbook/internal/shared"
)

const defaultBaseURL string = "http://localhost:4000"

// Client talks to the songbook server. It implements SongAPI, PlaylistAPI,
// AuthAPI, and NotificationAPI.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger

	mu    sync.Mutex
	token *oauth2.Token

	// onRefresh is invoked with the replacement token after a successful
	// transparent refresh, so the session layer can persist it.
	onRefresh func(*oauth2.Token)

	// onAuthFailure is invoked when the credential is rejected beyond
	// recovery: the refresh call failed, or the replay came back 401.
	onAuthFailure func()
}

// NewClient creates a client for the given base URL with a hard request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetCredential installs the bearer token used for subsequent requests.
// A nil token clears authentication.
func (c *Client) SetCredential(token *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Credential returns the current bearer token, which may have been replaced
// by a transparent refresh since it was installed.
func (c *Client) Credential() *oauth2.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// OnRefresh registers a callback invoked whenever a transparent token
// refresh succeeds.
func (c *Client) OnRefresh(fn func(*oauth2.Token)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

// OnAuthFailure registers a callback invoked when a request's credential is
// rejected and cannot be refreshed. The session layer tears down here so the
// next command starts logged out instead of replaying a dead token.
func (c *Client) OnAuthFailure(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAuthFailure = fn
}

func (c *Client) authFailure() {
	c.mu.Lock()
	fn := c.onAuthFailure
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// doRequest performs an authenticated request against the server.
//
// On a 401 it attempts exactly one token refresh and replays the request;
// if the replay is rejected again the caller sees shared.ErrUnauthorized.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	resp, err := c.send(ctx, method, endpoint, body, true)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()

		if err := c.refresh(ctx); err != nil {
			c.authFailure()
			return err
		}

		resp, err = c.send(ctx, method, endpoint, body, true)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			c.authFailure()
			return fmt.Errorf("%w: rejected after token refresh", shared.ErrUnauthorized)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// doPublic performs an unauthenticated request (login, registration, recovery).
func (c *Client) doPublic(ctx context.Context, method, endpoint string, body, result any) error {
	resp, err := c.send(ctx, method, endpoint, body, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any, authed bool) (*http.Response, error) {
	apiURL := c.baseURL + endpoint

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if authed {
		if token := c.Credential(); token != nil && token.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrTransport, method, endpoint, err)
	}

	return resp, nil
}

// refresh exchanges the stored refresh token for a new credential.
//
// Failure here means the session is no longer recoverable, so it maps to
// shared.ErrUnauthorized rather than a transport error.
func (c *Client) refresh(ctx context.Context) error {
	token := c.Credential()
	if token == nil || token.RefreshToken == "" {
		return fmt.Errorf("%w: no refresh token", shared.ErrUnauthorized)
	}

	c.logger.Debug("access token rejected, attempting refresh")

	payload := map[string]string{"refreshToken": token.RefreshToken}

	var refreshed tokenPayload
	if err := c.doPublic(ctx, http.MethodPost, "/auth/refresh-token", payload, &refreshed); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	next := refreshed.Token()
	if next.RefreshToken == "" {
		next.RefreshToken = token.RefreshToken
	}

	c.mu.Lock()
	c.token = next
	fn := c.onRefresh
	c.mu.Unlock()

	if fn != nil {
		fn(next)
	}

	return nil
}

// classifyStatus maps a non-2xx response to a shared sentinel error,
// preserving the server's error detail when the body carries one.
func classifyStatus(resp *http.Response) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	detail := ""
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		if errResp.Message != "" {
			detail = errResp.Message
		} else if errResp.Error != "" {
			detail = errResp.Error
		}
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		sentinel = shared.ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		sentinel = shared.ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		sentinel = shared.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		sentinel = shared.ErrValidation
	default:
		sentinel = shared.ErrTransport
	}

	return fmt.Errorf("%w: server returned %d: %s", sentinel, resp.StatusCode, detail)
}

// tokenPayload is the wire shape of a credential issued by the server.
type tokenPayload struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Token converts the wire payload to an oauth2 token.
func (p tokenPayload) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		Expiry:       p.ExpiresAt,
		TokenType:    "Bearer",
	}
}
