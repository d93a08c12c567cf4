// Authentication and account recovery endpoints.
package services

import (
	"context"
	"net/http"

	"github.com/amverse/songbook/internal/models"
)

// sessionPayload is the wire shape of a login or registration response.
type sessionPayload struct {
	User  models.User  `json:"user"`
	Token tokenPayload `json:"token"`
}

func (p sessionPayload) Session() *models.Session {
	user := p.User

	return &models.Session{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Token:    p.Token.Token(),
		Profile:  &user,
	}
}

// Login exchanges credentials for a session and installs its token on the
// client.
//
// Calls POST /auth/login. Invalid credentials surface shared.ErrUnauthorized.
func (c *Client) Login(ctx context.Context, username, password string) (*models.Session, error) {
	payload := map[string]string{
		"username": username,
		"password": password,
	}

	var resp sessionPayload
	if err := c.doPublic(ctx, http.MethodPost, "/auth/login", payload, &resp); err != nil {
		return nil, err
	}

	session := resp.Session()
	c.SetCredential(session.Token)

	return session, nil
}

// Register creates an account and returns the resulting session, with its
// token installed on the client.
//
// Calls POST /auth/register.
func (c *Client) Register(ctx context.Context, username, email, password string) (*models.Session, error) {
	payload := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}

	var resp sessionPayload
	if err := c.doPublic(ctx, http.MethodPost, "/auth/register", payload, &resp); err != nil {
		return nil, err
	}

	session := resp.Session()
	c.SetCredential(session.Token)

	return session, nil
}

// Profile retrieves the authenticated user's profile.
//
// Calls GET /auth/profile.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doRequest(ctx, http.MethodGet, "/auth/profile", nil, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// Logout invalidates the server-side session and clears the client's
// credential. Server failure does not keep the local credential alive.
//
// Calls POST /auth/logout.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doRequest(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetCredential(nil)

	return err
}

// ForgotPassword requests a password reset email.
//
// Calls POST /auth/forgot-password.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	payload := map[string]string{"email": email}

	return c.doPublic(ctx, http.MethodPost, "/auth/forgot-password", payload, nil)
}

// ResetPassword completes a password reset with an emailed token.
//
// Calls POST /auth/reset-password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	payload := map[string]string{
		"token":    token,
		"password": newPassword,
	}

	return c.doPublic(ctx, http.MethodPost, "/auth/reset-password", payload, nil)
}
