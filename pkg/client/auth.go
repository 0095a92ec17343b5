package client

import (
	"context"
	"net/http"
	"time"

	"github.com/ReliveRS/RecordNote/pkg/models"
)

// Auth and user endpoints predate the versioned API and live under the
// bare /api base. They exchange domain-shaped JSON rather than wire
// records.

// SignUpRequest registers a new account.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest authenticates an existing account.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest replaces the current password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// AuthResponse carries the bearer token, its expiry, and the account.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// SignUp registers a new user and stores the returned token on the client.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	req := SignUpRequest{Name: name, Email: email, Password: password}
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/signup", req)
	if err != nil {
		return nil, err
	}
	var auth AuthResponse
	if err := decodeResponse(resp, &auth); err != nil {
		return nil, err
	}
	c.SetAuthToken(auth.Token)
	return &auth, nil
}

// SignIn authenticates and stores the returned token on the client.
func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	req := SignInRequest{Email: email, Password: password}
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/signin", req)
	if err != nil {
		return nil, err
	}
	var auth AuthResponse
	if err := decodeResponse(resp, &auth); err != nil {
		return nil, err
	}
	c.SetAuthToken(auth.Token)
	return &auth, nil
}

// SignOut invalidates the session and clears the client's token.
func (c *Client) SignOut(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/signout", nil)
	if err != nil {
		return err
	}
	if err := decodeResponse(resp, nil); err != nil {
		return err
	}
	c.SetAuthToken("")
	return nil
}

// GetCurrentUser fetches the account behind the client's token.
func (c *Client) GetCurrentUser(ctx context.Context) (*models.User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := decodeResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RefreshToken exchanges the current token for a fresh one and stores it.
func (c *Client) RefreshToken(ctx context.Context) (*AuthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/refresh", nil)
	if err != nil {
		return nil, err
	}
	var auth AuthResponse
	if err := decodeResponse(resp, &auth); err != nil {
		return nil, err
	}
	c.SetAuthToken(auth.Token)
	return &auth, nil
}

// ChangePassword replaces the authenticated user's password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	req := ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/password", req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// RequestPasswordReset asks the service to start a reset for the email.
// The service responds identically whether or not the account exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/password/reset",
		map[string]string{"email": email})
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// GetUser fetches a user profile.
func (c *Client) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/users/"+id.String(), nil)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := decodeResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser replaces a user's profile fields.
func (c *Client) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, "/api/users/"+user.ID.String(), user)
	if err != nil {
		return nil, err
	}
	var updated models.User
	if err := decodeResponse(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser removes the account. The service cascades to the user's notes.
func (c *Client) DeleteUser(ctx context.Context, id models.UserID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/users/"+id.String(), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// ActivateUser makes the user the active profile. Exactly one user is
// active afterwards.
func (c *Client) ActivateUser(ctx context.Context, id models.UserID) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/users/"+id.String()+"/activate", nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// UpdatePreferences replaces a user's settings bag.
func (c *Client) UpdatePreferences(ctx context.Context, id models.UserID, prefs models.Preferences) error {
	resp, err := c.doRequest(ctx, http.MethodPut, "/api/users/"+id.String()+"/preferences", prefs)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}
