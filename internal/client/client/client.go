// Package client implements the HTTP client used by the gatectl CLI to talk
// to the authentication API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

// User is the profile subset the API returns with login and profile calls.
type User struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	ClientID string `json:"client_id"`
	SiteID   string `json:"site_id"`
}

// HTTPClient wraps the authentication API. The access token obtained from
// Login is attached to subsequent authenticated calls automatically.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	accessToken string
	http        *http.Client
}

// NewHTTPClient constructs a client for the API at baseURL.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// AccessToken returns the token from the last successful Login or Refresh.
func (c *HTTPClient) AccessToken() string {
	return c.accessToken
}

type apiError struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes a JSON response. A nil body sends no
// payload; a nil out discards the response body. Non-2xx responses come back
// as errors carrying the server's message.
func (c *HTTPClient) do(ctx context.Context, method, path string, tenanted, authed bool, body, out any) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tenanted {
		req.Header.Set(common.APIKeyHeaderName, c.apiKey)
	}
	if authed {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err != nil || ae.Error == "" {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrUnauthorized, ae.Error)
		}
		return fmt.Errorf("%s", ae.Error)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Register creates an account for the configured tenant.
func (c *HTTPClient) Register(ctx context.Context, email, password, name string) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/register", true, false, map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login authenticates and stores the returned access token on the client.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*User, error) {
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", true, false, map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.accessToken = resp.Token
	return &resp.User, nil
}

// Logout revokes the current access token and forgets it.
func (c *HTTPClient) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", false, true, nil, nil); err != nil {
		return err
	}
	c.accessToken = ""
	return nil
}

// Refresh exchanges the current token for a fresh one.
func (c *HTTPClient) Refresh(ctx context.Context) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/token/refresh", false, true, nil, &resp); err != nil {
		return err
	}
	c.accessToken = resp.Token
	return nil
}

// Profile fetches the authenticated user's record.
func (c *HTTPClient) Profile(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/user", false, true, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// RequestPasswordReset asks the server to mail a reset link. The server
// answers the same way whether or not the account exists.
func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/password-reset", true, false, map[string]string{
		"email": email,
	}, nil)
}

// ConfirmPasswordReset redeems a reset token for a new password.
func (c *HTTPClient) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/password-reset/confirm", false, false, map[string]string{
		"token":        token,
		"new_password": newPassword,
	}, nil)
}
