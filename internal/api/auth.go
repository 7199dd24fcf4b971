package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/inkflow/inkwell/internal/model"
)

// AuthClient speaks to the auth endpoints with a plain HTTP client:
// these calls authenticate with credentials in the body (or an
// explicit token), so the authorizer transport stays out of the way.
// Implements session.AuthAPI.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAuthClient builds the auth collaborator for serverURL.
func NewAuthClient(serverURL, basePath string, timeout time.Duration) *AuthClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AuthClient{
		baseURL:    strings.TrimSuffix(serverURL, "/") + basePath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// authPayload is the shape every token-issuing endpoint replies with.
type authPayload struct {
	User         *model.UserProfile `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

func (p *authPayload) session() *model.Session {
	return &model.Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		User:         p.User,
	}
}

// post runs one JSON POST with an optional bearer token.
func (a *AuthClient) post(ctx context.Context, path, bearer string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Login authenticates with email and password.
func (a *AuthClient) Login(ctx context.Context, email, password string) (*model.Session, error) {
	var payload authPayload
	err := a.post(ctx, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.session(), nil
}

// Register creates an account and returns its first session.
func (a *AuthClient) Register(ctx context.Context, username, email, password, role string) (*model.Session, error) {
	var payload authPayload
	err := a.post(ctx, "/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"role":     role,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.session(), nil
}

// Refresh exchanges a refresh token for a new token pair.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	var payload authPayload
	err := a.post(ctx, "/auth/refresh", "", map[string]string{
		"token": refreshToken,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.session(), nil
}

// Logout asks the server to invalidate the refresh token. Callers
// treat failures as best-effort.
func (a *AuthClient) Logout(ctx context.Context, accessToken string) error {
	return a.post(ctx, "/auth/logout", accessToken, map[string]string{}, nil)
}

// ResetPassword sets a new password; the bearer here is the reset
// token from the reset email, not a session token.
func (a *AuthClient) ResetPassword(ctx context.Context, resetToken, password, confirm string) error {
	return a.post(ctx, "/auth/reset-password", resetToken, map[string]string{
		"password":        password,
		"confirmPassword": confirm,
	}, nil)
}
