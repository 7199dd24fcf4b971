package api

import (
	"context"
	"net/http"

	"github.com/inkflow/inkwell/internal/model"
)

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context) (*model.UserProfile, error) {
	var out struct {
		User model.UserProfile `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateMe changes the current user's username.
func (c *Client) UpdateMe(ctx context.Context, username string) (*model.UserProfile, error) {
	var out struct {
		User model.UserProfile `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodPut, "/users/me", map[string]string{
		"username": username,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UploadAvatar uploads a new avatar image.
func (c *Client) UploadAvatar(ctx context.Context, imagePath string) (*model.UserProfile, error) {
	var out struct {
		User model.UserProfile `json:"user"`
	}
	err := c.doMultipart(ctx, http.MethodPost, "/users/me/avatar", nil, "avatar", imagePath, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ChangePassword changes the password for the logged-in user.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/change-password", map[string]string{
		"oldPassword":     oldPassword,
		"newPassword":     newPassword,
		"confirmPassword": confirm,
	}, nil)
}
