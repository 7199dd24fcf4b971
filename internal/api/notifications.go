package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/inkflow/inkwell/internal/model"
)

// NotificationPage is one page of the notification list.
type NotificationPage struct {
	Notifications []*model.Notification `json:"notifications"`
	Total         int                   `json:"total"`
	Page          int                   `json:"page"`
	Pages         int                   `json:"pages"`
}

// Notifications fetches a page. read filters by read state when
// non-nil.
func (c *Client) Notifications(ctx context.Context, page, limit int, read *bool) (*NotificationPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if read != nil {
		query.Set("read", strconv.FormatBool(*read))
	}

	path := "/notifications"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out NotificationPage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnreadCount fetches the authoritative unread counter.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkNotificationRead flips one notification to read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllNotificationsRead flips every notification to read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPatch, "/notifications/mark-all-read", nil, nil)
}
