package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/inkflow/inkwell/internal/model"
)

// ArticleComments fetches the comment tree snapshot for an article.
func (c *Client) ArticleComments(ctx context.Context, articleID string) ([]*model.Comment, error) {
	var out struct {
		Comments []*model.Comment `json:"comments"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/comments/article/"+url.PathEscape(articleID), nil, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

// CreateComment posts a comment or, with parentID set, a reply. No
// optimistic local echo is applied: the authoritative insert arrives
// as a realtime event.
func (c *Client) CreateComment(ctx context.Context, articleID, parentID, content string) (*model.Comment, error) {
	body := map[string]string{
		"articleId": articleID,
		"content":   content,
	}
	if parentID != "" {
		body["parentId"] = parentID
	}

	var out struct {
		Comment model.Comment `json:"comment"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/comments", body, &out); err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

// UpdateComment edits a comment's content.
func (c *Client) UpdateComment(ctx context.Context, id, content string) (*model.Comment, error) {
	var out struct {
		Comment model.Comment `json:"comment"`
	}
	err := c.doJSON(ctx, http.MethodPut, "/comments/"+url.PathEscape(id), map[string]string{
		"content": content,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

// DeleteComment removes a comment (and, server-side, its replies).
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/comments/"+url.PathEscape(id), nil, nil)
}

// LikeComment toggles the current user's like on a comment and
// returns the authoritative likes array.
func (c *Client) LikeComment(ctx context.Context, id string) ([]string, error) {
	var out struct {
		Likes []string `json:"likes"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/comments/"+url.PathEscape(id)+"/like", nil, &out); err != nil {
		return nil, err
	}
	return out.Likes, nil
}
