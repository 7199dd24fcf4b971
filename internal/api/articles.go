package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/inkflow/inkwell/internal/model"
)

// ListArticles fetches the public article feed.
func (c *Client) ListArticles(ctx context.Context) ([]model.Article, error) {
	var out struct {
		Articles []model.Article `json:"articles"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/articles", nil, &out); err != nil {
		return nil, err
	}
	return out.Articles, nil
}

// GetArticle fetches one article.
func (c *Client) GetArticle(ctx context.Context, id string) (*model.Article, error) {
	var out struct {
		Article model.Article `json:"article"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/articles/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Article, nil
}

// LikeArticle toggles the current user's like and returns the
// authoritative likes array.
func (c *Client) LikeArticle(ctx context.Context, id string) ([]string, error) {
	var out struct {
		Likes []string `json:"likes"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/articles/"+url.PathEscape(id)+"/like", nil, &out); err != nil {
		return nil, err
	}
	return out.Likes, nil
}

// MyArticles lists the authenticated user's own articles.
func (c *Client) MyArticles(ctx context.Context) ([]model.Article, error) {
	var out struct {
		Articles []model.Article `json:"articles"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/articles/my/articles", nil, &out); err != nil {
		return nil, err
	}
	return out.Articles, nil
}

// ArticleDraft is the author-editable part of an article. ImagePath,
// when set, is uploaded as the cover image.
type ArticleDraft struct {
	Title     string
	Content   string
	Published bool
	ImagePath string
}

func (d ArticleDraft) fields() map[string]string {
	return map[string]string{
		"title":     d.Title,
		"content":   d.Content,
		"published": strconv.FormatBool(d.Published),
	}
}

// CreateArticle publishes a new article (multipart, to carry the
// cover image alongside the fields).
func (c *Client) CreateArticle(ctx context.Context, draft ArticleDraft) (*model.Article, error) {
	var out struct {
		Article model.Article `json:"article"`
	}
	err := c.doMultipart(ctx, http.MethodPost, "/articles/my/articles", draft.fields(), "image", draft.ImagePath, &out)
	if err != nil {
		return nil, err
	}
	return &out.Article, nil
}

// UpdateArticle edits an owned article.
func (c *Client) UpdateArticle(ctx context.Context, id string, draft ArticleDraft) (*model.Article, error) {
	var out struct {
		Article model.Article `json:"article"`
	}
	err := c.doMultipart(ctx, http.MethodPut, "/articles/my/"+url.PathEscape(id), draft.fields(), "image", draft.ImagePath, &out)
	if err != nil {
		return nil, err
	}
	return &out.Article, nil
}

// DeleteArticle removes an owned article.
func (c *Client) DeleteArticle(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/articles/my/"+url.PathEscape(id), nil, nil)
}
