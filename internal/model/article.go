package model

import "time"

// Article is a published post. Only the fields the client core touches
// are modeled; rendering-only fields stay in the raw JSON.
type Article struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	Author       *UserProfile `json:"author,omitempty"`
	Image        string       `json:"image,omitempty"`
	Likes        []string     `json:"likes"`
	Views        int          `json:"views"`
	CommentCount int          `json:"commentCount"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// LikedBy reports whether userID is in the article's likes.
func (a *Article) LikedBy(userID string) bool {
	for _, id := range a.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
