package model

import "time"

// Comment is one node of an article's threaded comment tree. Root
// comments have an empty ParentID. A comment's ID is unique across the
// whole tree (roots plus all nested replies) for a given article.
type Comment struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	Author    *UserProfile `json:"author,omitempty"`
	ArticleID string       `json:"articleId"`
	ParentID  string       `json:"parentId,omitempty"`
	Likes     []string     `json:"likes"`
	IsDeleted bool         `json:"isDeleted"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Replies   []*Comment   `json:"replies,omitempty"`
}

// LikedBy reports whether userID is in the comment's likes.
func (c *Comment) LikedBy(userID string) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
