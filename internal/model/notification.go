package model

import "time"

// Notification types delivered by the server.
const (
	NotificationNewArticle   = "new_article"
	NotificationNewComment   = "new_comment"
	NotificationCommentReply = "comment_reply"
	NotificationArticleLiked = "article_liked"
	NotificationCommentLiked = "comment_liked"
)

// Notification is created server-side and delivered over the realtime
// channel or a REST page fetch. The client only ever flips the read
// state; notifications are never deleted locally.
type Notification struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      NotificationData `json:"data"`
	Read      bool             `json:"read"`
	ReadAt    *time.Time       `json:"readAt,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NotificationData is the loosely typed payload attached to a
// notification. Unknown keys the server may add are ignored.
type NotificationData struct {
	ArticleID string `json:"articleId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
}
