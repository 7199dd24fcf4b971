package realtime

import "encoding/json"

// Client→server events.
const (
	EventJoinArticle          = "joinArticle"
	EventLeaveArticle         = "leaveArticle"
	EventJoinUserRoom         = "joinUserRoom"
	EventTyping               = "typing"
	EventIncrementArticleView = "incrementArticleView"
	EventNotificationMarkRead = "notification:markRead"
	EventNotificationGetCount = "notification:getCount"
	EventSocketReady          = "socketReady"
	EventUserDisconnect       = "userDisconnect"
)

// Server→client events.
const (
	EventNewComment         = "newComment"
	EventUserTyping         = "userTyping"
	EventNewNotification    = "newNotification"
	EventNotification       = "notification"
	EventNotificationCount  = "notificationCount"
	EventNotificationRead   = "notification:read"
	EventArticleViewUpdated = "articleViewUpdated"
	EventCommentLiked       = "commentLiked"
	EventCommentUpdated     = "commentUpdated"
	EventCommentDeleted     = "commentDeleted"
	EventArticleLiked       = "articleLiked"
)

// envelope is the wire frame in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outEnvelope is the client→server frame before encoding.
type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// CommentLikedEvent carries the authoritative likes for one comment.
type CommentLikedEvent struct {
	CommentID  string   `json:"commentId"`
	Likes      int      `json:"likes"`
	LikesArray []string `json:"likesArray"`
}

// CommentDeletedEvent announces a removed comment.
type CommentDeletedEvent struct {
	CommentID string `json:"commentId"`
	ArticleID string `json:"articleId"`
}

// ArticleLikedEvent carries the authoritative likes for one article.
type ArticleLikedEvent struct {
	ArticleID string   `json:"articleId"`
	Likes     []string `json:"likes"`
}

// ArticleViewEvent carries an updated view counter.
type ArticleViewEvent struct {
	ArticleID string `json:"articleId"`
	Views     int    `json:"views"`
}

// TypingEvent signals a user typing in an article's comment box.
type TypingEvent struct {
	ArticleID string `json:"articleId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	IsTyping  bool   `json:"isTyping"`
}

// NotificationReadEvent confirms a notification flipped to read.
type NotificationReadEvent struct {
	NotificationID string `json:"notificationId"`
}

// notificationCountEvent is the wire shape of the unread counter.
type notificationCountEvent struct {
	Count int `json:"count"`
}
