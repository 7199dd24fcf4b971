package feed

import (
	"context"
	"sync"
	"time"

	"github.com/inkflow/inkwell/internal/logger"
	"github.com/inkflow/inkwell/internal/model"
	"github.com/inkflow/inkwell/internal/realtime"
)

// Feed merges realtime events into the comment tree and notification
// list established by REST snapshots. Merges are idempotent; the
// server may deliver the same event twice and must not double-insert.
// All mutation goes through these methods under one mutex; this is
// the explicit stand-in for the single event loop the merge rules
// assume.
type Feed struct {
	mu sync.Mutex

	articleID    string
	article      *model.Article
	comments     []*model.Comment
	commentCount int

	notifications []*model.Notification
	unread        int
}

// New creates an empty feed.
func New() *Feed {
	return &Feed{}
}

// SetArticle installs the REST snapshot of the displayed article.
func (f *Feed) SetArticle(a *model.Article) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.article = a
	if a != nil {
		f.articleID = a.ID
	}
}

// Article returns the displayed article, nil when none.
func (f *Feed) Article() *model.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.article
}

// SetComments installs the REST comment snapshot for an article,
// replacing whatever was held before.
func (f *Feed) SetComments(articleID string, roots []*model.Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.articleID = articleID
	f.comments = roots

	total := 0
	for _, c := range roots {
		total += countComments(c)
	}
	f.commentCount = total
}

// Comments returns the current root comment slice. Callers treat it
// as read-only.
func (f *Feed) Comments() []*model.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments
}

// CommentCount returns the running comment counter for the article.
func (f *Feed) CommentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commentCount
}

// ApplyNewComment inserts a pushed comment. Replies attach to their
// parent, roots append to the root list, and a comment whose id is
// already anywhere in the tree is ignored. Reports whether an insert
// happened.
func (f *Feed) ApplyNewComment(c *model.Comment) bool {
	if c == nil || c.ID == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.articleID != "" && c.ArticleID != "" && c.ArticleID != f.articleID {
		return false
	}
	if findComment(f.comments, c.ID) != nil {
		// Duplicate delivery.
		return false
	}

	if c.ParentID != "" {
		parent := findComment(f.comments, c.ParentID)
		if parent == nil {
			// Parent unknown locally; the next snapshot will carry it.
			return false
		}
		parent.Replies = append(parent.Replies, c)
	} else {
		f.comments = append(f.comments, c)
	}

	f.commentCount++
	if f.article != nil {
		f.article.CommentCount = f.commentCount
	}
	return true
}

// ApplyCommentLiked replaces the target comment's likes with the
// server's authoritative array. Unknown targets are a no-op.
func (f *Feed) ApplyCommentLiked(ev realtime.CommentLikedEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := findComment(f.comments, ev.CommentID)
	if target == nil {
		return false
	}
	target.Likes = ev.LikesArray
	return true
}

// ApplyCommentUpdated replaces the content fields of the target
// comment in place, keeping its reply subtree.
func (f *Feed) ApplyCommentUpdated(c *model.Comment) bool {
	if c == nil || c.ID == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	target := findComment(f.comments, c.ID)
	if target == nil {
		return false
	}
	target.Content = c.Content
	target.IsDeleted = c.IsDeleted
	target.UpdatedAt = c.UpdatedAt
	return true
}

// ApplyCommentDeleted removes the target node and its whole subtree,
// decrementing the comment counter by the number of comments removed
// (the node plus all nested replies). Returns that number, zero for
// an unknown target.
func (f *Feed) ApplyCommentDeleted(ev realtime.CommentDeletedEvent) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	roots, removed := removeComment(f.comments, ev.CommentID)
	if removed == nil {
		return 0
	}
	f.comments = roots

	n := countComments(removed)
	f.commentCount -= n
	if f.commentCount < 0 {
		f.commentCount = 0
	}
	if f.article != nil {
		f.article.CommentCount = f.commentCount
	}
	return n
}

// ApplyArticleLiked applies an authoritative likes array, but only
// when it targets the displayed article.
func (f *Feed) ApplyArticleLiked(ev realtime.ArticleLikedEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.article == nil || f.article.ID != ev.ArticleID {
		return false
	}
	f.article.Likes = ev.Likes
	return true
}

// ApplyArticleView applies an updated view counter, but only when it
// targets the displayed article.
func (f *Feed) ApplyArticleView(ev realtime.ArticleViewEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.article == nil || f.article.ID != ev.ArticleID {
		return false
	}
	f.article.Views = ev.Views
	return true
}

// SetNotifications installs a REST notification page snapshot.
func (f *Feed) SetNotifications(list []*model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = list
}

// Notifications returns the current list, newest first.
func (f *Feed) Notifications() []*model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifications
}

// ApplyNotification prepends a pushed notification unless one with
// the same id is already held. The unread counter is not touched
// here: count events are authoritative.
func (f *Feed) ApplyNotification(n *model.Notification) bool {
	if n == nil || n.ID == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, held := range f.notifications {
		if held.ID == n.ID {
			return false
		}
	}
	f.notifications = append([]*model.Notification{n}, f.notifications...)
	return true
}

// SetUnreadCount replaces the unread counter with the server's value.
func (f *Feed) SetUnreadCount(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < 0 {
		n = 0
	}
	f.unread = n
}

// UnreadCount returns the displayed unread counter.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// MarkRead applies the optimistic local read transition after a REST
// mark-read call. The next count event reconciles the counter.
func (f *Feed) MarkRead(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.notifications {
		if n.ID == id && !n.Read {
			now := time.Now()
			n.Read = true
			n.ReadAt = &now
			if f.unread > 0 {
				f.unread--
			}
			return
		}
	}
}

// MarkAllRead applies the optimistic local transition after a REST
// mark-all-read call.
func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for _, n := range f.notifications {
		if !n.Read {
			n.Read = true
			n.ReadAt = &now
		}
	}
	f.unread = 0
}

// applyNotificationRead handles the server's confirmation of a read
// transition without touching the counter.
func (f *Feed) applyNotificationRead(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.notifications {
		if n.ID == id && !n.Read {
			now := time.Now()
			n.Read = true
			n.ReadAt = &now
			return
		}
	}
}

// Run consumes the channel's streams until ctx is cancelled, applying
// each event in delivery order. No reordering, no batching: the
// duplicate guards above are the only defense the model needs.
func (f *Feed) Run(ctx context.Context, ch *realtime.Channel) {
	newComments, stopNew := ch.NewComments.Subscribe()
	defer stopNew()
	likes, stopLikes := ch.CommentLikes.Subscribe()
	defer stopLikes()
	updates, stopUpdates := ch.CommentUpdates.Subscribe()
	defer stopUpdates()
	deletes, stopDeletes := ch.CommentDeletes.Subscribe()
	defer stopDeletes()
	articleLikes, stopALikes := ch.ArticleLikes.Subscribe()
	defer stopALikes()
	views, stopViews := ch.ArticleViews.Subscribe()
	defer stopViews()
	notifications, stopNotifs := ch.Notifications.Subscribe()
	defer stopNotifs()
	counts, stopCounts := ch.NotificationCounts.Subscribe()
	defer stopCounts()
	reads, stopReads := ch.NotificationReads.Subscribe()
	defer stopReads()

	for {
		select {
		case c := <-newComments:
			if f.ApplyNewComment(c) {
				logger.Debug("comment inserted", logger.F("id", c.ID))
			}
		case ev := <-likes:
			f.ApplyCommentLiked(ev)
		case c := <-updates:
			f.ApplyCommentUpdated(c)
		case ev := <-deletes:
			f.ApplyCommentDeleted(ev)
		case ev := <-articleLikes:
			f.ApplyArticleLiked(ev)
		case ev := <-views:
			f.ApplyArticleView(ev)
		case n := <-notifications:
			f.ApplyNotification(n)
		case count := <-counts:
			f.SetUnreadCount(count)
		case ev := <-reads:
			f.applyNotificationRead(ev.NotificationID)
		case <-ctx.Done():
			return
		}
	}
}
