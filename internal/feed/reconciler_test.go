package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkflow/inkwell/internal/model"
	"github.com/inkflow/inkwell/internal/realtime"
)

func newArticleFeed() *Feed {
	f := New()
	f.SetArticle(&model.Article{ID: "a1", Title: "On Testing", Views: 10, Likes: []string{"u1"}})
	f.SetComments("a1", sampleTree())
	return f
}

func TestSetCommentsEstablishesCount(t *testing.T) {
	f := newArticleFeed()
	assert.Equal(t, 4, f.CommentCount(), "roots plus all nested replies")
}

func TestApplyNewCommentRoot(t *testing.T) {
	f := newArticleFeed()

	ok := f.ApplyNewComment(&model.Comment{ID: "c5", ArticleID: "a1", Content: "fresh"})
	assert.True(t, ok)
	assert.Len(t, f.Comments(), 3)
	assert.Equal(t, 5, f.CommentCount())
}

func TestApplyNewCommentReplyAttachesToParent(t *testing.T) {
	f := newArticleFeed()

	ok := f.ApplyNewComment(&model.Comment{ID: "c5", ArticleID: "a1", ParentID: "c3"})
	assert.True(t, ok)

	parent := findComment(f.Comments(), "c3")
	require.NotNil(t, parent)
	require.Len(t, parent.Replies, 1)
	assert.Equal(t, "c5", parent.Replies[0].ID)
	assert.Equal(t, 5, f.CommentCount())
}

func TestApplyNewCommentDuplicateIsIgnored(t *testing.T) {
	f := newArticleFeed()

	c := &model.Comment{ID: "c5", ArticleID: "a1"}
	assert.True(t, f.ApplyNewComment(c))
	assert.False(t, f.ApplyNewComment(c), "second delivery of the same comment")
	assert.False(t, f.ApplyNewComment(&model.Comment{ID: "c2", ArticleID: "a1"}), "id already nested in the tree")

	assert.Equal(t, 5, f.CommentCount(), "one insert, one counter bump")
}

func TestApplyNewCommentForOtherArticleIsIgnored(t *testing.T) {
	f := newArticleFeed()

	assert.False(t, f.ApplyNewComment(&model.Comment{ID: "c5", ArticleID: "a2"}))
	assert.Equal(t, 4, f.CommentCount())
}

func TestApplyNewCommentUnknownParentIsDropped(t *testing.T) {
	f := newArticleFeed()

	assert.False(t, f.ApplyNewComment(&model.Comment{ID: "c5", ArticleID: "a1", ParentID: "ghost"}))
	assert.Equal(t, 4, f.CommentCount())
}

func TestApplyCommentLikedIsAuthoritative(t *testing.T) {
	f := newArticleFeed()

	target := findComment(f.Comments(), "c3")
	target.Likes = []string{"u1", "u2", "u3"}

	// The server's array wins even when it shrinks the list.
	ok := f.ApplyCommentLiked(realtime.CommentLikedEvent{CommentID: "c3", Likes: 1, LikesArray: []string{"u2"}})
	assert.True(t, ok)
	assert.Equal(t, []string{"u2"}, target.Likes)

	assert.False(t, f.ApplyCommentLiked(realtime.CommentLikedEvent{CommentID: "ghost"}), "unknown comment is a no-op")
}

func TestApplyCommentUpdatedKeepsReplies(t *testing.T) {
	f := newArticleFeed()

	ok := f.ApplyCommentUpdated(&model.Comment{ID: "c2", Content: "edited", IsDeleted: false})
	assert.True(t, ok)

	target := findComment(f.Comments(), "c2")
	assert.Equal(t, "edited", target.Content)
	require.Len(t, target.Replies, 1, "the reply subtree survives an in-place update")
	assert.Equal(t, "c3", target.Replies[0].ID)
}

func TestApplyCommentDeletedRemovesSubtree(t *testing.T) {
	f := newArticleFeed()

	removed := f.ApplyCommentDeleted(realtime.CommentDeletedEvent{CommentID: "c1", ArticleID: "a1"})
	assert.Equal(t, 3, removed, "node plus two nested replies")
	assert.Equal(t, 1, f.CommentCount())
	assert.Nil(t, findComment(f.Comments(), "c3"))
	assert.Equal(t, 1, f.Article().CommentCount)

	assert.Zero(t, f.ApplyCommentDeleted(realtime.CommentDeletedEvent{CommentID: "c1"}), "second delivery finds nothing")
	assert.Equal(t, 1, f.CommentCount())
}

func TestApplyArticleLiked(t *testing.T) {
	f := newArticleFeed()

	ok := f.ApplyArticleLiked(realtime.ArticleLikedEvent{ArticleID: "a1", Likes: []string{"u1", "u2"}})
	assert.True(t, ok)
	assert.Equal(t, []string{"u1", "u2"}, f.Article().Likes)

	assert.False(t, f.ApplyArticleLiked(realtime.ArticleLikedEvent{ArticleID: "a2", Likes: nil}), "other articles are ignored")
	assert.Equal(t, []string{"u1", "u2"}, f.Article().Likes)
}

func TestApplyArticleView(t *testing.T) {
	f := newArticleFeed()

	assert.True(t, f.ApplyArticleView(realtime.ArticleViewEvent{ArticleID: "a1", Views: 11}))
	assert.Equal(t, 11, f.Article().Views)
	assert.False(t, f.ApplyArticleView(realtime.ArticleViewEvent{ArticleID: "a2", Views: 99}))
}

func TestApplyNotificationDedupesAndPrepends(t *testing.T) {
	f := New()
	f.SetNotifications([]*model.Notification{{ID: "n1"}})

	assert.True(t, f.ApplyNotification(&model.Notification{ID: "n2", Type: model.NotificationNewComment}))
	assert.False(t, f.ApplyNotification(&model.Notification{ID: "n2"}), "duplicate delivery")
	assert.False(t, f.ApplyNotification(&model.Notification{ID: "n1"}), "already in the snapshot")

	list := f.Notifications()
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID, "newest first")
}

func TestUnreadCountIsServerAuthoritative(t *testing.T) {
	f := New()
	f.SetNotifications([]*model.Notification{{ID: "n1"}, {ID: "n2"}})
	f.SetUnreadCount(2)

	f.MarkRead("n1")
	assert.Equal(t, 1, f.UnreadCount(), "optimistic decrement after a mark-read call")
	assert.True(t, f.Notifications()[0].Read)
	require.NotNil(t, f.Notifications()[0].ReadAt)

	f.MarkRead("n1")
	assert.Equal(t, 1, f.UnreadCount(), "marking an already read notification changes nothing")

	// The pushed counter overrides whatever we computed locally.
	f.SetUnreadCount(5)
	assert.Equal(t, 5, f.UnreadCount())
	f.SetUnreadCount(-3)
	assert.Zero(t, f.UnreadCount())
}

func TestMarkAllRead(t *testing.T) {
	f := New()
	f.SetNotifications([]*model.Notification{{ID: "n1"}, {ID: "n2", Read: true}, {ID: "n3"}})
	f.SetUnreadCount(2)

	f.MarkAllRead()

	assert.Zero(t, f.UnreadCount())
	for _, n := range f.Notifications() {
		assert.True(t, n.Read)
	}
}

func TestNotificationReadEventDoesNotTouchCounter(t *testing.T) {
	f := New()
	f.SetNotifications([]*model.Notification{{ID: "n1"}})
	f.SetUnreadCount(3)

	f.applyNotificationRead("n1")

	assert.True(t, f.Notifications()[0].Read)
	assert.Equal(t, 3, f.UnreadCount(), "only count events move the counter")
}
