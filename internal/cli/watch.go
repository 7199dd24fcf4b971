package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkflow/inkwell/internal/feed"
	"github.com/inkflow/inkwell/internal/model"
	"github.com/inkflow/inkwell/internal/realtime"
)

var watchCmd = &cobra.Command{
	Use:   "watch [article-id]",
	Short: "Follow comments and notifications live",
	Long: `Watch keeps a live connection open and prints events as they happen.
With an article ID it follows that article's comment thread; without
one it follows your notifications only. Press Ctrl-C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	channel := app.newChannel()
	defer channel.Disconnect()

	// Keep the channel in step with the session for the life of this
	// process: fresh credentials bring it up, teardown takes it down.
	app.manager.OnAuthenticated(func(s model.Session) {
		userID := ""
		if s.User != nil {
			userID = s.User.ID
		}
		channel.Connect(s.AccessToken, userID)
	})
	app.manager.OnTerminated(func() {
		channel.Disconnect()
	})

	app.manager.StartExpiryWatch(time.Second)
	defer app.manager.StopExpiryWatch()

	sess := app.manager.Current()
	userID := ""
	if sess.User != nil {
		userID = sess.User.ID
	}
	if err := channel.Connect(sess.AccessToken, userID); err != nil {
		return fmt.Errorf("realtime connection failed: %w", err)
	}

	state := feed.New()

	var articleID string
	if len(args) > 0 {
		articleID = args[0]
		if err := loadArticle(ctx, app, channel, state, articleID); err != nil {
			return err
		}
	}

	if count, err := app.api.UnreadCount(ctx); err == nil {
		state.SetUnreadCount(count)
	}

	go state.Run(ctx, channel)

	fmt.Println(mutedStyle.Render("watching... press Ctrl-C to stop"))
	printEvents(ctx, channel, articleID)
	return nil
}

// loadArticle pulls the REST snapshot, joins the article room, and
// counts the view once per article for this client.
func loadArticle(ctx context.Context, app *app, channel *realtime.Channel, state *feed.Feed, articleID string) error {
	article, err := app.api.GetArticle(ctx, articleID)
	if err != nil {
		return err
	}
	state.SetArticle(article)

	comments, err := app.api.ArticleComments(ctx, articleID)
	if err != nil {
		return err
	}
	state.SetComments(articleID, comments)

	channel.JoinArticle(articleID)

	if first, err := app.markViewed(articleID); err == nil && first {
		channel.IncrementArticleView(articleID)
	}

	fmt.Println(headerStyle.Render(article.Title))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("%d comments so far", state.CommentCount())))
	return nil
}

// printEvents renders the live stream until ctx is cancelled. The
// feed reconciler holds its own subscriptions; these are separate
// taps on the same multicast streams.
func printEvents(ctx context.Context, channel *realtime.Channel, articleID string) {
	comments, stopComments := channel.NewComments.Subscribe()
	defer stopComments()
	typing, stopTyping := channel.Typing.Subscribe()
	defer stopTyping()
	notifications, stopNotifs := channel.Notifications.Subscribe()
	defer stopNotifs()
	counts, stopCounts := channel.NotificationCounts.Subscribe()
	defer stopCounts()

	for {
		select {
		case c := <-comments:
			author := "someone"
			if c.Author != nil {
				author = c.Author.Username
			}
			fmt.Printf("%s %s\n", commentAuthorStyle.Render(author+":"), c.Content)
		case t := <-typing:
			if t.IsTyping && t.ArticleID == articleID {
				fmt.Println(typingStyle.Render(t.Username + " is typing..."))
			}
		case n := <-notifications:
			fmt.Printf("%s %s\n", notificationStyle.Render("🔔 "+n.Title), n.Message)
		case count := <-counts:
			fmt.Println(mutedStyle.Render(fmt.Sprintf("%d unread notifications", count)))
		case <-ctx.Done():
			return
		}
	}
}
