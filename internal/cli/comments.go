package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkflow/inkwell/internal/model"
)

var commentsCmd = &cobra.Command{
	Use:     "comments",
	Aliases: []string{"c"},
	Short:   "Read and write comments",
}

var commentsListCmd = &cobra.Command{
	Use:     "list <article-id>",
	Aliases: []string{"ls"},
	Short:   "Show an article's comment thread",
	Args:    cobra.ExactArgs(1),
	RunE:    runCommentsList,
}

var commentsAddCmd = &cobra.Command{
	Use:   "add <article-id> <text>",
	Short: "Comment on an article",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCommentsAdd,
}

var commentsEditCmd = &cobra.Command{
	Use:   "edit <comment-id> <text>",
	Short: "Edit one of your comments",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCommentsEdit,
}

var commentsDeleteCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete one of your comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommentsDelete,
}

var commentsLikeCmd = &cobra.Command{
	Use:   "like <comment-id>",
	Short: "Toggle your like on a comment",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommentsLike,
}

var commentReplyTo string

func init() {
	commentsCmd.AddCommand(commentsListCmd)
	commentsCmd.AddCommand(commentsAddCmd)
	commentsCmd.AddCommand(commentsEditCmd)
	commentsCmd.AddCommand(commentsDeleteCmd)
	commentsCmd.AddCommand(commentsLikeCmd)

	commentsAddCmd.Flags().StringVar(&commentReplyTo, "reply-to", "", "Parent comment ID")
}

// printThread renders a comment subtree with indentation.
func printThread(comments []*model.Comment, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range comments {
		author := "?"
		if c.Author != nil {
			author = c.Author.Username
		}
		content := c.Content
		if c.IsDeleted {
			content = mutedStyle.Render("[deleted]")
		}
		fmt.Printf("%s%s %s\n", indent, commentAuthorStyle.Render(author+":"), content)
		fmt.Printf("%s%s\n", indent, mutedStyle.Render(fmt.Sprintf("%d ❤ · %s", len(c.Likes), c.ID)))
		printThread(c.Replies, depth+1)
	}
}

func runCommentsList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	comments, err := app.api.ArticleComments(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		fmt.Println("No comments yet.")
		return nil
	}

	printThread(comments, 0)
	return nil
}

func runCommentsAdd(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	content := strings.Join(args[1:], " ")
	comment, err := app.api.CreateComment(cmd.Context(), args[0], commentReplyTo, content)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Comment posted (%s)\n", comment.ID)
	return nil
}

func runCommentsEdit(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	content := strings.Join(args[1:], " ")
	if _, err := app.api.UpdateComment(cmd.Context(), args[0], content); err != nil {
		return err
	}
	fmt.Println("✅ Comment updated.")
	return nil
}

func runCommentsDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	if err := app.api.DeleteComment(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("✅ Comment deleted.")
	return nil
}

func runCommentsLike(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	likes, err := app.api.LikeComment(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	toggled := model.Comment{Likes: likes}
	if user := app.manager.Current().User; user != nil && toggled.LikedBy(user.ID) {
		fmt.Printf("❤ Liked (%d total)\n", len(likes))
	} else {
		fmt.Printf("💔 Like removed (%d total)\n", len(likes))
	}
	return nil
}
