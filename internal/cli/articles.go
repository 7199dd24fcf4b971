package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkflow/inkwell/internal/api"
	"github.com/inkflow/inkwell/internal/model"
)

var articlesCmd = &cobra.Command{
	Use:     "articles",
	Aliases: []string{"a"},
	Short:   "Browse and publish articles",
}

var articlesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List published articles",
	RunE:    runArticlesList,
}

var articlesShowCmd = &cobra.Command{
	Use:   "show <article-id>",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticlesShow,
}

var articlesLikeCmd = &cobra.Command{
	Use:   "like <article-id>",
	Short: "Toggle your like on an article",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticlesLike,
}

var articlesMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own articles",
	RunE:  runArticlesMine,
}

var articlesPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a new article",
	RunE:  runArticlesPublish,
}

var articlesEditCmd = &cobra.Command{
	Use:   "edit <article-id>",
	Short: "Update one of your articles",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticlesEdit,
}

var articlesDeleteCmd = &cobra.Command{
	Use:   "delete <article-id>",
	Short: "Delete one of your articles",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticlesDelete,
}

var (
	articleTitle   string
	articleContent string
	articleImage   string
	articleDraft   bool
)

func init() {
	articlesCmd.AddCommand(articlesListCmd)
	articlesCmd.AddCommand(articlesShowCmd)
	articlesCmd.AddCommand(articlesLikeCmd)
	articlesCmd.AddCommand(articlesMineCmd)
	articlesCmd.AddCommand(articlesPublishCmd)
	articlesCmd.AddCommand(articlesEditCmd)
	articlesCmd.AddCommand(articlesDeleteCmd)

	for _, cmd := range []*cobra.Command{articlesPublishCmd, articlesEditCmd} {
		cmd.Flags().StringVarP(&articleTitle, "title", "t", "", "Article title")
		cmd.Flags().StringVarP(&articleContent, "content", "c", "", "Article body")
		cmd.Flags().StringVar(&articleImage, "image", "", "Cover image file")
		cmd.Flags().BoolVar(&articleDraft, "draft", false, "Keep unpublished")
	}
}

func runArticlesList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	articles, err := app.api.ListArticles(cmd.Context())
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Println("No articles yet.")
		return nil
	}

	for _, a := range articles {
		author := ""
		if a.Author != nil {
			author = a.Author.Username
		}
		fmt.Printf("%s  %s\n", headerStyle.Render(a.Title), mutedStyle.Render(fmt.Sprintf(
			"by %s · %d ❤ · %d 👁 · %d comments · %s", author, len(a.Likes), a.Views, a.CommentCount, a.ID)))
	}
	return nil
}

func runArticlesShow(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	article, err := app.api.GetArticle(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(article.Title))
	if article.Author != nil {
		fmt.Println(mutedStyle.Render("by " + article.Author.Username))
	}
	fmt.Println()
	fmt.Println(article.Content)
	fmt.Println()
	fmt.Println(mutedStyle.Render(fmt.Sprintf("%d ❤ · %d 👁 · %d comments",
		len(article.Likes), article.Views, article.CommentCount)))
	return nil
}

func runArticlesLike(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	likes, err := app.api.LikeArticle(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	toggled := model.Article{Likes: likes}
	if user := app.manager.Current().User; user != nil && toggled.LikedBy(user.ID) {
		fmt.Printf("❤ Liked (%d total)\n", len(likes))
	} else {
		fmt.Printf("💔 Like removed (%d total)\n", len(likes))
	}
	return nil
}

func runArticlesMine(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	articles, err := app.api.MyArticles(cmd.Context())
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Println("You have no articles. Publish one with: inkwell articles publish")
		return nil
	}

	for _, a := range articles {
		fmt.Printf("%s  %s\n", a.Title, mutedStyle.Render(a.ID))
	}
	return nil
}

func articleDraftFromFlags() (api.ArticleDraft, error) {
	if articleTitle == "" {
		return api.ArticleDraft{}, fmt.Errorf("--title is required")
	}
	return api.ArticleDraft{
		Title:     articleTitle,
		Content:   articleContent,
		Published: !articleDraft,
		ImagePath: articleImage,
	}, nil
}

func runArticlesPublish(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	draft, err := articleDraftFromFlags()
	if err != nil {
		return err
	}

	article, err := app.api.CreateArticle(cmd.Context(), draft)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Published %q (%s)\n", article.Title, article.ID)
	return nil
}

func runArticlesEdit(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	draft, err := articleDraftFromFlags()
	if err != nil {
		return err
	}

	article, err := app.api.UpdateArticle(cmd.Context(), args[0], draft)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Updated %q\n", article.Title)
	return nil
}

func runArticlesDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	if err := app.api.DeleteArticle(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("✅ Article deleted.")
	return nil
}
