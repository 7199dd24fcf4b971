package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"n"},
	Short:   "Read notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List notifications",
	RunE:    runNotificationsList,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <notification-id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsRead,
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE:  runNotificationsReadAll,
}

var (
	notificationsPage   int
	notificationsLimit  int
	notificationsUnread bool
)

func init() {
	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsReadAllCmd)

	notificationsListCmd.Flags().IntVar(&notificationsPage, "page", 1, "Page number")
	notificationsListCmd.Flags().IntVar(&notificationsLimit, "limit", 20, "Page size")
	notificationsListCmd.Flags().BoolVar(&notificationsUnread, "unread", false, "Only unread")
}

func runNotificationsList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	var read *bool
	if notificationsUnread {
		f := false
		read = &f
	}

	page, err := app.api.Notifications(cmd.Context(), notificationsPage, notificationsLimit, read)
	if err != nil {
		return err
	}

	count, err := app.api.UnreadCount(cmd.Context())
	if err == nil {
		fmt.Println(headerStyle.Render(fmt.Sprintf("%d unread", count)))
	}

	if len(page.Notifications) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	for _, n := range page.Notifications {
		marker := "●"
		style := notificationStyle
		if n.Read {
			marker = "○"
			style = mutedStyle
		}
		fmt.Printf("%s %s %s\n", style.Render(marker), style.Render(n.Title),
			mutedStyle.Render(n.Message+" · "+n.ID))
	}
	if page.Pages > 1 {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("page %d of %d", page.Page, page.Pages)))
	}
	return nil
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	if err := app.api.MarkNotificationRead(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("✅ Marked read.")
	return nil
}

func runNotificationsReadAll(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	if err := app.api.MarkAllNotificationsRead(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("✅ All notifications marked read.")
	return nil
}
