package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change your username",
	RunE:  runProfileUpdate,
}

var profileAvatarCmd = &cobra.Command{
	Use:   "avatar <image-file>",
	Short: "Upload a new avatar",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAvatar,
}

var profileUsername string

func init() {
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profileAvatarCmd)

	profileUpdateCmd.Flags().StringVar(&profileUsername, "username", "", "New username")
	profileUpdateCmd.MarkFlagRequired("username")
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	user, err := app.api.UpdateMe(cmd.Context(), profileUsername)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Username is now %s\n", user.Username)
	return nil
}

func runProfileAvatar(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	if _, err := app.api.UploadAvatar(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("✅ Avatar updated.")
	return nil
}
