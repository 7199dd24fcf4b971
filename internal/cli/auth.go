package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/inkflow/inkwell/internal/store"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Log in, log out, and manage the account password.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the platform",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the local session",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE:  runWhoami,
}

var changePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change the account password",
	RunE:  runChangePassword,
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password using a reset token",
	RunE:  runResetPassword,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(whoamiCmd)
	authCmd.AddCommand(changePasswordCmd)
	authCmd.AddCommand(resetPasswordCmd)

	loginCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("role", "reader", "Account role (reader or author)")
	resetPasswordCmd.Flags().String("token", "", "Reset token from the email")
}

func promptLine(label string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) string {
	fmt.Print(label)
	passwordBytes, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(passwordBytes)
}

func runLogin(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = promptLine("Email: ")
	}
	password := promptPassword("Password: ")

	// Held only for this process, cleared as soon as login settles.
	app.transient.Set(store.KeyPendingLoginEmail, email)
	app.transient.Set(store.KeyPendingLoginPassword, password)
	defer app.transient.Delete(store.KeyPendingLoginEmail, store.KeyPendingLoginPassword)

	fmt.Println("🔄 Logging in...")
	sess, err := app.manager.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	if sess.User != nil {
		fmt.Printf("✅ Logged in as %s\n", sess.User.Username)
	} else {
		fmt.Println("✅ Logged in successfully!")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.manager.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Println("🔄 Logging out...")
	if err := app.manager.Logout(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("✅ Logged out successfully.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	username := promptLine("Username: ")
	email := promptLine("Email: ")
	password := promptPassword("Password: ")
	confirm := promptPassword("Confirm Password: ")

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	role, _ := cmd.Flags().GetString("role")

	fmt.Println("🔄 Creating account...")
	sess, err := app.manager.Register(cmd.Context(), username, email, password, role)
	if err != nil {
		return err
	}

	if sess.User != nil {
		fmt.Printf("✅ Account created, logged in as %s\n", sess.User.Username)
	} else {
		fmt.Println("✅ Account created and logged in!")
	}
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	user, err := app.api.Me(cmd.Context())
	if err != nil {
		// Fall back to the cached profile
		if cached := app.manager.Current().User; cached != nil {
			user = cached
		} else {
			return err
		}
	}

	fmt.Printf("%s <%s> role=%s verified=%t\n", user.Username, user.Email, user.Role, user.Verified)
	return nil
}

func runChangePassword(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireLogin(); err != nil {
		return err
	}

	oldPassword := promptPassword("Current password: ")
	newPassword := promptPassword("New password: ")
	confirm := promptPassword("Confirm new password: ")

	if newPassword != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := app.api.ChangePassword(cmd.Context(), oldPassword, newPassword, confirm); err != nil {
		return err
	}

	fmt.Println("✅ Password changed.")
	return nil
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = promptLine("Reset token: ")
	}
	if token == "" {
		return fmt.Errorf("reset token required")
	}
	app.transient.Set(store.KeyResetPasswordToken, token)
	defer app.transient.Delete(store.KeyResetPasswordToken)

	password := promptPassword("New password: ")
	confirm := promptPassword("Confirm new password: ")

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := app.auth.ResetPassword(cmd.Context(), token, password, confirm); err != nil {
		return err
	}

	fmt.Println("✅ Password reset, log in with the new password.")
	return nil
}
