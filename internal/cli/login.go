package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/client"
)

func newLoginCmd() *cobra.Command {
	var server, email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store a token",
		Long:  "Signs in with email and password and stores the token for later commands. The password is read from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(server, email, os.Stdin)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newSignupCmd() *cobra.Command {
	var server, name, email, role string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and store its token",
		Long:  "Creates a tenant or landlord account. The password is read from stdin, then asked again for confirmation.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignup(server, auth.SignUpRequest{Name: name, Email: email, Role: role}, os.Stdin)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&role, "role", "tenant", "account role (tenant|landlord)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Long:  "Removes the stored token and email from the config file. The server URL and display settings are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}
}

func runLogin(serverFlag, email string, in io.Reader) error {
	serverURL := serverURLOr(serverFlag)
	r := bufio.NewReader(in)

	password, err := prompt(r, "Password: ")
	if err != nil {
		return err
	}

	sess, err := client.New(serverURL, "").SignIn(email, password)
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}
	if err := storeSession(serverFlag, sess); err != nil {
		return err
	}

	fmt.Printf("✓ Signed in as %s (%s).\n", sess.User.Email, sess.User.Role)
	return nil
}

func runSignup(serverFlag string, req auth.SignUpRequest, in io.Reader) error {
	serverURL := serverURLOr(serverFlag)
	r := bufio.NewReader(in)

	var err error
	if req.Password, err = prompt(r, "Password: "); err != nil {
		return err
	}
	if req.PasswordConfirmation, err = prompt(r, "Confirm password: "); err != nil {
		return err
	}

	sess, err := client.New(serverURL, "").SignUp(req)
	if err != nil {
		return fmt.Errorf("signing up: %w", err)
	}
	if err := storeSession(serverFlag, sess); err != nil {
		return err
	}

	fmt.Printf("✓ Account created for %s (%s). You're signed in!\n", sess.User.Email, sess.User.Role)
	return nil
}

func runLogout() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Token == "" {
		fmt.Println("Not logged in.")
		return nil
	}

	email := cfg.Email
	cfg.Token, cfg.Email = "", ""
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("✓ Logged out %s.\n", email)
	return nil
}

func serverURLOr(flag string) string {
	if flag != "" {
		return flag
	}
	return getServerURL()
}

// storeSession saves the token, keeping the rest of the config.
func storeSession(serverFlag string, sess *auth.Session) error {
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}
	cfg.Token = sess.Token
	cfg.Email = sess.User.Email
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func prompt(r *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	fmt.Println()
	return strings.TrimRight(line, "\r\n"), nil
}
