package cli

import (
	"errors"
	"os"
	"strings"

	"freeradical-go/internal/session"

	"github.com/spf13/cobra"
)

func (a *App) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				email = a.Session.Email()
			}
			if password == "" {
				password = os.Getenv("FREERADICAL_PASSWORD")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--email and --password (or FREERADICAL_PASSWORD) are required")
			}
			user, err := a.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			a.success("Logged in as %s", user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (defaults to the last one used)")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.Session.State() == session.Anonymous {
				a.info("Not logged in")
				return nil
			}
			if err := a.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			a.success("Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.Session.State() == session.Anonymous {
				a.info("Not logged in")
				return nil
			}
			user, err := a.client().Me(cmd.Context())
			if err != nil {
				return err
			}
			name := strings.TrimSpace(user.FirstName + " " + user.LastName)
			if name == "" {
				a.info("%s", user.Email)
				return nil
			}
			a.info("%s <%s>", name, user.Email)
			return nil
		},
	}
}
