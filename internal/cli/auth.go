package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errNotSignedIn makes whoami exit non-zero.
var errNotSignedIn = errors.New("not signed in")

func NewLoginCommand(a *app) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the token",
		Long: `Sign in with email and password. The password is read from stdin with --password-stdin,
otherwise from the DOCSFLOW_PASSWORD environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("DOCSFLOW_PASSWORD")
			if passwordStdin {
				p, err := a.readSecret()
				if err != nil {
					return err
				}
				password = p
			}
			return runLogin(cmd.Context(), a, email, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func runLogin(ctx context.Context, a *app, email, password string) error {
	user, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return failed(a.auth.Err(), err)
	}
	fmt.Fprintf(a.out, "Signed in as %s (role %s)\n", displayName(user.Email, user.ID), user.Role)
	return nil
}

func NewLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func NewWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.auth.Restore(cmd.Context()) {
				fmt.Fprintln(a.out, "Not signed in")
				return errNotSignedIn
			}
			u := a.auth.User()
			fmt.Fprintf(a.out, "User:       %s\n", displayName(u.Email, u.ID))
			fmt.Fprintf(a.out, "ID:         %d\n", u.ID)
			fmt.Fprintf(a.out, "Role:       %s\n", u.Role)
			if u.DepartmentID != nil {
				fmt.Fprintf(a.out, "Department: %d\n", *u.DepartmentID)
			}
			return nil
		},
	}
}

func displayName(email string, id int64) string {
	if email != "" {
		return email
	}
	return fmt.Sprintf("user #%d", id)
}
