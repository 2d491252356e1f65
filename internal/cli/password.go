package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docsflow/internal/api"
)

func NewPasswordCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Recover or reset an account password",
	}

	cmd.AddCommand(NewPasswordForgotCommand(a))
	cmd.AddCommand(NewPasswordResetCommand(a))

	return cmd
}

func NewPasswordForgotCommand(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Send a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.auth.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return failed(api.Message(err, "failed to send reset email"), err)
			}
			fmt.Fprintln(a.out, messageOr(msg, "Reset email requested"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}

func NewPasswordResetCommand(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with a reset token",
		Long: `Reset reads the new password from the first line of stdin and an optional
confirmation from the second line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readSecret()
			if err != nil {
				return err
			}
			confirm, err := a.readSecret()
			if err != nil {
				return err
			}
			if confirm == "" {
				confirm = password
			}
			msg, err := a.auth.ResetPassword(cmd.Context(), token, password, confirm)
			if err != nil {
				return failed(api.Message(err, "failed to reset password"), err)
			}
			fmt.Fprintln(a.out, messageOr(msg, "Password updated"))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Token from the reset email")
	return cmd
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
