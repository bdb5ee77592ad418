package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinicdesk-go/internal/model"
	"github.com/clinicdesk/clinicdesk-go/internal/session"
)

func loginCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			if err := a.session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", a.session.User().DisplayName())
			return nil
		},
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func registerCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			flags := cmd.Flags()
			first, _ := flags.GetString("first-name")
			last, _ := flags.GetString("last-name")
			email, _ := flags.GetString("email")
			password, _ := flags.GetString("password")
			confirm, _ := flags.GetString("confirm-password")

			if password != confirm {
				return ErrPasswordMismatch
			}

			req := model.RegisterRequest{
				FirstName: first,
				LastName:  last,
				Email:     email,
				Password:  password,
			}
			if err := a.session.Register(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! Your account is ready.\n", a.session.User().DisplayName())
			return nil
		},
	}
	cmd.Flags().String("first-name", "", "First name")
	cmd.Flags().String("last-name", "", "Last name")
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password")
	cmd.Flags().String("confirm-password", "", "Repeat the password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("confirm-password")
	return cmd
}

func logoutCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current().session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			w := cmd.OutOrStdout()

			snap := a.session.Snapshot()
			if !snap.Authenticated() {
				fmt.Fprintln(w, "Not signed in")
				return nil
			}

			if snap.User != nil {
				fmt.Fprintf(w, "Signed in as %s <%s>\n", snap.User.DisplayName(), snap.User.Email)
			} else {
				fmt.Fprintln(w, "Signed in")
			}

			exp, err := a.session.TokenExpiry()
			switch {
			case errors.Is(err, session.ErrNoExpiry):
				fmt.Fprintln(w, "Session expiry: unknown")
			case err != nil:
				a.logger.Debug().Err(err).Msg("token is not a JWT")
				fmt.Fprintln(w, "Session expiry: unknown")
			case time.Now().After(exp):
				fmt.Fprintf(w, "Session expired at %s\n", exp.Local().Format(time.RFC1123))
			default:
				fmt.Fprintf(w, "Session expires at %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}
