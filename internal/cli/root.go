package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinicdesk-go/internal/config"
)

func newRootCommand(opts Options, target **app) *cobra.Command {
	v := config.NewClientViper()

	root := &cobra.Command{
		Use:           "clinic",
		Short:         "Clinic records client",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v, opts)
			if err != nil {
				return err
			}
			*target = a
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			(*target).renderHome(cmd.OutOrStdout())
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("api-url", "", "Base URL of the clinic API (CLINIC_API_URL)")
	flags.String("state", "", "Path of the local state file (CLINIC_STATE_PATH)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (CLINIC_LOG_LEVEL)")
	v.BindPFlag("CLINIC_API_URL", flags.Lookup("api-url"))
	v.BindPFlag("CLINIC_STATE_PATH", flags.Lookup("state"))
	v.BindPFlag("CLINIC_LOG_LEVEL", flags.Lookup("log-level"))

	current := func() *app { return *target }
	root.AddCommand(
		loginCmd(current),
		registerCmd(current),
		logoutCmd(current),
		whoamiCmd(current),
		listCmd(current),
		showCmd(current),
		createCmd(current),
		editCmd(current),
		deleteCmd(current),
	)
	return root
}

// renderHome prints the landing view.
func (a *app) renderHome(w io.Writer) {
	if user := a.session.User(); a.session.Token() != "" && user != nil {
		fmt.Fprintf(w, "Welcome back, %s!\n", user.DisplayName())
	} else if a.session.Token() != "" {
		fmt.Fprintln(w, "Welcome back!")
	} else {
		fmt.Fprintln(w, "Welcome to ClinicDesk. Sign in with `clinic login` or create an account with `clinic register`.")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Resources:")
	for _, name := range a.kinds.Names() {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
