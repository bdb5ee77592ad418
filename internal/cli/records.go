package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/clinicdesk/clinicdesk-go/internal/apierror"
	"github.com/clinicdesk/clinicdesk-go/internal/listview"
	"github.com/clinicdesk/clinicdesk-go/internal/normalize"
	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

func listCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <resource>",
		Short: "List a resource collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			kind, err := a.lookupKind(args[0])
			if err != nil {
				return err
			}
			if !a.navigate(cmd, kind.Path()) {
				return nil
			}

			view := listview.New()
			defer view.Unmount()
			if err := view.Load(cmd.Context(), a.client, a.pipeline, kind); err != nil {
				return err
			}
			return renderList(cmd.OutOrStdout(), kind, view.Records())
		},
	}
}

func showCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <resource> <id>",
		Short: "Show one record with its related records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			kind, id, err := a.target(args)
			if err != nil {
				return err
			}
			if !a.navigate(cmd, kind.Path(id)) {
				return nil
			}

			rec, err := a.pipeline.LoadOne(cmd.Context(), kind, id)
			if err != nil {
				return notFound(kind, err)
			}
			return renderDetail(cmd.OutOrStdout(), kind, rec)
		},
	}
}

func createCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <resource>",
		Short: "Create a record",
		Example: "  clinic create appointments --set patient_id=3 --set doctor_id=1 \\\n" +
			"    --set appointment_date=2024-05-01 --set appointment_time=09:30 --set reason=Checkup",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			kind, err := a.lookupKind(args[0])
			if err != nil {
				return err
			}
			if !a.navigate(cmd, kind.Path()+"/create") {
				return nil
			}

			form := normalize.NewForm(kind)
			sets, _ := cmd.Flags().GetStringArray("set")
			if err := applySets(kind, form, sets); err != nil {
				return err
			}
			payload, err := normalize.Payload(kind, form)
			if err != nil {
				return err
			}

			rec, err := a.mutations.Create(cmd.Context(), kind, payload, nil)
			if err != nil {
				return err
			}
			if id, ok := rec.ID(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d created\n", kind.Singular, id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s created\n", kind.Singular)
			}
			return nil
		},
	}
	cmd.Flags().StringArray("set", nil, "Field value as field=value (repeatable)")
	return cmd
}

func editCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <resource> <id>",
		Short: "Edit a record; without --set the current form is shown",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			kind, id, err := a.target(args)
			if err != nil {
				return err
			}
			if !a.navigate(cmd, kind.Path(id)+"/edit") {
				return nil
			}

			rec, options, err := a.loadEditView(cmd, kind, id)
			if err != nil {
				return err
			}
			form := normalize.FormFromRecord(kind, rec)

			sets, _ := cmd.Flags().GetStringArray("set")
			if len(sets) == 0 {
				return renderForm(cmd.OutOrStdout(), kind, form, options)
			}
			if err := applySets(kind, form, sets); err != nil {
				return err
			}
			payload, err := normalize.Payload(kind, form)
			if err != nil {
				return err
			}

			if _, err := a.mutations.Update(cmd.Context(), kind, id, payload, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d updated\n", kind.Singular, id)
			return nil
		},
	}
	cmd.Flags().StringArray("set", nil, "Field value as field=value (repeatable)")
	return cmd
}

// loadEditView fetches the record and the option list of every relation at
// the same time.
func (a *app) loadEditView(cmd *cobra.Command, kind resource.Kind, id int64) (resource.Record, map[string][]resource.Record, error) {
	g, ctx := errgroup.WithContext(cmd.Context())

	var (
		rec    resource.Record
		recErr error
		mu     sync.Mutex
	)
	options := make(map[string][]resource.Record, len(kind.Relations))

	g.Go(func() error {
		rec, recErr = a.client.Get(ctx, kind.Name, id)
		return recErr
	})
	for _, rel := range kind.Relations {
		rel := rel
		g.Go(func() error {
			recs, err := a.client.List(ctx, rel.Resource)
			if err != nil {
				return fmt.Errorf("loading %s: %w", rel.Resource, err)
			}
			mu.Lock()
			options[rel.Resource] = recs
			mu.Unlock()
			return nil
		})
	}

	// Once one fetch fails the others are cancelled, so only the error
	// Wait reports is the real cause.
	if err := g.Wait(); err != nil {
		if recErr != nil && errors.Is(err, recErr) {
			return nil, nil, notFound(kind, err)
		}
		return nil, nil, err
	}
	return rec, options, nil
}

func deleteCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			kind, id, err := a.target(args)
			if err != nil {
				return err
			}
			if !a.navigate(cmd, kind.Path(id)) {
				return nil
			}

			w := cmd.OutOrStdout()
			action := a.mutations.NewDeleteAction(kind, id, func(id int64) {
				fmt.Fprintf(w, "%s %d deleted\n", kind.Singular, id)
			})
			action.Arm()

			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				fmt.Fprintf(w, "Delete %s %d? [y/N]: ", kind.Singular, id)
				if !confirmed(bufio.NewScanner(cmd.InOrStdin())) {
					action.Cancel()
					fmt.Fprintln(w, "Cancelled")
					return nil
				}
			}
			return action.Confirm(cmd.Context())
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Delete without asking")
	return cmd
}

// target resolves the <resource> <id> arguments.
func (a *app) target(args []string) (resource.Kind, int64, error) {
	kind, err := a.lookupKind(args[0])
	if err != nil {
		return resource.Kind{}, 0, err
	}
	id, err := parseID(args[1])
	if err != nil {
		return resource.Kind{}, 0, err
	}
	return kind, id, nil
}

func notFound(kind resource.Kind, err error) error {
	if apierror.IsNotFound(err) {
		return fmt.Errorf("%s not found", kind.Singular)
	}
	return err
}

func applySets(kind resource.Kind, form normalize.Form, sets []string) error {
	for _, s := range sets {
		field, value, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q: want field=value", s)
		}
		if err := form.Set(kind, strings.TrimSpace(field), value); err != nil {
			return err
		}
	}
	return nil
}

func confirmed(sc *bufio.Scanner) bool {
	if !sc.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(sc.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
