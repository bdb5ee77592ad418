package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/clinicdesk/clinicdesk-go/internal/normalize"
	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

const missing = "N/A"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// renderList prints records as a table of the kind's columns.
func renderList(w io.Writer, kind resource.Kind, records []resource.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintf(w, "No %s found.\n", kind.Name)
		return err
	}

	tw := newTable(w)
	headers := make([]string, len(kind.Columns))
	for i, col := range kind.Columns {
		headers[i] = col.Header
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	cells := make([]string, len(kind.Columns))
	for _, rec := range records {
		for i, col := range kind.Columns {
			v := col.Value(rec)
			if col.Date {
				v = normalize.Date(v)
			}
			cells[i] = v
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// renderDetail prints one record field by field. Foreign keys show the
// related record when enrichment attached it.
func renderDetail(w io.Writer, kind resource.Kind, rec resource.Record) error {
	id, _ := rec.ID()
	fmt.Fprintf(w, "%s %d\n", kind.Singular, id)

	tw := newTable(w)
	for _, name := range kind.Fields() {
		fmt.Fprintf(tw, "  %s:\t%s\n", label(name), detailValue(kind, rec, name))
	}
	return tw.Flush()
}

func detailValue(kind resource.Kind, rec resource.Record, field string) string {
	if rel, ok := relationFor(kind, field); ok {
		return referenceValue(rec, rel)
	}
	for _, name := range kind.DateFields {
		if name == field {
			return normalize.DisplayDate(rec[field])
		}
	}
	if v := rec.String(field); v != "" {
		return v
	}
	return missing
}

func referenceValue(rec resource.Record, rel resource.Relation) string {
	raw := rec.String(rel.Field)
	if raw == "" {
		return missing
	}
	related, ok := rec.Related(rel.As)
	if !ok {
		return "#" + raw
	}
	if name := displayName(related); name != "" {
		return fmt.Sprintf("%s (#%s)", name, raw)
	}
	return "#" + raw
}

// renderForm prints the edit view: current values plus the records each
// foreign key may point at.
func renderForm(w io.Writer, kind resource.Kind, form normalize.Form, options map[string][]resource.Record) error {
	tw := newTable(w)
	for _, name := range kind.Fields() {
		fmt.Fprintf(tw, "  %s\t%s\n", name, form[name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, rel := range kind.Relations {
		recs := options[rel.Resource]
		fmt.Fprintf(w, "\nAvailable %s for %s:\n", rel.Resource, rel.Field)
		if len(recs) == 0 {
			fmt.Fprintln(w, "  (none)")
			continue
		}
		tw := newTable(w)
		for _, r := range recs {
			fmt.Fprintf(tw, "  %s\t%s\n", r.String("id"), displayName(r))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func relationFor(kind resource.Kind, field string) (resource.Relation, bool) {
	for _, rel := range kind.Relations {
		if rel.Field == field {
			return rel, true
		}
	}
	return resource.Relation{}, false
}

// displayName names a related record: people by name, diagnoses by condition.
func displayName(rec resource.Record) string {
	if name := rec.PersonName(); name != "" {
		return name
	}
	return rec.String("condition")
}

// label turns a field name into a heading: "date_of_birth" -> "Date of birth".
func label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
