package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

var (
	ErrReferenceRequired = errors.New("a selection is required")
	ErrInvalidReference  = errors.New("not a valid id")
	ErrUnknownField      = errors.New("unknown field")
)

// Form holds field values as a form control produces them: text only.
type Form map[string]string

// NewForm returns a blank form for kind with its defaults applied.
func NewForm(kind resource.Kind) Form {
	f := make(Form, len(kind.Fields()))
	for _, name := range kind.Fields() {
		f[name] = kind.Defaults[name]
	}
	return f
}

// FormFromRecord populates an edit form from a fetched record. Date fields are
// normalized here, on load, and nowhere else.
func FormFromRecord(kind resource.Kind, rec resource.Record) Form {
	f := NewForm(kind)
	for _, name := range kind.IDFields {
		f[name] = rec.String(name)
	}
	for _, name := range kind.DateFields {
		f[name] = Date(rec[name])
	}
	for _, name := range kind.TimeFields {
		f[name] = rec.String(name)
	}
	for _, name := range kind.TextFields {
		if v := rec.String(name); v != "" {
			f[name] = v
		}
	}
	return f
}

// Set assigns field after checking it belongs to kind.
func (f Form) Set(kind resource.Kind, field, value string) error {
	if !kind.HasField(field) {
		return fmt.Errorf("%w %q for %s", ErrUnknownField, field, kind.Name)
	}
	f[field] = value
	return nil
}

// Payload coerces a form into the body sent to the backend:
//
//   - id fields are parsed to integers; a blank optional id is sent as null;
//   - text fields are trimmed, and missing ones are sent as "";
//   - date and time fields are sent exactly as held by the form.
func Payload(kind resource.Kind, f Form) (map[string]any, error) {
	payload := make(map[string]any, len(kind.Fields()))

	var missing []string
	for _, name := range kind.IDFields {
		raw := strings.TrimSpace(f[name])
		if raw == "" {
			if contains(kind.RequiredIDs, name) {
				missing = append(missing, name)
			}
			payload[name] = nil
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", name, raw, ErrInvalidReference)
		}
		payload[name] = id
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(missing, ", "), ErrReferenceRequired)
	}

	for _, name := range kind.DateFields {
		payload[name] = f[name]
	}
	for _, name := range kind.TimeFields {
		payload[name] = f[name]
	}
	for _, name := range kind.TextFields {
		payload[name] = strings.TrimSpace(f[name])
	}
	return payload, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
