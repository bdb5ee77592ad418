// Package resource describes the clinic API's resource collections: their
// fields, the foreign keys that link them, and how they are shown.
package resource

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownKind = errors.New("unknown resource")

// Relation is a foreign key that enrichment resolves by fetching the
// referenced record and attaching it under As.
type Relation struct {
	Field    string // foreign key on the record, e.g. "patient_id"
	Resource string // collection the key points into, e.g. "patients"
	As       string // name the fetched record is attached under, e.g. "patient"
}

// Column is one cell of a list view row. Date columns hold a DateLike value
// that the view normalizes before printing.
type Column struct {
	Header string
	Value  func(Record) string
	Date   bool
}

// Kind describes one resource collection.
type Kind struct {
	Name     string // collection path segment, e.g. "appointments"
	Singular string // display name, e.g. "Appointment"

	Relations []Relation

	// Form fields by type. Order is the order fields are shown in forms.
	IDFields       []string
	TextFields     []string
	DateFields     []string
	TimeFields     []string
	RequiredIDs    []string
	Defaults       map[string]string
	RequiredFields []string
	Choices        map[string][]string

	Columns []Column
}

// Fields returns every form field of the kind.
func (k Kind) Fields() []string {
	out := make([]string, 0, len(k.IDFields)+len(k.TextFields)+len(k.DateFields)+len(k.TimeFields))
	out = append(out, k.IDFields...)
	out = append(out, k.DateFields...)
	out = append(out, k.TimeFields...)
	out = append(out, k.TextFields...)
	return out
}

// HasField reports whether field is a form field of the kind.
func (k Kind) HasField(field string) bool {
	for _, f := range k.Fields() {
		if f == field {
			return true
		}
	}
	return false
}

// Path returns the collection path, or the item path when id is given.
func (k Kind) Path(id ...int64) string {
	if len(id) == 0 {
		return "/" + k.Name
	}
	return fmt.Sprintf("/%s/%d", k.Name, id[0])
}

// Registry is a set of kinds addressed by collection name.
type Registry struct {
	kinds map[string]Kind
}

// NewRegistry builds a registry from kinds.
func NewRegistry(kinds ...Kind) *Registry {
	r := &Registry{kinds: make(map[string]Kind, len(kinds))}
	for _, k := range kinds {
		r.kinds[k.Name] = k
	}
	return r
}

// Lookup returns the kind named name. Singular names are accepted too.
func (r *Registry) Lookup(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if k, ok := r.kinds[name]; ok {
		return k, nil
	}
	for _, k := range r.kinds {
		if strings.ToLower(k.Singular) == name {
			return k, nil
		}
	}
	return Kind{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Names returns the collection names in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
