package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one entity as returned by the API. The backend is untyped, so
// records are kept as decoded JSON objects and unknown fields round-trip
// untouched. Numbers are held as json.Number.
type Record map[string]any

// DecodeRecord decodes a single JSON object.
func DecodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := decode(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return rec, nil
}

// DecodeRecords decodes a JSON array of objects.
func DecodeRecords(data []byte) ([]Record, error) {
	var recs []Record
	if err := decode(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding record list: %w", err)
	}
	return recs, nil
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// ID returns the record's integer id.
func (r Record) ID() (int64, bool) {
	return r.Int("id")
}

// Int reads an integer field. Numeric strings are accepted since some
// endpoints serialize ids as text.
func (r Record) Int(field string) (int64, bool) {
	switch v := r[field].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil || f != float64(int64(f)) {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// String renders a scalar field as text; nil and missing fields are "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Related returns the record attached under name by enrichment.
func (r Record) Related(name string) (Record, bool) {
	switch v := r[name].(type) {
	case Record:
		return v, true
	case map[string]any:
		return Record(v), true
	default:
		return nil, false
	}
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// With returns a copy of r with field set to value.
func (r Record) With(field string, value any) Record {
	out := r.Clone()
	out[field] = value
	return out
}

// PersonName joins first_name and last_name, as used for patients and doctors.
func (r Record) PersonName() string {
	first, last := r.String("first_name"), r.String("last_name")
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	default:
		return last
	}
}
