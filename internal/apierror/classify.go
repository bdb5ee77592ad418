package apierror

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// FallbackMessage is shown when a request failed without any usable detail.
const FallbackMessage = "request failed"

// shape tries to summarise a decoded error body. raw is the undecoded body.
type shape func(body any, raw []byte) (string, bool)

// Order matters: a body may match several shapes and the first one wins.
var shapes = []shape{
	issuesShape,
	stringShape,
	arrayShape,
	fieldErrorsShape,
	messageShape,
}

// Classify reduces err to one human-readable message. Bodies are matched
// against the known shapes in priority order:
//
//  1. {"error": {"issues": [{"path": [...], "message": ...}]}}
//  2. a JSON string (or a non-JSON text body)
//  3. a JSON array
//  4. {"errors": {"field": ["msg", ...]}}
//  5. {"message": "..."}
//  6. anything else, serialized as-is
//
// Without a response body, or with a null or empty-string body, the error's
// own message is used.
func Classify(err error) string {
	if err == nil {
		return FallbackMessage
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	if apiErr.HasBody() {
		if msg, ok := classifyBody(apiErr.Body); ok {
			return msg
		}
	}
	if apiErr.Err != nil {
		return apiErr.Err.Error()
	}
	return apiErr.Error()
}

// classifyBody summarises a response body. It reports false when the body
// decodes to nothing worth showing (null or an empty string).
func classifyBody(raw []byte) (string, bool) {
	raw = bytes.TrimSpace(raw)

	var body any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil || dec.More() {
		return string(raw), true
	}
	if body == nil || body == "" {
		return "", false
	}

	// An empty summary would render as a blank notification, so it falls
	// through to the next shape instead.
	for _, s := range shapes {
		if msg, ok := s(body, raw); ok && msg != "" {
			return msg, true
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw), true
	}
	return buf.String(), true
}

func issuesShape(body any, _ []byte) (string, bool) {
	obj, ok := body.(map[string]any)
	if !ok {
		return "", false
	}
	inner, ok := obj["error"].(map[string]any)
	if !ok {
		return "", false
	}
	issues, ok := inner["issues"].([]any)
	if !ok {
		return "", false
	}

	lines := make([]string, 0, len(issues))
	for _, it := range issues {
		issue, ok := it.(map[string]any)
		if !ok {
			lines = append(lines, stringify(it))
			continue
		}
		lines = append(lines, issuePath(issue["path"])+": "+stringify(issue["message"]))
	}
	return strings.Join(lines, "\n"), true
}

func issuePath(v any) string {
	segments, ok := v.([]any)
	if !ok {
		return stringify(v)
	}
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = stringify(seg)
	}
	return strings.Join(parts, ".")
}

func stringShape(body any, _ []byte) (string, bool) {
	s, ok := body.(string)
	return s, ok
}

func arrayShape(body any, _ []byte) (string, bool) {
	items, ok := body.([]any)
	if !ok {
		return "", false
	}
	return joinValues(items, ", "), true
}

func fieldErrorsShape(body any, raw []byte) (string, bool) {
	obj, ok := body.(map[string]any)
	if !ok {
		return "", false
	}
	if _, ok := obj["errors"].(map[string]any); !ok {
		return "", false
	}

	// Re-read the object token by token so fields keep the server's order.
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return "", false
	}
	fields, err := orderedFields(top["errors"])
	if err != nil {
		return "", false
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		var msg string
		if list, ok := f.value.([]any); ok {
			msg = joinValues(list, ", ")
		} else {
			msg = stringify(f.value)
		}
		lines = append(lines, f.name+": "+msg)
	}
	return strings.Join(lines, "\n"), true
}

func messageShape(body any, _ []byte) (string, bool) {
	obj, ok := body.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := obj["message"].(string)
	return msg, ok
}

type field struct {
	name  string
	value any
}

func orderedFields(raw json.RawMessage) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("errors is not an object")
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, field{name: name, value: value})
	}
	return fields, nil
}

func joinValues(items []any, sep string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = stringify(it)
	}
	return strings.Join(parts, sep)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
