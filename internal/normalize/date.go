// Package normalize converts backend values into the shapes forms and views
// expect, and coerces form input into the payload shape the backend expects.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// secondsThreshold separates Unix seconds from Unix milliseconds. The backend
// sends both without saying which; anything below it is taken as seconds.
const secondsThreshold = 10_000_000_000

// DateLayout is the canonical calendar-date form.
const DateLayout = "2006-01-02"

// Date converts a DateLike value to YYYY-MM-DD:
//
//   - a pure integer is a Unix timestamp, in seconds when below 10^10 and in
//     milliseconds otherwise, formatted in UTC;
//   - a string containing 'T' is cut at the first 'T';
//   - anything else is returned unchanged.
//
// nil yields "".
func Date(v any) string {
	s := text(v)
	if s == "" {
		return ""
	}

	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ts < secondsThreshold {
			ts *= 1000
		}
		return time.UnixMilli(ts).UTC().Format(DateLayout)
	}

	if before, _, found := strings.Cut(s, "T"); found {
		return before
	}
	return s
}

// DisplayDate renders a DateLike value for detail views ("Mar 5, 2024").
// Values that do not normalize to a calendar date are returned as-is, and
// an empty value renders as "N/A".
func DisplayDate(v any) string {
	s := Date(v)
	if s == "" {
		return "N/A"
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
