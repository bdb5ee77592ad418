// Package apierror describes failed calls against the clinic API and reduces
// them to a single message fit for showing to a user.
package apierror

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed request. Status and Body are zero when no response arrived
// (connection refused, timeout, cancelled context); Err carries the cause then.
type Error struct {
	Method string
	Path   string
	Status int
	Body   []byte
	Err    error
}

func (e *Error) Error() string {
	if e.Status == 0 && e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func (e *Error) Unwrap() error { return e.Err }

// HasBody reports whether the server answered with a non-empty body.
func (e *Error) HasBody() bool {
	return len(bytes.TrimSpace(e.Body)) > 0
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// *Error or no response was received.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
