package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinicdesk/clinicdesk-go/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the body for failures with no client-facing detail.
func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// messageResponse is the body for failures whose text is shown to the user.
func messageResponse(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// issuesResponse wraps validation issues as {"error": {"issues": [...]}}.
func issuesResponse(issues []service.Issue) map[string]any {
	return map[string]any{"error": map[string]any{"issues": issues}}
}

func fieldIssue(field, msg string) map[string]any {
	return issuesResponse([]service.Issue{{Path: []string{field}, Message: msg}})
}

// decodeBody reads a JSON request body, answering 400/413 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, messageResponse("invalid request body"))
		return false
	}
	return true
}
