// Package httpapi exposes the tracked catalog, order books and price history
// over HTTP, plus manual triggers for the poll and sync jobs.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	WriteJSON(w, status, jsonError{Error: message, Details: details})
}

// writeJobError writes the failure payload of a job trigger.
func writeJobError(w http.ResponseWriter, message string, err error) {
	failed := false
	WriteJSON(w, http.StatusInternalServerError, jsonError{Success: &failed, Error: message, Details: err.Error()})
}
