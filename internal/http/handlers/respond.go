// Package handlers implements the HTTP surface of the enrichment service.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// errorBody is the uniform error envelope for all endpoints.
type errorBody struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Timestamp  string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{
		Error:      msg,
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
