// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	// Reason is a machine-readable code such as "file_too_large".
	Reason  string `json:"reason,omitempty"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON writes a JSON response with the given status code. The body is
// marshaled before headers are sent so an encoding failure becomes a 500
// rather than a truncated response.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// RespondError writes {"error": msg}.
func RespondError(w http.ResponseWriter, status int, msg string) {
	RespondErrorBody(w, status, ErrorBody{Error: msg})
}

// RespondErrorBody writes a full error body.
func RespondErrorBody(w http.ResponseWriter, status int, body ErrorBody) {
	payload, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}
