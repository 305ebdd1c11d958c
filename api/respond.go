package api

import (
	"encoding/json"
	"net/http"
)

// errorBody is the uniform API error contract: what went wrong, which fields
// were missing, and what the caller should do about it.
type errorBody struct {
	Error          string   `json:"error"`
	RequiredFields []string `json:"required_fields,omitempty"`
	Suggestion     string   `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, body)
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, errorBody{
		Error:      "Internal server error during trait inference.",
		Suggestion: "Please try again or contact support if the issue persists.",
	})
}
