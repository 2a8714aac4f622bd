package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "solidarlink/pkg/domainerrors"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteError maps a domain error onto an HTTP status and a JSON body.
// Internal errors omit the description so storage details never leak to
// clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	description := ""
	var de *dErrors.Error
	if errors.As(err, &de) {
		description = de.Message
	}
	if code == dErrors.CodeInternal {
		description = ""
	}

	WriteJSON(w, dErrors.ToHTTPStatus(code), errorResponse{
		Error:       string(code),
		Description: description,
	})
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
