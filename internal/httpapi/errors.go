package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"promptq/internal/backend"
	"promptq/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case backend.IsUnknownProvider(err):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrNotSupported):
		return http.StatusNotImplemented
	case errors.As(err, &he):
		return he.StatusCode()
	default:
		return http.StatusBadGateway
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
