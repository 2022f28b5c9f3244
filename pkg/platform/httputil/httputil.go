package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"sentra/pkg/platform/sentinel"
)

// ErrorBody is the JSON error envelope every endpoint returns.
type ErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates an error into the JSON envelope. Sentinel errors map
// to specific statuses; anything else is an opaque internal error so storage
// and upstream details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, ErrorBody{Error: "not_found"})
	case errors.Is(err, sentinel.ErrConflict):
		WriteJSON(w, http.StatusConflict, ErrorBody{Error: "conflict", Description: err.Error()})
	case errors.Is(err, sentinel.ErrInvalidState):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorBody{Error: "invalid_state", Description: err.Error()})
	case errors.Is(err, sentinel.ErrUnavailable):
		WriteJSON(w, http.StatusServiceUnavailable, ErrorBody{Error: "unavailable"})
	default:
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{Error: "internal_error"})
	}
}

// WriteBadRequest reports a malformed or invalid request body.
func WriteBadRequest(w http.ResponseWriter, description string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: "bad_request", Description: description})
}

// Decode parses the JSON request body into T. The body is limited to 1 MiB
// and unknown fields are rejected.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("decode request body: %w", err)
	}
	return v, nil
}
