package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/listmagify/recs-engine/internal/shared"
)

// statusFor maps a domain error to an HTTP status code. internal/server is
// the only layer permitted to make this mapping; every other package deals
// exclusively in the shared sentinel errors.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidFlag):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrStoreFailure), errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrCancelled):
		return 499
	case errors.Is(err, shared.ErrTrackNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and an error body. Unhandled (500) errors
// carry a correlation id so the caller can report it back for log lookup.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}
	if status == http.StatusInternalServerError {
		body.CorrelationID = shared.GenerateID()
	}
	writeJSON(w, status, body)
}
