package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"objectsrecognition/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperr.ErrTransport), errors.Is(err, apperr.ErrService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the same notice viewers get; the raw error only
// goes to the log.
func writeError(w http.ResponseWriter, caption string, err error) {
	writeJSON(w, statusFor(err), apperr.Notice(caption, err))
}
