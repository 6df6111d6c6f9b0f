package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/subtitlarr/subtitlarr/internal/apperrors"
	"github.com/subtitlarr/subtitlarr/internal/config"
)

// RespondJSON writes payload as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		config.GetLogger().Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// RespondError writes a JSON error body with the given status code.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps domain errors onto HTTP status codes: bad parameters
// are the caller's fault, unknown media is a 404, an upstream failure is a
// bad gateway, and anything else is a plain server error.
func statusForError(err error) int {
	var validationErr *apperrors.ErrValidation
	var notFoundErr *apperrors.ErrNotFound
	var noSubtitleErr *apperrors.ErrNoSubtitleInArchive
	var upstreamErr *apperrors.ErrUpstreamStatus

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr), errors.As(err, &noSubtitleErr):
		return http.StatusNotFound
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
