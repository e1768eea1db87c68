package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-records/internal/apperr"
	"github.com/hackgods/clinic-records/internal/auth"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func writeFieldError(w http.ResponseWriter, status int, code, field, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message, Field: field})
}

// decodeJSON reads a JSON body into v. On failure the response has already
// been written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

// writeServiceError maps service errors onto status codes. Anything not
// recognised is logged and reported as a bare internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		validationErr *apperr.ValidationError
		conflictErr   *apperr.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Message,
			Field:   validationErr.Field,
			Details: validationErr.Details,
		})
	case errors.As(err, &conflictErr):
		writeFieldError(w, http.StatusConflict, "conflict", conflictErr.Field, conflictErr.Message)
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Not found.")
	case errors.Is(err, auth.ErrAccountDisabled):
		writeError(w, http.StatusUnauthorized, "authentication_failed", "User account is disabled.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "authentication_failed", "Invalid credentials.")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid or expired.")
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
