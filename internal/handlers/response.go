package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/service"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code}, logger)
}

// WriteServiceError maps a service error onto its HTTP status and code. Client errors carry
// the wrapped message, which for instance lists the valid sizes of a product; anything
// unrecognised is logged and reported as a 500 without detail.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		WriteError(w, status, code, "Internal server error", logger)
		return
	}
	logger.InfoContext(r.Context(), "request rejected", "path", r.URL.Path, "code", code, "error", err)
	WriteError(w, status, code, err.Error(), logger)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.Is(err, service.ErrProductUnavailable):
		return http.StatusUnprocessableEntity, "PRODUCT_UNAVAILABLE"
	case errors.Is(err, service.ErrSizeUnavailable):
		return http.StatusUnprocessableEntity, "SIZE_UNAVAILABLE"
	case errors.Is(err, service.ErrNotServiceable):
		return http.StatusUnprocessableEntity, "NOT_SERVICEABLE"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
