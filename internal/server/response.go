package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KaramelBytes/musicdash/internal/dataset"
	"github.com/KaramelBytes/musicdash/internal/view"
)

// Error codes carried in the envelope.
const (
	CodeValidation  = "VALIDATION"
	CodeNotFound    = "NOT_FOUND"
	CodeConflict    = "CONFLICT"
	CodeRateLimited = "RATE_LIMITED"
	CodeInternal    = "INTERNAL"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// errWrongScreen is returned when a session is not on the screen an
// endpoint requires.
var errWrongScreen = errors.New("session is not on the dashboard")

func writeJSON(w http.ResponseWriter, status int, data any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Success: status < 400, Data: data}); err != nil {
		log.Error("Failed to encode JSON response", "error", err)
	}
}

func writeAPIError(w http.ResponseWriter, status int, apiErr *APIError, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Error: apiErr}); err != nil {
		log.Error("Failed to encode error response", "error", err)
	}
}

// writeError maps domain errors onto status codes; anything unknown is a 500.
func writeError(w http.ResponseWriter, err error, log *slog.Logger) {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		writeAPIError(w, http.StatusBadRequest, apiErr, log)
	case errors.Is(err, dataset.ErrInvalidColumn), errors.Is(err, view.ErrUnknownEvent):
		writeAPIError(w, http.StatusBadRequest, &APIError{Code: CodeValidation, Message: err.Error()}, log)
	case errors.Is(err, view.ErrSessionNotFound):
		writeAPIError(w, http.StatusNotFound, &APIError{Code: CodeNotFound, Message: err.Error()}, log)
	case errors.Is(err, errWrongScreen):
		writeAPIError(w, http.StatusConflict, &APIError{Code: CodeConflict, Message: err.Error()}, log)
	default:
		log.Error("Unhandled error", "error", err)
		writeAPIError(w, http.StatusInternalServerError, &APIError{Code: CodeInternal, Message: "internal server error"}, log)
	}
}
