package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"refinery-ops/internal/auth"
	"refinery-ops/internal/platform/apperr"
	"refinery-ops/internal/validation"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RespondError maps err to a status code and writes a JSON error body.
// Unexpected errors are logged and answered with a generic message.
func RespondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var invalid *validation.Error
	switch {
	case errors.As(err, &invalid):
		WriteJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Fields: invalid.Fields})
	case errors.Is(err, validation.ErrInvalid):
		WriteJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		WriteJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, auth.ErrUnauthorized):
		WriteJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	case errors.Is(err, auth.ErrForbidden):
		WriteJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "request failed, try again"})
	}
}

// BadRequest writes a 400 JSON error.
func BadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, errorBody{Error: message})
}
