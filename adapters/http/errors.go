package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/pkg/formjson"
)

// ErrorResponseBody is the body of every error response.
type ErrorResponseBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponseBody{Error: ErrorDetail{Code: code, Message: message}})
}

// errorStatus maps domain errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case formjson.IsDeserializationError(err):
		return http.StatusBadRequest, "invalid_payload"
	case errors.Is(err, form.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, form.ErrDuplicateField), errors.Is(err, form.ErrDuplicateSection):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, form.ErrConflict):
		return http.StatusConflict, "dependency_conflict"
	case errors.Is(err, form.ErrTypeMismatch):
		return http.StatusUnprocessableEntity, "type_mismatch"
	case errors.Is(err, form.ErrInvariantViolation):
		return http.StatusInternalServerError, "invariant_violation"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeDomainError writes err with its mapped status. Server errors are
// logged and their message is not exposed.
func writeDomainError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", code).Msg("request failed")
		writeError(w, status, code, http.StatusText(status))
		return
	}
	writeError(w, status, code, err.Error())
}
