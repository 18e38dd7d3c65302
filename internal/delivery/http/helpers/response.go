package helpers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"conferencecentral/internal/domain"
)

// Error codes carried in APIError.Code.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeForbidden     = "forbidden"
	ErrCodeNotFound      = "not_found"
	ErrCodeConflict      = "conflict"
	ErrCodeInternalError = "internal_error"
)

// APIError is the error half of the envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse wraps every response body. Exactly one of Data and Error is non-null.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// errorStatus maps domain sentinels to HTTP outcomes. The first match wins.
var errorStatus = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrKindMismatch, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrMalformedKey, http.StatusBadRequest, ErrCodeBadRequest},
	{domain.ErrValidation, http.StatusBadRequest, ErrCodeBadRequest},
	{domain.ErrNotAuthorized, http.StatusForbidden, ErrCodeForbidden},
	{domain.ErrNotRegistered, http.StatusConflict, ErrCodeConflict},
	{domain.ErrAlreadyRegistered, http.StatusConflict, ErrCodeConflict},
	{domain.ErrAlreadyWishlisted, http.StatusConflict, ErrCodeConflict},
	{domain.ErrNoSeatsAvailable, http.StatusConflict, ErrCodeConflict},
}

func writeEnvelope(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSONSuccess writes data inside the envelope with a null error.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeEnvelope(w, statusCode, APIResponse{Data: data})
}

// WriteJSONError writes a null-data envelope carrying code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeEnvelope(w, statusCode, APIResponse{Error: &APIError{Code: code, Message: message}})
}

// WriteServiceError maps a service error onto the envelope. Errors matching no domain
// sentinel are logged and reported as a generic 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.target) {
			WriteJSONError(w, m.status, m.code, err.Error())
			return
		}
	}
	logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, slog.Any("err", err))
	WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
}
