package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lightcade/lightcade/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeInvalidSlot       = "INVALID_SLOT"
	CodeIdentityCollision = "IDENTITY_COLLISION"
	CodeAuthFailure       = "AUTH_FAILURE"
	CodeNotFound          = "NOT_FOUND"
	CodeLocalStorage      = "LOCAL_STORAGE_FAILURE"
	CodeInternalError     = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError. Only collision and auth
// failures are user-visible conditions; everything else is either a bad
// request or an internal fault.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidSlot):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidSlot, "Invalid slot index"}}
	case errors.Is(err, model.ErrIdentityCollision):
		return &httpError{http.StatusConflict, APIError{CodeIdentityCollision, "Account already active in another slot"}}
	case errors.Is(err, model.ErrAuthFailure):
		return &httpError{http.StatusUnauthorized, APIError{CodeAuthFailure, "Invalid credentials"}}
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}
	case errors.Is(err, model.ErrLocalStorage):
		return &httpError{http.StatusInternalServerError, APIError{CodeLocalStorage, "Local storage failure"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}
