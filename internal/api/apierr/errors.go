package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/services/auth"
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

// Common error codes. The same codes ride in WebSocket error frames, so the
// two surfaces stay consistent for clients.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeTableNotFound      = "TABLE_NOT_FOUND"
	CodeTableFull          = "TABLE_FULL"
	CodeTableClosed        = "TABLE_CLOSED"
	CodeInvalidAction      = "INVALID_ACTION"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeMalformedMessage   = "MALFORMED_MESSAGE"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeLedgerUnavailable  = "LEDGER_UNAVAILABLE"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
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

// Code returns the wire code for an error, for surfaces that carry codes
// without HTTP statuses
func Code(err error) string {
	return toHTTPError(err).apiError.Code
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrTableNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeTableNotFound, "Table not found"}}
	case errors.Is(err, model.ErrTableFull):
		return &httpError{http.StatusConflict, APIError{CodeTableFull, "Table is full"}}
	case errors.Is(err, model.ErrTableClosed):
		return &httpError{http.StatusGone, APIError{CodeTableClosed, "Table has been closed"}}
	case errors.Is(err, model.ErrInvalidAction):
		return &httpError{http.StatusConflict, APIError{CodeInvalidAction, "Action not valid right now"}}
	case errors.Is(err, model.ErrInsufficientFunds):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientFunds, "Bet exceeds available balance"}}
	case errors.Is(err, model.ErrMalformedMessage):
		return &httpError{http.StatusBadRequest, APIError{CodeMalformedMessage, "Malformed message"}}
	case errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeAccountNotFound, "Account not found"}}
	case errors.Is(err, model.ErrLedgerUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeLedgerUnavailable, "Ledger temporarily unavailable"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrEmailExists):
		return &httpError{http.StatusConflict, APIError{CodeEmailExists, "Email already registered"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
