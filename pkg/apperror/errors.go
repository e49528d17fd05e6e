package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Input validation (VAL) ----

// Validation returns a VAL_001 error carrying a client-facing message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Amount must be a positive decimal", http.StatusBadRequest)
}

func ErrInvalidCurrency() *AppError {
	return New("VAL_003", "Currency must be a 3-letter ISO code", http.StatusBadRequest)
}

func ErrInvalidSplit(message string) *AppError {
	return New("VAL_004", message, http.StatusBadRequest)
}

// ---- Events & participants (EVT) ----

func ErrNotFound(entity string) *AppError {
	return New("EVT_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrNotParticipant() *AppError {
	return New("EVT_002", "You are not a participant of this event", http.StatusForbidden)
}

func ErrUnknownParticipant() *AppError {
	return New("EVT_003", "Participant does not belong to this event", http.StatusUnprocessableEntity)
}

// ---- Settlement integrity (SETL) ----

// ErrSettlementIntegrity signals balances that cannot be settled. Callers must
// not render it as an empty settlement list.
func ErrSettlementIntegrity(err error) *AppError {
	return Wrap("SETL_001", "Event balances are inconsistent and cannot be settled", http.StatusUnprocessableEntity, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrCacheFailure(err error) *AppError {
	return Wrap("SYS_002", "Report cache failure", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
