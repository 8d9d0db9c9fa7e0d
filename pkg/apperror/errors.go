package apperror

import (
	"errors"
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

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ---- Wallet Ledger (WLT) ----

func ErrWalletNotFound() *AppError {
	return New("WLT_001", "Wallet not found", http.StatusNotFound)
}

func ErrWalletExists() *AppError {
	return New("WLT_002", "Wallet already exists", http.StatusConflict)
}

func ErrInsufficientFunds() *AppError {
	return New("WLT_003", "Insufficient funds", http.StatusBadRequest)
}

// ---- Validation (VAL) ----

// Validation returns a generic request validation error.
func Validation(message string) *AppError {
	return New("VAL_000", message, http.StatusUnprocessableEntity)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Amount must be a positive integer", http.StatusUnprocessableEntity)
}

func ErrInvalidOperationType() *AppError {
	return New("VAL_002", "Operation type must be DEPOSIT or WITHDRAW", http.StatusUnprocessableEntity)
}

func ErrInvalidWalletID() *AppError {
	return New("VAL_003", "Wallet identifier must be a valid UUID", http.StatusUnprocessableEntity)
}

func ErrBalanceOverflow() *AppError {
	return New("VAL_004", "Deposit would overflow wallet balance", http.StatusUnprocessableEntity)
}

// ErrBodyTooLarge is returned for request bodies over the configured limit,
// whether announced by Content-Length or hit while reading a chunked body.
func ErrBodyTooLarge() *AppError {
	return New("VAL_000", "Request body too large", http.StatusRequestEntityTooLarge)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrStoreUnavailable(err error) *AppError {
	return Wrap("SYS_002", "Ledger store unavailable", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
