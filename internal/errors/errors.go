// Package errors provides custom error types for the BudgetWise backend and
// its clients. Service-layer errors use AppError so responses carry a stable
// code and never leak internal details.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so a decoded remote error
// compares equal to the local sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// FromCode rebuilds an AppError received over the wire. Unknown codes map to
// ErrInternalServer's status with the remote code preserved.
func FromCode(code, message string) *AppError {
	for _, sentinel := range all {
		if sentinel.Code == code {
			if message == "" {
				message = sentinel.Message
			}
			return &AppError{Code: code, Message: message, StatusCode: sentinel.StatusCode}
		}
	}
	return &AppError{Code: code, Message: message, StatusCode: ErrInternalServer.StatusCode}
}

// Authentication errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrUnavailable    = &AppError{Code: "UNAVAILABLE", Message: "Service temporarily unavailable", StatusCode: http.StatusServiceUnavailable}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionKind = &AppError{Code: "INVALID_TRANSACTION_KIND", Message: "Transaction kind must be income or expense", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
)

// Investment errors.
var (
	ErrInvestmentNotFound = &AppError{Code: "INVESTMENT_NOT_FOUND", Message: "Investment not found", StatusCode: http.StatusNotFound}
)

var all = []*AppError{
	ErrUnauthorized, ErrForbidden,
	ErrInvalidInput, ErrNotFound, ErrInternalServer, ErrUnavailable,
	ErrTransactionNotFound, ErrInvalidTransactionKind,
	ErrBudgetNotFound,
	ErrInvestmentNotFound,
}
