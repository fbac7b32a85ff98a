package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidArgument      ErrorCode = "invalid_argument"
	AccountNotFound      ErrorCode = "account_not_found"
	InsufficientFunds    ErrorCode = "insufficient_funds"
	NotFound             ErrorCode = "not_found"
	DuplicateUser        ErrorCode = "duplicate_user"
	DuplicateTransaction ErrorCode = "duplicate_transaction"
	Unauthorized         ErrorCode = "unauthorized"
	Forbidden            ErrorCode = "forbidden"
	RateLimited          ErrorCode = "rate_limited"
	InternalError        ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports a match on the error code so callers can compare against the
// predefined errors even after details were attached.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus maps the error code to the status written by the HTTP shell.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidArgument:
		return http.StatusBadRequest
	case AccountNotFound, NotFound:
		return http.StatusNotFound
	case InsufficientFunds:
		return http.StatusUnprocessableEntity
	case DuplicateUser, DuplicateTransaction:
		return http.StatusConflict
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy carrying details; predefined errors stay untouched.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// FromError extracts an AppError from err, wrapping anything else as an
// internal error.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(InternalError, "an unexpected error occurred").WithDetails(err.Error())
}

// Predefined errors for common cases
var (
	ErrInvalidAmount        = NewAppError(InvalidArgument, "amount must be greater than zero")
	ErrInvalidPrecision     = NewAppError(InvalidArgument, "amount must not have more than two decimal places")
	ErrNegativeBalance      = NewAppError(InvalidArgument, "initial balance cannot be negative")
	ErrInvalidAccountKind   = NewAppError(InvalidArgument, "unknown account kind")
	ErrInvalidInput         = NewAppError(InvalidArgument, "invalid input")
	ErrAccountNotFound      = NewAppError(AccountNotFound, "account not found")
	ErrInsufficientFunds    = NewAppError(InsufficientFunds, "insufficient funds in source account")
	ErrNotFound             = NewAppError(NotFound, "resource not found")
	ErrUserNotFound         = NewAppError(NotFound, "user not found")
	ErrDuplicateUser        = NewAppError(DuplicateUser, "username already exists")
	ErrDuplicateTransaction = NewAppError(DuplicateTransaction, "transaction already processed")
	ErrUnauthorized         = NewAppError(Unauthorized, "invalid username or password")
	ErrForbidden            = NewAppError(Forbidden, "operation not permitted for this user")
	ErrRateLimited          = NewAppError(RateLimited, "too many requests")
)
