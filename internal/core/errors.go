// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("resource already exists")
	ErrInvalidInput = errors.New("invalid input")
	ErrTransaction  = errors.New("transaction failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeTransaction  = "TRANSACTION_FAILED"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError is an error that carries its own caller-facing code, message and
// HTTP status. Err is the taxonomy sentinel it belongs to.
type AppError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func ValidationError(message string) *AppError {
	return NewAppError(
		http.StatusBadRequest,
		CodeValidation,
		message,
		ErrInvalidInput,
	)
}

func Invalidf(format string, args ...any) *AppError {
	return ValidationError(fmt.Sprintf(format, args...))
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		http.StatusNotFound,
		CodeNotFound,
		resource+" not found",
		ErrNotFound,
	)
}

func ConflictError(message string) *AppError {
	return NewAppError(
		http.StatusConflict,
		CodeConflict,
		message,
		ErrDuplicateKey,
	)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(
		http.StatusUnauthorized,
		CodeUnauthorized,
		message,
		ErrUnauthorized,
	)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(
		http.StatusForbidden,
		CodeForbidden,
		message,
		ErrForbidden,
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(
		http.StatusUnauthorized,
		CodeTokenExpired,
		"token has expired",
		ErrTokenExpired,
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		http.StatusUnauthorized,
		CodeTokenInvalid,
		"token is invalid",
		ErrTokenInvalid,
	)
}

// FromError maps any error onto the taxonomy. Errors that are not part of it
// become a 500 with a generic message.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return NewAppError(http.StatusBadRequest, CodeValidation, err.Error(), err)
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, CodeNotFound, err.Error(), err)
	case errors.Is(err, ErrDuplicateKey):
		return NewAppError(http.StatusConflict, CodeConflict, err.Error(), err)
	case errors.Is(err, ErrTransaction):
		return NewAppError(
			http.StatusInternalServerError,
			CodeTransaction,
			err.Error(),
			err,
		)
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("authentication required")
	case errors.Is(err, ErrForbidden):
		return ForbiddenError("insufficient permissions")
	default:
		return NewAppError(
			http.StatusInternalServerError,
			CodeInternal,
			"internal server error",
			err,
		)
	}
}
