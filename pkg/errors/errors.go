package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPatch  = errors.New("invalid telemetry patch")
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	ErrSubscriberGone = errors.New("subscriber disconnected")
	ErrHubClosed      = errors.New("broadcast hub closed")

	ErrForecastUnavailable = errors.New("forecast unavailable")
)

const (
	CodeNotFound = "NOT_FOUND"
	CodeConflict = "CONFLICT"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the AppError code carried anywhere in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
