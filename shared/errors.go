package shared

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// AppError is the error type every handler and service returns to the HTTP
// layer. The fiber error handler maps it onto the response envelope.
type AppError struct {
	StatusCode int
	Message    string
	Err        error
	Data       interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(statusCode int, err error, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Err: err}
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(fiber.StatusBadRequest, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return NewAppError(fiber.StatusUnauthorized, err, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return NewAppError(fiber.StatusForbidden, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return NewAppError(fiber.StatusNotFound, err, message)
}

func NewConflictError(err error, message string) *AppError {
	return NewAppError(fiber.StatusConflict, err, message)
}

// NewResourceExhaustedError reports an empty lives pool. Surfaced as a 400 so
// clients can distinguish it from auth or routing problems.
func NewResourceExhaustedError(err error, message string) *AppError {
	return NewAppError(fiber.StatusBadRequest, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return NewAppError(fiber.StatusInternalServerError, err, message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
