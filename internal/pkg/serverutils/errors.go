package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// AppError is a service-level failure with a stable HTTP mapping. Services
// wrap the sentinels below with %w so controllers translate uniformly.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

var (
	ErrNotFound          = NewAppError(fiber.StatusNotFound, "resource not found")
	ErrObjectNotFound    = NewAppError(fiber.StatusConflict, "no object found under the upload key")
	ErrUnsupportedFormat = NewAppError(fiber.StatusUnprocessableEntity, "unsupported file format")
	ErrInvalidEnum       = NewAppError(fiber.StatusBadRequest, "invalid classification value")
	ErrInvalidScope      = NewAppError(fiber.StatusBadRequest, "invalid scope pairing")
	ErrInvalidState      = NewAppError(fiber.StatusConflict, "operation not allowed in current state")
	ErrForbidden         = NewAppError(fiber.StatusForbidden, "access denied")
)

// StatusFor maps an error to its HTTP status, defaulting to 500.
func StatusFor(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message
	}
	return fiber.StatusInternalServerError, err.Error()
}
