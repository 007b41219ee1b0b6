package engine

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"catalog-admin/internal/files"
	"catalog-admin/internal/store"
)

// AppError is an error with an HTTP status and a client-facing message. The
// central error handler renders it as {"error": message}.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

func NotFound(entity string) *AppError {
	return &AppError{Status: fiber.StatusNotFound, Message: entity + " not found"}
}

func BadRequest(message string) *AppError {
	return &AppError{Status: fiber.StatusBadRequest, Message: message}
}

func Validation(message string) *AppError {
	return &AppError{Status: fiber.StatusUnprocessableEntity, Message: message}
}

func Unauthorized() *AppError {
	return &AppError{Status: fiber.StatusUnauthorized, Message: "Unauthorized"}
}

func UnsupportedMedia(message string) *AppError {
	return &AppError{Status: fiber.StatusUnsupportedMediaType, Message: message}
}

func Internal(message string) *AppError {
	return &AppError{Status: fiber.StatusInternalServerError, Message: message}
}

// ErrorHandler is the fiber error handler. It maps the error taxonomy to
// status codes and keeps the wire shape uniform.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var appErr *AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		status = appErr.Status
		message = appErr.Message
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
		message = "not found"
	case errors.Is(err, store.ErrUniqueViolation):
		status = fiber.StatusConflict
		message = "duplicate value for a unique field"
	case errors.Is(err, files.ErrNotDataURL), errors.Is(err, files.ErrTypeNotAllowed), errors.Is(err, files.ErrTooLarge):
		status = fiber.StatusUnsupportedMediaType
		message = err.Error()
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	}

	if status >= 500 {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}
