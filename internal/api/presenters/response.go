package presenters

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/kdatlt/foodgram/domain"
)

type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, data any, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse writes the error envelope. Details of server-side failures are
// logged and replaced by a generic message.
func ErrorResponse(c *fiber.Ctx, statusCode int, message string, err error) error {
	var detail any
	switch {
	case statusCode >= fiber.StatusInternalServerError:
		log.Errorf("%s %s: %s: %v", c.Method(), c.Path(), message, err)
		detail = domain.MessageInternalError
	case err != nil:
		detail = errorDetail(err)
	}

	return c.Status(statusCode).JSON(Response{
		Status:  false,
		Message: message,
		Error:   detail,
	})
}

// ServiceErrorResponse picks the status from the error kind.
func ServiceErrorResponse(c *fiber.Ctx, message string, err error) error {
	return ErrorResponse(c, StatusFromError(err), message, err)
}

func errorDetail(err error) any {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fe := range validationErrors {
			fields[fe.Field()] = fe.Tag()
		}
		return fields
	}
	return err.Error()
}

func StatusFromError(err error) int {
	var validationErrors validator.ValidationErrors
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &validationErrors),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrSelfSubscription):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
