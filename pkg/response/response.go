package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/lzhlsy00/video-gen/internal/model"
)

// Error codes
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeTransientError  = "TRANSIENT_ERROR"
	CodeServiceError    = "SERVICE_ERROR"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func Error(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FromError writes the envelope matching err's kind. Upstream failures keep
// the backend's status code; anything untyped becomes a 500.
func FromError(c *fiber.Ctx, err error) error {
	var e *model.Error
	if !errors.As(err, &e) {
		return ServiceError(c, "Internal server error")
	}

	switch e.Kind {
	case model.KindInvalidRequest:
		return ValidationError(c, e.Message, e.Details)
	case model.KindUnauthorized:
		return Unauthorized(c, e.Message)
	case model.KindNotFound:
		return NotFound(c, e.Message)
	case model.KindTransient:
		return Error(c, fiber.StatusServiceUnavailable, CodeTransientError, e.Message, e.Details)
	case model.KindUpstream:
		status := e.Status
		if status < 400 || status > 599 {
			status = fiber.StatusBadGateway
		}
		return Error(c, status, CodeUpstreamError, e.Message, e.Details)
	default:
		return ServiceError(c, e.Message)
	}
}

func ValidationError(c *fiber.Ctx, message string, details interface{}) error {
	return Error(c, fiber.StatusBadRequest, CodeValidationError, message, details)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, CodeNotFound, message, nil)
}

func RateLimited(c *fiber.Ctx) error {
	return Error(c, fiber.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded", nil)
}

func ServiceError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, CodeServiceError, message, nil)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}
