package handlers

import (
	"errors"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusFor maps a domain error kind to its HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return fiber.StatusBadRequest
	case apperrors.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindConflict:
		return fiber.StatusConflict
	case apperrors.KindInsufficientFunds:
		return fiber.StatusPaymentRequired
	case apperrors.KindDeliveryRejected:
		return fiber.StatusUnprocessableEntity
	case apperrors.KindServiceUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the fiber error handler. Domain errors keep their code,
// integrity and unknown errors are logged and hidden behind a generic message.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		var de *apperrors.DomainError
		if errors.As(err, &de) {
			status := StatusFor(de.Kind)
			if status == fiber.StatusInternalServerError {
				log.Error("request failed",
					zap.String("path", c.Path()),
					zap.String("code", de.Code),
					zap.Error(err))
				return response.Error(c, status, de.Code, "internal error", false)
			}
			return response.Error(c, status, de.Code, de.Message, apperrors.IsRetryable(de))
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.Error(c, fe.Code, codeForStatus(fe.Code), fe.Message, false)
		}

		log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return response.ServerError(c, "internal error")
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= 500 {
			return "INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
