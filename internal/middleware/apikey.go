package middleware

import (
	"context"
	"errors"
	"time"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const HeaderAPIKey = "X-API-Key"

// KeyResolver finds the active user owning an API key.
type KeyResolver interface {
	ResolveAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// APIKeyMiddleware authenticates developer API calls and records each one in api_logs.
type APIKeyMiddleware struct {
	keys KeyResolver
	logs repositories.APILogRepository
	log  *zap.Logger
}

func NewAPIKeyMiddleware(keys KeyResolver, logs repositories.APILogRepository, log *zap.Logger) *APIKeyMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &APIKeyMiddleware{keys: keys, logs: logs, log: log}
}

func (m *APIKeyMiddleware) Handler(c *fiber.Ctx) error {
	key := c.Get(HeaderAPIKey)
	if key == "" {
		return response.Unauthorized(c, "missing API key")
	}

	user, err := m.keys.ResolveAPIKey(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidAPIKey) {
			return response.Unauthorized(c, "invalid API key")
		}
		m.log.Error("api key lookup failed", zap.Error(err))
		return response.ServerError(c, "failed to verify API key")
	}

	c.Locals("apiUser", user)
	c.Locals("userID", user.ID)

	start := time.Now()
	err = c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	entry := &models.APILog{
		UserID:     user.ID,
		Method:     c.Method(),
		Path:       c.Path(),
		Status:     status,
		DurationMs: time.Since(start).Milliseconds(),
		IP:         c.IP(),
		RequestID:  c.GetRespHeader(fiber.HeaderXRequestID),
	}
	if logErr := m.logs.Create(c.UserContext(), entry); logErr != nil {
		m.log.Warn("failed to record api call", zap.Uint("user_id", user.ID), zap.Error(logErr))
	}
	return err
}

// APIUser returns the user stored by APIKeyMiddleware.
func APIUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals("apiUser").(*models.User)
	return user, ok && user != nil
}
