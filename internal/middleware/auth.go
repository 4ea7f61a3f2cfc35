// Package middleware provides fiber middleware for JWT and API key authentication.
package middleware

import (
	"context"
	"strings"

	"bundlehub/internal/models"
	"bundlehub/internal/utils"
	"bundlehub/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserLookup loads the account behind a token or key.
type UserLookup interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// AuthMiddleware validates Bearer tokens and stores the claims under "claims".
type AuthMiddleware struct {
	secret string
	users  UserLookup
	log    *zap.Logger
}

func NewAuthMiddleware(secret string, users UserLookup, log *zap.Logger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthMiddleware{secret: secret, users: users, log: log}
}

// Handler rejects requests without a valid token or whose user is gone or disabled.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.log.Debug("token validation failed", zap.Error(err))
		return response.Unauthorized(c, "invalid token")
	}

	user, err := m.users.GetUser(c.UserContext(), claims.UserID)
	if err != nil || !user.IsActive {
		m.log.Info("token user rejected", zap.Uint("user_id", claims.UserID), zap.Error(err))
		return response.Unauthorized(c, "invalid token")
	}
	// Role changes take effect without a new token.
	claims.Role = user.Role

	c.Locals(utils.ClaimsKey, claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// AdminOnly requires Handler to have run and the caller to be an admin.
func AdminOnly(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}
	if !claims.IsAdmin() {
		return response.Forbidden(c, "insufficient permissions")
	}
	return c.Next()
}
