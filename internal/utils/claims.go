package utils

import (
	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ClaimsKey is the fiber local the auth middleware stores token claims under.
const ClaimsKey = "claims"

// GetUserClaims returns the claims of the authenticated caller. A request that
// never passed the auth middleware yields ErrUnauthenticated.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals(ClaimsKey).(*models.UserClaims)
	if !ok || claims == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return claims, nil
}
