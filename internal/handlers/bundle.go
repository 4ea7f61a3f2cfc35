package handlers

import (
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type BundleHandler struct {
	bundles repositories.BundleRepository
}

func NewBundleHandler(bundles repositories.BundleRepository) *BundleHandler {
	return &BundleHandler{bundles: bundles}
}

// ListBundles returns the active catalog, optionally narrowed by ?type=.
// Admins may pass ?all=true to include inactive bundles.
func (h *BundleHandler) ListBundles(c *fiber.Ctx) error {
	bundleType := models.BundleType(c.Query("type"))
	if bundleType != "" && !bundleType.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown bundle type")
	}

	activeOnly := true
	if claims, err := currentUser(c); err == nil && claims.IsAdmin() && c.QueryBool("all") {
		activeOnly = false
	}

	bundles, err := h.bundles.List(c.UserContext(), bundleType, activeOnly)
	if err != nil {
		return err
	}
	return response.Success(c, "", bundles)
}
