package handlers

import (
	"bundlehub/internal/middleware"
	"bundlehub/internal/services/auth"
	"bundlehub/internal/services/order"
	"bundlehub/internal/utils"
	"bundlehub/internal/utils/response"
	"bundlehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// DeveloperHandler serves key management for signed-in users and the
// X-API-Key authenticated developer API.
type DeveloperHandler struct {
	authService   auth.Service
	orderService  OrderService
	walletService WalletService
	validate      *validation.Validator
}

func NewDeveloperHandler(authService auth.Service, orderService OrderService, walletService WalletService, validate *validation.Validator) *DeveloperHandler {
	return &DeveloperHandler{
		authService:   authService,
		orderService:  orderService,
		walletService: walletService,
		validate:      validate,
	}
}

func (h *DeveloperHandler) GenerateKey(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	key, err := h.authService.GenerateAPIKey(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	return response.Created(c, "API key generated. Store it now, it will not be shown again", fiber.Map{
		"apiKey": key,
	})
}

func (h *DeveloperHandler) ShowKey(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	masked, err := h.authService.MaskedAPIKey(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "", fiber.Map{"apiKey": masked})
}

func (h *DeveloperHandler) RevokeKey(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.authService.RevokeAPIKey(c.UserContext(), claims.UserID); err != nil {
		return err
	}
	return response.Success(c, "API key revoked", nil)
}

func apiUserID(c *fiber.Ctx) (uint, error) {
	user, ok := middleware.APIUser(c)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	return user.ID, nil
}

func (h *DeveloperHandler) PlaceOrder(c *fiber.Ctx) error {
	userID, err := apiUserID(c)
	if err != nil {
		return err
	}

	var req placeOrderRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	result, err := h.orderService.PlaceOrder(c.UserContext(), req.toService(userID, order.ChannelAPI))
	if err != nil {
		return err
	}
	return response.Created(c, "Order placed successfully", result)
}

func (h *DeveloperHandler) ListOrders(c *fiber.Ctx) error {
	userID, err := apiUserID(c)
	if err != nil {
		return err
	}

	p := utils.GetPagination(c, 1, defaultPageLimit)
	page, err := h.orderService.ListOrders(c.UserContext(), orderFilter(c, &userID, p))
	if err != nil {
		return err
	}
	p.SetTotal(page.Total)
	return response.Success(c, "", utils.NewPaginatedResponse(page.Orders, p))
}

func (h *DeveloperHandler) GetOrder(c *fiber.Ctx) error {
	userID, err := apiUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	o, err := h.orderService.GetOrderForUser(c.UserContext(), id, userID)
	if err != nil {
		return err
	}
	return response.Success(c, "", o)
}

func (h *DeveloperHandler) GetBalance(c *fiber.Ctx) error {
	userID, err := apiUserID(c)
	if err != nil {
		return err
	}

	balance, err := h.walletService.GetBalance(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, "", balance)
}
