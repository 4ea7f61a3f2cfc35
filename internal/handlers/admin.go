package handlers

import (
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/services/wallet"
	"bundlehub/internal/utils"
	"bundlehub/internal/utils/response"
	"bundlehub/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	orderService  OrderService
	walletService WalletService
	bundles       repositories.BundleRepository
	validate      *validation.Validator
}

func NewAdminHandler(orderService OrderService, walletService WalletService, bundles repositories.BundleRepository, validate *validation.Validator) *AdminHandler {
	return &AdminHandler{
		orderService:  orderService,
		walletService: walletService,
		bundles:       bundles,
		validate:      validate,
	}
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing completed failed refunded"`
}

type adminDepositRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Reference     string          `json:"reference" validate:"omitempty,max=100"`
	Description   string          `json:"description" validate:"omitempty,max=500"`
	PaymentMethod string          `json:"paymentMethod" validate:"omitempty,max=32"`
}

type bundleRequest struct {
	Type     string          `json:"type" validate:"required,bundletype"`
	Capacity int             `json:"capacity" validate:"gte=0"`
	Price    decimal.Decimal `json:"price" validate:"required"`
	Name     string          `json:"name" validate:"max=100"`
}

type updateBundleRequest struct {
	Price    *decimal.Decimal `json:"price"`
	Name     *string          `json:"name" validate:"omitempty,max=100"`
	IsActive *bool            `json:"isActive"`
}

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	p := utils.GetPagination(c, 1, defaultPageLimit)
	page, err := h.orderService.ListOrders(c.UserContext(), orderFilter(c, nil, p))
	if err != nil {
		return err
	}
	p.SetTotal(page.Total)
	return response.Success(c, "", utils.NewPaginatedResponse(page.Orders, p))
}

func (h *AdminHandler) SetOrderStatus(c *fiber.Ctx) error {
	admin, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req setStatusRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	change, err := h.orderService.SetOrderStatus(c.UserContext(), id, req.Status, admin.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "Order status updated", change)
}

func (h *AdminHandler) RefundOrder(c *fiber.Ctx) error {
	admin, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	change, err := h.orderService.Refund(c.UserContext(), id, admin.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "Order refunded", change)
}

// DepositToUser credits a user's wallet by hand. Supplying a reference makes
// the call safe to repeat.
func (h *AdminHandler) DepositToUser(c *fiber.Ctx) error {
	admin, err := currentUser(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req adminDepositRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	if req.Reference == "" {
		req.Reference = utils.NewReference(utils.PrefixDeposit)
	}
	if req.Description == "" {
		req.Description = "Admin deposit"
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentMethodManual
	}

	result, err := h.walletService.Deposit(c.UserContext(), wallet.DepositRequest{
		UserID:        userID,
		Amount:        req.Amount,
		Reference:     req.Reference,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		ProcessedBy:   &admin.UserID,
	})
	if err != nil {
		return err
	}
	return response.Success(c, "Deposit recorded", result)
}

func (h *AdminHandler) CreateBundle(c *fiber.Ctx) error {
	var req bundleRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	if !req.Price.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "price must be greater than 0")
	}

	bundle := &models.Bundle{
		Type:     models.BundleType(req.Type),
		Capacity: req.Capacity,
		Price:    req.Price.Round(2),
		Name:     req.Name,
		IsActive: true,
	}
	if err := h.bundles.Create(c.UserContext(), bundle); err != nil {
		return err
	}
	return response.Created(c, "Bundle created", bundle)
}

func (h *AdminHandler) UpdateBundle(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req updateBundleRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	bundle, err := h.bundles.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "price must be greater than 0")
		}
		bundle.Price = req.Price.Round(2)
	}
	if req.Name != nil {
		bundle.Name = *req.Name
	}
	if req.IsActive != nil {
		bundle.IsActive = *req.IsActive
	}

	if err := h.bundles.Update(c.UserContext(), bundle); err != nil {
		return err
	}
	return response.Success(c, "Bundle updated", bundle)
}

func (h *AdminHandler) DeactivateBundle(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.bundles.SetActive(c.UserContext(), id, false); err != nil {
		return err
	}
	return response.Success(c, "Bundle deactivated", nil)
}
