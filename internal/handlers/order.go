package handlers

import (
	"bundlehub/internal/models"
	"bundlehub/internal/services/order"
	"bundlehub/internal/utils"
	"bundlehub/internal/utils/response"
	"bundlehub/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	orderService OrderService
	validate     *validation.Validator
}

func NewOrderHandler(orderService OrderService, validate *validation.Validator) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validate:     validate,
	}
}

type placeOrderRequest struct {
	RecipientNumber string           `json:"recipientNumber" validate:"required,msisdn"`
	Capacity        int              `json:"capacity" validate:"gt=0"`
	BundleType      string           `json:"bundleType" validate:"required,bundletype"`
	Price           *decimal.Decimal `json:"price,omitempty"`
}

type afaRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,msisdn"`
	FullName    string `json:"fullName" validate:"required,max=100"`
	IDType      string `json:"idType" validate:"required"`
	IDNumber    string `json:"idNumber" validate:"required,max=50"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,max=20"`
	Occupation  string `json:"occupation" validate:"required,max=100"`
	Location    string `json:"location" validate:"required,max=100"`
}

func (r placeOrderRequest) toService(userID uint, channel order.Channel) order.PlaceOrderRequest {
	return order.PlaceOrderRequest{
		UserID:          userID,
		RecipientNumber: r.RecipientNumber,
		Capacity:        r.Capacity,
		BundleType:      models.BundleType(r.BundleType),
		Price:           r.Price,
		Channel:         channel,
	}
}

func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	var req placeOrderRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	result, err := h.orderService.PlaceOrder(c.UserContext(), req.toService(claims.UserID, order.ChannelWeb))
	if err != nil {
		return err
	}
	return response.Created(c, "Order placed successfully", result)
}

func (h *OrderHandler) MyOrders(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	p := utils.GetPagination(c, 1, defaultPageLimit)
	page, err := h.orderService.ListOrders(c.UserContext(), orderFilter(c, &claims.UserID, p))
	if err != nil {
		return err
	}
	p.SetTotal(page.Total)
	return response.Success(c, "", utils.NewPaginatedResponse(page.Orders, p))
}

// GetOrder returns one order. Admins may read any order, users only their own.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var o *models.Order
	if claims.IsAdmin() {
		o, err = h.orderService.GetOrder(c.UserContext(), id)
	} else {
		o, err = h.orderService.GetOrderForUser(c.UserContext(), id, claims.UserID)
	}
	if err != nil {
		return err
	}
	return response.Success(c, "", o)
}

func (h *OrderHandler) RegisterAfA(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	var req afaRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	result, err := h.orderService.RegisterAfA(c.UserContext(), order.AfARequest{
		UserID:      claims.UserID,
		PhoneNumber: req.PhoneNumber,
		FullName:    req.FullName,
		IDType:      req.IDType,
		IDNumber:    req.IDNumber,
		DateOfBirth: req.DateOfBirth,
		Occupation:  req.Occupation,
		Location:    req.Location,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "AfA registration submitted", result)
}

func (h *OrderHandler) MyAfARegistrations(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	p := utils.GetPagination(c, 1, defaultPageLimit)
	filter := orderFilter(c, &claims.UserID, p)
	filter.BundleType = models.BundleAfARegistration
	page, err := h.orderService.ListOrders(c.UserContext(), filter)
	if err != nil {
		return err
	}
	p.SetTotal(page.Total)
	return response.Success(c, "", utils.NewPaginatedResponse(page.Orders, p))
}
