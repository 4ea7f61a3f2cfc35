// Package handlers exposes the ledger services over HTTP with fiber.
package handlers

import (
	"context"
	"strconv"

	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/services/order"
	"bundlehub/internal/services/payment"
	"bundlehub/internal/services/wallet"
	"bundlehub/internal/utils"
	"bundlehub/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const defaultPageLimit = 20

type WalletService interface {
	GetBalance(ctx context.Context, userID uint) (*wallet.Balance, error)
	ListTransactions(ctx context.Context, userID uint, limit, offset int) (*wallet.TransactionPage, error)
	Deposit(ctx context.Context, req wallet.DepositRequest) (*wallet.DepositResult, error)
}

type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.PlaceOrderResult, error)
	RegisterAfA(ctx context.Context, req order.AfARequest) (*order.PlaceOrderResult, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	GetOrderForUser(ctx context.Context, id, userID uint) (*models.Order, error)
	ListOrders(ctx context.Context, filter repositories.OrderFilter) (*order.OrderPage, error)
	SetOrderStatus(ctx context.Context, orderID uint, status string, adminID uint) (*order.StatusChange, error)
	Refund(ctx context.Context, orderID, adminID uint) (*order.StatusChange, error)
}

type DepositConfirmer interface {
	ConfirmDeposit(ctx context.Context, provider string, userID uint, reference string) (*wallet.DepositResult, error)
}

type PaymentInitializer interface {
	Initialize(ctx context.Context, email string, userID uint, amount decimal.Decimal) (*payment.Initialization, error)
}

// parseBody decodes the JSON body into dst and validates it.
func parseBody(c *fiber.Ctx, v *validation.Validator, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return v.Struct(c.UserContext(), dst)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func currentUser(c *fiber.Ctx) (*models.UserClaims, error) {
	return utils.GetUserClaims(c)
}

func orderFilter(c *fiber.Ctx, userID *uint, p utils.Pagination) repositories.OrderFilter {
	return repositories.OrderFilter{
		UserID:     userID,
		Status:     models.OrderStatus(c.Query("status")),
		BundleType: models.BundleType(c.Query("type")),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
}
