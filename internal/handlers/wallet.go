package handlers

import (
	"bundlehub/internal/services/payment"
	"bundlehub/internal/utils"
	"bundlehub/internal/utils/response"
	"bundlehub/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	walletService WalletService
	deposits      DepositConfirmer
	paystack      PaymentInitializer
	validate      *validation.Validator
}

// NewWalletHandler builds the wallet routes. paystack may be nil when no
// Paystack key is configured.
func NewWalletHandler(walletService WalletService, deposits DepositConfirmer, paystack PaymentInitializer, validate *validation.Validator) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		deposits:      deposits,
		paystack:      paystack,
		validate:      validate,
	}
}

type initializeDepositRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type confirmDepositRequest struct {
	Reference string `json:"reference" validate:"required,max=100"`
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	balance, err := h.walletService.GetBalance(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "", balance)
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	p := utils.GetPagination(c, 1, defaultPageLimit)
	page, err := h.walletService.ListTransactions(c.UserContext(), claims.UserID, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	p.SetTotal(page.Total)
	return response.Success(c, "", utils.NewPaginatedResponse(page.Transactions, p))
}

// InitializePaystack starts a Paystack checkout for the caller.
func (h *WalletHandler) InitializePaystack(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	if h.paystack == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "paystack is not configured")
	}

	var req initializeDepositRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	if req.Amount.LessThan(decimal.NewFromInt(validation.MinDepositAmount)) ||
		req.Amount.GreaterThan(decimal.NewFromInt(validation.MaxDepositAmount)) {
		return fiber.NewError(fiber.StatusBadRequest, "amount is out of range")
	}

	checkout, err := h.paystack.Initialize(c.UserContext(), claims.Email, claims.UserID, req.Amount)
	if err != nil {
		return err
	}
	return response.Success(c, "Payment initialized", checkout)
}

func (h *WalletHandler) VerifyPaystack(c *fiber.Ctx) error {
	return h.confirm(c, payment.ProviderPaystack)
}

func (h *WalletHandler) ConfirmStripe(c *fiber.Ctx) error {
	return h.confirm(c, payment.ProviderStripe)
}

func (h *WalletHandler) confirm(c *fiber.Ctx, provider string) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	var req confirmDepositRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	result, err := h.deposits.ConfirmDeposit(c.UserContext(), provider, claims.UserID, req.Reference)
	if err != nil {
		return err
	}

	message := "Wallet funded successfully"
	if result.Duplicate {
		message = "Payment already credited"
	}
	return response.Success(c, message, result)
}
