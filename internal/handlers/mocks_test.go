package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/services/auth"
	"bundlehub/internal/services/order"
	"bundlehub/internal/services/wallet"
	"bundlehub/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetBalance(ctx context.Context, userID uint) (*wallet.Balance, error) {
	args := m.Called(ctx, userID)
	b, _ := args.Get(0).(*wallet.Balance)
	return b, args.Error(1)
}

func (m *MockWalletService) ListTransactions(ctx context.Context, userID uint, limit, offset int) (*wallet.TransactionPage, error) {
	args := m.Called(ctx, userID, limit, offset)
	p, _ := args.Get(0).(*wallet.TransactionPage)
	return p, args.Error(1)
}

func (m *MockWalletService) Deposit(ctx context.Context, req wallet.DepositRequest) (*wallet.DepositResult, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*wallet.DepositResult)
	return r, args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.PlaceOrderResult, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*order.PlaceOrderResult)
	return r, args.Error(1)
}

func (m *MockOrderService) RegisterAfA(ctx context.Context, req order.AfARequest) (*order.PlaceOrderResult, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*order.PlaceOrderResult)
	return r, args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) GetOrderForUser(ctx context.Context, id, userID uint) (*models.Order, error) {
	args := m.Called(ctx, id, userID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter repositories.OrderFilter) (*order.OrderPage, error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).(*order.OrderPage)
	return p, args.Error(1)
}

func (m *MockOrderService) SetOrderStatus(ctx context.Context, orderID uint, status string, adminID uint) (*order.StatusChange, error) {
	args := m.Called(ctx, orderID, status, adminID)
	s, _ := args.Get(0).(*order.StatusChange)
	return s, args.Error(1)
}

func (m *MockOrderService) Refund(ctx context.Context, orderID, adminID uint) (*order.StatusChange, error) {
	args := m.Called(ctx, orderID, adminID)
	s, _ := args.Get(0).(*order.StatusChange)
	return s, args.Error(1)
}

type MockDepositConfirmer struct {
	mock.Mock
}

func (m *MockDepositConfirmer) ConfirmDeposit(ctx context.Context, provider string, userID uint, reference string) (*wallet.DepositResult, error) {
	args := m.Called(ctx, provider, userID, reference)
	r, _ := args.Get(0).(*wallet.DepositResult)
	return r, args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*models.User, string, error) {
	args := m.Called(ctx, input)
	u, _ := args.Get(0).(*models.User)
	return u, args.String(1), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*models.User)
	return u, args.String(1), args.Error(2)
}

func (m *MockAuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockAuthService) GenerateAPIKey(ctx context.Context, userID uint) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) RevokeAPIKey(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAuthService) MaskedAPIKey(ctx context.Context, userID uint) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ResolveAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	args := m.Called(ctx, apiKey)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
}

// asUser stands in for the JWT middleware.
func asUser(id uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(utils.ClaimsKey, &models.UserClaims{UserID: id, Email: "user@example.com", Role: role})
		return c.Next()
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "" && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}
