package order

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/repositories/testdb"
	"bundlehub/internal/services/delivery"
	"bundlehub/internal/services/wallet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) DeliverBundle(ctx context.Context, req delivery.Request) (delivery.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(delivery.Result), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyOrderStatus(ctx context.Context, o *models.Order, owner *models.User, previous models.OrderStatus) error {
	return m.Called(ctx, o.Status, owner, previous).Error(0)
}

type fixture struct {
	db        *gorm.DB
	repo      repositories.LedgerRepository
	wallets   *wallet.Service
	svc       *Service
	deliverer *MockDeliverer
	notifier  *MockNotifier
	user      *models.User
}

func newFixture(t *testing.T, balance string) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testdb.Open(t)
	repo := repositories.NewLedgerRepository(db)
	bundles := repositories.NewBundleRepository(db)

	for _, b := range []models.Bundle{
		{Type: models.BundleMTNUp2U, Capacity: 1000, Price: decimal.NewFromInt(25), Name: "MTN 1GB"},
		{Type: models.BundleMTNUp2U, Capacity: 5000, Price: decimal.NewFromInt(60), Name: "MTN 5GB"},
		{Type: models.BundleATIShare, Capacity: 2000, Price: decimal.NewFromInt(12), Name: "AT 2GB"},
		{Type: models.BundleAfARegistration, Capacity: 0, Price: decimal.NewFromInt(15), Name: "AfA"},
	} {
		b := b
		require.NoError(t, bundles.Create(ctx, &b))
	}

	user := &models.User{Name: "Yaw", Email: "yaw@example.com", Phone: "+233201112222", Password: "x"}
	require.NoError(t, repositories.NewUserRepository(db).Create(ctx, user, "GHS"))

	locker := wallet.NewUserLocker()
	wallets := wallet.NewService(repo, nil, locker, nil, nil, nil)
	if balance != "0" {
		_, err := wallets.Deposit(ctx, wallet.DepositRequest{
			UserID: user.ID, Amount: decimal.RequireFromString(balance), Reference: "DEP-SEED",
		})
		require.NoError(t, err)
	}

	deliverer := new(MockDeliverer)
	notifier := new(MockNotifier)
	svc := NewService(Dependencies{
		Repo:      repo,
		Bundles:   bundles,
		Deliverer: deliverer,
		Notifier:  notifier,
		Locker:    locker,
	})
	return &fixture{db: db, repo: repo, wallets: wallets, svc: svc, deliverer: deliverer, notifier: notifier, user: user}
}

func (f *fixture) balance(t *testing.T) string {
	t.Helper()
	w, err := f.repo.GetWallet(context.Background(), f.user.ID)
	require.NoError(t, err)
	return w.Balance.StringFixed(2)
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	_, total, err := f.repo.ListOrders(context.Background(), repositories.OrderFilter{})
	require.NoError(t, err)
	return total
}

func (f *fixture) transactionCount(t *testing.T) int64 {
	t.Helper()
	_, total, err := f.repo.ListTransactions(context.Background(), f.user.ID, 0, 0)
	require.NoError(t, err)
	return total
}

func (f *fixture) placeMTN(capacity int) (*PlaceOrderResult, error) {
	return f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: f.user.ID, RecipientNumber: "0241234567", Capacity: capacity, BundleType: models.BundleMTNUp2U,
	})
}

func TestPlaceOrderDebitsWallet(t *testing.T) {
	f := newFixture(t, "50")

	res, err := f.placeMTN(1000)
	require.NoError(t, err)

	assert.Equal(t, "25.00", res.Balance.StringFixed(2))
	assert.Equal(t, "25.00", f.balance(t))

	tx := res.Transaction
	assert.Equal(t, models.TransactionTypePurchase, tx.Type)
	assert.Equal(t, "50.00", tx.BalanceBefore.StringFixed(2))
	assert.Equal(t, "25.00", tx.BalanceAfter.StringFixed(2))
	assert.True(t, tx.BalanceAfter.Equal(res.Balance))
	assert.Equal(t, models.PaymentMethodWallet, tx.PaymentMethod)
	assert.Equal(t, "Bundle purchase: 1000MB for 0241234567", tx.Description)
	assert.True(t, strings.HasPrefix(tx.Reference, "TXN-"))
	require.NotNil(t, tx.OrderID)
	assert.Equal(t, res.Order.ID, *tx.OrderID)

	stored, err := f.repo.GetOrder(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, stored.Status)
	assert.Equal(t, tx.Reference, stored.TransactionReference)
	assert.True(t, strings.HasPrefix(stored.OrderReference, "ORD-"))
	assert.Equal(t, "25.00", stored.Price.StringFixed(2))
	f.deliverer.AssertNotCalled(t, "DeliverBundle", mock.Anything, mock.Anything)
}

func TestPlaceOrderIgnoresClientPrice(t *testing.T) {
	f := newFixture(t, "50")
	cheap := decimal.NewFromInt(1)

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: f.user.ID, RecipientNumber: "0241234567", Capacity: 1000,
		BundleType: models.BundleMTNUp2U, Price: &cheap, Channel: ChannelAPI,
	})
	require.NoError(t, err)
	assert.Equal(t, "25.00", res.Transaction.Amount.StringFixed(2))
	assert.True(t, strings.HasPrefix(res.Transaction.Reference, "API-TXN-"))
	assert.True(t, strings.HasPrefix(res.Transaction.Description, "API: "))
	assert.Equal(t, "api", res.Order.Metadata["channel"])
}

func TestPlaceOrderInsufficientFunds(t *testing.T) {
	f := newFixture(t, "10")

	_, err := f.placeMTN(1000)
	require.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, apperrors.KindInsufficientFunds, apperrors.KindOf(err))
	assert.False(t, apperrors.IsRetryable(err))

	assert.Equal(t, "10.00", f.balance(t))
	assert.Zero(t, f.orderCount(t))
	assert.Equal(t, int64(1), f.transactionCount(t))
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t, "50")
	ctx := context.Background()

	tests := []struct {
		name    string
		req     PlaceOrderRequest
		wantErr error
	}{
		{"missing recipient", PlaceOrderRequest{UserID: f.user.ID, Capacity: 1000, BundleType: models.BundleMTNUp2U}, apperrors.ErrInvalidOrder},
		{"missing capacity", PlaceOrderRequest{UserID: f.user.ID, RecipientNumber: "0241234567", BundleType: models.BundleMTNUp2U}, apperrors.ErrInvalidOrder},
		{"negative capacity", PlaceOrderRequest{UserID: f.user.ID, RecipientNumber: "0241234567", Capacity: -5, BundleType: models.BundleMTNUp2U}, apperrors.ErrInvalidOrder},
		{"bad recipient", PlaceOrderRequest{UserID: f.user.ID, RecipientNumber: "024-abc", Capacity: 1000, BundleType: models.BundleMTNUp2U}, apperrors.ErrInvalidOrder},
		{"unknown type", PlaceOrderRequest{UserID: f.user.ID, RecipientNumber: "0241234567", Capacity: 1000, BundleType: "vodafone"}, apperrors.ErrInvalidOrder},
		{"missing user", PlaceOrderRequest{RecipientNumber: "0241234567", Capacity: 1000, BundleType: models.BundleMTNUp2U}, apperrors.ErrInvalidOrder},
		{"no such bundle", PlaceOrderRequest{UserID: f.user.ID, RecipientNumber: "0241234567", Capacity: 7, BundleType: models.BundleMTNUp2U}, apperrors.ErrBundleNotFound},
		{"unknown user", PlaceOrderRequest{UserID: 999, RecipientNumber: "0241234567", Capacity: 1000, BundleType: models.BundleMTNUp2U}, apperrors.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, "50.00", f.balance(t))
	assert.Zero(t, f.orderCount(t))
}

func TestPlaceOrderWithDelivery(t *testing.T) {
	f := newFixture(t, "50")
	f.deliverer.On("DeliverBundle", mock.Anything, mock.MatchedBy(func(r delivery.Request) bool {
		return r.Recipient == "0261234567" && r.CapacityMB == 2000 && strings.HasPrefix(r.TransactionRef, "ORD-")
	})).Return(delivery.Result{
		Outcome: delivery.OutcomeDelivered, Success: true, ResponseMessage: delivery.SuccessMarker, Attempts: 1,
	}, nil)

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: f.user.ID, RecipientNumber: "0261234567", Capacity: 2000, BundleType: models.BundleATIShare,
	})
	require.NoError(t, err)
	f.deliverer.AssertExpectations(t)

	assert.Equal(t, models.OrderStatusCompleted, res.Order.Status)
	require.NotNil(t, res.Delivery)
	assert.True(t, res.Delivery.Success)
	assert.Equal(t, "38.00", f.balance(t))

	stored, err := f.repo.GetOrder(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)
	assert.Equal(t, delivery.SuccessMarker, stored.Metadata["deliveryResponse"])
}

func TestPlaceOrderDeliveryFailureRollsBack(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"provider unreachable", apperrors.Wrap(apperrors.ErrDeliveryUnavailable, errors.New("connection refused")), true},
		{"provider rejected", apperrors.WithMessage(apperrors.ErrDeliveryRejected, "ishare: Invalid recipient"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "50")
			f.deliverer.On("DeliverBundle", mock.Anything, mock.Anything).Return(delivery.Result{Outcome: delivery.OutcomeRejected}, tt.err)

			_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
				UserID: f.user.ID, RecipientNumber: "0261234567", Capacity: 2000, BundleType: models.BundleATIShare,
			})
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.retryable, apperrors.IsRetryable(err))

			assert.Equal(t, "50.00", f.balance(t))
			assert.Zero(t, f.orderCount(t))
			assert.Equal(t, int64(1), f.transactionCount(t))
		})
	}
}

func TestPlaceOrderWithoutDeliverer(t *testing.T) {
	f := newFixture(t, "50")
	f.svc.deliverer = nil

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: f.user.ID, RecipientNumber: "0261234567", Capacity: 2000, BundleType: models.BundleATIShare,
	})
	assert.ErrorIs(t, err, apperrors.ErrDeliveryUnavailable)
	assert.Equal(t, "50.00", f.balance(t))
}

func TestConcurrentPlacementsNeverOverdraw(t *testing.T) {
	f := newFixture(t, "100")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.placeMTN(5000)
		}(i)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.Is(err, apperrors.ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, "40.00", f.balance(t))
	assert.Equal(t, int64(1), f.orderCount(t))
}

func TestRefundIsIdempotent(t *testing.T) {
	f := newFixture(t, "50")
	f.notifier.On("NotifyOrderStatus", mock.Anything, models.OrderStatusRefunded, mock.Anything, models.OrderStatusProcessing).Return(nil).Once()
	ctx := context.Background()

	placed, err := f.placeMTN(1000)
	require.NoError(t, err)
	assert.Equal(t, "25.00", f.balance(t))

	change, err := f.svc.Refund(ctx, placed.Order.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, change.Refund)
	assert.Equal(t, models.OrderStatusProcessing, change.PreviousStatus)
	assert.Equal(t, models.OrderStatusRefunded, change.Order.Status)
	assert.Equal(t, "REF-"+placed.Order.OrderReference, change.Refund.Reference)
	assert.Equal(t, models.TransactionTypeRefund, change.Refund.Type)
	assert.Equal(t, "25.00", change.Refund.BalanceBefore.StringFixed(2))
	assert.Equal(t, "50.00", change.Refund.BalanceAfter.StringFixed(2))
	require.NotNil(t, change.Refund.ProcessedBy)
	assert.Equal(t, uint(7), *change.Refund.ProcessedBy)
	assert.Equal(t, "50.00", f.balance(t))

	again, err := f.svc.SetOrderStatus(ctx, placed.Order.ID, "refunded", 7)
	require.NoError(t, err)
	assert.Nil(t, again.Refund)
	assert.Equal(t, "50.00", f.balance(t))
	assert.Equal(t, int64(3), f.transactionCount(t))
	f.notifier.AssertExpectations(t)
}

func TestRefundAfterStatusChurnCreditsOnce(t *testing.T) {
	f := newFixture(t, "50")
	f.notifier.On("NotifyOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	placed, err := f.placeMTN(1000)
	require.NoError(t, err)

	for _, status := range []string{"refunded", "pending", "refunded"} {
		_, err := f.svc.SetOrderStatus(ctx, placed.Order.ID, status, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, "50.00", f.balance(t))
	assert.Equal(t, int64(3), f.transactionCount(t))
}

func TestStatusTransitionsWithoutMoney(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusFailed, models.OrderStatusPending} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, "50")
			f.notifier.On("NotifyOrderStatus", mock.Anything, status, mock.Anything, models.OrderStatusProcessing).Return(nil)

			placed, err := f.placeMTN(1000)
			require.NoError(t, err)

			change, err := f.svc.SetOrderStatus(context.Background(), placed.Order.ID, string(status), 3)
			require.NoError(t, err)
			assert.Nil(t, change.Refund)
			assert.Equal(t, status, change.Order.Status)
			require.NotNil(t, change.Order.ProcessedBy)
			assert.Equal(t, uint(3), *change.Order.ProcessedBy)

			assert.Equal(t, "25.00", f.balance(t))
			assert.Equal(t, int64(2), f.transactionCount(t))
			f.notifier.AssertExpectations(t)
		})
	}
}

func TestSetOrderStatusErrors(t *testing.T) {
	f := newFixture(t, "50")
	ctx := context.Background()
	placed, err := f.placeMTN(1000)
	require.NoError(t, err)

	_, err = f.svc.SetOrderStatus(ctx, placed.Order.ID, "shipped", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = f.svc.SetOrderStatus(ctx, 4242, "completed", 1)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestRefundMissingOwnerIsIntegrityError(t *testing.T) {
	f := newFixture(t, "50")
	ctx := context.Background()
	placed, err := f.placeMTN(1000)
	require.NoError(t, err)

	require.NoError(t, f.db.Delete(&models.User{}, f.user.ID).Error)

	_, err = f.svc.Refund(ctx, placed.Order.ID, 1)
	require.ErrorIs(t, err, apperrors.ErrOrderOwnerMissing)
	assert.Equal(t, apperrors.KindIntegrity, apperrors.KindOf(err))

	stored, err := f.repo.GetOrder(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, stored.Status)
	f.notifier.AssertNotCalled(t, "NotifyOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifierFailureKeepsTransition(t *testing.T) {
	f := newFixture(t, "50")
	f.notifier.On("NotifyOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sms gateway down"))
	ctx := context.Background()
	placed, err := f.placeMTN(1000)
	require.NoError(t, err)

	change, err := f.svc.Refund(ctx, placed.Order.ID, 1)
	require.NoError(t, err)
	assert.NotNil(t, change.Refund)
	assert.Equal(t, "50.00", f.balance(t))
}

func TestRegisterAfA(t *testing.T) {
	f := newFixture(t, "20")
	req := AfARequest{
		UserID: f.user.ID, PhoneNumber: "0245556666", FullName: "Akosua Mensah", IDType: "Ghana Card",
		IDNumber: "GHA-123", DateOfBirth: "1990-01-01", Occupation: "Trader", Location: "Kumasi",
	}

	res, err := f.svc.RegisterAfA(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, res.Order.Status)
	assert.Equal(t, models.BundleAfARegistration, res.Order.BundleType)
	assert.True(t, strings.HasPrefix(res.Order.OrderReference, "AFA-"))
	assert.Equal(t, "AFA Registration: Akosua Mensah (0245556666)", res.Transaction.Description)
	assert.Equal(t, "5.00", f.balance(t))

	stored, err := f.repo.GetOrder(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "GHA-123", stored.Metadata["idNumber"])
	assert.Equal(t, "Kumasi", stored.Metadata["location"])

	page, err := f.svc.ListOrders(context.Background(), repositories.OrderFilter{UserID: &f.user.ID, BundleType: models.BundleAfARegistration})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	t.Run("missing fields", func(t *testing.T) {
		bad := req
		bad.IDNumber = ""
		_, err := f.svc.RegisterAfA(context.Background(), bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		_, err := f.svc.RegisterAfA(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
		assert.Equal(t, "5.00", f.balance(t))
	})
}

func TestGetOrderForUser(t *testing.T) {
	f := newFixture(t, "50")
	placed, err := f.placeMTN(1000)
	require.NoError(t, err)

	o, err := f.svc.GetOrderForUser(context.Background(), placed.Order.ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.Order.OrderReference, o.OrderReference)

	_, err = f.svc.GetOrderForUser(context.Background(), placed.Order.ID, f.user.ID+1)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestStatusNotificationRunsOutsideUserLock(t *testing.T) {
	f := newFixture(t, "50")
	ctx := context.Background()
	placed, err := f.placeMTN(1000)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	f.notifier.On("NotifyOrderStatus", mock.Anything, models.OrderStatusCompleted, mock.Anything, models.OrderStatusProcessing).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return(nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.SetOrderStatus(ctx, placed.Order.ID, "completed", 1)
		done <- err
	}()
	<-started

	depositCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err = f.wallets.Deposit(depositCtx, wallet.DepositRequest{
		UserID: f.user.ID, Amount: decimal.NewFromInt(5), Reference: "DEP-DURING-SMS",
	})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "30.00", f.balance(t))
}

func TestPlaceOrderWhileWalletBusy(t *testing.T) {
	f := newFixture(t, "50")
	unlock, err := f.wallets.Locker().Lock(context.Background(), f.user.ID)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = f.svc.PlaceOrder(ctx, PlaceOrderRequest{
		UserID: f.user.ID, RecipientNumber: "0241234567", Capacity: 1000, BundleType: models.BundleMTNUp2U,
	})
	assert.ErrorIs(t, err, apperrors.ErrWalletBusy)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, "50.00", f.balance(t))
	assert.Zero(t, f.orderCount(t))
}

type recordingCache struct {
	mu     sync.Mutex
	stored []string
}

func (c *recordingCache) GetWallet(context.Context, uint) (*models.Wallet, bool, error) {
	return nil, false, nil
}

func (c *recordingCache) CacheWallet(_ context.Context, w *models.Wallet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored = append(c.stored, w.Balance.StringFixed(2))
	return nil
}

func (c *recordingCache) CacheWalletIfAbsent(context.Context, *models.Wallet) (bool, error) {
	return false, nil
}

func (c *recordingCache) DeleteWallet(context.Context, uint) error { return nil }

func TestCommittedBalanceIsWrittenThrough(t *testing.T) {
	f := newFixture(t, "50")
	f.notifier.On("NotifyOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cache := &recordingCache{}
	bundles := repositories.NewBundleRepository(f.db)
	svc := NewService(Dependencies{
		Repo:     f.repo,
		Bundles:  bundles,
		Notifier: f.notifier,
		Locker:   f.wallets.Locker(),
		Cache:    cache,
	})

	placed, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: f.user.ID, RecipientNumber: "0241234567", Capacity: 1000, BundleType: models.BundleMTNUp2U,
	})
	require.NoError(t, err)
	_, err = svc.Refund(context.Background(), placed.Order.ID, 1)
	require.NoError(t, err)
	_, err = svc.Refund(context.Background(), placed.Order.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"25.00", "50.00"}, cache.stored)
}
