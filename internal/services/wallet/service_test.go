package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/events"
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/repositories/testdb"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetWallet(ctx context.Context, userID uint) (*models.Wallet, bool, error) {
	args := m.Called(ctx, userID)
	w, _ := args.Get(0).(*models.Wallet)
	return w, args.Bool(1), args.Error(2)
}

func (m *MockCache) CacheWallet(ctx context.Context, wallet *models.Wallet) error {
	return m.Called(ctx, wallet).Error(0)
}

func (m *MockCache) CacheWalletIfAbsent(ctx context.Context, wallet *models.Wallet) (bool, error) {
	args := m.Called(ctx, wallet)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) DeleteWallet(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func setup(t *testing.T) (repositories.LedgerRepository, *models.User) {
	t.Helper()
	db := testdb.Open(t)
	user := &models.User{Name: "Ama", Email: "ama@example.com", Phone: "0241112222", Password: "x"}
	require.NoError(t, repositories.NewUserRepository(db).Create(context.Background(), user, "GHS"))
	return repositories.NewLedgerRepository(db), user
}

func TestCanAfford(t *testing.T) {
	w := &models.Wallet{Balance: decimal.NewFromInt(50)}

	tests := []struct {
		name   string
		wallet *models.Wallet
		amount decimal.Decimal
		want   bool
	}{
		{"less than balance", w, decimal.NewFromInt(25), true},
		{"exact balance", w, decimal.NewFromInt(50), true},
		{"exceeds balance", w, decimal.RequireFromString("50.01"), false},
		{"zero", w, decimal.Zero, true},
		{"negative amount", w, decimal.NewFromInt(-1), false},
		{"nil wallet", nil, decimal.NewFromInt(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAfford(tt.wallet, tt.amount))
		})
	}
}

func TestRecordAppliesSignedAmount(t *testing.T) {
	repo, user := setup(t)
	ctx := context.Background()

	var deposit, purchase *models.Transaction
	err := repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		w, err := tx.GetWalletForUpdate(ctx, user.ID)
		require.NoError(t, err)

		deposit, err = Record(ctx, tx, w, Entry{
			Type: models.TransactionTypeDeposit, Amount: decimal.NewFromInt(50), Reference: "DEP-A",
		})
		require.NoError(t, err)
		purchase, err = Record(ctx, tx, w, Entry{
			Type: models.TransactionTypePurchase, Amount: decimal.NewFromInt(25), Reference: "TXN-A",
		})
		return err
	})
	require.NoError(t, err)

	assert.True(t, deposit.Balanced())
	assert.True(t, purchase.Balanced())
	assert.Equal(t, "50.00", purchase.BalanceBefore.StringFixed(2))
	assert.Equal(t, "25.00", purchase.BalanceAfter.StringFixed(2))
	assert.Equal(t, models.TransactionStatusCompleted, purchase.Status)

	w, err := repo.GetWallet(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", w.Balance.StringFixed(2))
}

func TestRecordRejectsOverdraft(t *testing.T) {
	repo, user := setup(t)
	ctx := context.Background()

	err := repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		w, err := tx.GetWalletForUpdate(ctx, user.ID)
		require.NoError(t, err)
		_, err = Record(ctx, tx, w, Entry{
			Type: models.TransactionTypePurchase, Amount: decimal.NewFromInt(1), Reference: "TXN-B",
		})
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	_, err = repo.GetTransactionByReference(ctx, "TXN-B")
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
}

func TestRecordValidatesEntry(t *testing.T) {
	repo, user := setup(t)
	ctx := context.Background()
	w, err := repo.GetWallet(ctx, user.ID)
	require.NoError(t, err)

	_, err = Record(ctx, repo, w, Entry{Type: models.TransactionTypeDeposit, Amount: decimal.Zero, Reference: "X"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	_, err = Record(ctx, repo, w, Entry{Type: models.TransactionTypeDeposit, Amount: decimal.NewFromInt(1)})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = Record(ctx, repo, nil, Entry{Type: models.TransactionTypeDeposit, Amount: decimal.NewFromInt(1), Reference: "X"})
	assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
}

func TestDeposit(t *testing.T) {
	repo, user := setup(t)
	ctx := context.Background()
	cache := new(MockCache)
	cache.On("CacheWallet", mock.Anything, mock.MatchedBy(func(w *models.Wallet) bool {
		return w.UserID == user.ID && w.Balance.Equal(decimal.RequireFromString("40.50"))
	})).Return(nil).Once()
	svc := NewService(repo, cache, nil, nil, nil, nil)

	res, err := svc.Deposit(ctx, DepositRequest{
		UserID: user.ID, Amount: decimal.RequireFromString("40.50"), Reference: "PSK-123",
		PaymentMethod: models.PaymentMethodPaystack,
	})
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, "40.50", res.Balance.StringFixed(2))
	assert.Equal(t, models.TransactionTypeDeposit, res.Transaction.Type)
	assert.Equal(t, "Wallet deposit via Paystack", res.Transaction.Description)
	cache.AssertExpectations(t)

	t.Run("same reference credits once", func(t *testing.T) {
		again, err := svc.Deposit(ctx, DepositRequest{
			UserID: user.ID, Amount: decimal.RequireFromString("40.50"), Reference: "PSK-123",
		})
		require.NoError(t, err)
		assert.True(t, again.Duplicate)
		assert.Equal(t, res.Transaction.ID, again.Transaction.ID)

		w, err := repo.GetWallet(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "40.50", w.Balance.StringFixed(2))
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.Deposit(ctx, DepositRequest{UserID: user.ID, Amount: decimal.NewFromInt(-5), Reference: "R"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

		_, err = svc.Deposit(ctx, DepositRequest{UserID: user.ID, Amount: decimal.RequireFromString("0.004"), Reference: "R-SCALE"})
		assert.ErrorIs(t, err, apperrors.ErrAmountPrecision)

		_, err = svc.Deposit(ctx, DepositRequest{UserID: user.ID, Amount: decimal.NewFromInt(5), Reference: "  "})
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Deposit(ctx, DepositRequest{UserID: 999, Amount: decimal.NewFromInt(5), Reference: "R-999"})
		assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
	})
}

func TestDepositReferenceOwnedByAnotherEntry(t *testing.T) {
	repo, user := setup(t)
	ctx := context.Background()
	svc := NewService(repo, nil, nil, nil, nil, nil)

	err := repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		w, err := tx.GetWalletForUpdate(ctx, user.ID)
		require.NoError(t, err)
		_, err = Record(ctx, tx, w, Entry{Type: models.TransactionTypeAdjustment, Amount: decimal.NewFromInt(3), Reference: "SHARED"})
		return err
	})
	require.NoError(t, err)

	_, err = svc.Deposit(ctx, DepositRequest{UserID: user.ID, Amount: decimal.NewFromInt(5), Reference: "SHARED"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateReference)
}

func TestGetBalance(t *testing.T) {
	repo, user := setup(t)
	ctx := context.Background()

	t.Run("cache hit", func(t *testing.T) {
		cache := new(MockCache)
		cache.On("GetWallet", mock.Anything, user.ID).
			Return(&models.Wallet{UserID: user.ID, Balance: decimal.NewFromInt(7), Currency: "GHS"}, true, nil)
		svc := NewService(repo, cache, nil, nil, nil, nil)

		b, err := svc.GetBalance(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "7.00", b.Balance.StringFixed(2))
		cache.AssertNotCalled(t, "CacheWallet", mock.Anything, mock.Anything)
	})

	t.Run("cache miss reads database and fills cache", func(t *testing.T) {
		cache := new(MockCache)
		cache.On("GetWallet", mock.Anything, user.ID).Return(nil, false, nil)
		cache.On("CacheWalletIfAbsent", mock.Anything, mock.AnythingOfType("*models.Wallet")).Return(true, nil)
		svc := NewService(repo, cache, nil, nil, nil, nil)

		b, err := svc.GetBalance(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, b.Balance.IsZero())
		assert.Equal(t, "GHS", b.Currency)
		cache.AssertExpectations(t)
	})

	t.Run("cache failure falls back to database", func(t *testing.T) {
		cache := new(MockCache)
		cache.On("GetWallet", mock.Anything, user.ID).Return(nil, false, errors.New("redis down"))
		cache.On("CacheWalletIfAbsent", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
		svc := NewService(repo, cache, nil, nil, nil, nil)

		_, err := svc.GetBalance(ctx, user.ID)
		assert.NoError(t, err)
	})
}

// memoryCache mimics the redis wallet cache; beforeFill runs at the start of
// every conditional fill.
type memoryCache struct {
	mu         sync.Mutex
	wallets    map[uint]models.Wallet
	beforeFill func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{wallets: make(map[uint]models.Wallet)}
}

func (c *memoryCache) GetWallet(_ context.Context, userID uint) (*models.Wallet, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.wallets[userID]
	if !ok {
		return nil, false, nil
	}
	return &w, true, nil
}

func (c *memoryCache) CacheWallet(_ context.Context, w *models.Wallet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wallets[w.UserID] = *w
	return nil
}

func (c *memoryCache) CacheWalletIfAbsent(_ context.Context, w *models.Wallet) (bool, error) {
	if c.beforeFill != nil {
		c.beforeFill()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.wallets[w.UserID]; ok {
		return false, nil
	}
	c.wallets[w.UserID] = *w
	return true, nil
}

func (c *memoryCache) DeleteWallet(_ context.Context, userID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.wallets, userID)
	return nil
}

func TestBalanceReadRacingDepositKeepsCommittedBalance(t *testing.T) {
	repo, user := setup(t)
	ctx := context.Background()

	paused := make(chan struct{})
	resume := make(chan struct{})
	var once sync.Once
	cache := newMemoryCache()
	cache.beforeFill = func() {
		once.Do(func() {
			close(paused)
			<-resume
		})
	}
	svc := NewService(repo, cache, nil, nil, nil, nil)

	read := make(chan *Balance, 1)
	go func() {
		b, err := svc.GetBalance(ctx, user.ID)
		assert.NoError(t, err)
		read <- b
	}()

	// The reader has loaded the old balance and is about to fill the cache.
	<-paused
	_, err := svc.Deposit(ctx, DepositRequest{UserID: user.ID, Amount: decimal.NewFromInt(60), Reference: "DEP-RACE"})
	require.NoError(t, err)
	close(resume)

	stale := <-read
	require.NotNil(t, stale)
	assert.True(t, stale.Balance.IsZero())

	b, err := svc.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "60.00", b.Balance.StringFixed(2))
}

func TestCacheWriteFailureDropsEntry(t *testing.T) {
	repo, user := setup(t)
	cache := new(MockCache)
	cache.On("CacheWallet", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()
	cache.On("DeleteWallet", mock.Anything, user.ID).Return(nil).Once()
	svc := NewService(repo, cache, nil, nil, nil, nil)

	_, err := svc.Deposit(context.Background(), DepositRequest{UserID: user.ID, Amount: decimal.NewFromInt(5), Reference: "DEP-FAIL"})
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestDepositReleasesLockBeforePublishing(t *testing.T) {
	repo, user := setup(t)
	locker := NewUserLocker()
	publisher := &blockingPublisher{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(repo, nil, locker, publisher, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Deposit(context.Background(), DepositRequest{UserID: user.ID, Amount: decimal.NewFromInt(5), Reference: "DEP-EVT"})
		done <- err
	}()
	<-publisher.started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := locker.Lock(ctx, user.ID)
	require.NoError(t, err)
	unlock()

	close(publisher.release)
	require.NoError(t, <-done)
}

type blockingPublisher struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (p *blockingPublisher) Publish(context.Context, events.Event) error {
	p.once.Do(func() { close(p.started) })
	<-p.release
	return nil
}

func (p *blockingPublisher) Close() error { return nil }

func TestUserLocker(t *testing.T) {
	l := NewUserLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, 1)
	require.NoError(t, err)

	t.Run("other users do not contend", func(t *testing.T) {
		other, err := l.Lock(ctx, 2)
		require.NoError(t, err)
		other()
	})

	t.Run("same user waits until context ends", func(t *testing.T) {
		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := l.Lock(waitCtx, 1)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.ErrorIs(t, err, apperrors.ErrWalletBusy)
		assert.True(t, apperrors.IsRetryable(err))
	})

	unlock()
	unlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(ctx, 1)
			if err != nil {
				return
			}
			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			holders--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)

	l.mu.Lock()
	assert.Empty(t, l.locks)
	l.mu.Unlock()
}
