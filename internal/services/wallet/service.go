package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/events"
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"

	"go.uber.org/zap"
)

type Service struct {
	repo      repositories.LedgerRepository
	cache     Cache
	locker    *UserLocker
	publisher events.Publisher
	metrics   MetricsCollector
	log       *zap.Logger
}

// NewService creates a new wallet service. cache, publisher and metrics are
// optional; locker must be shared with every other service that moves money.
func NewService(
	repo repositories.LedgerRepository,
	cache Cache,
	locker *UserLocker,
	publisher events.Publisher,
	metrics MetricsCollector,
	log *zap.Logger,
) *Service {
	if repo == nil {
		panic("repo is required")
	}
	if locker == nil {
		locker = NewUserLocker()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		repo:      repo,
		cache:     cache,
		locker:    locker,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

func (s *Service) Locker() *UserLocker {
	return s.locker
}

// GetBalance returns the wallet balance, served from cache when present.
func (s *Service) GetBalance(ctx context.Context, userID uint) (*Balance, error) {
	if s.cache != nil {
		w, found, err := s.cache.GetWallet(ctx, userID)
		if err != nil {
			s.log.Warn("wallet cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		if found {
			s.metrics.RecordCacheHit()
			return &Balance{UserID: userID, Balance: w.Balance, Currency: w.Currency}, nil
		}
		s.metrics.RecordCacheMiss()
	}

	w, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	// A writer that committed after our read has already stored its wallet;
	// the conditional write leaves that entry in place.
	if s.cache != nil {
		if _, err := s.cache.CacheWalletIfAbsent(ctx, w); err != nil {
			s.log.Warn("failed to cache wallet", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	return &Balance{UserID: userID, Balance: w.Balance, Currency: w.Currency}, nil
}

func (s *Service) ListTransactions(ctx context.Context, userID uint, limit, offset int) (*TransactionPage, error) {
	txs, total, err := s.repo.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &TransactionPage{Transactions: txs, Total: total, Limit: limit, Offset: offset}, nil
}

// Deposit credits req.Amount once per req.Reference. Replaying a reference
// that already credited this user returns the original entry with Duplicate set.
func (s *Service) Deposit(ctx context.Context, req DepositRequest) (*DepositResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OperationDeposit, time.Since(start))
	}()

	if req.UserID == 0 {
		return nil, apperrors.Validation("MISSING_USER", "user id is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, apperrors.ErrAmountPrecision
	}
	req.Reference = strings.TrimSpace(req.Reference)
	if req.Reference == "" {
		return nil, apperrors.Validation("MISSING_REFERENCE", "deposit reference is required")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentMethodManual
	}
	if req.Description == "" {
		req.Description = fmt.Sprintf("Wallet deposit via %s", req.PaymentMethod)
	}

	result, err := s.credit(ctx, req)
	if err != nil {
		s.metrics.RecordOperationResult(OperationDeposit, ResultError)
		s.log.Error("deposit failed",
			zap.Uint("user_id", req.UserID),
			zap.String("reference", req.Reference),
			zap.Error(err))
		return nil, err
	}

	if result.Duplicate {
		s.metrics.RecordOperationResult(OperationDeposit, ResultDuplicate)
		s.log.Info("deposit reference already credited",
			zap.Uint("user_id", req.UserID),
			zap.String("reference", req.Reference))
		return result, nil
	}

	s.metrics.RecordOperationResult(OperationDeposit, ResultSuccess)
	s.metrics.RecordLedgerAmount(string(models.TransactionTypeDeposit), req.Amount.InexactFloat64())
	events.Emit(ctx, s.publisher, s.log, events.New(events.WalletCredited, fmt.Sprintf("user:%d", req.UserID), result.Transaction))

	s.log.Info("wallet credited",
		zap.Uint("user_id", req.UserID),
		zap.String("reference", req.Reference),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("balance", result.Balance.StringFixed(2)))
	return result, nil
}

// credit applies the deposit under the user's lock and stores the committed
// wallet in the cache before releasing it.
func (s *Service) credit(ctx context.Context, req DepositRequest) (*DepositResult, error) {
	unlock, err := s.locker.Lock(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		result    *DepositResult
		committed *models.Wallet
	)
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		existing, err := tx.GetTransactionByReference(ctx, req.Reference)
		switch {
		case err == nil:
			dup, err := duplicateDeposit(ctx, tx, existing, req.UserID)
			result = dup
			return err
		case !apperrors.Is(err, apperrors.ErrTransactionNotFound):
			return err
		}

		w, err := tx.GetWalletForUpdate(ctx, req.UserID)
		if err != nil {
			return err
		}
		entry, err := Record(ctx, tx, w, Entry{
			Type:          models.TransactionTypeDeposit,
			Amount:        req.Amount,
			Description:   req.Description,
			Reference:     req.Reference,
			PaymentMethod: req.PaymentMethod,
			ProcessedBy:   req.ProcessedBy,
			Metadata:      req.Metadata,
		})
		if err != nil {
			return err
		}
		result = &DepositResult{Transaction: entry, Balance: w.Balance}
		committed = w
		return nil
	})

	// Another process inserted the same reference between our read and write.
	if apperrors.Is(err, apperrors.ErrDuplicateReference) {
		existing, lookupErr := s.repo.GetTransactionByReference(ctx, req.Reference)
		if lookupErr == nil {
			return duplicateDeposit(ctx, s.repo, existing, req.UserID)
		}
	}
	if err != nil {
		return nil, err
	}

	StoreCache(ctx, s.cache, s.log, committed)
	return result, nil
}

// duplicateDeposit accepts an existing entry only if it is this user's deposit.
func duplicateDeposit(ctx context.Context, repo repositories.LedgerRepository, existing *models.Transaction, userID uint) (*DepositResult, error) {
	if existing.UserID != userID || existing.Type != models.TransactionTypeDeposit {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateReference,
			"reference %s is already used by another transaction", existing.Reference)
	}
	w, err := repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &DepositResult{Transaction: existing, Balance: w.Balance, Duplicate: true}, nil
}
