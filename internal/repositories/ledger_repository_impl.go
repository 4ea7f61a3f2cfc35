package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxPageSize = 100

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{
		db: db,
	}
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &ledgerRepository{db: tx}
		return fn(txRepo)
	})
}

func (r *ledgerRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *ledgerRepository) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	return r.findWallet(r.db.WithContext(ctx), userID)
}

func (r *ledgerRepository) GetWalletForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	return r.findWallet(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *ledgerRepository) findWallet(q *gorm.DB, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := q.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) SaveWallet(ctx context.Context, wallet *models.Wallet) error {
	result := r.db.WithContext(ctx).Model(wallet).Select("balance", "updated_at").Updates(wallet)
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrWalletNotFound
	}
	return nil
}

func (r *ledgerRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicateKey(err) {
			return apperrors.Wrap(apperrors.ErrDuplicateReference, err)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *ledgerRepository) SaveOrder(ctx context.Context, order *models.Order) error {
	result := r.db.WithContext(ctx).Model(order).
		Select("status", "transaction_reference", "processed_by", "metadata", "updated_at").
		Updates(order)
	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}

func (r *ledgerRepository) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return r.findOrder(r.db.WithContext(ctx), id)
}

func (r *ledgerRepository) GetOrderForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	return r.findOrder(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *ledgerRepository) findOrder(q *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := q.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *ledgerRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.BundleType != "" {
		q = q.Where("bundle_type = ?", filter.BundleType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(pageSize(filter.Limit)).
		Offset(filter.Offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		if isDuplicateKey(err) {
			return apperrors.Wrap(apperrors.ErrDuplicateReference, err)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txs []models.Transaction
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(pageSize(limit)).
		Offset(offset).
		Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txs, total, nil
}

func pageSize(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
