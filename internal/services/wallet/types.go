package wallet

import (
	"context"
	"time"

	"bundlehub/internal/models"

	"github.com/shopspring/decimal"
)

// Entry describes one ledger movement to be applied by Record.
type Entry struct {
	Type          models.TransactionType
	Amount        decimal.Decimal
	Description   string
	Reference     string
	PaymentMethod string
	OrderID       *uint
	ProcessedBy   *uint
	Metadata      models.JSON
}

// DepositRequest credits a wallet with funds confirmed by a payment provider
// or an administrator. Reference is the provider's reference and makes the
// deposit idempotent.
type DepositRequest struct {
	UserID        uint
	Amount        decimal.Decimal
	Reference     string
	Description   string
	PaymentMethod string
	ProcessedBy   *uint
	Metadata      models.JSON
}

type DepositResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Balance     decimal.Decimal     `json:"balance"`
	// Duplicate is set when Reference had already been credited; no money moved.
	Duplicate bool `json:"duplicate"`
}

type Balance struct {
	UserID   uint            `json:"userId"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

type TransactionPage struct {
	Transactions []models.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordCacheHit()
	RecordCacheMiss()
	RecordLedgerAmount(txType string, amount float64)
}

// Cache is the wallet balance cache. A miss is (nil, false, nil).
// Writers store committed wallets with CacheWallet while holding the user's
// lock; readers fill misses with CacheWalletIfAbsent.
type Cache interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, bool, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	CacheWalletIfAbsent(ctx context.Context, wallet *models.Wallet) (bool, error)
	DeleteWallet(ctx context.Context, userID uint) error
}
