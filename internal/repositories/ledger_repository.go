package repositories

import (
	"context"

	"bundlehub/internal/models"
)

// OrderFilter narrows ListOrders. Zero values mean "any".
type OrderFilter struct {
	UserID     *uint
	Status     models.OrderStatus
	BundleType models.BundleType
	Limit      int
	Offset     int
}

// LedgerRepository is the unit of work boundary for every balance-affecting
// operation. Repositories handed to ExecuteInTransaction share one database
// transaction that commits when fn returns nil and rolls back otherwise.
type LedgerRepository interface {
	ExecuteInTransaction(ctx context.Context, fn func(repo LedgerRepository) error) error

	// Users and wallets
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	// GetWalletForUpdate reads the wallet holding a row lock until the
	// surrounding transaction ends.
	GetWalletForUpdate(ctx context.Context, userID uint) (*models.Wallet, error)
	SaveWallet(ctx context.Context, wallet *models.Wallet) error

	// Orders
	CreateOrder(ctx context.Context, order *models.Order) error
	SaveOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	GetOrderForUpdate(ctx context.Context, id uint) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)

	// Ledger transactions are insert-only
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error)
}
