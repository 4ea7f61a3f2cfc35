package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultCurrency = "GHS"

// Wallet is the per-user balance. Its transaction list is the has-many
// association on wallet_id; rows are only ever appended.
type Wallet struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	UserID       uint            `gorm:"uniqueIndex;not null" json:"userId"`
	Balance      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`
	Currency     string          `gorm:"default:'GHS'" json:"currency"`
	Transactions []Transaction   `gorm:"foreignKey:WalletID" json:"-"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// Wallets open empty; funds only enter through ledger transactions.
	w.Balance = decimal.Zero
	if w.Currency == "" {
		w.Currency = DefaultCurrency
	}
	return nil
}
