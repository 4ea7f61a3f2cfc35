package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Payment methods recorded on ledger entries.
const (
	PaymentMethodWallet   = "wallet"
	PaymentMethodManual   = "manual"
	PaymentMethodPaystack = "Paystack"
	PaymentMethodStripe   = "Stripe"
)

var ErrImmutableTransaction = errors.New("ledger transactions are append-only")

// Transaction is an append-only ledger entry. Amount is a positive magnitude
// except for adjustments, which carry their own sign.
type Transaction struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	UserID        uint              `gorm:"index;not null" json:"userId"`
	WalletID      uint              `gorm:"index;not null" json:"walletId"`
	Type          TransactionType   `gorm:"type:varchar(16);not null" json:"type"`
	Amount        decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency      string            `gorm:"not null" json:"currency"`
	Description   string            `json:"description"`
	Status        TransactionStatus `gorm:"type:varchar(16);not null" json:"status"`
	Reference     string            `gorm:"uniqueIndex;not null" json:"reference"`
	OrderID       *uint             `gorm:"index" json:"orderId,omitempty"`
	BalanceBefore decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"balanceBefore"`
	BalanceAfter  decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"balanceAfter"`
	ProcessedBy   *uint             `json:"processedBy,omitempty"`
	PaymentMethod string            `json:"paymentMethod"`
	Metadata      JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// SignedAmount is the effect the entry has on the wallet balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	switch t.Type {
	case TransactionTypeDeposit, TransactionTypeRefund:
		return t.Amount
	case TransactionTypePurchase, TransactionTypeWithdrawal:
		return t.Amount.Neg()
	default:
		return t.Amount
	}
}

// Balanced reports whether BalanceAfter-BalanceBefore equals the signed effect.
func (t *Transaction) Balanced() bool {
	return t.BalanceAfter.Sub(t.BalanceBefore).Equal(t.SignedAmount())
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableTransaction
}
