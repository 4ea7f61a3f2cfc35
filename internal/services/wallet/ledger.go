package wallet

import (
	"context"
	"fmt"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"

	"github.com/shopspring/decimal"
)

// CanAfford reports whether w covers amount. w must have been read with
// GetWalletForUpdate in the same unit of work as the debit.
func CanAfford(w *models.Wallet, amount decimal.Decimal) bool {
	if w == nil || amount.IsNegative() {
		return false
	}
	return w.Balance.GreaterThanOrEqual(amount)
}

// Record appends a completed ledger entry for w and applies its signed
// amount to the wallet. The new balance may never go below zero.
func Record(ctx context.Context, repo repositories.LedgerRepository, w *models.Wallet, e Entry) (*models.Transaction, error) {
	if w == nil {
		return nil, apperrors.ErrWalletNotFound
	}
	if e.Reference == "" {
		return nil, apperrors.Validation("MISSING_REFERENCE", "transaction reference is required")
	}
	if e.Type == models.TransactionTypeAdjustment {
		if e.Amount.IsZero() {
			return nil, apperrors.ErrInvalidAmount
		}
	} else if !e.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	tx := &models.Transaction{
		UserID:        w.UserID,
		WalletID:      w.ID,
		Type:          e.Type,
		Amount:        e.Amount,
		Currency:      w.Currency,
		Description:   e.Description,
		Status:        models.TransactionStatusCompleted,
		Reference:     e.Reference,
		OrderID:       e.OrderID,
		ProcessedBy:   e.ProcessedBy,
		PaymentMethod: e.PaymentMethod,
		Metadata:      e.Metadata,
		BalanceBefore: w.Balance,
	}
	tx.BalanceAfter = w.Balance.Add(tx.SignedAmount())
	if tx.BalanceAfter.IsNegative() {
		return nil, apperrors.ErrInsufficientBalance
	}

	if err := repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	w.Balance = tx.BalanceAfter
	if err := repo.SaveWallet(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to apply %s to wallet %d: %w", tx.Type, w.ID, err)
	}
	return tx, nil
}
