package payment

import (
	"context"
	"strconv"

	"bundlehub/internal/models"
	"bundlehub/internal/services/wallet"

	"github.com/shopspring/decimal"
)

const (
	ProviderPaystack = "paystack"
	ProviderStripe   = "stripe"
)

// VerifiedPayment is a provider's confirmed view of one payment. Amount is in
// major currency units.
type VerifiedPayment struct {
	Provider  string          `json:"provider"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Paid      bool            `json:"paid"`
	Email     string          `json:"email,omitempty"`
	// UserID is the user recorded in the payment metadata, when present.
	UserID *uint `json:"userId,omitempty"`
}

type Verifier interface {
	Verify(ctx context.Context, reference string) (*VerifiedPayment, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

type Depositor interface {
	Deposit(ctx context.Context, req wallet.DepositRequest) (*wallet.DepositResult, error)
}

// minorToMajor converts kobo/pesewas/cents to the major unit.
func minorToMajor(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

func majorToMinor(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func parseUserID(v interface{}) *uint {
	var n uint64
	switch t := v.(type) {
	case float64:
		if t <= 0 {
			return nil
		}
		n = uint64(t)
	case string:
		parsed, err := strconv.ParseUint(t, 10, 64)
		if err != nil || parsed == 0 {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	id := uint(n)
	return &id
}
