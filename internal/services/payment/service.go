// Package payment confirms wallet top-ups with external payment providers.
package payment

import (
	"context"
	"fmt"
	"strings"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"
	"bundlehub/internal/services/wallet"

	"go.uber.org/zap"
)

var paymentMethods = map[string]string{
	ProviderPaystack: models.PaymentMethodPaystack,
	ProviderStripe:   models.PaymentMethodStripe,
}

// Config.Currency is the wallet currency; payments in any other currency are refused.
type Config struct {
	Currency string
}

type Service struct {
	verifiers map[string]Verifier
	deposits  Depositor
	users     UserLookup
	currency  string
	log       *zap.Logger
}

// NewService creates a new payment service. Providers without a verifier are
// rejected by ConfirmDeposit.
func NewService(deposits Depositor, users UserLookup, verifiers map[string]Verifier, cfg Config, log *zap.Logger) *Service {
	if deposits == nil {
		panic("depositor is required")
	}
	if cfg.Currency == "" {
		cfg.Currency = "GHS"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		verifiers: verifiers,
		deposits:  deposits,
		users:     users,
		currency:  strings.ToUpper(cfg.Currency),
		log:       log,
	}
}

// ConfirmDeposit verifies reference with provider and credits userID with
// the verified amount. Confirming the same reference again is a no-op that
// returns the original credit.
func (s *Service) ConfirmDeposit(ctx context.Context, provider string, userID uint, reference string) (*wallet.DepositResult, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperrors.Validation("MISSING_REFERENCE", "missing payment reference")
	}
	verifier, ok := s.verifiers[provider]
	if !ok {
		return nil, apperrors.Validation("UNKNOWN_PROVIDER", fmt.Sprintf("payment provider %q is not supported", provider))
	}

	payment, err := verifier.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	log := s.log.With(
		zap.String("provider", provider),
		zap.String("reference", payment.Reference),
		zap.Uint("user_id", userID))

	if !payment.Paid {
		log.Info("payment not yet confirmed", zap.String("status", payment.Status))
		return nil, apperrors.WithMessage(apperrors.ErrPaymentNotConfirmed, "payment status is %s", payment.Status)
	}
	if !strings.EqualFold(payment.Currency, s.currency) {
		log.Warn("payment currency differs from wallet currency", zap.String("currency", payment.Currency))
		return nil, apperrors.Validation("CURRENCY_MISMATCH",
			fmt.Sprintf("payment currency %q does not match wallet currency %s", payment.Currency, s.currency))
	}
	if err := s.checkPayer(ctx, payment, userID); err != nil {
		log.Warn("payment cannot be attributed to user", zap.Error(err))
		return nil, err
	}

	method := paymentMethods[provider]
	return s.deposits.Deposit(ctx, wallet.DepositRequest{
		UserID:        userID,
		Amount:        payment.Amount,
		Reference:     payment.Reference,
		Description:   "Wallet funding via " + method,
		PaymentMethod: method,
		Metadata: models.JSON{
			"provider": provider,
			"currency": payment.Currency,
			"status":   payment.Status,
		},
	})
}

// checkPayer requires the payment to name userID in its metadata or, failing
// that, to carry the user's email.
func (s *Service) checkPayer(ctx context.Context, payment *VerifiedPayment, userID uint) error {
	if payment.UserID != nil {
		if *payment.UserID != userID {
			return apperrors.Validation("PAYMENT_USER_MISMATCH", "payment was made for a different account")
		}
		return nil
	}
	if payment.Email == "" || s.users == nil {
		return apperrors.Validation("PAYMENT_USER_UNKNOWN", "payment does not identify the paying account")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(payment.Email), user.Email) {
		return apperrors.Validation("PAYMENT_USER_MISMATCH", "payment was made for a different account")
	}
	return nil
}
