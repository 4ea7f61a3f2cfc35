package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/events"
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/services/wallet"
	"bundlehub/internal/utils"

	"go.uber.org/zap"
)

// SetOrderStatus moves an order to status on behalf of adminID. Entering
// refunded credits the price back exactly once; no other transition moves money.
func (s *Service) SetOrderStatus(ctx context.Context, orderID uint, status string, adminID uint) (change *StatusChange, err error) {
	start := time.Now()
	defer func() { s.observe(OperationSetStatus, start, err) }()

	next, ok := models.ParseOrderStatus(strings.TrimSpace(status))
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStatus, "invalid status value %q", status)
	}

	current, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	change, owner, err := s.applyStatus(ctx, orderID, current.UserID, next, adminID)
	if err != nil {
		s.log.Error("order status change failed",
			zap.Uint("order_id", orderID),
			zap.String("status", string(next)),
			zap.Uint("admin_id", adminID),
			zap.Error(err))
		return nil, err
	}

	if change.Refund != nil {
		s.metrics.RecordLedgerAmount(string(models.TransactionTypeRefund), change.Refund.Amount.InexactFloat64())
	}
	events.Emit(ctx, s.publisher, s.log, events.New(events.OrderStatusChanged, change.Order.OrderReference, change))

	s.log.Info("order status updated",
		zap.String("order_reference", change.Order.OrderReference),
		zap.String("from", string(change.PreviousStatus)),
		zap.String("to", string(next)),
		zap.Uint("admin_id", adminID),
		zap.Bool("refunded", change.Refund != nil))

	s.notify(ctx, change.Order, owner, change.PreviousStatus)
	return change, nil
}

// applyStatus runs the transition under the owner's lock. A refund's
// credited wallet is stored in the cache before the lock is released.
func (s *Service) applyStatus(ctx context.Context, orderID, ownerID uint, next models.OrderStatus, adminID uint) (*StatusChange, *models.User, error) {
	unlock, err := s.locker.Lock(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	var (
		owner    *models.User
		credited *models.Wallet
	)
	change := &StatusChange{}
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		change.PreviousStatus = o.Status

		owner, err = tx.GetUser(ctx, o.UserID)
		if err != nil && !apperrors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}

		if next == models.OrderStatusRefunded && o.Status != models.OrderStatusRefunded {
			if owner == nil {
				return apperrors.Integrity(apperrors.ErrOrderOwnerMissing.Code,
					fmt.Sprintf("cannot refund order %s: user %d no longer exists", o.OrderReference, o.UserID), err)
			}
			refund, w, err := s.refund(ctx, tx, o, adminID)
			if err != nil {
				return err
			}
			if w != nil {
				change.Refund = refund
				credited = w
			}
		}

		o.Status = next
		o.ProcessedBy = &adminID
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		change.Order = o
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	wallet.StoreCache(ctx, s.cache, s.log, credited)
	return change, owner, nil
}

// Refund is SetOrderStatus(orderID, refunded, adminID).
func (s *Service) Refund(ctx context.Context, orderID, adminID uint) (*StatusChange, error) {
	return s.SetOrderStatus(ctx, orderID, string(models.OrderStatusRefunded), adminID)
}

// refund credits o.Price under the deterministic REF- reference and returns
// the credited wallet. The wallet is nil when an earlier refund of the order
// already landed.
func (s *Service) refund(ctx context.Context, tx repositories.LedgerRepository, o *models.Order, adminID uint) (*models.Transaction, *models.Wallet, error) {
	ref := utils.RefundReference(o.OrderReference)

	existing, err := tx.GetTransactionByReference(ctx, ref)
	if err == nil {
		s.log.Warn("refund already recorded for order", zap.String("order_reference", o.OrderReference))
		return existing, nil, nil
	}
	if !apperrors.Is(err, apperrors.ErrTransactionNotFound) {
		return nil, nil, err
	}

	w, err := tx.GetWalletForUpdate(ctx, o.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrWalletNotFound) {
			return nil, nil, apperrors.Integrity(apperrors.ErrLedgerInconsistent.Code,
				fmt.Sprintf("cannot refund order %s: wallet for user %d is missing", o.OrderReference, o.UserID), err)
		}
		return nil, nil, err
	}

	entry, err := wallet.Record(ctx, tx, w, wallet.Entry{
		Type:          models.TransactionTypeRefund,
		Amount:        o.Price,
		Description:   fmt.Sprintf("Refund for order %s", o.OrderReference),
		Reference:     ref,
		PaymentMethod: models.PaymentMethodWallet,
		OrderID:       &o.ID,
		ProcessedBy:   &adminID,
	})
	if err != nil {
		return nil, nil, err
	}
	return entry, w, nil
}

func (s *Service) notify(ctx context.Context, o *models.Order, owner *models.User, previous models.OrderStatus) {
	if s.notifier == nil || o.Status == previous {
		return
	}
	if err := s.notifier.NotifyOrderStatus(ctx, o, owner, previous); err != nil {
		s.log.Warn("failed to send status notification",
			zap.String("order_reference", o.OrderReference),
			zap.String("status", string(o.Status)),
			zap.Error(err))
	}
}
