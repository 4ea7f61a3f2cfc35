package order

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/events"
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/services/delivery"
	"bundlehub/internal/services/wallet"
	"bundlehub/internal/utils"

	"go.uber.org/zap"
)

var recipientPattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

// purchase is one debit-backed order, shared by PlaceOrder and RegisterAfA.
type purchase struct {
	userID      uint
	bundle      *models.Bundle
	recipient   string
	orderRef    string
	txRef       string
	description string
	metadata    models.JSON
	status      models.OrderStatus
}

// PlaceOrder debits the bundle price and records the order and its purchase
// transaction as one unit. Bundles that require delivery are credited by the
// provider before commit; any failure leaves no order, no transaction and
// an unchanged balance.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (res *PlaceOrderResult, err error) {
	start := time.Now()
	defer func() { s.observe(OperationPlaceOrder, start, err) }()

	req.RecipientNumber = strings.TrimSpace(req.RecipientNumber)
	if err := validatePlaceOrder(req); err != nil {
		return nil, err
	}

	bundle, err := s.bundles.FindActive(ctx, req.BundleType, req.Capacity)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrBundleNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrBundleNotFound,
				"no active bundle found matching type %s with capacity %dMB", req.BundleType, req.Capacity)
		}
		return nil, err
	}
	if req.Price != nil && !req.Price.Equal(bundle.Price) {
		s.log.Warn("ignoring client price that differs from catalog",
			zap.Uint("user_id", req.UserID),
			zap.String("bundle_type", string(req.BundleType)),
			zap.Int("capacity", req.Capacity),
			zap.String("client_price", req.Price.StringFixed(2)),
			zap.String("catalog_price", bundle.Price.StringFixed(2)))
	}

	txPrefix := utils.PrefixPurchase
	description := fmt.Sprintf("Bundle purchase: %dMB for %s", req.Capacity, req.RecipientNumber)
	if req.Channel == ChannelAPI {
		txPrefix = utils.PrefixAPI
		description = "API: " + description
	}
	channel := req.Channel
	if channel == "" {
		channel = ChannelWeb
	}

	status := models.OrderStatusProcessing
	if bundle.Type.RequiresDelivery() {
		status = models.OrderStatusCompleted
	}

	return s.purchase(ctx, purchase{
		userID:      req.UserID,
		bundle:      bundle,
		recipient:   req.RecipientNumber,
		orderRef:    utils.NewReference(utils.PrefixOrder),
		txRef:       utils.NewReference(txPrefix),
		description: description,
		metadata:    models.JSON{"channel": string(channel)},
		status:      status,
	})
}

// RegisterAfA charges the AfA registration fee from the catalog and stores
// the applicant details on a completed order.
func (s *Service) RegisterAfA(ctx context.Context, req AfARequest) (res *PlaceOrderResult, err error) {
	start := time.Now()
	defer func() { s.observe(OperationRegisterAfA, start, err) }()

	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if err := validateAfA(req); err != nil {
		return nil, err
	}

	bundle, err := s.bundles.FindActive(ctx, models.BundleAfARegistration, 0)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrBundleNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrBundleNotFound, "AfA registration is not currently offered")
		}
		return nil, err
	}

	return s.purchase(ctx, purchase{
		userID:      req.UserID,
		bundle:      bundle,
		recipient:   req.PhoneNumber,
		orderRef:    utils.NewReference(utils.PrefixAfA),
		txRef:       utils.NewReference(utils.PrefixPurchase),
		description: fmt.Sprintf("AFA Registration: %s (%s)", req.FullName, req.PhoneNumber),
		metadata: models.JSON{
			"fullName":    req.FullName,
			"idType":      req.IDType,
			"idNumber":    req.IDNumber,
			"dateOfBirth": req.DateOfBirth,
			"occupation":  req.Occupation,
			"location":    req.Location,
		},
		status: models.OrderStatusCompleted,
	})
}

func (s *Service) purchase(ctx context.Context, p purchase) (*PlaceOrderResult, error) {
	deliver := p.bundle.Type.RequiresDelivery()
	if deliver && s.deliverer == nil {
		return nil, apperrors.WithMessage(apperrors.ErrDeliveryUnavailable, "%s delivery is not configured", p.bundle.Type)
	}

	log := s.log.With(
		zap.Uint("user_id", p.userID),
		zap.String("order_reference", p.orderRef),
		zap.String("bundle_type", string(p.bundle.Type)))

	result, err := s.debit(ctx, p, log)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLedgerAmount(string(models.TransactionTypePurchase), p.bundle.Price.InexactFloat64())
	events.Emit(ctx, s.publisher, s.log, events.New(events.OrderPlaced, result.Order.OrderReference, result.Order))

	log.Info("order placed",
		zap.String("status", string(result.Order.Status)),
		zap.String("price", p.bundle.Price.StringFixed(2)),
		zap.String("balance", result.Balance.StringFixed(2)))
	return result, nil
}

// debit runs the purchase unit of work under the user's lock, delivery
// included, and stores the committed wallet in the cache before unlocking.
func (s *Service) debit(ctx context.Context, p purchase, log *zap.Logger) (*PlaceOrderResult, error) {
	deliver := p.bundle.Type.RequiresDelivery()

	unlock, err := s.locker.Lock(ctx, p.userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var committed *models.Wallet
	result := &PlaceOrderResult{}
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		if _, err := tx.GetUser(ctx, p.userID); err != nil {
			return err
		}
		w, err := tx.GetWalletForUpdate(ctx, p.userID)
		if err != nil {
			return err
		}
		if !wallet.CanAfford(w, p.bundle.Price) {
			return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
				"insufficient balance in wallet. Required: %s %s", p.bundle.Price.StringFixed(2), w.Currency)
		}

		o := &models.Order{
			UserID:          p.userID,
			BundleType:      p.bundle.Type,
			Capacity:        p.bundle.Capacity,
			Price:           p.bundle.Price,
			RecipientNumber: p.recipient,
			OrderReference:  p.orderRef,
			Status:          models.OrderStatusPending,
			Metadata:        p.metadata,
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}

		entry, err := wallet.Record(ctx, tx, w, wallet.Entry{
			Type:          models.TransactionTypePurchase,
			Amount:        p.bundle.Price,
			Description:   p.description,
			Reference:     p.txRef,
			PaymentMethod: models.PaymentMethodWallet,
			OrderID:       &o.ID,
		})
		if err != nil {
			return err
		}

		if deliver {
			outcome, err := s.deliverer.DeliverBundle(ctx, delivery.Request{
				Recipient:      p.recipient,
				CapacityMB:     p.bundle.Capacity,
				TransactionRef: p.orderRef,
			})
			if err != nil {
				log.Warn("delivery failed, aborting order", zap.Error(err))
				return err
			}
			result.Delivery = &outcome
			o.Metadata = withDelivery(o.Metadata, outcome)
		}

		o.Status = p.status
		o.TransactionReference = entry.Reference
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}

		result.Order = o
		result.Transaction = entry
		result.Balance = w.Balance
		committed = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	wallet.StoreCache(ctx, s.cache, s.log, committed)
	return result, nil
}

func withDelivery(meta models.JSON, r delivery.Result) models.JSON {
	if meta == nil {
		meta = models.JSON{}
	}
	meta["deliveryResponse"] = r.ResponseMessage
	meta["deliveryAttempts"] = r.Attempts
	return meta
}

func validatePlaceOrder(req PlaceOrderRequest) error {
	switch {
	case req.UserID == 0:
		return apperrors.WithMessage(apperrors.ErrInvalidOrder, "user id is required")
	case req.RecipientNumber == "" || req.Capacity == 0 || req.BundleType == "":
		return apperrors.WithMessage(apperrors.ErrInvalidOrder, "recipient number, capacity, and bundle type are all required")
	case !recipientPattern.MatchString(req.RecipientNumber):
		return apperrors.WithMessage(apperrors.ErrInvalidOrder, "invalid recipient phone number format")
	case req.Capacity < 0:
		return apperrors.WithMessage(apperrors.ErrInvalidOrder, "capacity must be positive")
	case !req.BundleType.Valid() || req.BundleType == models.BundleAfARegistration:
		return apperrors.WithMessage(apperrors.ErrInvalidOrder, "unknown bundle type %q", req.BundleType)
	}
	return nil
}

func validateAfA(req AfARequest) error {
	if req.UserID == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidOrder, "user id is required")
	}
	if req.PhoneNumber == "" || req.FullName == "" || req.IDType == "" || req.IDNumber == "" ||
		req.DateOfBirth == "" || req.Occupation == "" || req.Location == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidOrder, "all registration fields are required")
	}
	if !recipientPattern.MatchString(req.PhoneNumber) {
		return apperrors.WithMessage(apperrors.ErrInvalidOrder, "invalid phone number format")
	}
	return nil
}
