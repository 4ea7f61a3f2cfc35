// Package order implements order placement, AfA registration and the
// admin status transitions that refund orders.
package order

import (
	"context"
	"time"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/events"
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/services/wallet"

	"go.uber.org/zap"
)

const (
	OperationPlaceOrder  = "place_order"
	OperationRegisterAfA = "register_afa"
	OperationSetStatus   = "set_order_status"
)

type Dependencies struct {
	Repo      repositories.LedgerRepository
	Bundles   BundleCatalog
	Deliverer Deliverer
	Notifier  Notifier
	Locker    *wallet.UserLocker
	Cache     wallet.Cache
	Publisher events.Publisher
	Metrics   MetricsCollector
	Logger    *zap.Logger
}

type Service struct {
	repo      repositories.LedgerRepository
	bundles   BundleCatalog
	deliverer Deliverer
	notifier  Notifier
	locker    *wallet.UserLocker
	cache     wallet.Cache
	publisher events.Publisher
	metrics   MetricsCollector
	log       *zap.Logger
}

func NewService(deps Dependencies) *Service {
	if deps.Repo == nil {
		panic("repo is required")
	}
	if deps.Bundles == nil {
		panic("bundle catalog is required")
	}
	if deps.Locker == nil {
		deps.Locker = wallet.NewUserLocker()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Service{
		repo:      deps.Repo,
		bundles:   deps.Bundles,
		deliverer: deps.Deliverer,
		notifier:  deps.Notifier,
		locker:    deps.Locker,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		log:       deps.Logger,
	}
}

func (s *Service) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// GetOrderForUser returns the order only when userID owns it.
func (s *Service) GetOrderForUser(ctx context.Context, id, userID uint) (*models.Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperrors.ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, filter repositories.OrderFilter) (*OrderPage, error) {
	orders, total, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Orders: orders, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) observe(operation string, start time.Time, err error) {
	s.metrics.RecordOperationDuration(operation, time.Since(start))
	result := "success"
	if err != nil {
		result = apperrors.KindOf(err).String()
	}
	s.metrics.RecordOperationResult(operation, result)
}
