package order

import (
	"context"
	"time"

	"bundlehub/internal/models"
	"bundlehub/internal/services/delivery"

	"github.com/shopspring/decimal"
)

// Channel records where an order came from.
type Channel string

const (
	ChannelWeb Channel = "web"
	ChannelAPI Channel = "api"
)

type PlaceOrderRequest struct {
	UserID          uint
	RecipientNumber string
	Capacity        int
	BundleType      models.BundleType
	// Price is the caller's expectation. The charged price always comes
	// from the catalog; a mismatch is only logged.
	Price   *decimal.Decimal
	Channel Channel
}

type PlaceOrderResult struct {
	Order       *models.Order       `json:"order"`
	Transaction *models.Transaction `json:"transaction"`
	Balance     decimal.Decimal     `json:"walletBalance"`
	Delivery    *delivery.Result    `json:"delivery,omitempty"`
}

type AfARequest struct {
	UserID      uint
	PhoneNumber string
	FullName    string
	IDType      string
	IDNumber    string
	DateOfBirth string
	Occupation  string
	Location    string
}

type StatusChange struct {
	Order          *models.Order       `json:"order"`
	PreviousStatus models.OrderStatus  `json:"previousStatus"`
	Refund         *models.Transaction `json:"refund,omitempty"`
}

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// BundleCatalog resolves the price of an active bundle.
type BundleCatalog interface {
	FindActive(ctx context.Context, bundleType models.BundleType, capacity int) (*models.Bundle, error)
}

// Deliverer performs provider-backed fulfilment inside the placement scope.
type Deliverer interface {
	DeliverBundle(ctx context.Context, req delivery.Request) (delivery.Result, error)
}

// Notifier is told about committed status transitions. owner may be nil.
type Notifier interface {
	NotifyOrderStatus(ctx context.Context, order *models.Order, owner *models.User, previous models.OrderStatus) error
}

type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordLedgerAmount(txType string, amount float64)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperationDuration(string, time.Duration) {}
func (noopMetrics) RecordOperationResult(string, string)          {}
func (noopMetrics) RecordLedgerAmount(string, float64)            {}
