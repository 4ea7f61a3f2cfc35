package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// ParseOrderStatus returns the status named by s.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusFailed, OrderStatusRefunded:
		return st, true
	}
	return "", false
}

type Order struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	UserID          uint            `gorm:"index;not null" json:"userId"`
	BundleType      BundleType      `gorm:"type:varchar(32);not null" json:"bundleType"`
	Capacity        int             `gorm:"not null" json:"capacity"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	RecipientNumber string          `gorm:"not null" json:"recipientNumber"`
	// OrderReference is written once on insert and never updated.
	OrderReference       string      `gorm:"<-:create;uniqueIndex;not null" json:"orderReference"`
	Status               OrderStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	TransactionReference string      `json:"transactionReference"`
	ProcessedBy          *uint       `json:"processedBy,omitempty"`
	Metadata             JSON        `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}
