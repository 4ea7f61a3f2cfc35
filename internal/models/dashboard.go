package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesSummary aggregates completed orders over a period.
type SalesSummary struct {
	TotalRevenue      decimal.Decimal       `json:"totalRevenue"`
	TotalOrders       int64                 `json:"totalOrders"`
	AverageOrderValue decimal.Decimal       `json:"averageOrderValue"`
	OrderStatus       map[OrderStatus]int64 `json:"orderStatus"`
	Period            Period                `json:"period"`
}

type BundleTypeSales struct {
	BundleType        BundleType      `json:"bundleType"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalOrders       int64           `json:"totalOrders"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type SalesTrendPoint struct {
	Bucket       string          `json:"bucket"`
	Revenue      decimal.Decimal `json:"revenue"`
	OrderCount   int64           `json:"orderCount"`
	AverageValue decimal.Decimal `json:"averageValue"`
}

// Period is an optional date range; nil bounds are open.
type Period struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// UserDashboardStats summarises one user's wallet and orders.
type UserDashboardStats struct {
	Balance        decimal.Decimal       `json:"balance"`
	Currency       string                `json:"currency"`
	TotalSpent     decimal.Decimal       `json:"totalSpent"`
	TotalRefunded  decimal.Decimal       `json:"totalRefunded"`
	OrdersByStatus map[OrderStatus]int64 `json:"ordersByStatus"`
	LastOrderAt    *time.Time            `json:"lastOrderAt,omitempty"`
	RecentOrders   []Order               `json:"recentOrders"`
}
