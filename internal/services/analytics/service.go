// Package analytics reports sales figures for admins and a per-user
// dashboard. Aggregates run directly against the database.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

const recentOrderLimit = 5

var ErrInvalidInterval = apperrors.Validation("INVALID_INTERVAL", "interval must be day, week or month")

// ParseInterval defaults to day when s is empty.
func ParseInterval(s string) (Interval, error) {
	switch iv := Interval(s); iv {
	case "":
		return IntervalDay, nil
	case IntervalDay, IntervalWeek, IntervalMonth:
		return iv, nil
	}
	return "", ErrInvalidInterval
}

type Service interface {
	Summary(ctx context.Context, period models.Period) (*models.SalesSummary, error)
	ByBundleType(ctx context.Context, period models.Period) ([]models.BundleTypeSales, error)
	Trends(ctx context.Context, period models.Period, interval Interval) ([]models.SalesTrendPoint, error)
	UserDashboard(ctx context.Context, userID uint) (*models.UserDashboardStats, error)
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) Service {
	return &service{db: db}
}

func (s *service) orders(ctx context.Context, period models.Period) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if period.Start != nil {
		q = q.Where("created_at >= ?", *period.Start)
	}
	if period.End != nil {
		q = q.Where("created_at <= ?", *period.End)
	}
	return q
}

func (s *service) Summary(ctx context.Context, period models.Period) (*models.SalesSummary, error) {
	summary := &models.SalesSummary{
		OrderStatus: make(map[models.OrderStatus]int64),
		Period:      period,
	}

	var revenue decimal.Decimal
	err := s.orders(ctx, period).
		Where("status = ?", models.OrderStatusCompleted).
		Select("COUNT(*), COALESCE(SUM(price), 0)").
		Row().
		Scan(&summary.TotalOrders, &revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	summary.TotalRevenue = revenue.Round(2)
	summary.AverageOrderValue = average(summary.TotalRevenue, summary.TotalOrders)

	var counts []struct {
		Status models.OrderStatus
		Total  int64
	}
	err = s.orders(ctx, period).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	for _, c := range counts {
		summary.OrderStatus[c.Status] = c.Total
	}
	return summary, nil
}

func (s *service) ByBundleType(ctx context.Context, period models.Period) ([]models.BundleTypeSales, error) {
	var rows []struct {
		BundleType models.BundleType
		Revenue    decimal.Decimal
		Total      int64
	}
	err := s.orders(ctx, period).
		Where("status = ?", models.OrderStatusCompleted).
		Select("bundle_type, COALESCE(SUM(price), 0) AS revenue, COUNT(*) AS total").
		Group("bundle_type").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by bundle type: %w", err)
	}

	out := make([]models.BundleTypeSales, 0, len(rows))
	for _, r := range rows {
		revenue := r.Revenue.Round(2)
		out = append(out, models.BundleTypeSales{
			BundleType:        r.BundleType,
			TotalRevenue:      revenue,
			TotalOrders:       r.Total,
			AverageOrderValue: average(revenue, r.Total),
		})
	}
	return out, nil
}

// Trends buckets completed orders in Go so the result does not depend on
// the SQL dialect's date functions.
func (s *service) Trends(ctx context.Context, period models.Period, interval Interval) ([]models.SalesTrendPoint, error) {
	if _, err := ParseInterval(string(interval)); err != nil {
		return nil, err
	}

	var rows []struct {
		Price     decimal.Decimal
		CreatedAt time.Time
	}
	err := s.orders(ctx, period).
		Where("status = ?", models.OrderStatusCompleted).
		Select("price, created_at").
		Order("created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for trends: %w", err)
	}

	points := make(map[string]*models.SalesTrendPoint)
	for _, r := range rows {
		key := bucket(r.CreatedAt, interval)
		p, ok := points[key]
		if !ok {
			p = &models.SalesTrendPoint{Bucket: key}
			points[key] = p
		}
		p.Revenue = p.Revenue.Add(r.Price)
		p.OrderCount++
	}

	out := make([]models.SalesTrendPoint, 0, len(points))
	for _, p := range points {
		p.Revenue = p.Revenue.Round(2)
		p.AverageValue = average(p.Revenue, p.OrderCount)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out, nil
}

func (s *service) UserDashboard(ctx context.Context, userID uint) (*models.UserDashboardStats, error) {
	db := s.db.WithContext(ctx)

	var w models.Wallet
	if err := db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	stats := &models.UserDashboardStats{
		Balance:        w.Balance,
		Currency:       w.Currency,
		OrdersByStatus: make(map[models.OrderStatus]int64),
	}

	var totals []struct {
		Type  models.TransactionType
		Total decimal.Decimal
	}
	err := db.Model(&models.Transaction{}).
		Where("user_id = ? AND type IN ?", userID, []models.TransactionType{models.TransactionTypePurchase, models.TransactionTypeRefund}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Group("type").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}
	for _, t := range totals {
		switch t.Type {
		case models.TransactionTypePurchase:
			stats.TotalSpent = t.Total.Round(2)
		case models.TransactionTypeRefund:
			stats.TotalRefunded = t.Total.Round(2)
		}
	}

	var counts []struct {
		Status models.OrderStatus
		Total  int64
	}
	err = db.Model(&models.Order{}).
		Where("user_id = ?", userID).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	for _, c := range counts {
		stats.OrdersByStatus[c.Status] = c.Total
	}

	err = db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(recentOrderLimit).
		Find(&stats.RecentOrders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	if len(stats.RecentOrders) > 0 {
		last := stats.RecentOrders[0].CreatedAt
		stats.LastOrderAt = &last
	}
	return stats, nil
}

func average(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(count), 2)
}

func bucket(t time.Time, interval Interval) string {
	t = t.UTC()
	switch interval {
	case IntervalWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case IntervalMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}
