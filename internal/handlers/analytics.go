package handlers

import (
	"context"
	"time"

	"bundlehub/internal/models"
	"bundlehub/internal/services/analytics"
	"bundlehub/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type AnalyticsService interface {
	Summary(ctx context.Context, period models.Period) (*models.SalesSummary, error)
	ByBundleType(ctx context.Context, period models.Period) ([]models.BundleTypeSales, error)
	Trends(ctx context.Context, period models.Period, interval analytics.Interval) ([]models.SalesTrendPoint, error)
	UserDashboard(ctx context.Context, userID uint) (*models.UserDashboardStats, error)
}

type AnalyticsHandler struct {
	analytics AnalyticsService
}

func NewAnalyticsHandler(svc AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: svc}
}

func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	period, err := parsePeriod(c)
	if err != nil {
		return err
	}
	summary, err := h.analytics.Summary(c.UserContext(), period)
	if err != nil {
		return err
	}
	return response.Success(c, "", summary)
}

func (h *AnalyticsHandler) ByBundleType(c *fiber.Ctx) error {
	period, err := parsePeriod(c)
	if err != nil {
		return err
	}
	rows, err := h.analytics.ByBundleType(c.UserContext(), period)
	if err != nil {
		return err
	}
	return response.Success(c, "", rows)
}

func (h *AnalyticsHandler) Trends(c *fiber.Ctx) error {
	period, err := parsePeriod(c)
	if err != nil {
		return err
	}
	interval, err := analytics.ParseInterval(c.Query("interval"))
	if err != nil {
		return err
	}
	points, err := h.analytics.Trends(c.UserContext(), period, interval)
	if err != nil {
		return err
	}
	return response.Success(c, "", fiber.Map{"interval": interval, "points": points})
}

// Dashboard is the caller's own view of their wallet and orders.
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.analytics.UserDashboard(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "", stats)
}

// parsePeriod reads ?startDate= and ?endDate= as YYYY-MM-DD in UTC.
// The end date is inclusive.
func parsePeriod(c *fiber.Ctx) (models.Period, error) {
	var p models.Period
	if s := c.Query("startDate"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return p, fiber.NewError(fiber.StatusBadRequest, "startDate must be YYYY-MM-DD")
		}
		p.Start = &t
	}
	if s := c.Query("endDate"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return p, fiber.NewError(fiber.StatusBadRequest, "endDate must be YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		p.End = &end
	}
	if p.Start != nil && p.End != nil && p.End.Before(*p.Start) {
		return p, fiber.NewError(fiber.StatusBadRequest, "endDate is before startDate")
	}
	return p, nil
}
