// Package notification sends order status SMS through Arkesel.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bundlehub/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

var arkeselErrors = map[string]string{
	"100": "Bad gateway request",
	"101": "Wrong action",
	"102": "Authentication failed",
	"103": "Invalid phone number",
	"104": "Phone coverage not active",
	"105": "Insufficient balance",
	"106": "Invalid Sender ID",
	"109": "Invalid Schedule Time",
	"111": "SMS contains spam word. Wait for approval",
}

type Config struct {
	Enabled  bool
	BaseURL  string
	APIKey   string
	SenderID string
	Timeout  time.Duration
}

type sendResponse struct {
	Code        string      `json:"code"`
	Message     string      `json:"message"`
	Balance     interface{} `json:"balance"`
	MainBalance interface{} `json:"main_balance"`
}

// Service is the SMS channel. A disabled Service accepts and drops messages.
type Service struct {
	http *resty.Client
	cfg  Config
	log  *zap.Logger
}

// NewService creates a new notification service.
func NewService(cfg Config, log *zap.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout).
			SetLogger(log.Named("resty").Sugar()),
		cfg: cfg,
		log: log,
	}
}

// Send delivers one transactional SMS.
func (s *Service) Send(ctx context.Context, phone, message string) error {
	if phone == "" || message == "" {
		return fmt.Errorf("phone number and message are required")
	}
	if !s.cfg.Enabled {
		s.log.Debug("sms disabled, dropping message", zap.String("to", phone))
		return nil
	}

	var out sendResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":   "send-sms",
			"api_key":  s.cfg.APIKey,
			"to":       phone,
			"from":     s.cfg.SenderID,
			"sms":      message,
			"use_case": "transactional",
		}).
		SetResult(&out).
		Get("/sms/api")
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms api responded with HTTP %d", resp.StatusCode())
	}
	if out.Code != "ok" {
		reason, ok := arkeselErrors[out.Code]
		if !ok {
			reason = "Unknown error occurred"
		}
		return fmt.Errorf("sms sending failed: %s", reason)
	}

	s.log.Info("sms sent", zap.String("to", phone), zap.Any("balance", out.Balance))
	return nil
}

// NotifyOrderStatus tells the recipient about a completed order and the
// owner about a failed or refunded one. Other transitions are silent.
func (s *Service) NotifyOrderStatus(ctx context.Context, o *models.Order, owner *models.User, previous models.OrderStatus) error {
	switch o.Status {
	case models.OrderStatusCompleted:
		if previous == models.OrderStatusCompleted {
			return nil
		}
		return s.Send(ctx, LocalNumber(o.RecipientNumber),
			fmt.Sprintf("%dMB has been sent to %s", o.Capacity, o.RecipientNumber))

	case models.OrderStatusFailed:
		if owner == nil || owner.Phone == "" {
			return nil
		}
		return s.Send(ctx, LocalNumber(owner.Phone),
			fmt.Sprintf("Your order for %dMB on %s could not be processed. Order reference: %s",
				o.Capacity, o.BundleType, o.OrderReference))

	case models.OrderStatusRefunded:
		if owner == nil || owner.Phone == "" {
			return nil
		}
		return s.Send(ctx, LocalNumber(owner.Phone),
			fmt.Sprintf("Your order for %dMB on %s could not be processed. Your account has been refunded %s. Order reference: %s",
				o.Capacity, o.BundleType, o.Price.StringFixed(2), o.OrderReference))
	}
	return nil
}

// LocalNumber rewrites a +233 number to its national 0-prefixed form.
func LocalNumber(phone string) string {
	if strings.HasPrefix(phone, "+233") {
		return "0" + strings.TrimPrefix(phone, "+233")
	}
	return phone
}
