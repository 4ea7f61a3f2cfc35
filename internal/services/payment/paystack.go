package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "bundlehub/internal/errors"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Currency    string
	Timeout     time.Duration
}

type PaystackClient struct {
	http *resty.Client
	cfg  PaystackConfig
	log  *zap.Logger
}

type paystackEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type paystackTransaction struct {
	Status    string                 `json:"status"`
	Reference string                 `json:"reference"`
	Amount    int64                  `json:"amount"`
	Currency  string                 `json:"currency"`
	Metadata  map[string]interface{} `json:"metadata"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

type Initialization struct {
	AuthorizationURL string `json:"authorizationUrl"`
	AccessCode       string `json:"accessCode"`
	Reference        string `json:"reference"`
}

func NewPaystackClient(cfg PaystackConfig, log *zap.Logger) *PaystackClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.paystack.co"
	}
	if cfg.Currency == "" {
		cfg.Currency = "GHS"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PaystackClient{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetAuthToken(cfg.SecretKey).
			SetTimeout(cfg.Timeout).
			SetLogger(log.Named("resty").Sugar()),
		cfg: cfg,
		log: log,
	}
}

// Initialize starts a checkout for amount and returns the hosted payment page.
func (c *PaystackClient) Initialize(ctx context.Context, email string, userID uint, amount decimal.Decimal) (*Initialization, error) {
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	var out paystackEnvelope[struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"email":        email,
			"amount":       majorToMinor(amount),
			"currency":     c.cfg.Currency,
			"callback_url": c.cfg.CallbackURL,
			"metadata":     map[string]interface{}{"userId": userID},
		}).
		SetResult(&out).
		SetError(&out).
		Post("/transaction/initialize")
	if err := checkPaystack(resp, err, out.Status, out.Message); err != nil {
		c.log.Error("paystack initialize failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}

	return &Initialization{
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
		Reference:        out.Data.Reference,
	}, nil
}

func (c *PaystackClient) Verify(ctx context.Context, reference string) (*VerifiedPayment, error) {
	var out paystackEnvelope[paystackTransaction]
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&out).
		Get("/transaction/verify/" + url.PathEscape(reference))
	if err := checkPaystack(resp, err, out.Status, out.Message); err != nil {
		c.log.Warn("paystack verification failed", zap.String("reference", reference), zap.Error(err))
		return nil, err
	}

	ref := out.Data.Reference
	if ref == "" {
		ref = reference
	}
	return &VerifiedPayment{
		Provider:  ProviderPaystack,
		Reference: ref,
		Amount:    minorToMajor(out.Data.Amount),
		Currency:  out.Data.Currency,
		Status:    out.Data.Status,
		Paid:      out.Data.Status == "success",
		Email:     out.Data.Customer.Email,
		UserID:    parseUserID(out.Data.Metadata["userId"]),
	}, nil
}

func checkPaystack(resp *resty.Response, err error, ok bool, message string) error {
	if err != nil {
		return apperrors.Wrap(apperrors.ErrPaymentProviderUnavailable, err)
	}
	if resp.StatusCode() >= 500 {
		return apperrors.Wrap(apperrors.ErrPaymentProviderUnavailable, fmt.Errorf("paystack returned HTTP %d", resp.StatusCode()))
	}
	if resp.IsError() || !ok {
		if message == "" {
			message = fmt.Sprintf("HTTP %d", resp.StatusCode())
		}
		return apperrors.WithMessage(apperrors.ErrPaymentNotConfirmed, "paystack: %s", message)
	}
	return nil
}
