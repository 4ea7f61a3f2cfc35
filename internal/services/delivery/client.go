// Package delivery credits AT iShare bundles through the provider's SOAP API.
package delivery

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	apperrors "bundlehub/internal/errors"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeRejected  Outcome = "rejected"
)

// Attempt results reported to MetricsCollector
const (
	attemptDelivered    = "delivered"
	attemptRejected     = "rejected"
	attemptNetworkError = "network_error"
	attemptServerError  = "server_error"
	attemptCanceled     = "canceled"
)

const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	MaxAttemptsLimit   = 10
)

type Config struct {
	URL          string
	Username     string
	Password     string
	DealerMSISDN string
	Timeout      time.Duration
	MaxAttempts  int
	BaseDelay    time.Duration
}

type Request struct {
	Recipient      string
	CapacityMB     int
	DealerID       string
	TransactionRef string
}

// Result is the provider's answer. It is only returned with a nil error
// when Outcome is OutcomeDelivered.
type Result struct {
	Outcome         Outcome `json:"outcome"`
	Success         bool    `json:"success"`
	ResponseMessage string  `json:"responseMessage"`
	ResponseCode    string  `json:"responseCode,omitempty"`
	Attempts        int     `json:"attempts"`
}

type MetricsCollector interface {
	RecordDeliveryAttempt(result string)
}

type noopMetrics struct{}

func (noopMetrics) RecordDeliveryAttempt(string) {}

type Client struct {
	http    *resty.Client
	cfg     Config
	metrics MetricsCollector
	log     *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, metrics MetricsCollector, log *zap.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("ishare url and credentials are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxAttempts > MaxAttemptsLimit {
		cfg.MaxAttempts = MaxAttemptsLimit
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetLogger(log.Named("resty").Sugar())

	return &Client{
		http:    httpClient,
		cfg:     cfg,
		metrics: metrics,
		log:     log,
		sleep:   sleepContext,
	}, nil
}

// DealerID is the configured dealer MSISDN used when a request leaves it empty.
func (c *Client) DealerID() string {
	return c.cfg.DealerMSISDN
}

// DeliverBundle sends the credit request, retrying only transport failures
// with waits of BaseDelay, 2*BaseDelay, ... between attempts.
func (c *Client) DeliverBundle(ctx context.Context, req Request) (Result, error) {
	if req.DealerID == "" {
		req.DealerID = c.cfg.DealerMSISDN
	}
	body, err := buildEnvelope(c.cfg, req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build ishare request: %w", err)
	}

	log := c.log.With(
		zap.String("transaction_ref", req.TransactionRef),
		zap.String("recipient", req.Recipient),
		zap.Int("capacity_mb", req.CapacityMB))

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			c.metrics.RecordDeliveryAttempt(attemptCanceled)
			return Result{Attempts: attempt - 1}, apperrors.Wrap(apperrors.ErrDeliveryUnavailable, err)
		}

		log.Debug("sending ishare request", zap.Int("attempt", attempt))
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", contentType).
			SetHeader("SOAPAction", soapAction).
			SetBody(body).
			Post(c.cfg.URL)

		if err != nil {
			if ctx.Err() != nil {
				c.metrics.RecordDeliveryAttempt(attemptCanceled)
				return Result{Attempts: attempt}, apperrors.Wrap(apperrors.ErrDeliveryUnavailable, ctx.Err())
			}
			if !isNetworkError(err) {
				return Result{Attempts: attempt}, fmt.Errorf("ishare request failed: %w", err)
			}

			c.metrics.RecordDeliveryAttempt(attemptNetworkError)
			log.Warn("ishare request attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.cfg.MaxAttempts),
				zap.Error(err))
			lastErr = err

			if attempt < c.cfg.MaxAttempts {
				if err := c.sleep(ctx, backoff(c.cfg.BaseDelay, attempt)); err != nil {
					return Result{Attempts: attempt}, apperrors.Wrap(apperrors.ErrDeliveryUnavailable, err)
				}
			}
			continue
		}

		return c.handleResponse(log, resp, attempt)
	}

	log.Error("ishare unavailable after retries", zap.Int("attempts", c.cfg.MaxAttempts), zap.Error(lastErr))
	return Result{Attempts: c.cfg.MaxAttempts}, apperrors.Wrap(apperrors.ErrDeliveryUnavailable, lastErr)
}

func (c *Client) handleResponse(log *zap.Logger, resp *resty.Response, attempt int) (Result, error) {
	status := resp.StatusCode()
	if status >= 500 {
		c.metrics.RecordDeliveryAttempt(attemptServerError)
		log.Error("ishare returned server error", zap.Int("status", status))
		return Result{Attempts: attempt}, apperrors.Wrap(apperrors.ErrDeliveryUnavailable,
			fmt.Errorf("ishare returned HTTP %d", status))
	}

	rejected := Result{Outcome: OutcomeRejected, Attempts: attempt}
	if status < 200 || status >= 300 {
		c.metrics.RecordDeliveryAttempt(attemptRejected)
		rejected.ResponseMessage = fmt.Sprintf("HTTP %d", status)
		log.Warn("ishare rejected request", zap.Int("status", status))
		return rejected, apperrors.WithMessage(apperrors.ErrDeliveryRejected, "ishare rejected the request with HTTP %d", status)
	}

	env, err := parseResponse(resp.Body())
	if err != nil {
		c.metrics.RecordDeliveryAttempt(attemptRejected)
		rejected.ResponseMessage = "unreadable provider response"
		log.Warn("ishare response could not be parsed", zap.Error(err))
		return rejected, apperrors.Wrap(apperrors.ErrDeliveryRejected, err)
	}

	msg := strings.TrimSpace(env.ResponseMsg)
	if msg != SuccessMarker {
		c.metrics.RecordDeliveryAttempt(attemptRejected)
		rejected.ResponseMessage = msg
		rejected.ResponseCode = env.ResponseCode
		log.Warn("ishare did not credit bundle", zap.String("response_msg", msg), zap.String("response_code", env.ResponseCode))
		return rejected, apperrors.WithMessage(apperrors.ErrDeliveryRejected, "ishare: %s", msg)
	}

	c.metrics.RecordDeliveryAttempt(attemptDelivered)
	log.Info("ishare bundle credited", zap.Int("attempt", attempt))
	return Result{
		Outcome:         OutcomeDelivered,
		Success:         true,
		ResponseMessage: msg,
		ResponseCode:    env.ResponseCode,
		Attempts:        attempt,
	}, nil
}

// backoff returns the wait after the given failed attempt (1-based).
func backoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<uint(attempt-1))
}

// isNetworkError covers timeouts, refused connections and DNS failures.
// Every *url.Error is a net.Error, so TLS and scheme errors must not match
// on the interface alone.
func isNetworkError(err error) bool {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return stderrors.As(err, &dnsErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
