// Package metrics exposes ledger and delivery counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bundlehub"

// Collector implements the metrics interfaces of the wallet, order and
// delivery services on a private registry.
type Collector struct {
	registry *prometheus.Registry

	operations   *prometheus.CounterVec
	durations    *prometheus.HistogramVec
	deliveries   *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	amounts      *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Balance-affecting operations by outcome.",
		}, []string{"operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_operation_duration_seconds",
			Help:      "Duration of balance-affecting operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_attempts_total",
			Help:      "Delivery provider calls by outcome.",
		}, []string{"result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_cache_requests_total",
			Help:      "Wallet cache lookups by result.",
		}, []string{"result"}),
		amounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_amount_total",
			Help:      "Sum of ledger entry amounts by transaction type.",
		}, []string{"type"}),
	}

	c.registry.MustRegister(
		c.operations,
		c.durations,
		c.deliveries,
		c.cacheLookups,
		c.amounts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) RecordOperationDuration(operation string, d time.Duration) {
	c.durations.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *Collector) RecordOperationResult(operation, result string) {
	c.operations.WithLabelValues(operation, result).Inc()
}

func (c *Collector) RecordCacheHit()  { c.cacheLookups.WithLabelValues("hit").Inc() }
func (c *Collector) RecordCacheMiss() { c.cacheLookups.WithLabelValues("miss").Inc() }

func (c *Collector) RecordLedgerAmount(txType string, amount float64) {
	c.amounts.WithLabelValues(txType).Add(amount)
}

func (c *Collector) RecordDeliveryAttempt(result string) {
	c.deliveries.WithLabelValues(result).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
