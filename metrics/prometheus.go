package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stakevault"

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds the staking ledger metrics
type Collector struct {
	// Ledger metrics
	DepositsTotal    *prometheus.CounterVec
	DepositedAmount  *prometheus.CounterVec
	WithdrawalsTotal *prometheus.CounterVec
	WithdrawnAmount  *prometheus.CounterVec
	FeesCollected    *prometheus.CounterVec
	WithdrawFeeBps   prometheus.Gauge
	FeeUpdatesTotal  prometheus.Counter
	RejectionsTotal  *prometheus.CounterVec
	AuditSequence    prometheus.Gauge

	// WebSocket metrics
	WSConnectionsActive prometheus.Gauge
	WSMessagesTotal     *prometheus.CounterVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	RateLimitHits     *prometheus.CounterVec
}

// GetCollector returns the singleton collector registered with the default registry
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = NewCollector(prometheus.DefaultRegisterer)
	})
	return collector
}

// NewCollector creates a collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{}

	c.DepositsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "deposits_total",
			Help:      "Total number of committed deposits",
		},
		[]string{"denom"},
	)

	c.DepositedAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "deposited_amount",
			Help:      "Total amount deposited into the vault",
		},
		[]string{"denom"},
	)

	c.WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "withdrawals_total",
			Help:      "Total number of committed withdrawals",
		},
		[]string{"denom"},
	)

	c.WithdrawnAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "withdrawn_amount",
			Help:      "Total amount paid out to stakers, net of fees",
		},
		[]string{"denom"},
	)

	c.FeesCollected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "fees_collected",
			Help:      "Total withdrawal fees paid to the fee vault",
		},
		[]string{"denom"},
	)

	c.WithdrawFeeBps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "withdraw_fee_bps",
			Help:      "Current withdrawal fee in basis points",
		},
	)

	c.FeeUpdatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "fee_updates_total",
			Help:      "Total number of fee changes",
		},
	)

	c.RejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rejections_total",
			Help:      "Operations rejected, by operation and error code",
		},
		[]string{"operation", "code"},
	)

	c.AuditSequence = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "sequence",
			Help:      "Sequence of the last audit log entry",
		},
	)

	c.WSConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages broadcast",
		},
		[]string{"channel"},
	)

	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "rate_limit_hits",
			Help:      "Total rate limit hits",
		},
		[]string{"limit_type"},
	)

	reg.MustRegister(
		c.DepositsTotal,
		c.DepositedAmount,
		c.WithdrawalsTotal,
		c.WithdrawnAmount,
		c.FeesCollected,
		c.WithdrawFeeBps,
		c.FeeUpdatesTotal,
		c.RejectionsTotal,
		c.AuditSequence,
		c.WSConnectionsActive,
		c.WSMessagesTotal,
		c.APIRequestsTotal,
		c.APIRequestLatency,
		c.RateLimitHits,
	)

	return c
}

// ============ Ledger Recording ============

// RecordDeposit records a committed deposit
func (c *Collector) RecordDeposit(denom string, amount, totalStaked uint64) {
	c.DepositsTotal.WithLabelValues(denom).Inc()
	c.DepositedAmount.WithLabelValues(denom).Add(float64(amount))
}

// RecordWithdrawal records a committed withdrawal
func (c *Collector) RecordWithdrawal(denom string, userAmount, fee uint64) {
	c.WithdrawalsTotal.WithLabelValues(denom).Inc()
	c.WithdrawnAmount.WithLabelValues(denom).Add(float64(userAmount))
	if fee > 0 {
		c.FeesCollected.WithLabelValues(denom).Add(float64(fee))
	}
}

// RecordFeeUpdate records a fee change
func (c *Collector) RecordFeeUpdate(oldFee, newFee uint64) {
	c.FeeUpdatesTotal.Inc()
	c.WithdrawFeeBps.Set(float64(newFee))
}

// RecordRejection records a rejected operation labelled with its registered error code
func (c *Collector) RecordRejection(operation string, err error) {
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	c.RejectionsTotal.WithLabelValues(operation, fmt.Sprintf("%s/%d", codespace, code)).Inc()
}

// RecordAuditSequence records the latest audit sequence
func (c *Collector) RecordAuditSequence(seq uint64) {
	c.AuditSequence.Set(float64(seq))
}

// ============ Transport Recording ============

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordRateLimitHit records a request refused by the rate limiter
func (c *Collector) RecordRateLimitHit(limitType string) {
	c.RateLimitHits.WithLabelValues(limitType).Inc()
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.Add(float64(delta))
}

// RecordWSMessage records a broadcast WebSocket message
func (c *Collector) RecordWSMessage(channel string) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
