package service

import (
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const outcomeOK = "ok"

// Metrics holds the ledger's Prometheus collectors.
type Metrics struct {
	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	cacheRequests  *prometheus.CounterVec
	walletsCreated prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Name:      "operations_total",
			Help:      "Balance operations by type and outcome code.",
		}, []string{"type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wallet",
			Name:      "operation_duration_seconds",
			Help:      "Time from request validation to cache invalidation, including row-lock wait.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Name:      "balance_cache_requests_total",
			Help:      "Balance cache lookups and writes by result.",
		}, []string{"result"}),
		walletsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wallet",
			Name:      "wallets_created_total",
			Help:      "Wallets created.",
		}),
	}
	reg.MustRegister(m.operations, m.duration, m.cacheRequests, m.walletsCreated)
	return m
}

func (m *Metrics) observeOperation(opType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if !domain.OperationType(opType).Valid() {
		opType = "invalid"
	}
	if outcome == "" {
		outcome = outcomeOK
	}
	m.operations.WithLabelValues(opType, outcome).Inc()
	m.duration.WithLabelValues(opType).Observe(elapsed.Seconds())
}

func (m *Metrics) cacheResult(result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) walletCreated() {
	if m == nil {
		return
	}
	m.walletsCreated.Inc()
}
