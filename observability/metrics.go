package observability

import (
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	vaultLedgerOnce sync.Once
	vaultLedgerReg  *VaultLedgerMetrics
)

// VaultLedgerMetrics captures request, latency, and error counters for vault
// ledger operations plus a health gauge per vault pair.
type VaultLedgerMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	health   *prometheus.GaugeVec
}

// VaultLedger returns the singleton metrics registry for ledger operations.
func VaultLedger() *VaultLedgerMetrics {
	vaultLedgerOnce.Do(func() {
		vaultLedgerReg = &VaultLedgerMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fxvault",
				Subsystem: "ledger",
				Name:      "requests_total",
				Help:      "Count of vault ledger operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "fxvault",
				Subsystem: "ledger",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for vault ledger operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fxvault",
				Subsystem: "ledger",
				Name:      "errors_total",
				Help:      "Count of vault ledger failures segmented by operation and reason.",
			}, []string{"operation", "reason"}),
			health: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "fxvault",
				Subsystem: "ledger",
				Name:      "vault_pair_health",
				Help:      "Latest measured health ratio per vault pair (1 balanced, 0 drained).",
			}, []string{"vault", "counter"}),
		}
		prometheus.MustRegister(
			vaultLedgerReg.requests,
			vaultLedgerReg.latency,
			vaultLedgerReg.errors,
			vaultLedgerReg.health,
		)
	})
	return vaultLedgerReg
}

// Observe records the execution metrics for a ledger operation.
func (m *VaultLedgerMetrics) Observe(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		reason := strings.TrimSpace(err.Error())
		if reason == "" {
			reason = "unknown"
		}
		m.errors.WithLabelValues(op, reason).Inc()
	}
	m.requests.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// SetPairHealth publishes the most recent health measurement for a vault
// pair. Nil ratios are ignored.
func (m *VaultLedgerMetrics) SetPairHealth(vault, counter string, health *big.Rat) {
	if m == nil || health == nil {
		return
	}
	value, _ := health.Float64()
	m.health.WithLabelValues(strings.ToUpper(vault), strings.ToUpper(counter)).Set(value)
}
