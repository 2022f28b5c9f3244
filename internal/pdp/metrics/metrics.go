package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision pipeline.
type Metrics struct {
	// Signal gathering latencies by stage
	StageLatency *prometheus.HistogramVec

	// Decision outcomes by verdict and reason
	DecisionOutcome *prometheus.CounterVec

	// Overall evaluation latency
	EvaluateLatency prometheus.Histogram

	// Live session count
	ActiveSessions prometheus.Gauge

	// Sessions revoked by the re-validation loop, by cause
	RevalidationRevocations *prometheus.CounterVec

	// Audit writes that exhausted retries
	AuditFailures prometheus.Counter
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentra_pdp_stage_duration_seconds",
			Help:    "Duration of pipeline stages by name",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stage"}), // stage: "identity", "device", "policy", "session", "audit"

		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentra_pdp_decisions_total",
			Help: "Total access decisions by verdict and reason",
		}, []string{"verdict", "reason"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentra_pdp_evaluate_duration_seconds",
			Help:    "Duration of full access evaluation including audit",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sentra_pdp_active_sessions",
			Help: "Sessions currently live",
		}),

		RevalidationRevocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentra_pdp_revalidation_revocations_total",
			Help: "Sessions revoked by the re-validation loop by cause",
		}, []string{"cause"}), // cause: "policy_changed", "denied"

		AuditFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentra_pdp_audit_failures_total",
			Help: "Audit writes that exhausted retries and failed the decision closed",
		}),
	}
}

// ObserveStageLatency records the duration of one pipeline stage.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(verdict, reason string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(verdict, reason).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// SetActiveSessions re-baselines the live session gauge from a full listing.
func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}

// IncActiveSessions bumps the gauge when a session is issued, keeping it
// current between re-validation sweeps.
func (m *Metrics) IncActiveSessions() {
	if m != nil {
		m.ActiveSessions.Inc()
	}
}

// DecActiveSessions drops the gauge on revocation. Expiries are picked up by
// the next sweep's re-baseline.
func (m *Metrics) DecActiveSessions() {
	if m != nil {
		m.ActiveSessions.Dec()
	}
}

// IncrementRevalidationRevocation records a loop-triggered revocation.
func (m *Metrics) IncrementRevalidationRevocation(cause string) {
	if m != nil {
		m.RevalidationRevocations.WithLabelValues(cause).Inc()
	}
}

// IncrementAuditFailure records an audit write that failed closed.
func (m *Metrics) IncrementAuditFailure() {
	if m != nil {
		m.AuditFailures.Inc()
	}
}
