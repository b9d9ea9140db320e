package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the lifecycle of payment charges and the
// polling loop that confirms them.
type CheckoutMetrics struct {
	chargesCreated *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	pollTicks      *prometheus.CounterVec
	pollDuration   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	chargesCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_charges_created",
		Help: "Provider charges created through the checkout flow.",
	}, []string{"result"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes",
		Help: "Terminal outcomes reached by checkout sessions.",
	}, []string{"status"})
	pollTicks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_poll_ticks",
		Help: "Status poll attempts issued against the payment provider.",
	}, []string{"result"})
	pollDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_poll_duration_seconds",
		Help:    "Duration of individual status poll calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "checkout_active_sessions",
		Help: "Checkout sessions currently awaiting confirmation.",
	})
	reg.MustRegister(chargesCreated, outcomes, pollTicks, pollDuration, activeSessions)
	return &CheckoutMetrics{
		chargesCreated: chargesCreated,
		outcomes:       outcomes,
		pollTicks:      pollTicks,
		pollDuration:   pollDuration,
		activeSessions: activeSessions,
	}
}

// IncChargeCreated counts a charge creation attempt by result
// ("ok", "provider_error", "dependency_error").
func (c *CheckoutMetrics) IncChargeCreated(result string) {
	if c == nil || c.chargesCreated == nil {
		return
	}
	c.chargesCreated.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncOutcome counts a terminal outcome by status name.
func (c *CheckoutMetrics) IncOutcome(status string) {
	if c == nil || c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObservePoll records a single poll attempt with its duration.
func (c *CheckoutMetrics) ObservePoll(result string, duration time.Duration) {
	if c == nil || c.pollTicks == nil {
		return
	}
	label := normalizeLabel(result)
	c.pollTicks.WithLabelValues(label).Inc()
	c.pollDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// SessionStarted increments the active session gauge.
func (c *CheckoutMetrics) SessionStarted() {
	if c == nil || c.activeSessions == nil {
		return
	}
	c.activeSessions.Inc()
}

// SessionFinished decrements the active session gauge.
func (c *CheckoutMetrics) SessionFinished() {
	if c == nil || c.activeSessions == nil {
		return
	}
	c.activeSessions.Dec()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
