package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics records metadata for the background reconcile sweeps.
type ReconcileMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	resolved *prometheus.CounterVec
}

// NewReconcileMetrics registers the sweep metrics on the provided registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconcile_sweep_duration_seconds",
		Help:    "Duration of reconcile sweeps in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_sweep_success",
		Help: "Successful reconcile sweep executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_sweep_failure",
		Help: "Failed reconcile sweep executions.",
	}, []string{"job"})
	resolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_charges_resolved",
		Help: "Charges moved to a terminal status by the reconcile worker.",
	}, []string{"status"})
	reg.MustRegister(duration, success, failure, resolved)
	return &ReconcileMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		resolved: resolved,
	}
}

// ObserveDuration records the duration for the named sweep.
func (r *ReconcileMetrics) ObserveDuration(job string, duration time.Duration) {
	if r == nil || r.duration == nil {
		return
	}
	r.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named sweep.
func (r *ReconcileMetrics) IncSuccess(job string) {
	if r == nil || r.success == nil {
		return
	}
	r.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named sweep.
func (r *ReconcileMetrics) IncFailure(job string) {
	if r == nil || r.failure == nil {
		return
	}
	r.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncResolved counts a charge the sweep drove to a terminal status.
func (r *ReconcileMetrics) IncResolved(status string) {
	if r == nil || r.resolved == nil {
		return
	}
	r.resolved.WithLabelValues(normalizeLabel(status)).Inc()
}
