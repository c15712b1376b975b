package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors the service records. A nil *Metrics is a no-op.
type Metrics struct {
	payments           *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	settlementDuration *prometheus.HistogramVec
	reconciled         *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments that reached the end of the workflow, by entry mode, method and resulting status.",
		}, []string{"mode", "method", "status"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_validation_failures_total",
			Help: "Payment requests rejected before a record was created.",
		}, []string{"reason"}),
		settlementDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "settlement_duration_seconds",
			Help:    "Duration of settlement provider calls in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "outcome"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_reconciled_total",
			Help: "Processing payments resolved by the reconciliation worker.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.payments,
		m.validationFailures,
		m.settlementDuration,
		m.reconciled,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) PaymentCompleted(mode, method, status string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(mode, method, status).Inc()
}

func (m *Metrics) ValidationFailed(reason string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveSettlement(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.settlementDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

func (m *Metrics) Reconciled(status string) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
