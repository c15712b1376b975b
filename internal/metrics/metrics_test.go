package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PaymentCompleted("merchant", "upi", "success")
	m.PaymentCompleted("merchant", "upi", "success")
	m.ValidationFailed("vpa")
	m.Reconciled("failed")
	m.ObserveSettlement("simulated", "success", 10*time.Millisecond)
	m.ObserveHTTP("POST", "/api/v1/payments", "201", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.payments.WithLabelValues("merchant", "upi", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("vpa")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciled.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/payments", "201")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.settlementDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PaymentCompleted("public", "card", "failed")
		m.ValidationFailed("card_number")
		m.ObserveSettlement("simulated", "pending", time.Second)
		m.Reconciled("success")
		m.ObserveHTTP("GET", "/health", "200", time.Millisecond)
	})
}
