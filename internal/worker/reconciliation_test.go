package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/domain"
	"payment-gateway/internal/infrastructure/payment"
	"payment-gateway/internal/metrics"
	"payment-gateway/internal/repo"
)

type scriptedProvider struct {
	outcomes map[string]payment.Outcome
	errs     map[string]error
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Settle(context.Context, *domain.Payment) (payment.Result, error) {
	return payment.Result{Outcome: payment.OutcomePending}, nil
}

func (s *scriptedProvider) Status(_ context.Context, p *domain.Payment) (payment.Result, error) {
	if err := s.errs[p.ID]; err != nil {
		return payment.Result{}, err
	}
	return payment.Result{Outcome: s.outcomes[p.ID]}, nil
}

func seedProcessing(t *testing.T, store *repo.MemoryStore, id string, createdAt time.Time) {
	t.Helper()
	vpa := "a@b"
	require.NoError(t, store.CreatePayment(context.Background(), &domain.Payment{
		ID: id, OrderID: "ord_1", MerchantID: "m_1", Amount: 500, Currency: "INR",
		Method: domain.MethodUPI, Status: domain.PaymentProcessing, VPA: &vpa,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	}))
}

func statusOf(t *testing.T, store *repo.MemoryStore, id string) domain.PaymentStatus {
	t.Helper()
	p, err := store.FindByID(context.Background(), id, "")
	require.NoError(t, err)
	return p.Status
}

func TestRunOnceResolvesStuckPayments(t *testing.T) {
	store := repo.NewMemoryStore()
	now := time.Now()
	old := now.Add(-5 * time.Minute)

	seedProcessing(t, store, "pay_paid", old)
	seedProcessing(t, store, "pay_declined", old)
	seedProcessing(t, store, "pay_unknown", old)
	seedProcessing(t, store, "pay_broken", old)
	seedProcessing(t, store, "pay_fresh", now)

	provider := &scriptedProvider{
		outcomes: map[string]payment.Outcome{
			"pay_paid":     payment.OutcomeSuccess,
			"pay_declined": payment.OutcomeFailed,
			"pay_unknown":  payment.OutcomePending,
			"pay_fresh":    payment.OutcomeSuccess,
		},
		errs: map[string]error{"pay_broken": errors.New("provider down")},
	}

	rw := NewReconciliationWorker(store, provider, time.Second, time.Minute, nil, metrics.New(prometheus.NewRegistry()))
	resolved, err := rw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, resolved)

	assert.Equal(t, domain.PaymentSucceeded, statusOf(t, store, "pay_paid"))
	assert.Equal(t, domain.PaymentFailed, statusOf(t, store, "pay_declined"))
	assert.Equal(t, domain.PaymentProcessing, statusOf(t, store, "pay_unknown"))
	assert.Equal(t, domain.PaymentProcessing, statusOf(t, store, "pay_broken"))
	assert.Equal(t, domain.PaymentProcessing, statusOf(t, store, "pay_fresh"))
}

func TestRunOnceDoesNotStarveBehindPendingBatch(t *testing.T) {
	store := repo.NewMemoryStore()
	now := time.Now()
	provider := &scriptedProvider{outcomes: map[string]payment.Outcome{}}

	rw := NewReconciliationWorker(store, provider, time.Second, time.Minute, nil, nil)
	for i := range rw.batchSize {
		id := fmt.Sprintf("pay_abandoned_%03d", i)
		seedProcessing(t, store, id, now.Add(-2*time.Hour).Add(time.Duration(i)*time.Second))
		provider.outcomes[id] = payment.OutcomePending
	}
	seedProcessing(t, store, "pay_captured", now.Add(-time.Hour))
	provider.outcomes["pay_captured"] = payment.OutcomeSuccess

	resolved, err := rw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, resolved)

	resolved, err = rw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, domain.PaymentSucceeded, statusOf(t, store, "pay_captured"))
	assert.Equal(t, domain.PaymentProcessing, statusOf(t, store, "pay_abandoned_000"))
}

func TestRunOnceWithSimulatedPhantomCharge(t *testing.T) {
	store := repo.NewMemoryStore()
	sim := payment.NewSimulatedProvider(
		payment.WithRandom(func() float64 { return 0 }),
		payment.WithDelay(time.Second),
	)
	seedProcessing(t, store, "pay_phantom", time.Now().Add(-time.Hour))

	// The caller gives up, but the simulated network has already charged.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	p, err := store.FindByID(context.Background(), "pay_phantom", "")
	require.NoError(t, err)
	_, err = sim.Settle(ctx, p)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	rw := NewReconciliationWorker(store, sim, time.Second, time.Minute, nil, nil)
	resolved, err := rw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, domain.PaymentSucceeded, statusOf(t, store, "pay_phantom"))
}

func TestRunStopsOnCancel(t *testing.T) {
	rw := NewReconciliationWorker(repo.NewMemoryStore(), &scriptedProvider{}, 10*time.Millisecond, time.Minute, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		rw.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
