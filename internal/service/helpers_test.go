package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payment-gateway/internal/domain"
	"payment-gateway/internal/infrastructure/payment"
	"payment-gateway/internal/repo"
)

var testNow = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) New(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s_%016d", prefix, g.n)
}

// spyStore records how the workflow touches the store and can inject failures.
type spyStore struct {
	*repo.MemoryStore
	createCalls int
	createErr   error
	updateErr   error
	findErr     error
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryStore: repo.NewMemoryStore()}
}

func (s *spyStore) FindOrder(ctx context.Context, id, merchantID string) (*domain.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.MemoryStore.FindOrder(ctx, id, merchantID)
}

func (s *spyStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}
	return s.MemoryStore.CreatePayment(ctx, p)
}

func (s *spyStore) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.MemoryStore.UpdateStatus(ctx, id, status)
}

type fakeProvider struct {
	mu      sync.Mutex
	outcome payment.Outcome
	ref     string
	err     error
	block   bool
	calls   int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Settle(ctx context.Context, _ *domain.Payment) (payment.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return payment.Result{Outcome: payment.OutcomePending}, ctx.Err()
	}
	return payment.Result{Outcome: f.outcome, ProviderRef: f.ref}, f.err
}

func (f *fakeProvider) Status(_ context.Context, _ *domain.Payment) (payment.Result, error) {
	return payment.Result{Outcome: f.outcome, ProviderRef: f.ref}, f.err
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func seedOrder(store *spyStore, id, merchantID string, amount int64, currency string) {
	_ = store.MemoryStore.CreateOrder(context.Background(), &domain.Order{
		ID: id, MerchantID: merchantID, Amount: amount, Currency: currency, CreatedAt: testNow,
	})
}
