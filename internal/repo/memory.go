package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"payment-gateway/internal/domain"
)

// MemoryStore is an in-process implementation of the order, payment and
// merchant repositories, used by tests and the simulate command.
type MemoryStore struct {
	mu          sync.RWMutex
	orders      map[string]domain.Order
	payments    map[string]domain.Payment
	idempotency map[string]string // order_id + "\x00" + key -> payment id
	merchants   map[string]domain.Merchant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:      make(map[string]domain.Order),
		payments:    make(map[string]domain.Payment),
		idempotency: make(map[string]string),
		merchants:   make(map[string]domain.Merchant),
	}
}

var (
	_ OrderRepo    = (*MemoryStore)(nil)
	_ PaymentRepo  = (*MemoryStore)(nil)
	_ MerchantRepo = (*MemoryStore)(nil)
)

func idempotencyIndex(orderID, key string) string {
	return orderID + "\x00" + key
}

func (s *MemoryStore) FindOrder(_ context.Context, id string, merchantID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok || (merchantID != "" && o.MerchantID != merchantID) {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return domain.ErrStoreConflict
	}
	s.orders[order.ID] = *order
	return nil
}

func (s *MemoryStore) CreatePayment(_ context.Context, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[payment.ID]; ok {
		return domain.ErrStoreConflict
	}
	if payment.IdempotencyKey != nil {
		idx := idempotencyIndex(payment.OrderID, *payment.IdempotencyKey)
		if _, ok := s.idempotency[idx]; ok {
			return domain.ErrStoreConflict
		}
		s.idempotency[idx] = payment.ID
	}
	s.payments[payment.ID] = *payment
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status domain.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !status.IsTerminal() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	p, ok := s.payments[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	if p.Status != domain.PaymentProcessing {
		return domain.ErrStatusConflict
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	s.payments[id] = p
	return nil
}

func (s *MemoryStore) MarkChecked(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.payments[id]; ok && p.Status == domain.PaymentProcessing {
		p.UpdatedAt = time.Now()
		s.payments[id] = p
	}
	return nil
}

func (s *MemoryStore) SetProviderRef(_ context.Context, id string, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	p.ProviderRef = &ref
	p.UpdatedAt = time.Now()
	s.payments[id] = p
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string, merchantID string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok || (merchantID != "" && p.MerchantID != merchantID) {
		return nil, domain.ErrPaymentNotFound
	}
	return &p, nil
}

func (s *MemoryStore) FindByIdempotencyKey(_ context.Context, orderID string, key string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.idempotency[idempotencyIndex(orderID, key)]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	p := s.payments[id]
	return &p, nil
}

func (s *MemoryStore) ListByMerchant(_ context.Context, merchantID string, limit, offset int) ([]domain.Payment, error) {
	s.mu.RLock()
	var out []domain.Payment
	for _, p := range s.payments {
		if p.MerchantID == merchantID {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset), nil
}

func (s *MemoryStore) FindProcessingBefore(_ context.Context, before time.Time, limit int) ([]domain.Payment, error) {
	s.mu.RLock()
	var out []domain.Payment
	for _, p := range s.payments {
		if p.Status == domain.PaymentProcessing && p.CreatedAt.Before(before) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return page(out, limit, 0), nil
}

func (s *MemoryStore) FindByAPIKey(_ context.Context, apiKey string) (*domain.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.merchants {
		if m.APIKey == apiKey {
			return &m, nil
		}
	}
	return nil, domain.ErrMerchantNotFound
}

func (s *MemoryStore) CreateMerchant(_ context.Context, m *domain.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.merchants {
		if existing.Email == m.Email {
			return nil
		}
		if existing.APIKey == m.APIKey {
			return domain.ErrStoreConflict
		}
	}
	s.merchants[m.ID] = *m
	return nil
}

func page(ps []domain.Payment, limit, offset int) []domain.Payment {
	if offset >= len(ps) {
		return nil
	}
	ps = ps[offset:]
	if limit > 0 && limit < len(ps) {
		ps = ps[:limit]
	}
	return ps
}
