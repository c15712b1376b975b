package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"payment-gateway/internal/domain"
	"payment-gateway/internal/logging"
	"payment-gateway/internal/repo"
)

type CreateOrderInput struct {
	Amount   int64
	Currency string
	Receipt  string
}

type OrderService interface {
	CreateOrder(ctx context.Context, merchantID string, in CreateOrderInput) (*domain.Order, error)
	// GetOrder scopes the lookup to merchantID unless it is empty.
	GetOrder(ctx context.Context, id string, merchantID string) (*domain.Order, error)
}

type orderService struct {
	orderRepo repo.OrderRepo
	ids       IDGenerator
	now       func() time.Time
}

func NewOrderService(orderRepo repo.OrderRepo, ids IDGenerator) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		ids:       ids,
		now:       time.Now,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, merchantID string, in CreateOrderInput) (*domain.Order, error) {
	if in.Amount < domain.MinOrderAmount {
		return nil, fmt.Errorf("%w: amount must be at least %d", domain.ErrInvalidOrder, domain.MinOrderAmount)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if !isCurrencyCode(currency) {
		return nil, fmt.Errorf("%w: currency must be a 3-letter ISO 4217 code", domain.ErrInvalidOrder)
	}

	order := &domain.Order{
		ID:         s.ids.New("order"),
		MerchantID: merchantID,
		Amount:     in.Amount,
		Currency:   currency,
		Receipt:    in.Receipt,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		logging.FromContext(ctx).Error("order_create_failed",
			zap.String("merchant_id", merchantID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create order: %w", domain.ErrInternal)
	}

	logging.FromContext(ctx).Info("order_created",
		zap.String("order_id", order.ID),
		zap.String("merchant_id", merchantID),
		zap.Int64("amount", order.Amount),
		zap.String("currency", order.Currency),
	)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string, merchantID string) (*domain.Order, error) {
	order, err := s.orderRepo.FindOrder(ctx, id, merchantID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, err
	}
	if err != nil {
		logging.FromContext(ctx).Error("order_lookup_failed", zap.String("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("get order: %w", domain.ErrInternal)
	}
	return order, nil
}

func isCurrencyCode(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
