package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"payment-gateway/internal/domain"
	"payment-gateway/internal/infrastructure/payment"
	"payment-gateway/internal/logging"
	"payment-gateway/internal/metrics"
	"payment-gateway/internal/repo"
	"payment-gateway/internal/validation"
)

// Scope decides whether the order lookup is restricted to the calling merchant.
type Scope int

const (
	ScopeMerchant Scope = iota
	ScopeUnscoped
)

// Mode bundles the validation policy and lookup scope of one entry point.
type Mode struct {
	Name   string
	Policy validation.Policy
	Scope  Scope
}

var (
	ModeMerchant = Mode{Name: "merchant", Policy: validation.Strict, Scope: ScopeMerchant}
	ModePublic   = Mode{Name: "public", Policy: validation.Loose, Scope: ScopeUnscoped}
)

// Result is the outcome of a payment request that got as far as a stored record.
type Result struct {
	Payment *domain.Payment
	// Pending is set when the payment is stored but still processing;
	// the caller should poll instead of reporting a failure.
	Pending bool
	// PendingReason explains why the payment is still processing.
	PendingReason error
	// Replayed is set when an earlier payment was returned for a repeated idempotency key.
	Replayed bool
}

type PaymentService interface {
	// CreatePayment runs the intake workflow. merchantID is required for
	// merchant-scoped modes and ignored otherwise.
	CreatePayment(ctx context.Context, mode Mode, merchantID string, req domain.PaymentRequest) (*Result, error)
	// GetPayment scopes the lookup to merchantID unless it is empty.
	GetPayment(ctx context.Context, id string, merchantID string) (*domain.Payment, error)
	ListPayments(ctx context.Context, merchantID string, limit, offset int) ([]domain.Payment, error)
}

type paymentService struct {
	orderRepo   repo.OrderRepo
	paymentRepo repo.PaymentRepo
	provider    payment.SettlementProvider
	ids         IDGenerator
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	timeout     time.Duration
	now         func() time.Time
}

type PaymentOption func(*paymentService)

// WithSettlementTimeout bounds each settlement call.
func WithSettlementTimeout(d time.Duration) PaymentOption {
	return func(s *paymentService) { s.timeout = d }
}

func WithMetrics(m *metrics.Metrics) PaymentOption {
	return func(s *paymentService) { s.metrics = m }
}

func WithClock(now func() time.Time) PaymentOption {
	return func(s *paymentService) { s.now = now }
}

const defaultSettlementTimeout = 5 * time.Second

func NewPaymentService(
	orderRepo repo.OrderRepo,
	paymentRepo repo.PaymentRepo,
	provider payment.SettlementProvider,
	ids IDGenerator,
	opts ...PaymentOption,
) PaymentService {
	s := &paymentService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		provider:    provider,
		ids:         ids,
		tracer:      otel.Tracer("payment-gateway/service"),
		timeout:     defaultSettlementTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *paymentService) CreatePayment(ctx context.Context, mode Mode, merchantID string, req domain.PaymentRequest) (_ *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.CreatePayment", trace.WithAttributes(
		attribute.String("mode", mode.Name),
		attribute.String("order.id", req.OrderID),
		attribute.String("payment.method", string(req.Method)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	logger := logging.FromContext(ctx).With(
		zap.String("mode", mode.Name),
		zap.String("order_id", req.OrderID),
		zap.String("method", string(req.Method)),
	)

	// START -> ORDER_RESOLVED
	lookupMerchant := ""
	if mode.Scope == ScopeMerchant {
		if merchantID == "" {
			return nil, domain.ErrMerchantNotFound
		}
		lookupMerchant = merchantID
	}
	order, err := s.orderRepo.FindOrder(ctx, req.OrderID, lookupMerchant)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			logger.Info("payment_rejected", zap.String("reason", "order_not_found"))
			return nil, err
		}
		logger.Error("order_lookup_failed", zap.Error(err))
		return nil, fmt.Errorf("resolve order: %w", domain.ErrInternal)
	}

	if req.IdempotencyKey != "" {
		prev, err := s.paymentRepo.FindByIdempotencyKey(ctx, order.ID, req.IdempotencyKey)
		switch {
		case err == nil:
			logger.Info("payment_replayed", zap.String("payment_id", prev.ID))
			return replay(prev), nil
		case !errors.Is(err, domain.ErrPaymentNotFound):
			logger.Error("idempotency_lookup_failed", zap.Error(err))
			return nil, fmt.Errorf("idempotency lookup: %w", domain.ErrInternal)
		}
	}

	// ORDER_RESOLVED -> INSTRUMENT_VALIDATED
	validator := &validation.Validator{Policy: mode.Policy, Now: s.now}
	inst, err := validator.Validate(req)
	if err != nil {
		reason := "unsupported_method"
		if ie, ok := domain.IsInvalidInstrument(err); ok {
			reason = ie.Reason
		}
		s.metrics.ValidationFailed(reason)
		logger.Info("payment_rejected", zap.String("reason", reason))
		return nil, err
	}

	// INSTRUMENT_VALIDATED -> RECORDED
	p := s.newPayment(order, req, inst)
	if err := s.paymentRepo.CreatePayment(ctx, p); err != nil {
		if errors.Is(err, domain.ErrStoreConflict) && req.IdempotencyKey != "" {
			// A concurrent request with the same key won the insert.
			if prev, findErr := s.paymentRepo.FindByIdempotencyKey(ctx, order.ID, req.IdempotencyKey); findErr == nil {
				logger.Info("payment_replayed", zap.String("payment_id", prev.ID))
				return replay(prev), nil
			}
		}
		logger.Error("payment_create_failed", zap.String("payment_id", p.ID), zap.Error(err))
		return nil, fmt.Errorf("record payment: %w", domain.ErrInternal)
	}
	logger = logger.With(zap.String("payment_id", p.ID))
	logger.Info("payment_created",
		zap.Int64("amount", p.Amount),
		zap.String("currency", p.Currency),
	)

	// RECORDED -> SETTLED
	res := s.settle(ctx, logger, p)
	s.metrics.PaymentCompleted(mode.Name, string(p.Method), string(res.Payment.Status))
	span.SetAttributes(
		attribute.String("payment.id", p.ID),
		attribute.String("payment.status", string(res.Payment.Status)),
	)
	return res, nil
}

func (s *paymentService) newPayment(order *domain.Order, req domain.PaymentRequest, inst *validation.Instrument) *domain.Payment {
	now := s.now().UTC()
	p := &domain.Payment{
		ID:         s.ids.New("pay"),
		OrderID:    order.ID,
		MerchantID: order.MerchantID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Method:     req.Method,
		Status:     domain.PaymentProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch req.Method {
	case domain.MethodUPI:
		vpa := inst.VPA
		p.VPA = &vpa
	case domain.MethodCard:
		network, last4 := string(inst.CardNetwork), inst.CardLast4
		p.CardNetwork = &network
		p.CardLast4 = &last4
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		p.IdempotencyKey = &key
	}
	return p
}

// settle asks the provider for an outcome and writes it. Anything short of a
// definitive, persisted outcome leaves the payment processing.
func (s *paymentService) settle(ctx context.Context, logger *zap.Logger, p *domain.Payment) *Result {
	settleCtx, span := s.tracer.Start(ctx, "settle", trace.WithAttributes(
		attribute.String("provider", s.provider.Name()),
	))
	defer span.End()

	settleCtx, cancel := context.WithTimeout(settleCtx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := s.provider.Settle(settleCtx, p)
	outcome := string(out.Outcome)
	if err != nil {
		outcome = "error"
	}
	s.metrics.ObserveSettlement(s.provider.Name(), outcome, time.Since(start))

	if out.ProviderRef != "" {
		if refErr := s.paymentRepo.SetProviderRef(ctx, p.ID, out.ProviderRef); refErr != nil {
			logger.Error("provider_ref_update_failed", zap.Error(refErr))
		} else {
			ref := out.ProviderRef
			p.ProviderRef = &ref
		}
	}

	if err != nil {
		span.RecordError(err)
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("settlement_timeout", zap.Duration("timeout", s.timeout))
			return pending(p, domain.ErrSettlementTimeout)
		}
		logger.Error("settlement_error", zap.Error(err))
		return pending(p, err)
	}

	status, ok := out.Outcome.Status()
	if !ok {
		logger.Info("settlement_pending")
		return pending(p, nil)
	}

	if err := s.paymentRepo.UpdateStatus(ctx, p.ID, status); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			// Reconciliation got there first; report what is stored.
			if stored, findErr := s.paymentRepo.FindByID(ctx, p.ID, ""); findErr == nil {
				return &Result{Payment: stored, Pending: !stored.Status.IsTerminal()}
			}
		}
		logger.Error("payment_status_update_failed", zap.String("status", string(status)), zap.Error(err))
		return pending(p, err)
	}

	p.Status = status
	p.UpdatedAt = s.now().UTC()
	logger.Info("payment_settled", zap.String("status", string(status)))
	return &Result{Payment: p}
}

func pending(p *domain.Payment, reason error) *Result {
	return &Result{Payment: p, Pending: true, PendingReason: reason}
}

func replay(p *domain.Payment) *Result {
	return &Result{Payment: p, Pending: !p.Status.IsTerminal(), Replayed: true}
}

func (s *paymentService) GetPayment(ctx context.Context, id string, merchantID string) (*domain.Payment, error) {
	p, err := s.paymentRepo.FindByID(ctx, id, merchantID)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, err
	}
	if err != nil {
		logging.FromContext(ctx).Error("payment_lookup_failed", zap.String("payment_id", id), zap.Error(err))
		return nil, fmt.Errorf("get payment: %w", domain.ErrInternal)
	}
	return p, nil
}

const MaxListLimit = 100

// ClampPage applies the list bounds: a missing or oversized limit becomes
// MaxListLimit and a negative offset becomes zero.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit, max(offset, 0)
}

func (s *paymentService) ListPayments(ctx context.Context, merchantID string, limit, offset int) ([]domain.Payment, error) {
	limit, offset = ClampPage(limit, offset)
	ps, err := s.paymentRepo.ListByMerchant(ctx, merchantID, limit, offset)
	if err != nil {
		logging.FromContext(ctx).Error("payment_list_failed", zap.String("merchant_id", merchantID), zap.Error(err))
		return nil, fmt.Errorf("list payments: %w", domain.ErrInternal)
	}
	return ps, nil
}
