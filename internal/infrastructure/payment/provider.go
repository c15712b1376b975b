package payment

import (
	"context"

	"payment-gateway/internal/domain"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomePending Outcome = "pending"
)

// Status maps a definitive outcome onto a terminal payment status.
// ok is false for pending outcomes.
func (o Outcome) Status() (status domain.PaymentStatus, ok bool) {
	switch o {
	case OutcomeSuccess:
		return domain.PaymentSucceeded, true
	case OutcomeFailed:
		return domain.PaymentFailed, true
	}
	return domain.PaymentProcessing, false
}

type Result struct {
	Outcome     Outcome
	ProviderRef string
}

// SettlementProvider obtains the outcome of a recorded payment. The payment id
// is the idempotency key: settling the same payment twice must not charge twice.
type SettlementProvider interface {
	Name() string
	Settle(ctx context.Context, p *domain.Payment) (Result, error)
	// Status reports what the provider currently knows about a payment.
	Status(ctx context.Context, p *domain.Payment) (Result, error)
}
