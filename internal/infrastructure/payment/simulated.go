package payment

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"payment-gateway/internal/domain"
)

const DefaultSuccessRate = 0.7

// SimulatedProvider stands in for a real network. Outcomes are drawn with the
// configured success rate and remembered per payment id.
type SimulatedProvider struct {
	mu          sync.RWMutex
	outcomes    map[string]Outcome
	successRate float64
	delay       time.Duration
	random      func() float64
}

type SimulatedOption func(*SimulatedProvider)

func WithSuccessRate(rate float64) SimulatedOption {
	return func(p *SimulatedProvider) {
		p.successRate = min(max(rate, 0), 1)
	}
}

// WithDelay makes every settlement take d. A caller that gives up earlier still
// gets charged, the way a real network behaves after a lost response.
func WithDelay(d time.Duration) SimulatedOption {
	return func(p *SimulatedProvider) { p.delay = d }
}

// WithRandom replaces the random source, mostly for tests.
func WithRandom(fn func() float64) SimulatedOption {
	return func(p *SimulatedProvider) { p.random = fn }
}

func NewSimulatedProvider(opts ...SimulatedOption) *SimulatedProvider {
	p := &SimulatedProvider{
		outcomes:    make(map[string]Outcome),
		successRate: DefaultSuccessRate,
		random:      rand.Float64,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (sp *SimulatedProvider) Name() string { return "simulated" }

func (sp *SimulatedProvider) Settle(ctx context.Context, p *domain.Payment) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{Outcome: OutcomePending}, err
	}

	sp.mu.Lock()
	outcome, seen := sp.outcomes[p.ID]
	if !seen {
		outcome = OutcomeFailed
		if sp.random() < sp.successRate {
			outcome = OutcomeSuccess
		}
		sp.outcomes[p.ID] = outcome
	}
	sp.mu.Unlock()

	if seen || sp.delay <= 0 {
		return Result{Outcome: outcome}, nil
	}

	timer := time.NewTimer(sp.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		// The outcome is already recorded; only the caller lost the answer.
		return Result{Outcome: OutcomePending}, ctx.Err()
	case <-timer.C:
		return Result{Outcome: outcome}, nil
	}
}

// Status replays the recorded outcome. A payment the simulator never saw was
// never charged and is reported as failed.
func (sp *SimulatedProvider) Status(_ context.Context, p *domain.Payment) (Result, error) {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	if outcome, ok := sp.outcomes[p.ID]; ok {
		return Result{Outcome: outcome}, nil
	}
	return Result{Outcome: OutcomeFailed}, nil
}

func (sp *SimulatedProvider) SuccessRate() float64 {
	return sp.successRate
}
