package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"payment-gateway/internal/domain"
	"payment-gateway/internal/infrastructure/payment"
	"payment-gateway/internal/metrics"
	"payment-gateway/internal/repo"
)

const defaultBatchSize = 100

// ReconciliationWorker resolves payments left processing after a lost or slow
// settlement response, using the provider as the source of truth.
type ReconciliationWorker struct {
	paymentRepo repo.PaymentRepo
	gateway     payment.SettlementProvider
	interval    time.Duration
	stuckAfter  time.Duration
	batchSize   int
	logger      *zap.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewReconciliationWorker(
	paymentRepo repo.PaymentRepo,
	gateway payment.SettlementProvider,
	interval time.Duration,
	stuckAfter time.Duration,
	logger *zap.Logger,
	m *metrics.Metrics,
) *ReconciliationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationWorker{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		interval:    interval,
		stuckAfter:  stuckAfter,
		batchSize:   defaultBatchSize,
		logger:      logger.With(zap.String("component", "reconciliation_worker")),
		metrics:     m,
		now:         time.Now,
	}
}

func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("reconciliation_worker_started",
		zap.Duration("interval", rw.interval),
		zap.Duration("stuck_after", rw.stuckAfter),
	)

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("reconciliation_worker_stopped")
			return
		case <-ticker.C:
			if _, err := rw.RunOnce(ctx); err != nil {
				rw.logger.Error("reconciliation_failed", zap.Error(err))
			}
		}
	}
}

// RunOnce reconciles one batch and returns how many payments reached a terminal status.
func (rw *ReconciliationWorker) RunOnce(ctx context.Context) (int, error) {
	stuck, err := rw.paymentRepo.FindProcessingBefore(ctx, rw.now().Add(-rw.stuckAfter), rw.batchSize)
	if err != nil {
		return 0, err
	}
	if len(stuck) == 0 {
		return 0, nil
	}

	rw.logger.Info("stuck_payments_found", zap.Int("count", len(stuck)))

	resolved := 0
	for i := range stuck {
		p := &stuck[i]
		logger := rw.logger.With(zap.String("payment_id", p.ID), zap.String("order_id", p.OrderID))

		res, err := rw.gateway.Status(ctx, p)
		if err != nil {
			logger.Warn("provider_status_failed", zap.Error(err))
			rw.markChecked(ctx, logger, p.ID)
			continue
		}
		status, ok := res.Outcome.Status()
		if !ok {
			rw.markChecked(ctx, logger, p.ID)
			continue
		}

		err = rw.paymentRepo.UpdateStatus(ctx, p.ID, status)
		switch {
		case err == nil:
			resolved++
			rw.metrics.Reconciled(string(status))
			logger.Info("payment_reconciled", zap.String("status", string(status)))
		case errors.Is(err, domain.ErrStatusConflict):
			// The request path wrote the outcome in the meantime.
		default:
			logger.Error("payment_status_update_failed", zap.Error(err))
		}
	}
	return resolved, nil
}

// markChecked sends an unresolved payment to the back of the queue so a batch
// full of long-pending payments cannot starve newer ones.
func (rw *ReconciliationWorker) markChecked(ctx context.Context, logger *zap.Logger, id string) {
	if err := rw.paymentRepo.MarkChecked(ctx, id); err != nil {
		logger.Warn("payment_mark_checked_failed", zap.Error(err))
	}
}
