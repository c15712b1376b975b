package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"payment-gateway/internal/domain"
	"payment-gateway/internal/infrastructure/payment"
	"payment-gateway/internal/repo"
	"payment-gateway/internal/service"
	"payment-gateway/internal/worker"
)

type simulation struct {
	orders      int
	successRate float64
	delay       time.Duration
	timeout     time.Duration
}

func simulateCmd() *cobra.Command {
	var sim simulation

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run payments against an in-memory store and reconcile the ones left processing",
		Long: `Create orders and pay them through the simulated provider. A settlement delay
longer than the timeout leaves payments processing even though the provider
charged them; reconciliation then resolves them.

Examples:
  paymentd simulate
  paymentd simulate --orders 50 --delay 300ms --timeout 200ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sim.run(cmd.Context(), cmd.OutOrStdout(), zap.NewNop())
		},
	}

	cmd.Flags().IntVarP(&sim.orders, "orders", "n", 20, "number of orders to pay")
	cmd.Flags().Float64Var(&sim.successRate, "success-rate", payment.DefaultSuccessRate, "simulated success rate")
	cmd.Flags().DurationVar(&sim.delay, "delay", 250*time.Millisecond, "simulated settlement latency")
	cmd.Flags().DurationVar(&sim.timeout, "timeout", 200*time.Millisecond, "settlement timeout")
	return cmd
}

type simulationReport struct {
	Settled    int
	Pending    int
	Reconciled int
	Remaining  int
}

func (sim simulation) run(ctx context.Context, out io.Writer, logger *zap.Logger) error {
	_, err := sim.execute(ctx, out, logger)
	return err
}

func (sim simulation) execute(ctx context.Context, out io.Writer, logger *zap.Logger) (*simulationReport, error) {
	store := repo.NewMemoryStore()
	ids := service.NewUUIDGenerator()
	provider := payment.NewSimulatedProvider(
		payment.WithSuccessRate(sim.successRate),
		payment.WithDelay(sim.delay),
	)
	orders := service.NewOrderService(store, ids)
	payments := service.NewPaymentService(store, store, provider, ids, service.WithSettlementTimeout(sim.timeout))

	const merchantID = "merchant_sim"
	report := &simulationReport{}

	fmt.Fprintf(out, "--- STARTING SIMULATION (%d ORDERS) ---\n", sim.orders)
	for i := range sim.orders {
		order, err := orders.CreateOrder(ctx, merchantID, service.CreateOrderInput{Amount: int64(100 * (i + 1))})
		if err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}

		req := domain.PaymentRequest{OrderID: order.ID, Method: domain.MethodUPI, VPA: fmt.Sprintf("customer%d@upi", i+1)}
		res, err := payments.CreatePayment(ctx, service.ModeMerchant, merchantID, req)
		if err != nil {
			return nil, fmt.Errorf("create payment: %w", err)
		}

		if res.Pending {
			report.Pending++
			fmt.Fprintf(out, "[%d] %s %s -> processing (%v)\n", i+1, order.ID, res.Payment.ID, res.PendingReason)
			continue
		}
		report.Settled++
		fmt.Fprintf(out, "[%d] %s %s -> %s\n", i+1, order.ID, res.Payment.ID, res.Payment.Status)
	}

	// stuckAfter 0 picks up everything still processing right away.
	rw := worker.NewReconciliationWorker(store, provider, time.Second, 0, logger, nil)
	reconciled, err := rw.RunOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	report.Reconciled = reconciled
	report.Remaining = report.Pending - reconciled

	fmt.Fprintln(out, "---------------------------------------------------")
	fmt.Fprintf(out, "settled=%d pending=%d reconciled=%d still_processing=%d\n",
		report.Settled, report.Pending, report.Reconciled, report.Remaining)
	return report, nil
}
