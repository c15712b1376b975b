package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"payment-gateway/internal/database"
	"payment-gateway/internal/metrics"
	"payment-gateway/internal/repo"
	"payment-gateway/internal/server"
	"payment-gateway/internal/service"
	"payment-gateway/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var migrate, seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the reconciliation worker",
		Long: `Start the payment API.

Examples:
  paymentd serve
  paymentd serve --migrate --seed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate, seed)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	cmd.Flags().BoolVar(&seed, "seed", false, "create the test merchant before serving")
	return cmd
}

func runServe(ctx context.Context, migrate, seed bool) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("schema_applied")
	}

	ids := service.NewUUIDGenerator()
	orderRepo := repo.NewOrderRepo(db.DB())
	paymentRepo := repo.NewPaymentRepo(db.DB())
	merchants := service.NewMerchantService(repo.NewMerchantRepo(db.DB()), ids)

	if seed {
		if err := merchants.EnsureMerchant(ctx, "Test Merchant", cfg.TestMerchantEmail, cfg.TestMerchantKey, cfg.TestMerchantSecret); err != nil {
			return fmt.Errorf("seed merchant: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	met := metrics.New(reg)

	provider := newProvider(cfg)
	payments := service.NewPaymentService(orderRepo, paymentRepo, provider, ids,
		service.WithSettlementTimeout(cfg.SettlementTimeout),
		service.WithMetrics(met),
	)

	rw := worker.NewReconciliationWorker(paymentRepo, provider, cfg.ReconcileInterval, cfg.ReconcileAfter, logger, met)
	go rw.Run(ctx)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(server.Deps{
		Orders:         service.NewOrderService(orderRepo, ids),
		Payments:       payments,
		Merchants:      merchants,
		Health:         db.Health,
		Metrics:        met,
		Gatherer:       reg,
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins,
		PublicCheckout: cfg.PublicCheckoutEnabled,
	})
	httpSrv := srv.HTTPServer(":" + cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_server_started",
			zap.String("addr", httpSrv.Addr),
			zap.String("provider", provider.Name()),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("http_server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
