package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"payment-gateway/internal/config"
	"payment-gateway/internal/infrastructure/payment"
	"payment-gateway/internal/logging"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "paymentd",
		Short:         "Payment intake and settlement service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(simulateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and installs the process-wide logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(cfg.ServiceName, cfg.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func newProvider(cfg *config.Config) payment.SettlementProvider {
	if cfg.SettlementProvider == config.ProviderRazorpay {
		return payment.NewRazorpayProvider(cfg.RazorpayKey, cfg.RazorpaySecret)
	}
	return payment.NewSimulatedProvider(
		payment.WithSuccessRate(cfg.SettlementSuccessRate),
		payment.WithDelay(cfg.SettlementDelay),
	)
}
