package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"payment-gateway/internal/database"
	"payment-gateway/internal/repo"
	"payment-gateway/internal/service"
)

func migrateCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			db, err := database.Open(ctx, cfg.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("schema_applied")

			if !seed {
				return nil
			}
			merchants := service.NewMerchantService(repo.NewMerchantRepo(db.DB()), service.NewUUIDGenerator())
			if err := merchants.EnsureMerchant(ctx, "Test Merchant", cfg.TestMerchantEmail, cfg.TestMerchantKey, cfg.TestMerchantSecret); err != nil {
				return fmt.Errorf("seed merchant: %w", err)
			}
			logger.Info("test_merchant_seeded", zap.String("email", cfg.TestMerchantEmail))
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "create the test merchant if missing")
	return cmd
}
