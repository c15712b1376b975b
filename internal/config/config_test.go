package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, ProviderSimulated, cfg.SettlementProvider)
	assert.Equal(t, 5*time.Second, cfg.SettlementTimeout)
	assert.InDelta(t, 0.7, cfg.SettlementSuccessRate, 1e-9)
	assert.True(t, cfg.PublicCheckoutEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t,
		"postgres://gateway_user:pw@localhost:5432/payment_gateway?sslmode=disable&search_path=public",
		cfg.DSN())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("SETTLEMENT_TIMEOUT", "250ms")
	t.Setenv("SETTLEMENT_SUCCESS_RATE", "1")
	t.Setenv("PUBLIC_CHECKOUT_ENABLED", "false")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, http://localhost:3001")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())
	assert.Equal(t, 250*time.Millisecond, cfg.SettlementTimeout)
	assert.False(t, cfg.PublicCheckoutEnabled)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.CORSOrigins)
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	tests := map[string][2]string{
		"bad duration":     {"SETTLEMENT_TIMEOUT", "soon"},
		"rate too high":    {"SETTLEMENT_SUCCESS_RATE", "1.5"},
		"unknown provider": {"SETTLEMENT_PROVIDER", "stripe"},
		"razorpay no keys": {"SETTLEMENT_PROVIDER", "razorpay"},
		"bad bool":         {"PUBLIC_CHECKOUT_ENABLED", "maybe"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
