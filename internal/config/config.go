package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderSimulated = "simulated"
	ProviderRazorpay  = "razorpay"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName string
	Env         string
	Port        string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSchema    string

	SettlementProvider    string
	SettlementTimeout     time.Duration
	SettlementSuccessRate float64
	SettlementDelay       time.Duration
	RazorpayKey           string
	RazorpaySecret        string

	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration

	CORSOrigins           []string
	PublicCheckoutEnabled bool

	TestMerchantEmail  string
	TestMerchantKey    string
	TestMerchantSecret string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServiceName: getenv("SERVICE_NAME", "payment-gateway"),
		Env:         getenv("ENV", "dev"),
		Port:        getenv("PORT", "8000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBPort:      getenv("DB_PORT", "5432"),
		DBUser:      getenv("DB_USER", "gateway_user"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getenv("DB_NAME", "payment_gateway"),
		DBSchema:    getenv("DB_SCHEMA", "public"),

		SettlementProvider: strings.ToLower(getenv("SETTLEMENT_PROVIDER", ProviderSimulated)),
		RazorpayKey:        os.Getenv("RAZORPAY_KEY"),
		RazorpaySecret:     os.Getenv("RAZORPAY_SECRET"),

		CORSOrigins: splitList(getenv("CORS_ORIGINS", "*")),

		TestMerchantEmail:  getenv("TEST_MERCHANT_EMAIL", "test@example.com"),
		TestMerchantKey:    getenv("TEST_MERCHANT_KEY", "key_test_abc123"),
		TestMerchantSecret: getenv("TEST_MERCHANT_SECRET", "secret_test_xyz789"),
	}

	var err error
	if cfg.SettlementTimeout, err = durationEnv("SETTLEMENT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.SettlementDelay, err = durationEnv("SETTLEMENT_DELAY", 0); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = durationEnv("RECONCILE_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReconcileAfter, err = durationEnv("RECONCILE_AFTER", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SettlementSuccessRate, err = floatEnv("SETTLEMENT_SUCCESS_RATE", 0.7); err != nil {
		return nil, err
	}
	if cfg.PublicCheckoutEnabled, err = boolEnv("PUBLIC_CHECKOUT_ENABLED", true); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.SettlementProvider {
	case ProviderSimulated:
	case ProviderRazorpay:
		if c.RazorpayKey == "" || c.RazorpaySecret == "" {
			return errors.New("config: RAZORPAY_KEY and RAZORPAY_SECRET are required for the razorpay provider")
		}
	default:
		return fmt.Errorf("config: unknown SETTLEMENT_PROVIDER %q", c.SettlementProvider)
	}
	if c.SettlementSuccessRate < 0 || c.SettlementSuccessRate > 1 {
		return fmt.Errorf("config: SETTLEMENT_SUCCESS_RATE must be within [0,1], got %v", c.SettlementSuccessRate)
	}
	if c.SettlementTimeout <= 0 {
		return errors.New("config: SETTLEMENT_TIMEOUT must be positive")
	}
	if c.ReconcileInterval <= 0 {
		return errors.New("config: RECONCILE_INTERVAL must be positive")
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a URL assembled from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSchema,
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
