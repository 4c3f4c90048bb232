package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is everything the register service reads from the environment.
// Empty PostgresURL, KafkaAddr, RedisAddr or CatalogURL switch the
// corresponding dependency off and the service degrades to its in-process
// fallback, so a bare `go run` works with zero infrastructure.
type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	PostgresURL string
	KafkaAddr   string
	SalesTopic  string
	RedisAddr   string

	CatalogURL      string
	CatalogTimeout  time.Duration
	CatalogCacheTTL time.Duration

	OTLPEndpoint string

	Currency          string
	CurrencyPrecision int32
	DefaultTaxRate    decimal.Decimal

	IdempotencyTTL time.Duration
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:          getEnv("ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		PostgresURL:  getEnv("PG_URL", ""),
		KafkaAddr:    getEnv("KAFKA_ADDR", ""),
		SalesTopic:   getEnv("SALES_TOPIC", "sales.events"),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		CatalogURL:   getEnv("CATALOG_URL", ""),
		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
		Currency:     getEnv("CURRENCY", "USD"),
	}

	var err error
	if cfg.CatalogTimeout, err = getDuration("CATALOG_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CatalogCacheTTL, err = getDuration("CATALOG_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	precision, err := getInt("CURRENCY_PRECISION", 2)
	if err != nil {
		return Config{}, err
	}
	cfg.CurrencyPrecision = int32(precision)

	rate := getEnv("DEFAULT_TAX_RATE", "0")
	if cfg.DefaultTaxRate, err = decimal.NewFromString(rate); err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_TAX_RATE %q: %w", rate, err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	return d, nil
}
