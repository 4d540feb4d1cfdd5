// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MissingProductPolicy decides what checkout does with a cart line whose
// product has been deleted since it was added.
type MissingProductPolicy string

const (
	MissingProductSkip MissingProductPolicy = "skip"
	MissingProductFail MissingProductPolicy = "fail"
)

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	LogSource   bool

	HTTPPort           string
	AdminGRPCPort      string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	JWTSecret          string

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string

	Postgres             PostgresConfig
	SQLitePath           string
	CatalogMigrationsDir string

	KafkaBrokers     []string
	KafkaOrdersTopic string

	MissingProductPolicy MissingProductPolicy
	IdempotencyTTL       time.Duration
}

type PostgresConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	DBName        string
	MigrationsDir string
}

func Load() (*Config, error) {
	pgPort, err := getEnvInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	idemTTL, err := getEnvDuration("CHECKOUT_IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	logSource, err := getEnvBool("LOG_ADD_SOURCE", false)
	if err != nil {
		return nil, err
	}
	maxBody, err := getEnvInt("MAX_REQUEST_BODY_BYTES", 1<<20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "farmbridge-marketplace"),
		Env:         getEnv("APP_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogSource:   logSource,

		HTTPPort:           getEnv("HTTP_PORT", "5001"),
		AdminGRPCPort:      getEnv("ADMIN_GRPC_PORT", "50060"),
		RequestTimeout:     requestTimeout,
		ShutdownTimeout:    shutdownTimeout,
		MaxRequestBodySize: int64(maxBody),
		JWTSecret:          getEnv("JWT_SECRET", ""),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "farmbridge"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		Postgres: PostgresConfig{
			Host:          getEnv("POSTGRES_HOST", "localhost"),
			Port:          pgPort,
			User:          getEnv("POSTGRES_USER", "postgres"),
			Password:      getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:        getEnv("POSTGRES_DB", "orders"),
			MigrationsDir: getEnv("ORDERS_MIGRATIONS_DIR", "internal/orders/repository/migrations"),
		},
		SQLitePath:           getEnv("SQLITE_PATH", "catalog.db"),
		CatalogMigrationsDir: getEnv("CATALOG_MIGRATIONS_DIR", "internal/catalog/repository/migrations"),

		KafkaBrokers:     getEnvList("KAFKA_BROKERS"),
		KafkaOrdersTopic: getEnv("KAFKA_ORDERS_TOPIC", "marketplace-orders"),

		MissingProductPolicy: MissingProductPolicy(strings.ToLower(getEnv("CHECKOUT_MISSING_PRODUCT_POLICY", string(MissingProductSkip)))),
		IdempotencyTTL:       idemTTL,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.MissingProductPolicy {
	case MissingProductSkip, MissingProductFail:
	default:
		return fmt.Errorf("CHECKOUT_MISSING_PRODUCT_POLICY must be %q or %q, got %q",
			MissingProductSkip, MissingProductFail, c.MissingProductPolicy)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, raw, err)
	}
	return v, nil
}

// getEnvDuration accepts Go duration strings ("5s") or a bare number of milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
