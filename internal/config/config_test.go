package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, MissingProductSkip, cfg.MissingProductPolicy)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "1500")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CHECKOUT_MISSING_PRODUCT_POLICY", "FAIL")
	t.Setenv("LOG_ADD_SOURCE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.LogSource)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 1500*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, MissingProductFail, cfg.MissingProductPolicy)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("bad policy", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("CHECKOUT_MISSING_PRODUCT_POLICY", "ignore")
		_, err := Load()
		assert.ErrorContains(t, err, "CHECKOUT_MISSING_PRODUCT_POLICY")
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("POSTGRES_PORT", "abc")
		_, err := Load()
		assert.ErrorContains(t, err, "POSTGRES_PORT")
	})
}
