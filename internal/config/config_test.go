package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "STORE", "DATABASE_URL", "SEED_PATH", "REDIS_URL", "BROKER",
		"KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX", "KAFKA_GROUP_ID", "TASK_DEFAULT_QUEUE",
		"RATE_SOURCE_URL", "RATE_CACHE_TTL", "RATE_LOOKUP_TIMEOUT", "FALLBACK_USD_RATE", "SWEEP_INTERVAL",
		"SWEEP_BATCH_SIZE", "SESSION_COOKIE_NAME", "METRICS_ADDR", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/parcels")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, "kafka", cfg.Broker)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "default", cfg.TaskDefaultQueue)
	assert.Equal(t, 300*time.Second, cfg.RateCacheTTL)
	assert.Equal(t, 2*time.Second, cfg.RateLookupTTL)
	assert.Equal(t, 300*time.Second, cfg.SweepInterval)
	assert.Equal(t, 100, cfg.SweepBatchSize)
	assert.True(t, cfg.FallbackUSDRate.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, "session_id", cfg.SessionCookieName)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "memory")
	t.Setenv("BROKER", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SWEEP_INTERVAL", "60")
	t.Setenv("RATE_CACHE_TTL", "2m")
	t.Setenv("RATE_LOOKUP_TIMEOUT", "500ms")
	t.Setenv("SWEEP_BATCH_SIZE", "25")
	t.Setenv("FALLBACK_USD_RATE", "95.5")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 2*time.Minute, cfg.RateCacheTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLookupTTL)
	assert.Equal(t, 25, cfg.SweepBatchSize)
	assert.Equal(t, "95.5", cfg.FallbackUSDRate.String())
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string][2]string{
		"missing database url": {"STORE", "postgres"},
		"unknown store":        {"STORE", "mongo"},
		"unknown broker":       {"BROKER", "rabbit"},
		"bad interval":         {"SWEEP_INTERVAL", "soon"},
		"negative batch":       {"SWEEP_BATCH_SIZE", "-1"},
		"zero fallback":        {"FALLBACK_USD_RATE", "0"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			if kv[0] != "STORE" {
				t.Setenv("STORE", "memory")
			}
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGet(t *testing.T) {
	t.Setenv("PARCELS_TEST_KEY", "")
	assert.Equal(t, "fallback", Get("PARCELS_TEST_KEY", "fallback"))

	t.Setenv("PARCELS_TEST_KEY", "set")
	assert.Equal(t, "set", Get("PARCELS_TEST_KEY", "fallback"))
}
