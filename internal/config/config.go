package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the process configuration, read from the environment
// (a .env file is loaded into the environment by the binaries first).
type Config struct {
	Env  string
	Port string

	Store       string // postgres | memory
	DatabaseURL string
	SeedPath    string

	RedisURL string

	Broker           string // kafka | memory
	KafkaBrokers     []string
	KafkaTopicPrefix string
	KafkaGroupID     string
	TaskDefaultQueue string

	RateSourceURL   string
	RateCacheTTL    time.Duration
	RateLookupTTL   time.Duration // deadline of the interactive rate lookup
	FallbackUSDRate decimal.Decimal

	SweepInterval  time.Duration
	SweepBatchSize int

	SessionCookieName string
	MetricsAddr       string

	LogLevel  string
	LogFormat string
}

// Get returns the environment value for key or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration and validates every typed value.
func Load() (Config, error) {
	cfg := Config{
		Env:               Get("APP_ENV", "development"),
		Port:              Get("PORT", "8080"),
		Store:             strings.ToLower(Get("STORE", "postgres")),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SeedPath:          Get("SEED_PATH", "data/seeds/parcel_types.json"),
		RedisURL:          Get("REDIS_URL", "redis://localhost:6379/0"),
		Broker:            strings.ToLower(Get("BROKER", "kafka")),
		KafkaBrokers:      splitList(Get("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopicPrefix:  Get("KAFKA_TOPIC_PREFIX", "parcels.tasks"),
		KafkaGroupID:      Get("KAFKA_GROUP_ID", "parcel-pricing-worker"),
		TaskDefaultQueue:  Get("TASK_DEFAULT_QUEUE", "default"),
		RateSourceURL:     Get("RATE_SOURCE_URL", "https://www.cbr-xml-daily.ru/daily_json.js"),
		SessionCookieName: Get("SESSION_COOKIE_NAME", "session_id"),
		MetricsAddr:       Get("METRICS_ADDR", ":9091"),
		LogLevel:          Get("LOG_LEVEL", "info"),
		LogFormat:         Get("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.RateCacheTTL, err = duration("RATE_CACHE_TTL", 300*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RateLookupTTL, err = duration("RATE_LOOKUP_TIMEOUT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = duration("SWEEP_INTERVAL", 300*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SweepBatchSize, err = positiveInt("SWEEP_BATCH_SIZE", 100); err != nil {
		return Config{}, err
	}

	rate, err := decimal.NewFromString(Get("FALLBACK_USD_RATE", "90.0"))
	if err != nil || !rate.IsPositive() {
		return Config{}, fmt.Errorf("load config: FALLBACK_USD_RATE must be a positive decimal, got %q", os.Getenv("FALLBACK_USD_RATE"))
	}
	cfg.FallbackUSDRate = rate

	switch cfg.Store {
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return Config{}, fmt.Errorf("load config: DATABASE_URL is required when STORE=postgres")
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("load config: unknown STORE %q", cfg.Store)
	}

	switch cfg.Broker {
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return Config{}, fmt.Errorf("load config: KAFKA_BROKERS is required when BROKER=kafka")
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("load config: unknown BROKER %q", cfg.Broker)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == "production" }

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	// Plain numbers are seconds.
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("load config: %s must be positive, got %q", key, raw)
		}
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("load config: %s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func positiveInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("load config: %s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func splitList(s string) []string {
	out := make([]string, 0, 4)
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
