package services

import (
	"context"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/platform/metrics"
	"parcel-pricing-service/internal/ports"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	USDRateCacheKey     = "usd_rub_rate"
	DefaultRateCacheTTL = 300 * time.Second
)

// DefaultFallbackUSDRate is the order-of-magnitude rate used when nothing better is known.
var DefaultFallbackUSDRate = decimal.NewFromInt(90)

type ExchangeRateConfig struct {
	CacheTTL     time.Duration
	FallbackRate decimal.Decimal
}

// ExchangeRateProvider resolves the USD rate cache-aside: cache first, then the
// source, writing the fetched value back with CacheTTL.
//
// Current is for interactive callers and propagates source failures.
// CurrentOrFallback is for background jobs and never fails.
type ExchangeRateProvider struct {
	cache   ports.RateCache
	source  ports.RateSource
	cfg     ExchangeRateConfig
	log     *zap.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	lastGood decimal.Decimal
}

func NewExchangeRateProvider(
	cache ports.RateCache,
	source ports.RateSource,
	cfg ExchangeRateConfig,
	log *zap.Logger,
	m *metrics.Metrics,
) *ExchangeRateProvider {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultRateCacheTTL
	}
	if !cfg.FallbackRate.IsPositive() {
		cfg.FallbackRate = DefaultFallbackUSDRate
	}
	return &ExchangeRateProvider{
		cache:   cache,
		source:  source,
		cfg:     cfg,
		log:     log.Named("exchange_rate"),
		metrics: m,
	}
}

// Return the current price of 1 USD in local currency.
// Failures of the rate source are reported as domain.ErrUpstreamRate.
func (p *ExchangeRateProvider) Current(ctx context.Context) (decimal.Decimal, error) {
	if rate, ok := p.cached(ctx); ok {
		p.metrics.RateLookup("hit")
		p.remember(rate)
		return rate, nil
	}
	p.metrics.RateLookup("miss")

	rate, err := p.source.FetchUSDRate(ctx)
	if err == nil && !rate.IsPositive() {
		err = fmt.Errorf("source returned non-positive rate %s", rate)
	}
	if err != nil {
		p.metrics.RateLookup("error")
		if !errors.Is(err, domain.ErrUpstreamRate) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstreamRate, err)
		}
		return decimal.Zero, fmt.Errorf("current usd rate: %w", err)
	}

	if err := p.cache.Set(ctx, USDRateCacheKey, rate.String(), p.cfg.CacheTTL); err != nil {
		p.log.Warn("rate cache write failed", zap.Error(err))
	}
	p.remember(rate)
	return rate, nil
}

// Same lookup as Current, but on failure returns the last rate this process
// obtained, or the configured fallback. Either is logged as degraded mode.
func (p *ExchangeRateProvider) CurrentOrFallback(ctx context.Context) decimal.Decimal {
	rate, err := p.Current(ctx)
	if err == nil {
		return rate
	}

	p.metrics.RateFallback()

	p.mu.RLock()
	last := p.lastGood
	p.mu.RUnlock()

	if last.IsPositive() {
		p.log.Warn("degraded mode: using last known usd rate",
			zap.String("rate", last.String()), zap.Error(err))
		return last
	}

	p.log.Warn("degraded mode: using fallback usd rate",
		zap.String("rate", p.cfg.FallbackRate.String()), zap.Error(err))
	return p.cfg.FallbackRate
}

// Read errors and unparseable values count as a miss.
func (p *ExchangeRateProvider) cached(ctx context.Context) (decimal.Decimal, bool) {
	raw, ok, err := p.cache.Get(ctx, USDRateCacheKey)
	if err != nil {
		p.log.Warn("rate cache read failed", zap.Error(err))
		return decimal.Zero, false
	}
	if !ok {
		return decimal.Zero, false
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil || !rate.IsPositive() {
		p.log.Warn("ignoring malformed cached rate", zap.String("value", raw))
		return decimal.Zero, false
	}
	return rate, true
}

func (p *ExchangeRateProvider) remember(rate decimal.Decimal) {
	p.mu.Lock()
	p.lastGood = rate
	p.mu.Unlock()
}
