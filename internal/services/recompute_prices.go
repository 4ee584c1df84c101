package services

import (
	"context"
	"fmt"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/platform/metrics"
	"parcel-pricing-service/internal/ports"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultSweepBatchSize = 100

// FallbackRateProvider yields a usable rate even when the upstream source is down.
type FallbackRateProvider interface {
	CurrentOrFallback(ctx context.Context) decimal.Decimal
}

type RecomputeResult struct {
	Selected int
	Priced   int
	Failed   int
	Rate     decimal.Decimal
}

func (r RecomputeResult) String() string {
	return fmt.Sprintf("priced=%d failed=%d selected=%d", r.Priced, r.Failed, r.Selected)
}

// PriceRecomputer prices parcels that have no delivery price yet.
// Runs take no locks: the "delivery price is null" selection makes them
// idempotent and concurrent runs at worst write the same price twice.
type PriceRecomputer struct {
	repo      ports.ParcelRepository
	rates     FallbackRateProvider
	log       *zap.Logger
	metrics   *metrics.Metrics
	batchSize int
}

func NewPriceRecomputer(
	repo ports.ParcelRepository,
	rates FallbackRateProvider,
	batchSize int,
	log *zap.Logger,
	m *metrics.Metrics,
) *PriceRecomputer {
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}
	return &PriceRecomputer{
		repo:      repo,
		rates:     rates,
		log:       log.Named("recompute_prices"),
		metrics:   m,
		batchSize: batchSize,
	}
}

// Run prices one page of unpriced parcels. A failing parcel is logged and
// counted; the rest of the page is still processed. When a full page prices
// nothing, the run moves on to the next page by id, so permanently failing
// rows cannot starve newer parcels. Only a failure to select a page is
// returned as an error.
func (r *PriceRecomputer) Run(ctx context.Context, runID string) (RecomputeResult, error) {
	log := r.log.With(zap.String("run_id", runID))
	start := time.Now()

	parcels, err := r.repo.ListUnpricedAfter(ctx, 0, r.batchSize)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("recompute prices: list unpriced: %w", err)
	}

	res := RecomputeResult{}
	if len(parcels) == 0 {
		log.Info("no parcels to price")
		return res, nil
	}

	res.Rate = r.rates.CurrentOrFallback(ctx)
	log.Info("pricing parcels", zap.Int("selected", len(parcels)), zap.String("usd_rate", res.Rate.String()))

	for {
		res.Selected += len(parcels)
		priced, cancelled := r.pricePage(ctx, log, parcels, res.Rate, &res)
		if cancelled || priced > 0 || len(parcels) < r.batchSize {
			break
		}

		after := parcels[len(parcels)-1].ID
		log.Warn("page priced nothing, moving past it", zap.Int64("after_id", after))
		parcels, err = r.repo.ListUnpricedAfter(ctx, after, r.batchSize)
		if err != nil {
			log.Error("failed to select next page", zap.Int64("after_id", after), zap.Error(err))
			break
		}
		if len(parcels) == 0 {
			break
		}
	}

	dur := time.Since(start)
	r.metrics.ObserveSweep(res.Priced, res.Failed, dur)
	log.Info("recompute finished",
		zap.Int("selected", res.Selected),
		zap.Int("priced", res.Priced),
		zap.Int("failed", res.Failed),
		zap.Duration("dur", dur),
	)
	return res, nil
}

func (r *PriceRecomputer) pricePage(
	ctx context.Context,
	log *zap.Logger,
	parcels []*domain.Parcel,
	rate decimal.Decimal,
	res *RecomputeResult,
) (priced int, cancelled bool) {
	for _, p := range parcels {
		if err := ctx.Err(); err != nil {
			// Stop between items rather than mid-write.
			log.Warn("run cancelled", zap.Error(err))
			return priced, true
		}
		if p.IsPriced() {
			continue
		}
		if err := r.priceOne(ctx, p, rate); err != nil {
			res.Failed++
			log.Error("failed to price parcel", zap.Int64("parcel_id", p.ID), zap.Error(err))
			continue
		}
		priced++
		res.Priced++
	}
	return priced, false
}

func (r *PriceRecomputer) priceOne(ctx context.Context, p *domain.Parcel, rate decimal.Decimal) error {
	if p.Type.Name == "" {
		pt, err := r.repo.GetTypeByID(ctx, p.Type.ID)
		if err != nil {
			return fmt.Errorf("resolve type %d: %w", p.Type.ID, err)
		}
		p.Type = pt
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := p.SetDeliveryPrice(p.CalculateDeliveryPrice(rate)); err != nil {
		return err
	}
	if _, err := r.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
