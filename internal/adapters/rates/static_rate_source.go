package rates

import (
	"context"
	"parcel-pricing-service/internal/ports"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// StaticRateSource answers every fetch with a fixed rate, or with Err when set.
// Used for offline runs and tests.
type StaticRateSource struct {
	Rate  decimal.Decimal
	Err   error
	calls atomic.Int64
}

var _ ports.RateSource = (*StaticRateSource)(nil)

func NewStaticRateSource(rate decimal.Decimal) *StaticRateSource {
	return &StaticRateSource{Rate: rate}
}

func (s *StaticRateSource) FetchUSDRate(ctx context.Context) (decimal.Decimal, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return decimal.Zero, s.Err
	}
	return s.Rate, nil
}

// Calls reports how many fetches were made.
func (s *StaticRateSource) Calls() int64 { return s.calls.Load() }
