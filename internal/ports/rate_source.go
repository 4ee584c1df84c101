package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// Contract for the authoritative (slow) exchange rate source.
type RateSource interface {
	// Return the current price of 1 USD in local currency.
	FetchUSDRate(ctx context.Context) (decimal.Decimal, error)
}
