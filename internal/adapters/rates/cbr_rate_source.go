package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/ports"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCBRURL = "https://www.cbr-xml-daily.ru/daily_json.js"

// CBRRateSource implements RateSource using the Central Bank of Russia daily JSON feed.
// Only Valute.USD.Value is read. The source is safe for concurrent use.
type CBRRateSource struct {
	session     *http.Client
	url         string
	maxAttempts int
	backoff     time.Duration
}

var _ ports.RateSource = (*CBRRateSource)(nil)

type cbrDaily struct {
	Valute map[string]struct {
		CharCode string          `json:"CharCode"`
		Nominal  decimal.Decimal `json:"Nominal"`
		Value    decimal.Decimal `json:"Value"`
	} `json:"Valute"`
}

func NewCBRRateSource(url string) (*CBRRateSource, error) {
	if url == "" {
		return nil, errors.New("CBR rate source url is empty")
	}

	return &CBRRateSource{
		session:     &http.Client{Timeout: 10 * time.Second},
		url:         url,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}, nil
}

// Fetch the price of 1 USD in roubles.
func (c *CBRRateSource) FetchUSDRate(ctx context.Context) (decimal.Decimal, error) {
	resp, err := c.fetch(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch CBR rate: %w: %w", domain.ErrUpstreamRate, err)
	}
	defer resp.Body.Close()

	var body cbrDaily
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("fetch CBR rate: decode body: %w: %w", domain.ErrUpstreamRate, err)
	}

	usd, ok := body.Valute["USD"]
	if !ok {
		return decimal.Zero, fmt.Errorf("fetch CBR rate: USD missing from payload: %w", domain.ErrUpstreamRate)
	}

	rate := usd.Value
	// Value is quoted per Nominal units.
	if usd.Nominal.GreaterThan(decimal.NewFromInt(1)) {
		rate = rate.Div(usd.Nominal)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("fetch CBR rate: non-positive USD value %s: %w", rate, domain.ErrUpstreamRate)
	}

	return rate, nil
}
