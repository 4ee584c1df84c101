package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	basePrice      = decimal.NewFromInt(100)
	pricePerKg     = decimal.NewFromInt(50)
	valueShareRate = decimal.RequireFromString("0.01")
)

// Storage column limits, in characters.
const (
	MaxParcelNameLength = 128
	MaxSessionIDLength  = 64
)

// Represents a shipment registered by an anonymous session.
// A Parcel starts unpriced; the recomputation sweep sets DeliveryPrice once the
// exchange rate is known. Weight is in kilograms, ValueUSD in US dollars and
// DeliveryPrice in local currency.
type Parcel struct {
	ID            int64
	Name          string
	Weight        decimal.Decimal
	Type          ParcelType
	ValueUSD      decimal.Decimal
	DeliveryPrice decimal.NullDecimal
	SessionID     string
}

func NewParcel(
	name string,
	weight decimal.Decimal,
	parcelType ParcelType,
	valueUSD decimal.Decimal,
	sessionID string,
) (*Parcel, error) {
	p := &Parcel{
		Name:      strings.TrimSpace(name),
		Weight:    weight,
		Type:      parcelType,
		ValueUSD:  valueUSD,
		SessionID: sessionID,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate re-checks every invariant of the parcel.
func (p *Parcel) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if utf8.RuneCountInString(p.Name) > MaxParcelNameLength {
		return invalid("name", "must be at most 128 characters")
	}
	if utf8.RuneCountInString(p.SessionID) > MaxSessionIDLength {
		return invalid("session_id", "must be at most 64 characters")
	}
	if !p.Weight.IsPositive() {
		return invalid("weight", "must be positive")
	}
	if p.ValueUSD.IsNegative() {
		return invalid("value_usd", "must not be negative")
	}
	if p.DeliveryPrice.Valid && p.DeliveryPrice.Decimal.IsNegative() {
		return invalid("delivery_price", "must not be negative")
	}
	return nil
}

// Compute base + weight*50 + 1% of the declared value converted with usdRate.
// No rounding is applied here.
func (p *Parcel) CalculateDeliveryPrice(usdRate decimal.Decimal) decimal.Decimal {
	weightPrice := p.Weight.Mul(pricePerKg)
	valuePrice := p.ValueUSD.Mul(usdRate).Mul(valueShareRate)
	return basePrice.Add(weightPrice).Add(valuePrice)
}

// SetDeliveryPrice does not refuse an overwrite; callers select unpriced parcels.
func (p *Parcel) SetDeliveryPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return invalid("delivery_price", "must not be negative")
	}
	p.DeliveryPrice = decimal.NewNullDecimal(price)
	return nil
}

func (p *Parcel) IsPriced() bool { return p.DeliveryPrice.Valid }
