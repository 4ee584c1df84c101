package dto

import "github.com/shopspring/decimal"

type RegisterParcelRequest struct {
	Name     string           `json:"name" validate:"required,max=128"`
	Weight   *decimal.Decimal `json:"weight" validate:"required"`
	TypeID   int64            `json:"type_id" validate:"required,gt=0"`
	ValueUSD *decimal.Decimal `json:"value_usd" validate:"required"`
}

// Query string of GET /parcels. Nil pointers mean the parameter was absent.
type ListParcelsQuery struct {
	TypeID   *int64 `json:"type_id" validate:"omitempty,gt=0"`
	HasPrice *bool  `json:"has_price"`
	Limit    *int   `json:"limit" validate:"omitempty,min=1,max=100"`
	Offset   *int   `json:"offset" validate:"omitempty,min=0"`
	OrderBy  string `json:"order_by" validate:"omitempty,oneof=id -id name -name weight -weight value_usd -value_usd delivery_price -delivery_price"`
}

type ParcelResponse struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Weight        decimal.Decimal  `json:"weight"`
	TypeID        int64            `json:"type_id"`
	TypeName      string           `json:"type_name"`
	ValueUSD      decimal.Decimal  `json:"value_usd"`
	DeliveryPrice *decimal.Decimal `json:"delivery_price"`
}

type ListParcelsResponse struct {
	Parcels []ParcelResponse `json:"parcels"`
	// Omitted when the rate source is unavailable.
	USDRate *decimal.Decimal `json:"usd_rate,omitempty"`
}

type ParcelTypeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ListParcelTypesResponse struct {
	Types []ParcelTypeResponse `json:"types"`
}

type RateResponse struct {
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}
