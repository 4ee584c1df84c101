package ports

import (
	"context"
	"parcel-pricing-service/internal/domain"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// Filtering, ordering and pagination options for a session's parcel listing.
// Nil TypeID/HasPrice mean "no filter". OrderBy is a column key (id, name,
// weight, value_usd, delivery_price) with an optional leading "-" for descending.
type ParcelFilter struct {
	TypeID   *int64
	HasPrice *bool
	Limit    int
	Offset   int
	OrderBy  string
}

// Port: a boundary for persisting and retrieving parcels independent of the storage technology.
type ParcelRepository interface {
	// Insert when parcel.ID is zero, update otherwise. Returns the stored parcel with its type resolved.
	Save(ctx context.Context, parcel *domain.Parcel) (*domain.Parcel, error)
	// Look up a parcel owned by sessionID. Other sessions' parcels report domain.ErrNotFound.
	GetByID(ctx context.Context, parcelID int64, sessionID string) (*domain.Parcel, error)
	// List parcels owned by sessionID.
	ListBySession(ctx context.Context, sessionID string, filter ParcelFilter) ([]*domain.Parcel, error)
	// Return at most limit parcels without a delivery price, ordered by id.
	ListUnpriced(ctx context.Context, limit int) ([]*domain.Parcel, error)
	// Same as ListUnpriced, restricted to ids greater than afterID.
	ListUnpricedAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Parcel, error)
	GetTypes(ctx context.Context) ([]domain.ParcelType, error)
	// Reports domain.ErrNotFound for an unknown id.
	GetTypeByID(ctx context.Context, typeID int64) (domain.ParcelType, error)
}
