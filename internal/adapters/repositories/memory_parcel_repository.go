package repositories

import (
	"context"
	"fmt"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/ports"
	"sort"
	"sync"
	"unicode/utf8"
)

// In-memory implementation of the ParcelRepository port for tests and
// single-process local runs. Safe for concurrent use.
type MemoryParcelRepository struct {
	mu      sync.RWMutex
	nextID  int64
	parcels map[int64]domain.Parcel
	types   map[int64]domain.ParcelType
}

var _ ports.ParcelRepository = (*MemoryParcelRepository)(nil)

func NewMemoryParcelRepository(types []domain.ParcelType) *MemoryParcelRepository {
	r := &MemoryParcelRepository{
		parcels: make(map[int64]domain.Parcel),
		types:   make(map[int64]domain.ParcelType, len(types)),
	}
	for _, t := range types {
		r.types[t.ID] = t
	}
	return r
}

// Entities are copied in and out so callers never share state with the store.
func (r *MemoryParcelRepository) Save(ctx context.Context, parcel *domain.Parcel) (*domain.Parcel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if parcel == nil {
		return nil, fmt.Errorf("save parcel: parcel is nil")
	}

	// Mirror the VARCHAR limits of the parcels table.
	if utf8.RuneCountInString(parcel.Name) > domain.MaxParcelNameLength ||
		utf8.RuneCountInString(parcel.SessionID) > domain.MaxSessionIDLength {
		return nil, fmt.Errorf("save parcel: value too long for column: %w", domain.ErrPersistence)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pt, ok := r.types[parcel.Type.ID]
	if !ok {
		return nil, fmt.Errorf("save parcel: type_id=%d violates foreign key: %w", parcel.Type.ID, domain.ErrPersistence)
	}

	stored := *parcel
	stored.Type = pt
	if stored.ID == 0 {
		r.nextID++
		stored.ID = r.nextID
	} else {
		prev, ok := r.parcels[stored.ID]
		if !ok {
			return nil, fmt.Errorf("save parcel id=%d: %w", stored.ID, domain.ErrNotFound)
		}
		// The owning session is fixed at registration.
		stored.SessionID = prev.SessionID
	}
	r.parcels[stored.ID] = stored

	out := stored
	return &out, nil
}

func (r *MemoryParcelRepository) GetByID(ctx context.Context, parcelID int64, sessionID string) (*domain.Parcel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.parcels[parcelID]
	if !ok || p.SessionID != sessionID {
		return nil, fmt.Errorf("get parcel id=%d: %w", parcelID, domain.ErrNotFound)
	}
	return &p, nil
}

func (r *MemoryParcelRepository) ListBySession(
	ctx context.Context,
	sessionID string,
	filter ports.ParcelFilter,
) ([]*domain.Parcel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}

	r.mu.RLock()
	matched := make([]domain.Parcel, 0, len(r.parcels))
	for _, p := range r.parcels {
		if p.SessionID != sessionID {
			continue
		}
		if filter.TypeID != nil && p.Type.ID != *filter.TypeID {
			continue
		}
		if filter.HasPrice != nil && p.IsPriced() != *filter.HasPrice {
			continue
		}
		matched = append(matched, p)
	}
	r.mu.RUnlock()

	column, desc := orderKey(filter.OrderBy)
	sort.SliceStable(matched, func(i, j int) bool {
		c := compareParcels(&matched[i], &matched[j], column)
		if c == 0 {
			return matched[i].ID < matched[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	return page(matched, filter.Offset, filter.Limit), nil
}

func (r *MemoryParcelRepository) ListUnpriced(ctx context.Context, limit int) ([]*domain.Parcel, error) {
	return r.ListUnpricedAfter(ctx, 0, limit)
}

func (r *MemoryParcelRepository) ListUnpricedAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Parcel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []*domain.Parcel{}, nil
	}

	r.mu.RLock()
	matched := make([]domain.Parcel, 0, limit)
	for _, p := range r.parcels {
		if !p.IsPriced() && p.ID > afterID {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return page(matched, 0, limit), nil
}

func (r *MemoryParcelRepository) GetTypes(ctx context.Context) ([]domain.ParcelType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.ParcelType, 0, len(r.types))
	for _, t := range r.types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types, nil
}

func (r *MemoryParcelRepository) GetTypeByID(ctx context.Context, typeID int64) (domain.ParcelType, error) {
	if err := ctx.Err(); err != nil {
		return domain.ParcelType{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[typeID]
	if !ok {
		return domain.ParcelType{}, fmt.Errorf("get parcel type id=%d: %w", typeID, domain.ErrNotFound)
	}
	return t, nil
}

// NULL prices sort last in ascending order, as in Postgres.
func compareParcels(a, b *domain.Parcel, column string) int {
	switch column {
	case "name":
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	case "weight":
		return a.Weight.Cmp(b.Weight)
	case "value_usd":
		return a.ValueUSD.Cmp(b.ValueUSD)
	case "delivery_price":
		switch {
		case !a.IsPriced() && !b.IsPriced():
			return 0
		case !a.IsPriced():
			return 1
		case !b.IsPriced():
			return -1
		}
		return a.DeliveryPrice.Decimal.Cmp(b.DeliveryPrice.Decimal)
	default:
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	}
}

func page(parcels []domain.Parcel, offset, limit int) []*domain.Parcel {
	if offset >= len(parcels) {
		return []*domain.Parcel{}
	}
	end := offset + limit
	if end > len(parcels) {
		end = len(parcels)
	}

	out := make([]*domain.Parcel, 0, end-offset)
	for i := offset; i < end; i++ {
		p := parcels[i]
		out = append(out, &p)
	}
	return out
}
