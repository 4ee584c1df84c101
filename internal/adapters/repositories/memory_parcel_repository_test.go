package repositories

import (
	"context"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/ports"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seededTypes = []domain.ParcelType{
	{ID: 1, Name: "Clothing"},
	{ID: 2, Name: "Electronics"},
	{ID: 3, Name: "Other"},
}

func mustSave(t *testing.T, repo *MemoryParcelRepository, name, weight string, typeID int64, value, session string) *domain.Parcel {
	t.Helper()
	p, err := domain.NewParcel(name, decimal.RequireFromString(weight), domain.ParcelType{ID: typeID}, decimal.RequireFromString(value), session)
	require.NoError(t, err)
	saved, err := repo.Save(context.Background(), p)
	require.NoError(t, err)
	return saved
}

func TestMemorySaveAssignsIDAndResolvesType(t *testing.T) {
	repo := NewMemoryParcelRepository(seededTypes)

	saved := mustSave(t, repo, "Book", "1.0", 1, "20", "S1")
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, "Clothing", saved.Type.Name)

	saved.Name = "mutated"
	again, err := repo.GetByID(context.Background(), 1, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Book", again.Name)
}

func TestMemorySaveRejectsUnknownTypeAndMissingParcel(t *testing.T) {
	repo := NewMemoryParcelRepository(seededTypes)

	_, err := repo.Save(context.Background(), &domain.Parcel{Name: "x", Weight: decimal.NewFromInt(1), Type: domain.ParcelType{ID: 42}})
	assert.ErrorIs(t, err, domain.ErrPersistence)

	_, err = repo.Save(context.Background(), &domain.Parcel{ID: 5, Name: "x", Weight: decimal.NewFromInt(1), Type: domain.ParcelType{ID: 1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.Save(context.Background(), &domain.Parcel{Name: strings.Repeat("x", 129), Weight: decimal.NewFromInt(1), Type: domain.ParcelType{ID: 1}})
	assert.ErrorIs(t, err, domain.ErrPersistence)

	_, err = repo.Save(context.Background(), &domain.Parcel{Name: "x", Weight: decimal.NewFromInt(1), Type: domain.ParcelType{ID: 1}, SessionID: strings.Repeat("s", 65)})
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestMemoryGetByIDIsolatesSessions(t *testing.T) {
	repo := NewMemoryParcelRepository(seededTypes)
	for i := 0; i < 6; i++ {
		mustSave(t, repo, "filler", "1", 3, "0", "S1")
	}
	p := mustSave(t, repo, "Secret", "1", 3, "0", "S2")
	require.Equal(t, int64(7), p.ID)

	_, err := repo.GetByID(context.Background(), 7, "S1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := repo.GetByID(context.Background(), 7, "S2")
	require.NoError(t, err)
	assert.Equal(t, "Secret", got.Name)
}

func TestMemoryListBySessionFiltersAndPages(t *testing.T) {
	repo := NewMemoryParcelRepository(seededTypes)
	ctx := context.Background()

	mustSave(t, repo, "Shirt", "0.3", 1, "15", "S1")
	phone := mustSave(t, repo, "Phone", "0.4", 2, "300", "S1")
	mustSave(t, repo, "Laptop", "2.5", 2, "900", "S1")
	mustSave(t, repo, "Other session", "1", 2, "1", "S2")

	require.NoError(t, phone.SetDeliveryPrice(decimal.NewFromInt(390)))
	_, err := repo.Save(ctx, phone)
	require.NoError(t, err)

	all, err := repo.ListBySession(ctx, "S1", ports.ParcelFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Shirt", "Phone", "Laptop"}, names(all))

	electronics := int64(2)
	got, err := repo.ListBySession(ctx, "S1", ports.ParcelFilter{TypeID: &electronics})
	require.NoError(t, err)
	assert.Equal(t, []string{"Phone", "Laptop"}, names(got))

	priced := true
	got, err = repo.ListBySession(ctx, "S1", ports.ParcelFilter{HasPrice: &priced})
	require.NoError(t, err)
	assert.Equal(t, []string{"Phone"}, names(got))

	unpriced := false
	got, err = repo.ListBySession(ctx, "S1", ports.ParcelFilter{HasPrice: &unpriced, OrderBy: "-weight"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Laptop", "Shirt"}, names(got))

	got, err = repo.ListBySession(ctx, "S1", ports.ParcelFilter{OrderBy: "name", Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Phone", "Shirt"}, names(got))

	got, err = repo.ListBySession(ctx, "S1", ports.ParcelFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = repo.ListBySession(ctx, "S1", ports.ParcelFilter{Limit: 101})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMemoryListUnpricedNeverReturnsPricedParcels(t *testing.T) {
	repo := NewMemoryParcelRepository(seededTypes)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := mustSave(t, repo, "p", "1", 3, "1", "S1")
		if i%2 == 0 {
			require.NoError(t, p.SetDeliveryPrice(decimal.NewFromInt(151)))
			_, err := repo.Save(ctx, p)
			require.NoError(t, err)
		}
	}

	got, err := repo.ListUnpriced(ctx, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)

	got, err = repo.ListUnpriced(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.ListUnpricedAfter(ctx, 2, 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].ID)
}

func TestMemoryTypes(t *testing.T) {
	repo := NewMemoryParcelRepository([]domain.ParcelType{seededTypes[2], seededTypes[0]})

	types, err := repo.GetTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ParcelType{seededTypes[0], seededTypes[2]}, types)

	_, err = repo.GetTypeByID(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func names(parcels []*domain.Parcel) []string {
	out := make([]string, 0, len(parcels))
	for _, p := range parcels {
		out = append(out, p.Name)
	}
	return out
}
