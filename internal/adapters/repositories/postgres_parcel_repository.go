package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/ports"
	"strings"

	"github.com/shopspring/decimal"
)

// Postgres-backed implementation of the ParcelRepository port.
type PostgresParcelRepository struct{ DB *sql.DB }

func NewPostgresParcelRepository(db *sql.DB) *PostgresParcelRepository {
	return &PostgresParcelRepository{DB: db}
}

var _ ports.ParcelRepository = (*PostgresParcelRepository)(nil)

const parcelColumns = `p.id, p.name, p.weight, p.value_usd, p.delivery_price, p.session_id, t.id, t.name`

var orderColumns = map[string]string{
	"id":             "p.id",
	"name":           "p.name",
	"weight":         "p.weight",
	"value_usd":      "p.value_usd",
	"delivery_price": "p.delivery_price",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParcel(row rowScanner) (*domain.Parcel, error) {
	var (
		p     domain.Parcel
		price decimal.NullDecimal
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Weight,
		&p.ValueUSD,
		&price,
		&p.SessionID,
		&p.Type.ID,
		&p.Type.Name,
	)
	if err != nil {
		return nil, err
	}
	p.DeliveryPrice = price
	return &p, nil
}

func (s *PostgresParcelRepository) queryParcels(ctx context.Context, op string, query string, args ...any) ([]*domain.Parcel, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query parcels table: %w: %w", op, domain.ErrPersistence, err)
	}
	defer rows.Close()

	parcels := make([]*domain.Parcel, 0, 16)
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w: %w", op, domain.ErrPersistence, err)
		}
		parcels = append(parcels, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: row iteration: %w: %w", op, domain.ErrPersistence, err)
	}

	return parcels, nil
}

// Insert or update a parcel and read it back joined with its type.
func (s *PostgresParcelRepository) Save(ctx context.Context, parcel *domain.Parcel) (*domain.Parcel, error) {
	if s.DB == nil {
		return nil, errors.New("postgres parcel repository: DB is nil")
	}
	if parcel == nil {
		return nil, errors.New("save parcel: parcel is nil")
	}

	var query string
	var args []any
	if parcel.ID == 0 {
		query = `
		WITH p AS (
			INSERT INTO parcels (name, weight, type_id, value_usd, delivery_price, session_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT ` + parcelColumns + `
		FROM p
		JOIN parcel_types t ON t.id = p.type_id;
		`
		args = []any{
			parcel.Name,
			parcel.Weight,
			parcel.Type.ID,
			parcel.ValueUSD,
			parcel.DeliveryPrice,
			parcel.SessionID,
		}
	} else {
		query = `
		WITH p AS (
			UPDATE parcels
			SET name = $1, weight = $2, type_id = $3, value_usd = $4, delivery_price = $5
			WHERE id = $6
			RETURNING *
		)
		SELECT ` + parcelColumns + `
		FROM p
		JOIN parcel_types t ON t.id = p.type_id;
		`
		args = []any{
			parcel.Name,
			parcel.Weight,
			parcel.Type.ID,
			parcel.ValueUSD,
			parcel.DeliveryPrice,
			parcel.ID,
		}
	}

	saved, err := scanParcel(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("save parcel id=%d: %w", parcel.ID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("save parcel id=%d: %w: %w", parcel.ID, domain.ErrPersistence, err)
	}

	return saved, nil
}

// Return the parcel only when it belongs to sessionID.
func (s *PostgresParcelRepository) GetByID(ctx context.Context, parcelID int64, sessionID string) (*domain.Parcel, error) {
	if s.DB == nil {
		return nil, errors.New("postgres parcel repository: DB is nil")
	}

	query := `
	SELECT ` + parcelColumns + `
	FROM parcels p
	JOIN parcel_types t ON t.id = p.type_id
	WHERE p.id = $1 AND p.session_id = $2;
	`
	p, err := scanParcel(s.DB.QueryRowContext(ctx, query, parcelID, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get parcel id=%d: %w", parcelID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get parcel id=%d: %w: %w", parcelID, domain.ErrPersistence, err)
	}

	return p, nil
}

// List a session's parcels with optional type/price filters, ordering and pagination.
func (s *PostgresParcelRepository) ListBySession(
	ctx context.Context,
	sessionID string,
	filter ports.ParcelFilter,
) ([]*domain.Parcel, error) {
	if s.DB == nil {
		return nil, errors.New("postgres parcel repository: DB is nil")
	}

	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}

	where := []string{"p.session_id = $1"}
	args := []any{sessionID}

	if filter.TypeID != nil {
		args = append(args, *filter.TypeID)
		where = append(where, fmt.Sprintf("p.type_id = $%d", len(args)))
	}
	if filter.HasPrice != nil {
		if *filter.HasPrice {
			where = append(where, "p.delivery_price IS NOT NULL")
		} else {
			where = append(where, "p.delivery_price IS NULL")
		}
	}

	column, desc := orderKey(filter.OrderBy)
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	orderBy := orderColumns[column] + " " + direction
	if column != "id" {
		orderBy += ", p.id ASC"
	}

	args = append(args, filter.Limit, filter.Offset)
	query := `
	SELECT ` + parcelColumns + `
	FROM parcels p
	JOIN parcel_types t ON t.id = p.type_id
	WHERE ` + strings.Join(where, " AND ") + `
	ORDER BY ` + orderBy + `
	LIMIT $` + fmt.Sprint(len(args)-1) + ` OFFSET $` + fmt.Sprint(len(args)) + `;
	`

	return s.queryParcels(ctx, "list parcels", query, args...)
}

// Return parcels still waiting for a delivery price.
func (s *PostgresParcelRepository) ListUnpriced(ctx context.Context, limit int) ([]*domain.Parcel, error) {
	return s.ListUnpricedAfter(ctx, 0, limit)
}

// Keyset page over unpriced parcels; afterID is the last id of the previous page.
func (s *PostgresParcelRepository) ListUnpricedAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Parcel, error) {
	if s.DB == nil {
		return nil, errors.New("postgres parcel repository: DB is nil")
	}
	if limit <= 0 {
		return []*domain.Parcel{}, nil
	}

	query := `
	SELECT ` + parcelColumns + `
	FROM parcels p
	JOIN parcel_types t ON t.id = p.type_id
	WHERE p.delivery_price IS NULL AND p.id > $1
	ORDER BY p.id
	LIMIT $2;
	`
	return s.queryParcels(ctx, "list unpriced parcels", query, afterID, limit)
}

func (s *PostgresParcelRepository) GetTypes(ctx context.Context) ([]domain.ParcelType, error) {
	if s.DB == nil {
		return nil, errors.New("postgres parcel repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name FROM parcel_types ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list parcel types: query parcel_types table: %w: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	types := make([]domain.ParcelType, 0, 8)
	for rows.Next() {
		var pt domain.ParcelType
		if err := rows.Scan(&pt.ID, &pt.Name); err != nil {
			return nil, fmt.Errorf("list parcel types: scan row: %w: %w", domain.ErrPersistence, err)
		}
		types = append(types, pt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list parcel types: row iteration: %w: %w", domain.ErrPersistence, err)
	}

	return types, nil
}

func (s *PostgresParcelRepository) GetTypeByID(ctx context.Context, typeID int64) (domain.ParcelType, error) {
	if s.DB == nil {
		return domain.ParcelType{}, errors.New("postgres parcel repository: DB is nil")
	}

	var pt domain.ParcelType
	err := s.DB.QueryRowContext(ctx, `SELECT id, name FROM parcel_types WHERE id = $1;`, typeID).
		Scan(&pt.ID, &pt.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ParcelType{}, fmt.Errorf("get parcel type id=%d: %w", typeID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.ParcelType{}, fmt.Errorf("get parcel type id=%d: %w: %w", typeID, domain.ErrPersistence, err)
	}

	return pt, nil
}
