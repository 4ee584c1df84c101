package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"parcel-pricing-service/internal/domain"
)

// Initialize the Postgres schema. Every statement is idempotent.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createParcelTypesQuery := `
	CREATE TABLE IF NOT EXISTS parcel_types (
		id SERIAL PRIMARY KEY,
		name VARCHAR(32) NOT NULL UNIQUE
	);
	`

	// NUMERIC without scale keeps decimals exactly as given.
	createParcelsQuery := `
	CREATE TABLE IF NOT EXISTS parcels (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(128) NOT NULL,
		weight NUMERIC NOT NULL CHECK (weight > 0),
		type_id INTEGER NOT NULL REFERENCES parcel_types (id),
		value_usd NUMERIC NOT NULL CHECK (value_usd >= 0),
		delivery_price NUMERIC NULL CHECK (delivery_price >= 0),
		session_id VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createSessionIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_parcels_session_id
	ON parcels (session_id, id);
	`

	createUnpricedIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_parcels_unpriced
	ON parcels (id) WHERE delivery_price IS NULL;
	`

	statements := []string{
		createParcelTypesQuery,
		createParcelsQuery,
		createSessionIndexQuery,
		createUnpricedIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type ParcelTypeSeed struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Read and validate the canonical parcel type set from a JSON file.
func LoadParcelTypeSeeds(jsonPath string) ([]ParcelTypeSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed parcel types: read %q: %w", jsonPath, err)
	}

	var data []ParcelTypeSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed parcel types: parse json: %w", err)
	}

	rows := make([]ParcelTypeSeed, 0, len(data))
	seen := make(map[string]struct{}, len(data))
	for i, item := range data {
		if item.ID <= 0 {
			return nil, fmt.Errorf("seed parcel types: invalid id at index %d: %d", i+1, item.ID)
		}

		pt, err := domain.NewParcelType(item.Name)
		if err != nil {
			return nil, fmt.Errorf("seed parcel types: item at index %d: %w", i+1, err)
		}
		if _, dup := seen[pt.Name]; dup {
			return nil, fmt.Errorf("seed parcel types: duplicate name %q at index %d", pt.Name, i+1)
		}
		seen[pt.Name] = struct{}{}

		rows = append(rows, ParcelTypeSeed{ID: item.ID, Name: pt.Name})
	}

	return rows, nil
}

// Upsert the seeded parcel types and move the id sequence past them.
func SeedParcelTypes(ctx context.Context, db *sql.DB, seeds []ParcelTypeSeed) error {
	if db == nil {
		return errors.New("seed parcel types: DB is nil")
	}
	if len(seeds) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed parcel types: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO parcel_types (id, name)
	VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name;
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("seed parcel types: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range seeds {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name); err != nil {
			return fmt.Errorf("seed parcel types: insert id=%d: %w", s.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`SELECT setval('parcel_types_id_seq', (SELECT MAX(id) FROM parcel_types));`,
	); err != nil {
		return fmt.Errorf("seed parcel types: advance sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed parcel types: commit tx: %w", err)
	}

	return nil
}
