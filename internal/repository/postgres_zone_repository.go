package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// PostgresZoneRepository persists delivery zones in PostgreSQL.
type PostgresZoneRepository struct {
	db *sql.DB
}

// NewPostgresZoneRepository constructs a PostgreSQL-backed zone repository.
func NewPostgresZoneRepository(db *sql.DB) *PostgresZoneRepository {
	return &PostgresZoneRepository{db: db}
}

const zoneColumns = `id, name, cities, neighborhoods, delivery_fee, estimated_minutes, available, created_at`

func (r *PostgresZoneRepository) ListAll(ctx context.Context) ([]models.DeliveryZone, error) {
	query := `SELECT ` + zoneColumns + ` FROM delivery_zones ORDER BY created_at, id`
	return r.queryZones(ctx, query)
}

func (r *PostgresZoneRepository) FindZonesContainingCity(ctx context.Context, city string) ([]models.DeliveryZone, error) {
	query := `
		SELECT ` + zoneColumns + `
		FROM delivery_zones
		WHERE cities @> jsonb_build_array($1::text)
		ORDER BY created_at, id
	`
	return r.queryZones(ctx, query, city)
}

func (r *PostgresZoneRepository) FindZoneByCityAndNeighborhood(ctx context.Context, city, neighborhood string) (*models.DeliveryZone, error) {
	query := `
		SELECT ` + zoneColumns + `
		FROM delivery_zones
		WHERE available
		  AND cities @> jsonb_build_array($1::text)
		  AND neighborhoods @> jsonb_build_array(
		        jsonb_build_object('city', $1::text, 'name', $2::text, 'available', true))
		ORDER BY created_at, id
		LIMIT 1
	`
	zone, err := scanZone(r.db.QueryRowContext(ctx, query, city, neighborhood))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrZoneNotFound
	}
	return zone, err
}

func (r *PostgresZoneRepository) Upsert(ctx context.Context, zone models.DeliveryZone) error {
	cities, err := json.Marshal(zone.Cities)
	if err != nil {
		return fmt.Errorf("marshal cities: %w", err)
	}
	neighborhoods, err := json.Marshal(zone.Neighborhoods)
	if err != nil {
		return fmt.Errorf("marshal neighborhoods: %w", err)
	}
	createdAt := zone.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO delivery_zones (` + zoneColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			cities = EXCLUDED.cities,
			neighborhoods = EXCLUDED.neighborhoods,
			delivery_fee = EXCLUDED.delivery_fee,
			estimated_minutes = EXCLUDED.estimated_minutes,
			available = EXCLUDED.available
	`
	_, err = r.db.ExecContext(ctx, query,
		zone.ID, zone.Name, cities, neighborhoods, zone.DeliveryFee, zone.EstimatedMinutes, zone.Available, createdAt)
	if err != nil {
		return fmt.Errorf("upsert zone: %w", err)
	}
	return nil
}

func (r *PostgresZoneRepository) queryZones(ctx context.Context, query string, args ...any) ([]models.DeliveryZone, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	zones := make([]models.DeliveryZone, 0)
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, *zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zones: %w", err)
	}
	return zones, nil
}

func scanZone(row rowScanner) (*models.DeliveryZone, error) {
	var (
		z             models.DeliveryZone
		cities        []byte
		neighborhoods []byte
	)
	err := row.Scan(&z.ID, &z.Name, &cities, &neighborhoods, &z.DeliveryFee, &z.EstimatedMinutes, &z.Available, &z.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan zone: %w", err)
	}
	if err := json.Unmarshal(cities, &z.Cities); err != nil {
		return nil, fmt.Errorf("decode cities for zone %s: %w", z.ID, err)
	}
	if err := json.Unmarshal(neighborhoods, &z.Neighborhoods); err != nil {
		return nil, fmt.Errorf("decode neighborhoods for zone %s: %w", z.ID, err)
	}
	return &z, nil
}
