package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hadirku/hadirku-backend/internal/model"
)

// ClassLocationRepository handles geofence center data access.
type ClassLocationRepository struct {
	pool *pgxpool.Pool
}

// NewClassLocationRepository creates a new ClassLocationRepository.
func NewClassLocationRepository(pool *pgxpool.Pool) *ClassLocationRepository {
	return &ClassLocationRepository{pool: pool}
}

// GetByID retrieves a class location, including soft-deleted ones so that
// historical session references stay resolvable.
func (r *ClassLocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ClassLocation, error) {
	l := &model.ClassLocation{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, latitude, longitude, radius_meters, address, created_at, updated_at, deleted_at
		 FROM class_locations
		 WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.Coordinate.Latitude, &l.Coordinate.Longitude,
		&l.RadiusMeters, &l.Address, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// List retrieves all active (non-deleted) class locations.
func (r *ClassLocationRepository) List(ctx context.Context) ([]model.ClassLocation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, latitude, longitude, radius_meters, address, created_at, updated_at, deleted_at
		 FROM class_locations
		 WHERE deleted_at IS NULL
		 ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []model.ClassLocation
	for rows.Next() {
		var l model.ClassLocation
		if err := rows.Scan(&l.ID, &l.Name, &l.Coordinate.Latitude, &l.Coordinate.Longitude,
			&l.RadiusMeters, &l.Address, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// Create inserts a new class location.
func (r *ClassLocationRepository) Create(ctx context.Context, l *model.ClassLocation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO class_locations (name, latitude, longitude, radius_meters, address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		l.Name, l.Coordinate.Latitude, l.Coordinate.Longitude, l.RadiusMeters, l.Address,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// Update modifies a class location in place.
func (r *ClassLocationRepository) Update(ctx context.Context, l *model.ClassLocation) error {
	return r.pool.QueryRow(ctx,
		`UPDATE class_locations
		 SET name = $1, latitude = $2, longitude = $3, radius_meters = $4, address = $5, updated_at = NOW()
		 WHERE id = $6 AND deleted_at IS NULL
		 RETURNING updated_at`,
		l.Name, l.Coordinate.Latitude, l.Coordinate.Longitude, l.RadiusMeters, l.Address, l.ID,
	).Scan(&l.UpdatedAt)
}

// SoftDelete hides a class location from listings without breaking sessions
// that already reference it.
func (r *ClassLocationRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	var deletedAt time.Time
	return r.pool.QueryRow(ctx,
		`UPDATE class_locations
		 SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING deleted_at`, id,
	).Scan(&deletedAt)
}
