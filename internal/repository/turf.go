package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/turfease/platform/internal/domain"
)

const turfColumns = `id, owner_id, name, address, lat, lng, price_per_hour, images, approved, created_at, updated_at`

// PgTurfRepository implements TurfRepository using pgx.
type PgTurfRepository struct {
	db DBTX
}

// NewPgTurfRepository creates a new PgTurfRepository.
func NewPgTurfRepository(db DBTX) *PgTurfRepository {
	return &PgTurfRepository{db: db}
}

var _ TurfRepository = (*PgTurfRepository)(nil)

// Create inserts a new turf.
func (r *PgTurfRepository) Create(ctx context.Context, t *domain.Turf) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO turfs (`+turfColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.OwnerID, t.Name, t.Location.Address, t.Location.Lat, t.Location.Lng,
		t.PricePerHour, t.Images, t.Approved, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert turf: %w", mapPgErr(err))
	}
	return nil
}

// FindByID returns a turf by ID, or nil if not found.
func (r *PgTurfRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Turf, error) {
	t, err := scanTurf(r.db.QueryRow(ctx, `SELECT `+turfColumns+` FROM turfs WHERE id = $1`, id), false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Update writes the mutable turf columns.
func (r *PgTurfRepository) Update(ctx context.Context, t *domain.Turf) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE turfs SET name = $2, address = $3, lat = $4, lng = $5,
		  price_per_hour = $6, images = $7, approved = $8, updated_at = $9
		WHERE id = $1`,
		t.ID, t.Name, t.Location.Address, t.Location.Lat, t.Location.Lng,
		t.PricePerHour, t.Images, t.Approved, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update turf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a turf.
func (r *PgTurfRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM turfs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete turf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns turfs matching the filter, newest first.
func (r *PgTurfRepository) List(ctx context.Context, f domain.TurfFilter) ([]domain.Turf, int, error) {
	const where = `WHERE ($1::uuid IS NULL OR owner_id = $1)
		AND ($2::boolean IS NULL OR approved = $2)
		AND ($3::double precision IS NULL OR price_per_hour >= $3)
		AND ($4::double precision IS NULL OR price_per_hour <= $4)`
	args := []interface{}{f.OwnerID, f.Approved, f.MinPrice, f.MaxPrice}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM turfs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count turfs: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+turfColumns+` FROM turfs `+where+`
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list turfs: %w", err)
	}
	defer rows.Close()

	var turfs []domain.Turf
	for rows.Next() {
		t, err := scanTurf(rows, false)
		if err != nil {
			return nil, 0, fmt.Errorf("scan turf: %w", err)
		}
		turfs = append(turfs, *t)
	}
	return turfs, total, rows.Err()
}

// Nearby computes haversine distance in SQL and keeps approved turfs within range.
func (r *PgTurfRepository) Nearby(ctx context.Context, lat, lng, maxMeters float64, limit int) ([]domain.Turf, error) {
	rows, err := r.db.Query(ctx, `
		SELECT * FROM (
		  SELECT `+turfColumns+`,
		    2 * 6371000 * asin(least(1, sqrt(
		      power(sin(radians(lat - $1) / 2), 2) +
		      cos(radians($1)) * cos(radians(lat)) * power(sin(radians(lng - $2) / 2), 2)
		    ))) AS distance
		  FROM turfs
		  WHERE approved
		) t
		WHERE distance <= $3
		ORDER BY distance ASC
		LIMIT $4`, lat, lng, maxMeters, limit)
	if err != nil {
		return nil, fmt.Errorf("nearby turfs: %w", err)
	}
	defer rows.Close()

	var turfs []domain.Turf
	for rows.Next() {
		t, err := scanTurf(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan turf: %w", err)
		}
		turfs = append(turfs, *t)
	}
	return turfs, rows.Err()
}

func scanTurf(row pgx.Row, withDistance bool) (*domain.Turf, error) {
	t := &domain.Turf{}
	dest := []interface{}{
		&t.ID, &t.OwnerID, &t.Name, &t.Location.Address, &t.Location.Lat, &t.Location.Lng,
		&t.PricePerHour, &t.Images, &t.Approved, &t.CreatedAt, &t.UpdatedAt,
	}
	var distance float64
	if withDistance {
		dest = append(dest, &distance)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if withDistance {
		t.DistanceMeters = &distance
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	return t, nil
}
