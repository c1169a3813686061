package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/demopark/parking-api/internal/core/domain"
)

const spotColumns = `id, code, status, description, created_at, updated_at, created_by, updated_by`

// freeSpotQuery skips rows locked by concurrent check-ins instead of waiting
// on them, so two transactions never get the same spot.
const freeSpotQuery = `
	SELECT ` + spotColumns + `
	FROM spots
	WHERE status = 'FREE'
	ORDER BY code
	LIMIT 1
	FOR UPDATE SKIP LOCKED`

type SpotRepository struct {
	pool *pgxpool.Pool
}

func NewSpotRepository(pool *pgxpool.Pool) *SpotRepository {
	return &SpotRepository{pool: pool}
}

func (r *SpotRepository) Create(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO spots (` + spotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + spotColumns

	created, err := scanSpot(conn(ctx, r.pool).QueryRow(ctx, query,
		spot.ID, spot.Code, string(spot.Status), spot.Description,
		spot.CreatedAt, spot.UpdatedAt, spot.CreatedBy, spot.UpdatedBy,
	))
	if err != nil {
		if _, dup := violatedConstraint(err); dup {
			return nil, domain.ErrSpotCodeExists
		}
		return nil, fmt.Errorf("insert spot: %w", err)
	}
	return created, nil
}

func (r *SpotRepository) FindByCode(ctx context.Context, code string) (*domain.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	spot, err := scanSpot(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+spotColumns+` FROM spots WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSpotNotFound
		}
		return nil, fmt.Errorf("find spot: %w", err)
	}
	return spot, nil
}

// FindOneFree locks the first free spot by code. The lock is only held when
// ctx carries a transaction.
func (r *SpotRepository) FindOneFree(ctx context.Context) (*domain.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	spot, err := scanSpot(conn(ctx, r.pool).QueryRow(ctx, freeSpotQuery))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoFreeSpot
		}
		return nil, fmt.Errorf("find free spot: %w", err)
	}
	return spot, nil
}

func (r *SpotRepository) Save(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		UPDATE spots
		SET status = $2, description = $3, updated_at = $4, updated_by = $5
		WHERE id = $1
		RETURNING ` + spotColumns

	saved, err := scanSpot(conn(ctx, r.pool).QueryRow(ctx, query,
		spot.ID, string(spot.Status), spot.Description, spot.UpdatedAt, spot.UpdatedBy,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSpotNotFound
		}
		return nil, fmt.Errorf("save spot: %w", err)
	}
	return saved, nil
}

func (r *SpotRepository) List(ctx context.Context, status domain.SpotStatus) ([]*domain.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+spotColumns+` FROM spots WHERE $1 = '' OR status = $1 ORDER BY code`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	defer rows.Close()

	spots := []*domain.ParkingSpot{}
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		spots = append(spots, s)
	}
	return spots, rows.Err()
}

func scanSpot(row pgx.Row) (*domain.ParkingSpot, error) {
	var (
		s      domain.ParkingSpot
		status string
	)
	err := row.Scan(&s.ID, &s.Code, &status, &s.Description,
		&s.CreatedAt, &s.UpdatedAt, &s.CreatedBy, &s.UpdatedBy)
	if err != nil {
		return nil, err
	}
	s.Status = domain.SpotStatus(status)
	return &s, nil
}
