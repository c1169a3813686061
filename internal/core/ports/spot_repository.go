package ports

import (
	"context"

	"github.com/demopark/parking-api/internal/core/domain"
)

// SpotRepository defines persistence operations for parking spots.
type SpotRepository interface {
	Create(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error)
	FindByCode(ctx context.Context, code string) (*domain.ParkingSpot, error)
	// FindOneFree returns a FREE spot and locks it for the rest of the
	// surrounding transaction, so concurrent callers never receive the same
	// spot. Returns domain.ErrNoFreeSpot when none is available.
	FindOneFree(ctx context.Context) (*domain.ParkingSpot, error)
	// Save persists the status and audit fields of an existing spot.
	Save(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error)
	// List returns all spots ordered by code; an empty status means any.
	List(ctx context.Context, status domain.SpotStatus) ([]*domain.ParkingSpot, error)
}
