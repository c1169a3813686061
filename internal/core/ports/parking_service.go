package ports

import (
	"context"

	"github.com/demopark/parking-api/internal/core/domain"
)

// CheckInInput carries the data needed to park a vehicle.
type CheckInInput struct {
	TaxID          string
	Plate          string
	Make           string
	Model          string
	Color          string
	IdempotencyKey string
}

// CheckInResult is returned by CheckIn.
type CheckInResult struct {
	Session *domain.ParkingSession
	// AlreadyExisted is true when the Idempotency-Key matched an earlier check-in.
	AlreadyExisted bool
}

// ParkingService defines the check-in/check-out use cases.
type ParkingService interface {
	CheckIn(ctx context.Context, actor domain.Actor, in CheckInInput) (*CheckInResult, error)
	CheckOut(ctx context.Context, actor domain.Actor, receipt string) (*domain.ParkingSession, error)
	// GetOpen returns the open session for receipt. Clients only see their own.
	GetOpen(ctx context.Context, actor domain.Actor, receipt string) (*domain.ParkingSession, error)
	ListByTaxID(ctx context.Context, taxID string, page domain.PageRequest) (domain.Page[*domain.ParkingSession], error)
	ListForUser(ctx context.Context, userID string, page domain.PageRequest) (domain.Page[*domain.ParkingSession], error)
}

// CreateClientInput carries the client registration form.
type CreateClientInput struct {
	Name  string
	TaxID string
}

// ClientService defines client registration and lookup.
type ClientService interface {
	// Create registers a client owned by actor.
	Create(ctx context.Context, actor domain.Actor, in CreateClientInput) (*domain.Client, error)
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Client, error)
	List(ctx context.Context, page domain.PageRequest) (domain.Page[*domain.Client], error)
}

// CreateSpotInput carries the spot registration form.
type CreateSpotInput struct {
	Code        string
	Status      domain.SpotStatus
	Description string
}

// SpotService defines spot inventory management.
type SpotService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateSpotInput) (*domain.ParkingSpot, error)
	GetByCode(ctx context.Context, code string) (*domain.ParkingSpot, error)
	List(ctx context.Context, status domain.SpotStatus) ([]*domain.ParkingSpot, error)
}
