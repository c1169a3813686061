package ports

import (
	"context"

	"github.com/demopark/parking-api/internal/core/domain"
)

// SessionRepository defines persistence operations for parking sessions.
// Returned sessions carry their Client and Spot.
type SessionRepository interface {
	// Create inserts a new open session. A duplicate receipt yields
	// domain.ErrReceiptConflict.
	Create(ctx context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error)
	// Update persists the exit data of a session that is still open in the
	// store. Returns domain.ErrSessionNotFound otherwise.
	Update(ctx context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error)
	// FindOpenByReceipt returns the open session for receipt and locks it for
	// the rest of the surrounding transaction.
	FindOpenByReceipt(ctx context.Context, receipt string) (*domain.ParkingSession, error)
	// FindByReceipt returns the session for receipt in any state.
	FindByReceipt(ctx context.Context, receipt string) (*domain.ParkingSession, error)
	// CountClosedByClient counts the completed sessions of the client with taxID.
	CountClosedByClient(ctx context.Context, taxID string) (int64, error)
	// ListByClient returns a page of the client's sessions, newest first, and the total count.
	ListByClient(ctx context.Context, clientID string, page domain.PageRequest) ([]*domain.ParkingSession, int64, error)
}
