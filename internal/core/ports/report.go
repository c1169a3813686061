package ports

import (
	"context"
	"time"

	"github.com/demopark/parking-api/internal/core/domain"
)

// ReportRenderer renders printable documents.
type ReportRenderer interface {
	History(client *domain.Client, sessions []*domain.ParkingSession, generatedAt time.Time) ([]byte, error)
	Ticket(session *domain.ParkingSession) ([]byte, error)
}

// ReportService produces PDF documents for clients and attendants.
type ReportService interface {
	History(ctx context.Context, actor domain.Actor) ([]byte, error)
	Ticket(ctx context.Context, actor domain.Actor, receipt string) ([]byte, error)
}
