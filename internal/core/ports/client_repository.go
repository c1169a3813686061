package ports

import (
	"context"

	"github.com/demopark/parking-api/internal/core/domain"
)

// ClientRepository defines persistence operations for clients.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) (*domain.Client, error)
	FindByID(ctx context.Context, id string) (*domain.Client, error)
	FindByTaxID(ctx context.Context, taxID string) (*domain.Client, error)
	FindByUserID(ctx context.Context, userID string) (*domain.Client, error)
	// List returns a page of clients ordered by name and the total count.
	List(ctx context.Context, page domain.PageRequest) ([]*domain.Client, int64, error)
}
