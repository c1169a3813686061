package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

type ClientService struct {
	repo   ports.ClientRepository
	logger zerolog.Logger
}

func NewClientService(repo ports.ClientRepository, logger zerolog.Logger) *ClientService {
	return &ClientService{repo: repo, logger: logger}
}

// Create registers a client linked to the actor's user account.
func (s *ClientService) Create(ctx context.Context, actor domain.Actor, in ports.CreateClientInput) (*domain.Client, error) {
	if actor.UserID == "" {
		return nil, domain.ErrForbidden
	}
	if !domain.ValidTaxID(in.TaxID) {
		return nil, domain.ErrInvalidTaxID
	}

	client := &domain.Client{
		ID:     uuid.NewString(),
		Name:   strings.TrimSpace(in.Name),
		TaxID:  in.TaxID,
		UserID: actor.UserID,
	}
	client.Stamp(actor, time.Now().UTC())

	created, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	s.logger.Info().Str("client_id", created.ID).Str("user_id", actor.UserID).Msg("client registered")
	return created, nil
}

func (s *ClientService) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return client, nil
}

func (s *ClientService) GetByUserID(ctx context.Context, userID string) (*domain.Client, error) {
	client, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context, page domain.PageRequest) (domain.Page[*domain.Client], error) {
	page = page.Normalize()
	items, total, err := s.repo.List(ctx, page)
	if err != nil {
		return domain.Page[*domain.Client]{}, fmt.Errorf("list clients: %w", err)
	}
	return domain.NewPage(items, total, page), nil
}
