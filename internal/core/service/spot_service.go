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

type SpotService struct {
	repo   ports.SpotRepository
	logger zerolog.Logger
}

func NewSpotService(repo ports.SpotRepository, logger zerolog.Logger) *SpotService {
	return &SpotService{repo: repo, logger: logger}
}

func (s *SpotService) Create(ctx context.Context, actor domain.Actor, in ports.CreateSpotInput) (*domain.ParkingSpot, error) {
	status := in.Status
	if status == "" {
		status = domain.SpotFree
	}
	if _, err := domain.ParseSpotStatus(string(status)); err != nil {
		return nil, err
	}

	spot := &domain.ParkingSpot{
		ID:          uuid.NewString(),
		Code:        strings.ToUpper(strings.TrimSpace(in.Code)),
		Status:      status,
		Description: in.Description,
	}
	spot.Stamp(actor, time.Now().UTC())

	created, err := s.repo.Create(ctx, spot)
	if err != nil {
		return nil, fmt.Errorf("create spot: %w", err)
	}
	s.logger.Info().Str("spot", created.Code).Str("status", string(created.Status)).Msg("parking spot registered")
	return created, nil
}

func (s *SpotService) GetByCode(ctx context.Context, code string) (*domain.ParkingSpot, error) {
	spot, err := s.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("get spot: %w", err)
	}
	return spot, nil
}

func (s *SpotService) List(ctx context.Context, status domain.SpotStatus) ([]*domain.ParkingSpot, error) {
	spots, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	return spots, nil
}
