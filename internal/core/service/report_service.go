package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

type ReportService struct {
	clients  ports.ClientRepository
	sessions ports.SessionRepository
	renderer ports.ReportRenderer
	now      func() time.Time
	logger   zerolog.Logger
}

// ReportOption configures optional collaborators of a ReportService.
type ReportOption func(*ReportService)

// WithReportClock sets the clock used for the generated-at stamp.
func WithReportClock(now func() time.Time) ReportOption {
	return func(s *ReportService) { s.now = now }
}

func NewReportService(clients ports.ClientRepository, sessions ports.SessionRepository, renderer ports.ReportRenderer, logger zerolog.Logger, opts ...ReportOption) *ReportService {
	s := &ReportService{clients: clients, sessions: sessions, renderer: renderer, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History renders the full parking history of the actor's client profile.
func (s *ReportService) History(ctx context.Context, actor domain.Actor) ([]byte, error) {
	client, err := s.clients.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("history report: %w", err)
	}

	var all []*domain.ParkingSession
	page := domain.PageRequest{Page: 1, Size: domain.MaxPageSize}
	for {
		items, total, err := s.sessions.ListByClient(ctx, client.ID, page)
		if err != nil {
			return nil, fmt.Errorf("history report: %w", err)
		}
		all = append(all, items...)
		if len(items) == 0 || int64(len(all)) >= total {
			break
		}
		page.Page++
	}

	pdf, err := s.renderer.History(client, all, s.now())
	if err != nil {
		return nil, fmt.Errorf("history report: render: %w", err)
	}
	s.logger.Debug().Str("client_id", client.ID).Int("sessions", len(all)).Msg("history report rendered")
	return pdf, nil
}

// Ticket renders the printable ticket of a session in any state.
func (s *ReportService) Ticket(ctx context.Context, actor domain.Actor, receipt string) ([]byte, error) {
	session, err := s.sessions.FindByReceipt(ctx, receipt)
	if err != nil {
		return nil, fmt.Errorf("ticket: %w", err)
	}
	if !canSee(actor, session) {
		return nil, fmt.Errorf("ticket: %w", domain.ErrSessionNotFound)
	}

	pdf, err := s.renderer.Ticket(session)
	if err != nil {
		return nil, fmt.Errorf("ticket: render: %w", err)
	}
	return pdf, nil
}
