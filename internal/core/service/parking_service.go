package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

// ParkingService runs the check-in/check-out workflow.
type ParkingService struct {
	tx       ports.TxManager
	clients  ports.ClientRepository
	spots    ports.SpotRepository
	sessions ports.SessionRepository
	idem     ports.IdempotencyStore
	events   ports.EventPublisher
	tariff   domain.Tariff
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// ParkingOption configures optional collaborators of a ParkingService.
type ParkingOption func(*ParkingService)

// WithIdempotency enables Idempotency-Key replay on check-in.
func WithIdempotency(store ports.IdempotencyStore) ParkingOption {
	return func(s *ParkingService) { s.idem = store }
}

// WithEvents publishes a spot event after every committed check-in and check-out.
func WithEvents(pub ports.EventPublisher) ParkingOption {
	return func(s *ParkingService) { s.events = pub }
}

func WithClock(now func() time.Time) ParkingOption {
	return func(s *ParkingService) { s.now = now }
}

// WithLocation sets the time zone receipts are issued in. Defaults to UTC.
func WithLocation(loc *time.Location) ParkingOption {
	return func(s *ParkingService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewParkingService(
	tx ports.TxManager,
	clients ports.ClientRepository,
	spots ports.SpotRepository,
	sessions ports.SessionRepository,
	tariff domain.Tariff,
	logger zerolog.Logger,
	opts ...ParkingOption,
) *ParkingService {
	s := &ParkingService{
		tx:       tx,
		clients:  clients,
		spots:    spots,
		sessions: sessions,
		tariff:   tariff,
		loc:      time.UTC,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckIn parks a vehicle for the client with in.TaxID on the first free spot.
// The spot update and the new session are written in one transaction. If an
// idempotency key is provided and already seen, the session it produced is
// returned without side effects.
func (s *ParkingService) CheckIn(ctx context.Context, actor domain.Actor, in ports.CheckInInput) (*ports.CheckInResult, error) {
	if in.IdempotencyKey != "" && s.idem != nil {
		existing, err := s.replay(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("check in: %w", err)
		}
		if existing != nil {
			return &ports.CheckInResult{Session: existing, AlreadyExisted: true}, nil
		}
	}

	var created *domain.ParkingSession
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		client, err := s.clients.FindByTaxID(ctx, in.TaxID)
		if err != nil {
			return err
		}

		spot, err := s.spots.FindOneFree(ctx)
		if err != nil {
			return err
		}

		now := s.now().Truncate(time.Second)
		spot.Occupy()
		spot.Stamp(actor, now)
		if spot, err = s.spots.Save(ctx, spot); err != nil {
			return err
		}

		session := &domain.ParkingSession{
			ID:        uuid.NewString(),
			Receipt:   domain.NewReceipt(now.In(s.loc)),
			Plate:     strings.ToUpper(strings.TrimSpace(in.Plate)),
			Make:      in.Make,
			Model:     in.Model,
			Color:     in.Color,
			EntryTime: now,
			Client:    client,
			Spot:      spot,
		}
		session.Stamp(actor, now)

		created, err = s.sessions.Create(ctx, session)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("cpf", domain.MaskTaxID(in.TaxID)).Msg("check-in rejected")
		return nil, fmt.Errorf("check in: %w", err)
	}

	if in.IdempotencyKey != "" && s.idem != nil {
		rec := ports.IdempotencyRecord{Receipt: created.Receipt, TaxID: in.TaxID}
		if err := s.idem.Remember(ctx, in.IdempotencyKey, rec); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	s.publish(domain.EventCheckIn, created)
	s.logger.Info().
		Str("receipt", created.Receipt).
		Str("spot", created.Spot.Code).
		Str("plate", created.Plate).
		Msg("vehicle checked in")

	return &ports.CheckInResult{Session: created}, nil
}

// CheckOut closes the open session for receipt, prices it and releases its
// spot, all in one transaction.
func (s *ParkingService) CheckOut(ctx context.Context, actor domain.Actor, receipt string) (*domain.ParkingSession, error) {
	var closed *domain.ParkingSession
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		session, err := s.sessions.FindOpenByReceipt(ctx, receipt)
		if err != nil {
			return err
		}

		exit := s.now().Truncate(time.Second)
		if exit.Before(session.EntryTime) {
			return domain.ErrInvalidDuration
		}

		fee := s.tariff.ComputeFee(session.EntryTime, exit)
		visits, err := s.sessions.CountClosedByClient(ctx, session.Client.TaxID)
		if err != nil {
			return err
		}
		discount := s.tariff.ComputeDiscount(fee, visits)

		if err := session.Close(exit, fee, discount); err != nil {
			return err
		}
		session.Stamp(actor, exit)

		spot := session.Spot
		spot.Release()
		spot.Stamp(actor, exit)

		if closed, err = s.sessions.Update(ctx, session); err != nil {
			return err
		}
		if closed.Spot, err = s.spots.Save(ctx, spot); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("receipt", receipt).Msg("check-out rejected")
		return nil, fmt.Errorf("check out: %w", err)
	}

	s.publish(domain.EventCheckOut, closed)
	s.logger.Info().
		Str("receipt", closed.Receipt).
		Str("spot", closed.Spot.Code).
		Str("fee", closed.Fee.Decimal.StringFixed(2)).
		Str("discount", closed.Discount.Decimal.StringFixed(2)).
		Msg("vehicle checked out")

	return closed, nil
}

// GetOpen returns the open session for receipt. A client asking for another
// client's receipt gets ErrSessionNotFound.
func (s *ParkingService) GetOpen(ctx context.Context, actor domain.Actor, receipt string) (*domain.ParkingSession, error) {
	session, err := s.sessions.FindByReceipt(ctx, receipt)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.State() != domain.SessionOpen || !canSee(actor, session) {
		return nil, fmt.Errorf("get session: %w", domain.ErrSessionNotFound)
	}
	return session, nil
}

// ListByTaxID returns the parking history of the client with taxID.
func (s *ParkingService) ListByTaxID(ctx context.Context, taxID string, page domain.PageRequest) (domain.Page[*domain.ParkingSession], error) {
	client, err := s.clients.FindByTaxID(ctx, taxID)
	if err != nil {
		return domain.Page[*domain.ParkingSession]{}, fmt.Errorf("list sessions: %w", err)
	}
	return s.listByClient(ctx, client.ID, page)
}

// ListForUser returns the parking history of the client owned by userID.
func (s *ParkingService) ListForUser(ctx context.Context, userID string, page domain.PageRequest) (domain.Page[*domain.ParkingSession], error) {
	client, err := s.clients.FindByUserID(ctx, userID)
	if err != nil {
		return domain.Page[*domain.ParkingSession]{}, fmt.Errorf("list sessions: %w", err)
	}
	return s.listByClient(ctx, client.ID, page)
}

func (s *ParkingService) listByClient(ctx context.Context, clientID string, page domain.PageRequest) (domain.Page[*domain.ParkingSession], error) {
	page = page.Normalize()
	items, total, err := s.sessions.ListByClient(ctx, clientID, page)
	if err != nil {
		return domain.Page[*domain.ParkingSession]{}, fmt.Errorf("list sessions: %w", err)
	}
	return domain.NewPage(items, total, page), nil
}

// replay resolves a previously seen idempotency key. Store failures are
// logged and treated as a miss. A key first used for another client is
// rejected with ErrIdempotencyKeyReused.
func (s *ParkingService) replay(ctx context.Context, in ports.CheckInInput) (*domain.ParkingSession, error) {
	rec, found, err := s.idem.Lookup(ctx, in.IdempotencyKey)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency lookup failed, processing anyway")
		return nil, nil
	}
	if !found {
		return nil, nil
	}
	if rec.TaxID != in.TaxID {
		s.logger.Warn().Str("idempotency_key", in.IdempotencyKey).Str("receipt", rec.Receipt).Msg("idempotency key reused for another client")
		return nil, domain.ErrIdempotencyKeyReused
	}
	existing, err := s.sessions.FindByReceipt(ctx, rec.Receipt)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Str("receipt", rec.Receipt).Msg("idempotent replay lookup failed")
		}
		return nil, nil
	}
	s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("receipt", rec.Receipt).Msg("idempotent replay")
	return existing, nil
}

func (s *ParkingService) publish(kind domain.SpotEventType, session *domain.ParkingSession) {
	if s.events == nil {
		return
	}
	s.events.Publish(domain.SpotEvent{
		Type:      kind,
		SpotCode:  session.Spot.Code,
		Status:    session.Spot.Status,
		Receipt:   session.Receipt,
		Plate:     session.Plate,
		Timestamp: session.UpdatedAt,
	})
}

func canSee(actor domain.Actor, session *domain.ParkingSession) bool {
	if actor.IsAdmin() {
		return true
	}
	return session.Client != nil && session.Client.UserID == actor.UserID
}
