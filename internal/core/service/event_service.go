package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

var errInvalidEvent = errors.New("invalid spot event")

type eventService struct {
	broadcaster ports.Broadcaster
	log         zerolog.Logger
}

// NewEventService returns an EventService that fans spot events out to live
// subscribers.
func NewEventService(broadcaster ports.Broadcaster, log zerolog.Logger) ports.EventService {
	return &eventService{broadcaster: broadcaster, log: log}
}

// Process validates and broadcasts a single spot event.
func (s *eventService) Process(ctx context.Context, ev domain.SpotEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.SpotCode == "" || (ev.Type != domain.EventCheckIn && ev.Type != domain.EventCheckOut) {
		return fmt.Errorf("process event: %w (type %q, spot %q)", errInvalidEvent, ev.Type, ev.SpotCode)
	}

	if err := s.broadcaster.Broadcast(ev); err != nil {
		return fmt.Errorf("process event: broadcast: %w", err)
	}

	s.log.Debug().
		Str("type", string(ev.Type)).
		Str("spot", ev.SpotCode).
		Str("receipt", ev.Receipt).
		Msg("spot event broadcast")
	return nil
}
