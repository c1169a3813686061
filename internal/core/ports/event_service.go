package ports

import (
	"context"

	"github.com/demopark/parking-api/internal/core/domain"
)

// EventPublisher accepts spot events for asynchronous delivery. Publish must
// not block the caller on delivery.
type EventPublisher interface {
	Publish(event domain.SpotEvent)
}

// EventService handles one dequeued spot event.
type EventService interface {
	Process(ctx context.Context, event domain.SpotEvent) error
}

// Broadcaster pushes an event to every live subscriber.
type Broadcaster interface {
	Broadcast(event domain.SpotEvent) error
}
