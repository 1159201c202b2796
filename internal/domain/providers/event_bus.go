package providers

import (
	"context"

	"github.com/aarogya/billing-backend/internal/domain/entities"
)

// EventChannelBillUpdates is the pub/sub channel carrying bill mutations
const EventChannelBillUpdates = "bills:updates"

// EventBus defines the interface for publishing and subscribing to bill events
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.BillEvent) error

	// Subscribe subscribes to events on a channel; the returned channel is
	// closed when ctx is done or the bus shuts down
	Subscribe(ctx context.Context, channel string) (<-chan *entities.BillEvent, error)

	// Unsubscribe tears down a channel subscription
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}
