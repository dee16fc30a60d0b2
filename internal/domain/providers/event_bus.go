package providers

import (
	"context"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to update events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.UpdateEvent) error

	// Subscribe subscribes to events on a channel. The returned channel is
	// closed when ctx is cancelled; failing to cancel leaks the subscription.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.UpdateEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event scopes
const (
	// EventChannelCenter receives every ward-originated update, for
	// center-facing counters
	EventChannelCenter = "updates:center"

	// EventChannelWardPrefix is the prefix for ward-scoped channels
	EventChannelWardPrefix = "updates:ward:"
)

// GetWardChannel returns the channel name carrying updates visible to a ward
func GetWardChannel(wardID string) string {
	return EventChannelWardPrefix + wardID
}
