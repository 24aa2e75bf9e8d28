package port

import (
	"clipstream/internal/core/domain"
	"context"
)

// EventPublisher publishes pipeline lifecycle events to the broker
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}
