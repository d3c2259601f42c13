package ports

import (
	"context"

	"dispatch-service/internal/domain"
)

// EventPublisher emits domain events to a notification channel.
// Emission is fire-and-forget: core logic logs failures and moves on,
// it never awaits delivery.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
