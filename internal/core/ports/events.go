package ports

import (
	"context"

	"github.com/mindmesh/mentorship/internal/core/domain"
)

// EventPublisher hands a committed domain event to its consumers.
// Publishing never fails the caller; delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}

// EventHandler consumes domain events.
type EventHandler interface {
	Handle(ctx context.Context, event domain.Event)
}
