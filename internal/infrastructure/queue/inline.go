package queue

import (
	"context"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

// Inline delivers each event synchronously on the publishing goroutine.
// Handling is detached from the caller's cancellation: the transition has
// already been committed by the time an event is published.
type Inline struct {
	handler ports.EventHandler
}

func NewInline(handler ports.EventHandler) *Inline {
	return &Inline{handler: handler}
}

func (p *Inline) Publish(ctx context.Context, event domain.Event) {
	p.handler.Handle(context.WithoutCancel(ctx), event)
}
