package service

import (
	"context"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

// NotificationService is the read side of the inbox. Reads go straight to
// storage; only the Notifier writes.
type NotificationService struct {
	repo ports.NotificationRepository
}

func NewNotificationService(repo ports.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) List(ctx context.Context, caller domain.Caller) ([]*domain.Notification, error) {
	if caller.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListByUser(ctx, caller.ID)
}

// MarkRead flips the read flag of one of the caller's notifications. Another
// user's notification is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, caller domain.Caller, id string) error {
	if caller.ID == "" {
		return domain.ErrUnauthorized
	}
	return s.repo.MarkRead(ctx, id, caller.ID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller domain.Caller) (int64, error) {
	if caller.ID == "" {
		return 0, domain.ErrUnauthorized
	}
	return s.repo.MarkAllRead(ctx, caller.ID)
}
