package service

import (
	"context"
	"errors"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

// userDirectory resolves user summaries with a per-call cache. A user that no
// longer exists resolves to nil rather than failing the whole read.
type userDirectory struct {
	users ports.UserRepository
	cache map[string]*domain.UserSummary
}

func newUserDirectory(users ports.UserRepository) *userDirectory {
	return &userDirectory{users: users, cache: make(map[string]*domain.UserSummary)}
}

func (d *userDirectory) summary(ctx context.Context, id string) (*domain.UserSummary, error) {
	if s, ok := d.cache[id]; ok {
		return s, nil
	}
	u, err := d.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			d.cache[id] = nil
			return nil, nil
		}
		return nil, err
	}
	s := u.Summary()
	d.cache[id] = s
	return s, nil
}

func (d *userDirectory) withStudents(ctx context.Context, apps []*domain.Application) ([]ports.ApplicationWithStudent, error) {
	out := make([]ports.ApplicationWithStudent, 0, len(apps))
	for _, app := range apps {
		student, err := d.summary(ctx, app.StudentID)
		if err != nil {
			return nil, err
		}
		out = append(out, ports.ApplicationWithStudent{Application: app, Student: student})
	}
	return out, nil
}
