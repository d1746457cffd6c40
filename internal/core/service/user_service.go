package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

// UserService exposes profiles. Credential fields never leave the domain.User
// JSON encoding, so users are returned as-is.
type UserService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewUserService(users ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{users: users, log: log.With().Str("component", "users").Logger()}
}

func (s *UserService) Profile(ctx context.Context, caller domain.Caller) (*domain.User, error) {
	if caller.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.users.FindByID(ctx, caller.ID)
}

func (s *UserService) UpdateProfile(ctx context.Context, caller domain.Caller, update domain.ProfileUpdate) (*domain.User, error) {
	if caller.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if update.Empty() {
		return nil, fmt.Errorf("%w: no profile fields to update", domain.ErrValidation)
	}
	if (update.Name != nil && strings.TrimSpace(*update.Name) == "") ||
		(update.Surname != nil && strings.TrimSpace(*update.Surname) == "") {
		return nil, fmt.Errorf("%w: name and surname cannot be empty", domain.ErrValidation)
	}

	user, err := s.users.UpdateProfile(ctx, caller.ID, update)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", caller.ID).Msg("profile updated")
	return user, nil
}

func (s *UserService) List(ctx context.Context, filter ports.UserFilter) ([]*domain.User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, filter.Role)
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.users.List(ctx, filter)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}
