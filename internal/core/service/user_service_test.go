package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

func TestUserService_Profile(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	svc := NewUserService(users, zerolog.Nop())
	ada := users.seed(t, "Ada", "Lovelace", domain.RoleStudent)

	me, err := svc.Profile(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", me.Surname)

	_, err = svc.Profile(ctx, domain.Caller{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	updated, err := svc.UpdateProfile(ctx, ada, domain.ProfileUpdate{
		University: ptr("Cambridge"),
		Skills:     ptr([]string{"go", "mongodb"}),
		Links:      &domain.Links{GitHub: "https://github.com/ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Cambridge", updated.University)
	assert.Equal(t, []string{"go", "mongodb"}, updated.Skills)
	assert.Equal(t, "Ada", updated.Name, "unset fields are untouched")
	assert.Equal(t, domain.RoleStudent, updated.Role)

	_, err = svc.UpdateProfile(ctx, ada, domain.ProfileUpdate{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateProfile(ctx, ada, domain.ProfileUpdate{Name: ptr("  ")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_ListAndGet(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	svc := NewUserService(users, zerolog.Nop())
	users.seed(t, "Grace", "Hopper", domain.RoleTeacher)
	ada := users.seed(t, "Ada", "Lovelace", domain.RoleStudent)
	users.seed(t, "Alan", "Turing", domain.RoleTeacher)

	teachers, err := svc.List(ctx, ports.UserFilter{Role: domain.RoleTeacher})
	require.NoError(t, err)
	assert.Len(t, teachers, 2)

	found, err := svc.List(ctx, ports.UserFilter{Search: "  LOVE "})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ada.ID, found[0].ID)

	_, err = svc.List(ctx, ports.UserFilter{Role: "admin"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := svc.Get(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)

	_, err = svc.Get(ctx, "user-404")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
