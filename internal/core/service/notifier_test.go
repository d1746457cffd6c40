package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmesh/mentorship/internal/core/domain"
)

func TestDeriveNotifications(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	project := domain.Project{ID: "p1", Title: "Compilers", OwnerID: "t1"}
	app := domain.Application{ID: "a1", ProjectID: "p1", StudentID: "s1", Status: domain.ApplicationAccepted}
	aud := audience{
		ActorName:   "Grace Hopper",
		StudentName: "Ada Lovelace",
		Teachers:    []string{"t1", "t2"},
		Students:    []string{"s1", "s2"},
	}

	withStatus := func(status domain.ApplicationStatus, change domain.ApplicationChange) domain.Event {
		a := app
		a.Status = status
		return domain.NewEvent(domain.EventApplicationUpdated, "t1", project).WithApplication(a, change)
	}

	tests := []struct {
		name  string
		event domain.Event
		want  map[string]string
	}{
		{
			name:  "submitted notifies the owner",
			event: domain.NewEvent(domain.EventApplicationSubmitted, "s1", project).WithApplication(app, domain.ApplicationChange{}),
			want:  map[string]string{"t1": "Ada Lovelace applied to your project: Compilers"},
		},
		{
			name:  "accepted",
			event: withStatus(domain.ApplicationAccepted, domain.ApplicationChange{StatusChanged: true}),
			want:  map[string]string{"s1": "Your application was accepted: Compilers"},
		},
		{
			name:  "rejected",
			event: withStatus(domain.ApplicationRejected, domain.ApplicationChange{StatusChanged: true}),
			want:  map[string]string{"s1": "Your application was rejected: Compilers"},
		},
		{
			name:  "back to pending is silent",
			event: withStatus(domain.ApplicationPending, domain.ApplicationChange{StatusChanged: true, PreviousStatus: domain.ApplicationAccepted}),
			want:  map[string]string{},
		},
		{
			name:  "status unchanged is silent",
			event: withStatus(domain.ApplicationAccepted, domain.ApplicationChange{}),
			want:  map[string]string{},
		},
		{
			name:  "mentor assigned",
			event: withStatus(domain.ApplicationAccepted, domain.ApplicationChange{MentorAssigned: true}),
			want:  map[string]string{"s1": "You have been assigned as a mentor: Compilers"},
		},
		{
			name:  "mentor revoked is silent",
			event: withStatus(domain.ApplicationAccepted, domain.ApplicationChange{MentorRevoked: true}),
			want:  map[string]string{},
		},
		{
			name:  "withdrawn notifies the owner",
			event: domain.NewEvent(domain.EventApplicationWithdrawn, "s1", project).WithApplication(app, domain.ApplicationChange{}),
			want:  map[string]string{"t1": "Ada Lovelace withdrew their application from your project: Compilers"},
		},
		{
			name:  "created skips the author",
			event: domain.NewEvent(domain.EventProjectCreated, "t1", project),
			want: map[string]string{
				"t2": "Grace Hopper created a new project: Compilers",
				"s1": "A new project was added: Compilers",
				"s2": "A new project was added: Compilers",
			},
		},
		{
			name:  "deleted reaches everyone",
			event: domain.NewEvent(domain.EventProjectDeleted, "t1", project),
			want: map[string]string{
				"t1": "A project was deleted: Compilers",
				"t2": "A project was deleted: Compilers",
				"s1": "A project was deleted: Compilers",
				"s2": "A project was deleted: Compilers",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			notes := deriveNotifications(tc.event, aud, now)
			got := make(map[string]string, len(notes))
			for _, n := range notes {
				got[n.UserID] = n.Message
				assert.Equal(t, "p1", n.ProjectID)
				assert.Equal(t, now, n.CreatedAt)
				assert.False(t, n.Read)
			}
			assert.Equal(t, tc.want, got)
			assert.Len(t, notes, len(tc.want), "one notification per recipient")
		})
	}
}

func TestDeriveNotifications_Types(t *testing.T) {
	project := domain.Project{ID: "p1", Title: "Compilers", OwnerID: "t1"}
	app := domain.Application{StudentID: "s1"}

	submitted := deriveNotifications(domain.NewEvent(domain.EventApplicationSubmitted, "s1", project).
		WithApplication(app, domain.ApplicationChange{}), audience{}, time.Now())
	require.Len(t, submitted, 1)
	assert.Equal(t, domain.NotificationApplication, submitted[0].Type)
	assert.Equal(t, "s1", submitted[0].RelatedUserID)

	created := deriveNotifications(domain.NewEvent(domain.EventProjectCreated, "t1", project),
		audience{Students: []string{"s1"}}, time.Now())
	require.Len(t, created, 1)
	assert.Equal(t, domain.NotificationProject, created[0].Type)
	assert.Equal(t, "t1", created[0].RelatedUserID)
}

func TestNotifier_FailureForOneRecipientDoesNotAffectOthers(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	notes := newMemNotifications()
	author := users.seed(t, "Grace", "Hopper", domain.RoleTeacher)
	ada := users.seed(t, "Ada", "Lovelace", domain.RoleStudent)
	kat := users.seed(t, "Katherine", "Johnson", domain.RoleStudent)
	mary := users.seed(t, "Mary", "Jackson", domain.RoleStudent)
	notes.failFor[kat.ID] = true

	n := NewNotifier(notes, users, zerolog.Nop())
	n.Handle(ctx, domain.NewEvent(domain.EventProjectCreated, author.ID, domain.Project{ID: "p1", Title: "Compilers", OwnerID: author.ID}))

	assert.Len(t, notes.forUser(ada.ID), 1)
	assert.Empty(t, notes.forUser(kat.ID))
	assert.Len(t, notes.forUser(mary.ID), 1)
}

func TestNotifier_RoleListingFailureDropsOnlyThatRole(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	notes := newMemNotifications()
	author := users.seed(t, "Grace", "Hopper", domain.RoleTeacher)
	colleague := users.seed(t, "Alan", "Turing", domain.RoleTeacher)
	student := users.seed(t, "Ada", "Lovelace", domain.RoleStudent)
	users.listErrs[domain.RoleTeacher] = errors.New("cursor timeout")

	n := NewNotifier(notes, users, zerolog.Nop())
	n.Handle(ctx, domain.NewEvent(domain.EventProjectDeleted, author.ID, domain.Project{ID: "p1", Title: "Compilers", OwnerID: author.ID}))

	assert.Empty(t, notes.forUser(colleague.ID))
	assert.Equal(t, []string{"A project was deleted: Compilers"}, notes.forUser(student.ID))
}

func TestNotifier_UnknownStudentFallsBackToGenericName(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	notes := newMemNotifications()
	project := domain.Project{ID: "p1", Title: "Compilers", OwnerID: "t1"}

	n := NewNotifier(notes, users, zerolog.Nop())
	n.Handle(ctx, domain.NewEvent(domain.EventApplicationSubmitted, "ghost", project).
		WithApplication(domain.Application{StudentID: "ghost"}, domain.ApplicationChange{}))

	assert.Equal(t, []string{"A student applied to your project: Compilers"}, notes.forUser("t1"))
}
