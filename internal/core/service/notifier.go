package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
	"github.com/mindmesh/mentorship/internal/pkg/metrics"
)

// audience is the resolved input of notification derivation: who the actor
// is and, for project fan-out, every teacher and student.
type audience struct {
	ActorName   string
	StudentName string
	Teachers    []string
	Students    []string
}

// deriveNotifications computes the inbox entries produced by one event. It
// performs no I/O.
func deriveNotifications(evt domain.Event, aud audience, now time.Time) []domain.Notification {
	p := evt.Project
	note := func(to string, typ domain.NotificationType, related, msg string) domain.Notification {
		return domain.Notification{
			UserID:        to,
			RelatedUserID: related,
			ProjectID:     p.ID,
			Message:       msg,
			Type:          typ,
			CreatedAt:     now,
		}
	}

	var out []domain.Notification
	switch evt.Kind {
	case domain.EventApplicationSubmitted:
		if evt.Application == nil {
			return nil
		}
		out = append(out, note(p.OwnerID, domain.NotificationApplication, evt.Application.StudentID,
			fmt.Sprintf("%s applied to your project: %s", aud.StudentName, p.Title)))

	case domain.EventApplicationUpdated:
		app := evt.Application
		if app == nil {
			return nil
		}
		// Moving back to pending is silent.
		if evt.Change.StatusChanged && app.Status.Decided() {
			out = append(out, note(app.StudentID, domain.NotificationApplication, evt.ActorID,
				fmt.Sprintf("Your application was %s: %s", app.Status, p.Title)))
		}
		// Revoking the mentor flag is silent.
		if evt.Change.MentorAssigned {
			out = append(out, note(app.StudentID, domain.NotificationApplication, evt.ActorID,
				"You have been assigned as a mentor: "+p.Title))
		}

	case domain.EventApplicationWithdrawn:
		if evt.Application == nil {
			return nil
		}
		out = append(out, note(p.OwnerID, domain.NotificationApplication, evt.Application.StudentID,
			fmt.Sprintf("%s withdrew their application from your project: %s", aud.StudentName, p.Title)))

	case domain.EventProjectCreated:
		for _, id := range aud.Teachers {
			if id == evt.ActorID {
				continue
			}
			out = append(out, note(id, domain.NotificationProject, evt.ActorID,
				fmt.Sprintf("%s created a new project: %s", aud.ActorName, p.Title)))
		}
		for _, id := range aud.Students {
			out = append(out, note(id, domain.NotificationProject, evt.ActorID,
				"A new project was added: "+p.Title))
		}

	case domain.EventProjectDeleted:
		msg := "A project was deleted: " + p.Title
		for _, id := range aud.Teachers {
			out = append(out, note(id, domain.NotificationProject, evt.ActorID, msg))
		}
		for _, id := range aud.Students {
			out = append(out, note(id, domain.NotificationProject, evt.ActorID, msg))
		}
	}
	return out
}

// Notifier consumes domain events and persists the notifications they imply.
// Every write is independent and best-effort: failures are logged and
// counted, never retried, and never reported to the producer.
type Notifier struct {
	repo  ports.NotificationRepository
	users ports.UserRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewNotifier(repo ports.NotificationRepository, users ports.UserRepository, log zerolog.Logger) *Notifier {
	return &Notifier{
		repo:  repo,
		users: users,
		log:   log.With().Str("component", "notifier").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle satisfies ports.EventHandler.
func (n *Notifier) Handle(ctx context.Context, evt domain.Event) {
	start := time.Now()
	defer func() {
		metrics.EventHandlingDuration.WithLabelValues(string(evt.Kind)).Observe(time.Since(start).Seconds())
	}()

	notes := deriveNotifications(evt, n.resolve(ctx, evt), n.now())

	created := 0
	for i := range notes {
		nt := notes[i]
		if err := n.repo.Create(ctx, &nt); err != nil {
			metrics.NotificationsFailedTotal.WithLabelValues(string(nt.Type)).Inc()
			n.log.Warn().Err(err).
				Str("event_id", evt.ID).
				Str("kind", string(evt.Kind)).
				Str("recipient", nt.UserID).
				Msg("notification not persisted")
			continue
		}
		metrics.NotificationsCreatedTotal.WithLabelValues(string(nt.Type)).Inc()
		created++
	}

	n.log.Debug().
		Str("event_id", evt.ID).
		Str("kind", string(evt.Kind)).
		Int("derived", len(notes)).
		Int("created", created).
		Msg("event handled")
}

func (n *Notifier) resolve(ctx context.Context, evt domain.Event) audience {
	var aud audience
	switch evt.Kind {
	case domain.EventApplicationSubmitted, domain.EventApplicationWithdrawn:
		if evt.Application != nil {
			aud.StudentName = n.displayName(ctx, evt.Application.StudentID, "A student")
		}
	case domain.EventProjectCreated:
		aud.ActorName = n.displayName(ctx, evt.ActorID, "A teacher")
		aud.Teachers = n.idsByRole(ctx, evt, domain.RoleTeacher)
		aud.Students = n.idsByRole(ctx, evt, domain.RoleStudent)
	case domain.EventProjectDeleted:
		aud.Teachers = n.idsByRole(ctx, evt, domain.RoleTeacher)
		aud.Students = n.idsByRole(ctx, evt, domain.RoleStudent)
	}
	return aud
}

func (n *Notifier) displayName(ctx context.Context, userID, fallback string) string {
	u, err := n.users.FindByID(ctx, userID)
	if err != nil {
		return fallback
	}
	if name := u.DisplayName(); name != "" {
		return name
	}
	return fallback
}

// idsByRole lists one role's population. A failure drops only that role's
// share of the fan-out.
func (n *Notifier) idsByRole(ctx context.Context, evt domain.Event, role domain.Role) []string {
	users, err := n.users.List(ctx, ports.UserFilter{Role: role})
	if err != nil {
		n.log.Warn().Err(err).
			Str("event_id", evt.ID).
			Str("role", string(role)).
			Msg("fan-out recipients unavailable")
		return nil
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
