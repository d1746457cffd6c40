package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a state change that already happened.
type EventKind string

const (
	EventApplicationSubmitted EventKind = "application.submitted"
	EventApplicationUpdated   EventKind = "application.updated"
	EventApplicationWithdrawn EventKind = "application.withdrawn"
	EventProjectCreated       EventKind = "project.created"
	EventProjectDeleted       EventKind = "project.deleted"
)

// Event is published after a transition has been persisted. Project is a
// snapshot taken at publish time, so deleted projects still carry their title.
type Event struct {
	ID          string
	Kind        EventKind
	ActorID     string
	Project     Project
	Application *Application
	Change      ApplicationChange
	OccurredAt  time.Time
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(kind EventKind, actorID string, project Project) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		ActorID:    actorID,
		Project:    project,
		OccurredAt: time.Now().UTC(),
	}
}

// WithApplication attaches an application snapshot and the change that produced it.
func (e Event) WithApplication(app Application, change ApplicationChange) Event {
	e.Application = &app
	e.Change = change
	return e
}
