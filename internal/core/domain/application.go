package domain

import (
	"fmt"
	"time"
)

// ApplicationStatus represents the lifecycle state of an application.
// Any status may be set to any other; there is no terminal state.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Decided reports whether s is an adjudicated outcome (accepted or rejected).
func (s ApplicationStatus) Decided() bool {
	return s == ApplicationAccepted || s == ApplicationRejected
}

// Application links one student to one project. At most one exists per
// (ProjectID, StudentID) pair.
type Application struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id"`
	StudentID string            `json:"student_id"`
	Status    ApplicationStatus `json:"status"`
	IsMentor  bool              `json:"is_mentor"`
	Message   string            `json:"message,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ApplicationUpdate is the allow-list of fields the owning teacher may change.
type ApplicationUpdate struct {
	Status   *ApplicationStatus
	IsMentor *bool
}

func (u ApplicationUpdate) Validate() error {
	if u.Status == nil && u.IsMentor == nil {
		return fmt.Errorf("%w: status or is_mentor is required", ErrValidation)
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("%w: unknown application status %q", ErrValidation, *u.Status)
	}
	return nil
}

// ApplicationChange describes what an update actually changed.
type ApplicationChange struct {
	PreviousStatus ApplicationStatus
	StatusChanged  bool
	MentorAssigned bool // is_mentor went from false to true
	MentorRevoked  bool // is_mentor went from true to false
}

func (c ApplicationChange) Any() bool {
	return c.StatusChanged || c.MentorAssigned || c.MentorRevoked
}

// Apply mutates a according to u and reports the effective change.
func (a *Application) Apply(u ApplicationUpdate) ApplicationChange {
	change := ApplicationChange{PreviousStatus: a.Status}
	if u.Status != nil && *u.Status != a.Status {
		a.Status = *u.Status
		change.StatusChanged = true
	}
	if u.IsMentor != nil && *u.IsMentor != a.IsMentor {
		a.IsMentor = *u.IsMentor
		change.MentorAssigned = a.IsMentor
		change.MentorRevoked = !a.IsMentor
	}
	return change
}
