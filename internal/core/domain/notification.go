package domain

import "time"

// NotificationType classifies inbox entries.
type NotificationType string

const (
	NotificationProject     NotificationType = "project"
	NotificationApplication NotificationType = "application"
	NotificationOther       NotificationType = "other"
)

// Notification is a read-trackable message in exactly one user's inbox.
// Only the system creates them; clients may only flip Read.
type Notification struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user"`
	RelatedUserID string           `json:"related_user,omitempty"`
	ProjectID     string           `json:"project,omitempty"`
	Message       string           `json:"message"`
	Type          NotificationType `json:"type"`
	Read          bool             `json:"read"`
	CreatedAt     time.Time        `json:"created_at"`
}
