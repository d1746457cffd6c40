package ports

import (
	"context"
	"time"

	"github.com/mindmesh/mentorship/internal/core/domain"
)

// UserFilter narrows ListUsers. Empty fields are ignored.
type UserFilter struct {
	Role   domain.Role
	Search string // case-insensitive match on name, surname or email
}

// UserRepository persists users.
type UserRepository interface {
	// Create inserts user and sets its ID. Returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error)
	SetResetCode(ctx context.Context, id, code string, expiresAt time.Time) error
	// ResetPassword replaces the password hash when code matches an unexpired
	// reset code for email, clearing the code. Returns domain.ErrInvalidResetCode otherwise.
	ResetPassword(ctx context.Context, email, code, passwordHash string, now time.Time) error
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	FindByID(ctx context.Context, id string) (*domain.Project, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Project, error)
	// List returns all projects, or only those owned by ownerID when it is non-empty.
	List(ctx context.Context, ownerID string) ([]*domain.Project, error)
	Replace(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id string) error
}

// ApplicationRepository persists applications. Implementations must reject a
// second application for the same (project, student) pair with
// domain.ErrDuplicateApplication.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	FindByID(ctx context.Context, id string) (*domain.Application, error)
	FindByProjectAndStudent(ctx context.Context, projectID, studentID string) (*domain.Application, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Application, error)
	// ListByStudent returns the student's applications, optionally filtered by status.
	ListByStudent(ctx context.Context, studentID string, status domain.ApplicationStatus) ([]*domain.Application, error)
	UpdateState(ctx context.Context, app *domain.Application) error
	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
}

// NotificationRepository persists inbox entries.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// SubmitGuard serialises concurrent submissions for one (project, student)
// pair. Acquire reports false when another submission holds the pair.
type SubmitGuard interface {
	Acquire(ctx context.Context, projectID, studentID string) (release func(), ok bool, err error)
}

// Mailer delivers password-reset codes.
type Mailer interface {
	SendResetCode(ctx context.Context, to, code string, expiresAt time.Time) error
}
