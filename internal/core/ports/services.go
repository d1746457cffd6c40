package ports

import (
	"context"

	"github.com/mindmesh/mentorship/internal/core/domain"
)

type RegisterInput struct {
	Name     string
	Surname  string
	Email    string
	Password string
	Role     domain.Role
}

// TokenVerifier resolves a bearer credential to the caller it was issued to.
type TokenVerifier interface {
	VerifyToken(token string) (domain.Caller, error)
}

type AuthService interface {
	TokenVerifier
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, password string) error
}

type UserService interface {
	Profile(ctx context.Context, caller domain.Caller) (*domain.User, error)
	UpdateProfile(ctx context.Context, caller domain.Caller, update domain.ProfileUpdate) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
}

// ProjectWithOwner is a project joined with its owner's summary.
type ProjectWithOwner struct {
	*domain.Project
	Owner *domain.UserSummary `json:"owner,omitempty"`
}

// ApplicationWithStudent is an application joined with the applicant's summary.
type ApplicationWithStudent struct {
	*domain.Application
	Student *domain.UserSummary `json:"student,omitempty"`
}

// ApplicationWithProject is an application joined with its project.
type ApplicationWithProject struct {
	*domain.Application
	Project *domain.Project `json:"project,omitempty"`
}

// ProjectWithApplications is a teacher's project with every application to it.
type ProjectWithApplications struct {
	*domain.Project
	Applications []ApplicationWithStudent `json:"applications"`
}

type ProjectService interface {
	Create(ctx context.Context, caller domain.Caller, project domain.Project) (*domain.Project, error)
	ListMine(ctx context.Context, caller domain.Caller) ([]ProjectWithApplications, error)
	List(ctx context.Context) ([]ProjectWithOwner, error)
	Get(ctx context.Context, id string) (*ProjectWithOwner, error)
	Update(ctx context.Context, caller domain.Caller, id string, update domain.ProjectUpdate) (*domain.Project, error)
	Delete(ctx context.Context, caller domain.Caller, id string) error
}

type SubmitApplicationInput struct {
	ProjectID string
	Message   string
}

// ApplicationService is the application lifecycle engine.
type ApplicationService interface {
	Submit(ctx context.Context, caller domain.Caller, in SubmitApplicationInput) (*domain.Application, error)
	Transition(ctx context.Context, caller domain.Caller, id string, update domain.ApplicationUpdate) (*domain.Application, error)
	Withdraw(ctx context.Context, caller domain.Caller, id string) error
	ListForProject(ctx context.Context, caller domain.Caller, projectID string) ([]ApplicationWithStudent, error)
	ListForStudent(ctx context.Context, caller domain.Caller) ([]ApplicationWithProject, error)
	ActiveProjectsForStudent(ctx context.Context, studentID string) ([]*domain.Project, error)
}

type NotificationService interface {
	List(ctx context.Context, caller domain.Caller) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, caller domain.Caller, id string) error
	MarkAllRead(ctx context.Context, caller domain.Caller) (int64, error)
}
