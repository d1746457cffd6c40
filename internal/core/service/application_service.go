package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
	"github.com/mindmesh/mentorship/internal/pkg/metrics"
)

// ApplicationService is the application lifecycle engine. It validates and
// persists transitions, then publishes a domain event for each one; it never
// writes notifications itself.
type ApplicationService struct {
	apps     ports.ApplicationRepository
	projects ports.ProjectRepository
	users    ports.UserRepository
	guard    ports.SubmitGuard
	events   ports.EventPublisher
	log      zerolog.Logger
	now      func() time.Time
}

// NewApplicationService builds the engine. guard may be nil, in which case
// the repository's uniqueness constraint is the only duplicate protection.
func NewApplicationService(
	apps ports.ApplicationRepository,
	projects ports.ProjectRepository,
	users ports.UserRepository,
	guard ports.SubmitGuard,
	events ports.EventPublisher,
	log zerolog.Logger,
) *ApplicationService {
	return &ApplicationService{
		apps:     apps,
		projects: projects,
		users:    users,
		guard:    guard,
		events:   events,
		log:      log.With().Str("component", "applications").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit creates a pending application from caller to the given project.
func (s *ApplicationService) Submit(ctx context.Context, caller domain.Caller, in ports.SubmitApplicationInput) (*domain.Application, error) {
	if err := requireRole(caller, domain.RoleStudent); err != nil {
		return nil, err
	}
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", domain.ErrValidation)
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if s.guard != nil {
		release, ok, err := s.guard.Acquire(ctx, project.ID, caller.ID)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("project_id", project.ID).Msg("submit guard unavailable, relying on unique index")
		case !ok:
			metrics.SubmitRejectedTotal.WithLabelValues("in_flight").Inc()
			return nil, domain.ErrDuplicateApplication
		default:
			defer release()
		}
	}

	existing, err := s.apps.FindByProjectAndStudent(ctx, project.ID, caller.ID)
	switch {
	case err == nil && existing != nil:
		metrics.SubmitRejectedTotal.WithLabelValues("duplicate").Inc()
		return nil, domain.ErrDuplicateApplication
	case err != nil && !errors.Is(err, domain.ErrApplicationNotFound):
		return nil, fmt.Errorf("submit: %w", err)
	}

	app := &domain.Application{
		ProjectID: project.ID,
		StudentID: caller.ID,
		Status:    domain.ApplicationPending,
		IsMentor:  false,
		Message:   in.Message,
		CreatedAt: s.now(),
	}
	if err := s.apps.Create(ctx, app); err != nil {
		if errors.Is(err, domain.ErrDuplicateApplication) {
			metrics.SubmitRejectedTotal.WithLabelValues("duplicate").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("submit: %w", err)
	}
	if err := s.confirmProject(ctx, app); err != nil {
		return nil, err
	}

	metrics.ApplicationsSubmittedTotal.Inc()
	s.log.Info().
		Str("application_id", app.ID).
		Str("project_id", project.ID).
		Str("student_id", caller.ID).
		Msg("application submitted")

	s.events.Publish(ctx, domain.NewEvent(domain.EventApplicationSubmitted, caller.ID, *project).
		WithApplication(*app, domain.ApplicationChange{}))
	return app, nil
}

// Transition applies status and/or is_mentor changes on behalf of the teacher
// owning the application's project. An update that changes nothing is not
// written and publishes nothing.
func (s *ApplicationService) Transition(ctx context.Context, caller domain.Caller, id string, update domain.ApplicationUpdate) (*domain.Application, error) {
	if err := requireRole(caller, domain.RoleTeacher); err != nil {
		return nil, err
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := s.ownedProject(ctx, caller, app.ProjectID)
	if err != nil {
		return nil, err
	}

	change := app.Apply(update)
	if !change.Any() {
		return app, nil
	}
	if err := s.apps.UpdateState(ctx, app); err != nil {
		return nil, fmt.Errorf("transition: %w", err)
	}

	if change.StatusChanged {
		metrics.ApplicationTransitionsTotal.WithLabelValues(string(app.Status)).Inc()
	}
	if change.MentorAssigned {
		metrics.MentorAssignmentsTotal.Inc()
	}
	s.log.Info().
		Str("application_id", app.ID).
		Str("from", string(change.PreviousStatus)).
		Str("to", string(app.Status)).
		Bool("is_mentor", app.IsMentor).
		Msg("application transitioned")

	s.events.Publish(ctx, domain.NewEvent(domain.EventApplicationUpdated, caller.ID, *project).
		WithApplication(*app, change))
	return app, nil
}

// confirmProject re-reads the project after app was inserted. If the project
// was deleted in the meantime its cascade may already have run, so app is
// removed again and the submit fails with ErrProjectNotFound.
func (s *ApplicationService) confirmProject(ctx context.Context, app *domain.Application) error {
	_, err := s.projects.FindByID(ctx, app.ProjectID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrProjectNotFound):
		if delErr := s.apps.Delete(ctx, app.ID); delErr != nil && !errors.Is(delErr, domain.ErrApplicationNotFound) {
			s.log.Error().Err(delErr).Str("application_id", app.ID).Msg("orphaned application not removed")
		}
		s.log.Info().Str("project_id", app.ProjectID).Str("student_id", app.StudentID).Msg("project deleted during submit")
		return domain.ErrProjectNotFound
	default:
		// The insert is committed; a failed re-read does not undo it.
		s.log.Warn().Err(err).Str("application_id", app.ID).Msg("project re-check after submit failed")
		return nil
	}
}

// ownedProject resolves the project of an application and checks that caller
// owns it. A dangling project reference is treated as not owned.
func (s *ApplicationService) ownedProject(ctx context.Context, caller domain.Caller, projectID string) (*domain.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	if err := requireOwner(caller, project.OwnerID); err != nil {
		return nil, err
	}
	return project, nil
}

// Withdraw deletes an application on behalf of the student who submitted it,
// whatever its status.
func (s *ApplicationService) Withdraw(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireRole(caller, domain.RoleStudent); err != nil {
		return err
	}

	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, app.StudentID); err != nil {
		return err
	}

	project, err := s.projects.FindByID(ctx, app.ProjectID)
	if err != nil && !errors.Is(err, domain.ErrProjectNotFound) {
		return fmt.Errorf("withdraw: %w", err)
	}

	if err := s.apps.Delete(ctx, app.ID); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	metrics.ApplicationsWithdrawnTotal.Inc()
	s.log.Info().Str("application_id", app.ID).Str("student_id", caller.ID).Msg("application withdrawn")

	if project == nil {
		s.log.Warn().Str("application_id", app.ID).Str("project_id", app.ProjectID).Msg("withdrawn application had no project, owner not notified")
		return nil
	}
	s.events.Publish(ctx, domain.NewEvent(domain.EventApplicationWithdrawn, caller.ID, *project).
		WithApplication(*app, domain.ApplicationChange{}))
	return nil
}

// ListForProject returns every application to a project the caller owns,
// with the applicant's identity attached.
func (s *ApplicationService) ListForProject(ctx context.Context, caller domain.Caller, projectID string) ([]ports.ApplicationWithStudent, error) {
	if err := requireRole(caller, domain.RoleTeacher); err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(caller, project.OwnerID); err != nil {
		return nil, err
	}

	apps, err := s.apps.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return newUserDirectory(s.users).withStudents(ctx, apps)
}

// ListForStudent returns the caller's applications, each joined with its project.
func (s *ApplicationService) ListForStudent(ctx context.Context, caller domain.Caller) ([]ports.ApplicationWithProject, error) {
	if err := requireRole(caller, domain.RoleStudent); err != nil {
		return nil, err
	}

	apps, err := s.apps.ListByStudent(ctx, caller.ID, "")
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	byID, err := s.projectsOf(ctx, apps)
	if err != nil {
		return nil, err
	}

	out := make([]ports.ApplicationWithProject, 0, len(apps))
	for _, app := range apps {
		out = append(out, ports.ApplicationWithProject{Application: app, Project: byID[app.ProjectID]})
	}
	return out, nil
}

// ActiveProjectsForStudent returns the active projects the student has been
// accepted into. Callable without authentication.
func (s *ApplicationService) ActiveProjectsForStudent(ctx context.Context, studentID string) ([]*domain.Project, error) {
	apps, err := s.apps.ListByStudent(ctx, studentID, domain.ApplicationAccepted)
	if err != nil {
		return nil, fmt.Errorf("list accepted applications: %w", err)
	}
	byID, err := s.projectsOf(ctx, apps)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Project, 0, len(apps))
	for _, app := range apps {
		if p, ok := byID[app.ProjectID]; ok && p.Status == domain.ProjectActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *ApplicationService) projectsOf(ctx context.Context, apps []*domain.Application) (map[string]*domain.Project, error) {
	if len(apps) == 0 {
		return map[string]*domain.Project{}, nil
	}
	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.ProjectID)
	}
	projects, err := s.projects.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	byID := make(map[string]*domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}
	return byID, nil
}
