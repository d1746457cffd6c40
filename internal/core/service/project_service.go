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

// ProjectService is the project store. Mutations are restricted to the
// owning teacher; reads are public.
type ProjectService struct {
	projects ports.ProjectRepository
	apps     ports.ApplicationRepository
	users    ports.UserRepository
	events   ports.EventPublisher
	log      zerolog.Logger
	now      func() time.Time
}

func NewProjectService(
	projects ports.ProjectRepository,
	apps ports.ApplicationRepository,
	users ports.UserRepository,
	events ports.EventPublisher,
	log zerolog.Logger,
) *ProjectService {
	return &ProjectService{
		projects: projects,
		apps:     apps,
		users:    users,
		events:   events,
		log:      log.With().Str("component", "projects").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new project owned by caller and announces it to every
// other teacher and every student.
func (s *ProjectService) Create(ctx context.Context, caller domain.Caller, p domain.Project) (*domain.Project, error) {
	if err := requireRole(caller, domain.RoleTeacher); err != nil {
		return nil, err
	}

	p.ID = ""
	p.OwnerID = caller.ID
	p.CreatedAt = s.now()
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}
	if p.EstimatedMonths == 0 {
		p.EstimatedMonths = 1
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.projects.Create(ctx, &p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	metrics.ProjectsCreatedTotal.Inc()
	s.log.Info().Str("project_id", p.ID).Str("owner_id", p.OwnerID).Msg("project created")

	s.events.Publish(ctx, domain.NewEvent(domain.EventProjectCreated, caller.ID, p))
	return &p, nil
}

// ListMine returns the caller's projects, each with its applications.
func (s *ProjectService) ListMine(ctx context.Context, caller domain.Caller) ([]ports.ProjectWithApplications, error) {
	if err := requireRole(caller, domain.RoleTeacher); err != nil {
		return nil, err
	}

	projects, err := s.projects.List(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	dir := newUserDirectory(s.users)
	out := make([]ports.ProjectWithApplications, 0, len(projects))
	for _, p := range projects {
		apps, err := s.apps.ListByProject(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list applications of %s: %w", p.ID, err)
		}
		joined, err := dir.withStudents(ctx, apps)
		if err != nil {
			return nil, err
		}
		out = append(out, ports.ProjectWithApplications{Project: p, Applications: joined})
	}
	return out, nil
}

func (s *ProjectService) List(ctx context.Context) ([]ports.ProjectWithOwner, error) {
	projects, err := s.projects.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	dir := newUserDirectory(s.users)
	out := make([]ports.ProjectWithOwner, 0, len(projects))
	for _, p := range projects {
		owner, err := dir.summary(ctx, p.OwnerID)
		if err != nil {
			return nil, err
		}
		out = append(out, ports.ProjectWithOwner{Project: p, Owner: owner})
	}
	return out, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*ports.ProjectWithOwner, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := newUserDirectory(s.users).summary(ctx, p.OwnerID)
	if err != nil {
		return nil, err
	}
	return &ports.ProjectWithOwner{Project: p, Owner: owner}, nil
}

// Update applies the allow-listed fields of update to a project the caller owns.
func (s *ProjectService) Update(ctx context.Context, caller domain.Caller, id string, update domain.ProjectUpdate) (*domain.Project, error) {
	if err := requireRole(caller, domain.RoleTeacher); err != nil {
		return nil, err
	}
	if update.Empty() {
		return nil, fmt.Errorf("%w: no project fields to update", domain.ErrValidation)
	}

	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(caller, p.OwnerID); err != nil {
		return nil, err
	}

	if err := update.Apply(p); err != nil {
		return nil, err
	}
	if err := s.projects.Replace(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	s.log.Info().Str("project_id", p.ID).Msg("project updated")
	return p, nil
}

// Delete removes a project the caller owns together with all of its
// applications, then announces the deletion to every user.
func (s *ProjectService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireRole(caller, domain.RoleTeacher); err != nil {
		return err
	}

	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, p.OwnerID); err != nil {
		return err
	}

	removed, err := s.apps.DeleteByProject(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("delete applications of %s: %w", p.ID, err)
	}
	if err := s.projects.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	// Sweep applications submitted between the cascade and the project delete.
	// Submits that insert later see the project gone and remove their own.
	late, err := s.apps.DeleteByProject(ctx, p.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("project_id", p.ID).Msg("post-delete application sweep failed")
	}
	removed += late

	metrics.ProjectsDeletedTotal.Inc()
	metrics.CascadedApplicationsTotal.Add(float64(removed))
	s.log.Info().Str("project_id", p.ID).Int64("applications_removed", removed).Msg("project deleted")

	s.events.Publish(ctx, domain.NewEvent(domain.EventProjectDeleted, caller.ID, *p))
	return nil
}
