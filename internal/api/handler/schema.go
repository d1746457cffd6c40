package handler

import (
	"fmt"
	"time"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

// --- Auth ---

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Surname  string `json:"surname" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=student teacher"`
}

func (r registerRequest) toInput() ports.RegisterInput {
	return ports.RegisterInput{
		Name:     r.Name,
		Surname:  r.Surname,
		Email:    r.Email,
		Password: r.Password,
		Role:     domain.Role(r.Role),
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Users ---

type linksRequest struct {
	LinkedIn string `json:"linkedin" validate:"omitempty,url"`
	GitHub   string `json:"github" validate:"omitempty,url"`
	Website  string `json:"website" validate:"omitempty,url"`
}

type updateProfileRequest struct {
	Name       *string       `json:"name" validate:"omitempty,max=100"`
	Surname    *string       `json:"surname" validate:"omitempty,max=100"`
	University *string       `json:"university" validate:"omitempty,max=200"`
	Department *string       `json:"department" validate:"omitempty,max=200"`
	Title      *string       `json:"title" validate:"omitempty,max=100"`
	Class      *string       `json:"class" validate:"omitempty,max=50"`
	About      *string       `json:"about" validate:"omitempty,max=2000"`
	Skills     *[]string     `json:"skills" validate:"omitempty,max=50"`
	Links      *linksRequest `json:"links"`
}

func (r updateProfileRequest) toUpdate() domain.ProfileUpdate {
	u := domain.ProfileUpdate{
		Name:       r.Name,
		Surname:    r.Surname,
		University: r.University,
		Department: r.Department,
		Title:      r.Title,
		Class:      r.Class,
		About:      r.About,
		Skills:     r.Skills,
	}
	if r.Links != nil {
		u.Links = &domain.Links{LinkedIn: r.Links.LinkedIn, GitHub: r.Links.GitHub, Website: r.Links.Website}
	}
	return u
}

// --- Projects ---

type createProjectRequest struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Description     string  `json:"description" validate:"required"`
	Status          string  `json:"status" validate:"omitempty,oneof=active completed archived"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	MaxStudents     int     `json:"max_students" validate:"required,min=1"`
	EstimatedMonths int     `json:"estimated_months" validate:"omitempty,min=1"`
}

func (r createProjectRequest) toProject() (domain.Project, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return domain.Project{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return domain.Project{}, err
	}
	return domain.Project{
		Title:           r.Title,
		Description:     r.Description,
		Status:          domain.ProjectStatus(r.Status),
		StartDate:       start,
		EndDate:         end,
		MaxStudents:     r.MaxStudents,
		EstimatedMonths: r.EstimatedMonths,
	}, nil
}

type updateProjectRequest struct {
	Title           *string `json:"title" validate:"omitempty,max=200"`
	Description     *string `json:"description"`
	Status          *string `json:"status" validate:"omitempty,oneof=active completed archived"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	MaxStudents     *int    `json:"max_students" validate:"omitempty,min=1"`
	EstimatedMonths *int    `json:"estimated_months" validate:"omitempty,min=1"`
}

func (r updateProjectRequest) toUpdate() (domain.ProjectUpdate, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return domain.ProjectUpdate{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return domain.ProjectUpdate{}, err
	}
	u := domain.ProjectUpdate{
		Title:           r.Title,
		Description:     r.Description,
		StartDate:       start,
		EndDate:         end,
		MaxStudents:     r.MaxStudents,
		EstimatedMonths: r.EstimatedMonths,
	}
	if r.Status != nil {
		status := domain.ProjectStatus(*r.Status)
		u.Status = &status
	}
	return u, nil
}

// dateLayouts are the accepted encodings of start_date and end_date.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD or RFC 3339)", domain.ErrValidation, field)
}

// --- Applications ---

type submitApplicationRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	Message   string `json:"message" validate:"max=2000"`
}

type updateApplicationRequest struct {
	Status   *string `json:"status" validate:"omitempty,oneof=pending accepted rejected"`
	IsMentor *bool   `json:"is_mentor"`
}

func (r updateApplicationRequest) toUpdate() domain.ApplicationUpdate {
	u := domain.ApplicationUpdate{IsMentor: r.IsMentor}
	if r.Status != nil {
		status := domain.ApplicationStatus(*r.Status)
		u.Status = &status
	}
	return u
}

// --- Notifications ---

type markAllReadResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}
