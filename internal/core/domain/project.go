package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// Project is owned by exactly one teacher; OwnerID never changes after creation.
type Project struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	OwnerID         string        `json:"owner_id"`
	Status          ProjectStatus `json:"status"`
	StartDate       *time.Time    `json:"start_date,omitempty"`
	EndDate         *time.Time    `json:"end_date,omitempty"`
	MaxStudents     int           `json:"max_students"`
	EstimatedMonths int           `json:"estimated_months"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Validate checks the fields required for a project to be stored.
func (p *Project) Validate() error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case strings.TrimSpace(p.Description) == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case p.MaxStudents < 1:
		return fmt.Errorf("%w: max_students must be at least 1", ErrValidation)
	case p.EstimatedMonths < 1:
		return fmt.Errorf("%w: estimated_months must be at least 1", ErrValidation)
	case !p.Status.Valid():
		return fmt.Errorf("%w: unknown project status %q", ErrValidation, p.Status)
	case p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate):
		return fmt.Errorf("%w: end_date is before start_date", ErrValidation)
	}
	return nil
}

// ProjectUpdate is the allow-list of project fields an owner may change.
// Nil pointers are left untouched. OwnerID is not updatable.
type ProjectUpdate struct {
	Title           *string
	Description     *string
	Status          *ProjectStatus
	StartDate       *time.Time
	EndDate         *time.Time
	MaxStudents     *int
	EstimatedMonths *int
}

func (u ProjectUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.StartDate == nil &&
		u.EndDate == nil && u.MaxStudents == nil && u.EstimatedMonths == nil
}

// Apply copies the set fields onto p and re-validates the result.
func (u ProjectUpdate) Apply(p *Project) error {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.StartDate != nil {
		start := *u.StartDate
		p.StartDate = &start
	}
	if u.EndDate != nil {
		end := *u.EndDate
		p.EndDate = &end
	}
	if u.MaxStudents != nil {
		p.MaxStudents = *u.MaxStudents
	}
	if u.EstimatedMonths != nil {
		p.EstimatedMonths = *u.EstimatedMonths
	}
	return p.Validate()
}
