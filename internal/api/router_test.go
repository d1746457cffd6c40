package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mindmesh/mentorship/internal/api/handler"
	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

// --- stubs ---

type tokenAuth struct {
	ports.AuthService
	callers map[string]domain.Caller
}

func (a tokenAuth) VerifyToken(token string) (domain.Caller, error) {
	if c, ok := a.callers[token]; ok {
		return c, nil
	}
	return domain.Caller{}, domain.ErrUnauthorized
}

type stubProjects struct {
	ports.ProjectService
	createCalls int
	createErr   error
	getErr      error
}

func (s *stubProjects) Create(_ context.Context, caller domain.Caller, p domain.Project) (*domain.Project, error) {
	s.createCalls++
	if s.createErr != nil {
		return nil, s.createErr
	}
	p.ID, p.OwnerID = "p1", caller.ID
	return &p, nil
}

func (s *stubProjects) List(context.Context) ([]ports.ProjectWithOwner, error) {
	return []ports.ProjectWithOwner{{Project: &domain.Project{ID: "p1", Title: "Compilers"}}}, nil
}

func (s *stubProjects) Get(_ context.Context, id string) (*ports.ProjectWithOwner, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &ports.ProjectWithOwner{Project: &domain.Project{ID: id}}, nil
}

type stubApplications struct {
	ports.ApplicationService
	submitErr     error
	transitionErr error
	lastUpdate    domain.ApplicationUpdate
}

func (s *stubApplications) Submit(_ context.Context, caller domain.Caller, in ports.SubmitApplicationInput) (*domain.Application, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &domain.Application{ID: "a1", ProjectID: in.ProjectID, StudentID: caller.ID, Status: domain.ApplicationPending}, nil
}

func (s *stubApplications) Transition(_ context.Context, _ domain.Caller, id string, u domain.ApplicationUpdate) (*domain.Application, error) {
	s.lastUpdate = u
	if s.transitionErr != nil {
		return nil, s.transitionErr
	}
	return &domain.Application{ID: id, Status: domain.ApplicationAccepted}, nil
}

func (s *stubApplications) ActiveProjectsForStudent(context.Context, string) ([]*domain.Project, error) {
	return []*domain.Project{}, nil
}

type stubInbox struct {
	ports.NotificationService
}

func (stubInbox) MarkAllRead(context.Context, domain.Caller) (int64, error) { return 3, nil }

func (stubInbox) MarkRead(_ context.Context, _ domain.Caller, id string) error {
	if id != "n1" {
		return domain.ErrNotificationNotFound
	}
	return nil
}

type routerFixture struct {
	projects *stubProjects
	apps     *stubApplications
	serve    func(method, path, token, body string) *httptest.ResponseRecorder
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{projects: &stubProjects{}, apps: &stubApplications{}}
	e := NewRouter(Dependencies{
		Auth: tokenAuth{callers: map[string]domain.Caller{
			"teacher-token": {ID: "t1", Role: domain.RoleTeacher},
			"student-token": {ID: "s1", Role: domain.RoleStudent},
		}},
		Projects:      f.projects,
		Applications:  f.apps,
		Notifications: stubInbox{},
		Readiness: map[string]handler.PingFunc{
			"mongodb": func(context.Context) error { return nil },
		},
		Log:      zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	})
	f.serve = func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
	return f
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return body.Message
}

// --- tests ---

func TestRouter_PublicRoutes(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/api/projects", "/api/projects/p1", "/api/applications/of-student/s1", "/health", "/health/ready", "/metrics"} {
		if rec := f.serve(http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_CredentialRequired(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.serve(http.MethodPost, "/api/projects", "", `{"title":"x","description":"y","max_students":1}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rec.Code)
	}
	if message(t, rec) == "" {
		t.Fatalf("expected a message field")
	}

	rec = f.serve(http.MethodPost, "/api/projects", "forged", `{"title":"x","description":"y","max_students":1}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: expected 401, got %d", rec.Code)
	}
	if f.projects.createCalls != 0 {
		t.Fatalf("service reached without a credential")
	}
}

func TestRouter_RoleGateRunsBeforeHandler(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.serve(http.MethodPost, "/api/projects", "student-token", `{"title":"x","description":"y","max_students":1}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student creating project: expected 403, got %d", rec.Code)
	}
	if f.projects.createCalls != 0 {
		t.Fatalf("service reached with the wrong role")
	}

	rec = f.serve(http.MethodPost, "/api/applications", "teacher-token", `{"project_id":"p1"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("teacher applying: expected 403, got %d", rec.Code)
	}

	rec = f.serve(http.MethodPost, "/api/projects", "teacher-token", `{"title":"Compilers","description":"d","max_students":2,"start_date":"2026-01-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("teacher creating project: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created domain.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if created.OwnerID != "t1" || created.StartDate == nil {
		t.Fatalf("unexpected project: %+v", created)
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"duplicate", domain.ErrDuplicateApplication, http.StatusBadRequest, "already applied to this project"},
		{"validation", fmtValidation("project_id is required"), http.StatusBadRequest, "validation failed: project_id is required"},
		{"not found", domain.ErrProjectNotFound, http.StatusNotFound, "project not found"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{"internal", errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.apps.submitErr = tc.err

			rec := f.serve(http.MethodPost, "/api/applications", "student-token", `{"project_id":"p1","message":"interested"}`)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if got := message(t, rec); got != tc.message {
				t.Fatalf("message = %q, want %q", got, tc.message)
			}
		})
	}
}

func TestRouter_TransitionBindsAllowListOnly(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.serve(http.MethodPut, "/api/applications/a1", "teacher-token", `{"status":"accepted","student_id":"s9","project_id":"p9"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if f.apps.lastUpdate.Status == nil || *f.apps.lastUpdate.Status != domain.ApplicationAccepted || f.apps.lastUpdate.IsMentor != nil {
		t.Fatalf("unexpected update: %+v", f.apps.lastUpdate)
	}

	rec = f.serve(http.MethodPut, "/api/applications/a1", "teacher-token", `{"status":"waitlisted"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: expected 400, got %d", rec.Code)
	}
}

func TestRouter_InboxRoutes(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.serve(http.MethodPatch, "/api/users/me/notifications/read", "student-token", ""); rec.Code != http.StatusOK {
		t.Fatalf("mark all read: expected 200, got %d", rec.Code)
	}
	if rec := f.serve(http.MethodPatch, "/api/users/me/notifications/n1/read", "student-token", ""); rec.Code != http.StatusOK {
		t.Fatalf("mark read: expected 200, got %d", rec.Code)
	}
	if rec := f.serve(http.MethodPatch, "/api/users/me/notifications/n2/read", "student-token", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign notification: expected 404, got %d", rec.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.serve(http.MethodGet, "/api/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if message(t, rec) == "" {
		t.Fatalf("expected a message field")
	}
}

func fmtValidation(detail string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, detail)
}
