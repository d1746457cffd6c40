package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

// --- users ---

type memUsers struct {
	mu       sync.Mutex
	seq      int
	byID     map[string]*domain.User
	order    []string
	listErrs map[domain.Role]error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*domain.User{}, listErrs: map[domain.Role]error{}}
}

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	cp := *user
	r.byID[user.ID] = &cp
	r.order = append(r.order, user.ID)
	return nil
}

func (r *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUsers) List(_ context.Context, filter ports.UserFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.listErrs[filter.Role]; err != nil {
		return nil, err
	}
	search := strings.ToLower(filter.Search)
	var out []*domain.User
	for _, id := range r.order {
		u := r.byID[id]
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Name+" "+u.Surname+" "+u.Email), search) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memUsers) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	update.Apply(u)
	cp := *u
	return &cp, nil
}

func (r *memUsers) SetResetCode(_ context.Context, id, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetCode, u.ResetExpiresAt = code, expiresAt
	return nil
}

func (r *memUsers) ResetPassword(_ context.Context, email, code, passwordHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email != email {
			continue
		}
		if u.ResetCode == "" || u.ResetCode != code || !now.Before(u.ResetExpiresAt) {
			return domain.ErrInvalidResetCode
		}
		u.PasswordHash = passwordHash
		u.ResetCode, u.ResetExpiresAt = "", time.Time{}
		return nil
	}
	return domain.ErrInvalidResetCode
}

// seed stores a user directly, bypassing password hashing.
func (r *memUsers) seed(t *testing.T, name, surname string, role domain.Role) domain.Caller {
	t.Helper()
	u := &domain.User{
		Name:    name,
		Surname: surname,
		Email:   strings.ToLower(name) + "@uni.example",
		Role:    role,
	}
	if err := r.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return domain.Caller{ID: u.ID, Role: role, Name: u.DisplayName()}
}

// --- projects ---

type memProjects struct {
	mu    sync.Mutex
	seq   int
	byID  map[string]*domain.Project
	order []string

	beforeDelete func() // runs once, outside the lock
}

func newMemProjects() *memProjects {
	return &memProjects{byID: map[string]*domain.Project{}}
}

func (r *memProjects) Create(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p.ID = fmt.Sprintf("project-%d", r.seq)
	cp := *p
	r.byID[p.ID] = &cp
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memProjects) FindByID(_ context.Context, id string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProjects) FindByIDs(_ context.Context, ids []string) ([]*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Project
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memProjects) List(_ context.Context, ownerID string) ([]*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Project
	for _, id := range r.order {
		p, ok := r.byID[id]
		if !ok || (ownerID != "" && p.OwnerID != ownerID) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memProjects) Replace(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[p.ID]
	if !ok || current.OwnerID != p.OwnerID {
		return domain.ErrProjectNotFound
	}
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *memProjects) Delete(_ context.Context, id string) error {
	if hook := r.beforeDelete; hook != nil {
		r.beforeDelete = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrProjectNotFound
	}
	delete(r.byID, id)
	return nil
}

// --- applications ---

// memApplications enforces the (project, student) uniqueness constraint
// atomically, like the unique index does in storage.
type memApplications struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Application

	afterCreate func() // runs once, outside the lock
}

func newMemApplications() *memApplications {
	return &memApplications{byID: map[string]*domain.Application{}}
}

func (r *memApplications) Create(_ context.Context, app *domain.Application) error {
	if err := r.insert(app); err != nil {
		return err
	}
	if hook := r.afterCreate; hook != nil {
		r.afterCreate = nil
		hook()
	}
	return nil
}

func (r *memApplications) insert(app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.ProjectID == app.ProjectID && a.StudentID == app.StudentID {
			return domain.ErrDuplicateApplication
		}
	}
	r.seq++
	app.ID = fmt.Sprintf("application-%d", r.seq)
	cp := *app
	r.byID[app.ID] = &cp
	return nil
}

func (r *memApplications) FindByID(_ context.Context, id string) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memApplications) FindByProjectAndStudent(_ context.Context, projectID, studentID string) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.ProjectID == projectID && a.StudentID == studentID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrApplicationNotFound
}

func (r *memApplications) list(match func(*domain.Application) bool) []*domain.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Application
	for _, a := range r.byID {
		if match(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memApplications) ListByProject(_ context.Context, projectID string) ([]*domain.Application, error) {
	return r.list(func(a *domain.Application) bool { return a.ProjectID == projectID }), nil
}

func (r *memApplications) ListByStudent(_ context.Context, studentID string, status domain.ApplicationStatus) ([]*domain.Application, error) {
	return r.list(func(a *domain.Application) bool {
		return a.StudentID == studentID && (status == "" || a.Status == status)
	}), nil
}

func (r *memApplications) UpdateState(_ context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[app.ID]
	if !ok {
		return domain.ErrApplicationNotFound
	}
	a.Status, a.IsMentor = app.Status, app.IsMentor
	return nil
}

func (r *memApplications) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrApplicationNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memApplications) DeleteByProject(_ context.Context, projectID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.byID {
		if a.ProjectID == projectID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

// --- notifications ---

type memNotifications struct {
	mu      sync.Mutex
	seq     int
	items   []*domain.Notification
	failFor map[string]bool
}

func newMemNotifications() *memNotifications {
	return &memNotifications{failFor: map[string]bool{}}
}

var errStorageDown = errors.New("storage unavailable")

func (r *memNotifications) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[n.UserID] {
		return errStorageDown
	}
	r.seq++
	n.ID = fmt.Sprintf("notification-%d", r.seq)
	cp := *n
	r.items = append(r.items, &cp)
	return nil
}

func (r *memNotifications) ListByUser(_ context.Context, userID string) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID == userID {
			cp := *r.items[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memNotifications) MarkRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (r *memNotifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.UserID == userID && !item.Read {
			item.Read = true
			n++
		}
	}
	return n, nil
}

// forUser returns the messages in userID's inbox in creation order,
// optionally restricted to the given types.
func (r *memNotifications) forUser(userID string, types ...domain.NotificationType) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.items {
		if n.UserID != userID {
			continue
		}
		if len(types) > 0 && !slices.Contains(types, n.Type) {
			continue
		}
		out = append(out, n.Message)
	}
	return out
}

func (r *memNotifications) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// --- guard, events, mail ---

type memGuard struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func newMemGuard() *memGuard {
	return &memGuard{held: map[string]bool{}}
}

func (g *memGuard) Acquire(_ context.Context, projectID, studentID string) (func(), bool, error) {
	if g.err != nil {
		return nil, false, g.err
	}
	key := projectID + ":" + studentID
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[key] {
		return nil, false, nil
	}
	g.held[key] = true
	return func() {
		g.mu.Lock()
		delete(g.held, key)
		g.mu.Unlock()
	}, true, nil
}

// recordingPublisher keeps every event and hands it synchronously to the
// optional handler.
type recordingPublisher struct {
	mu      sync.Mutex
	events  []domain.Event
	handler ports.EventHandler
}

func (p *recordingPublisher) Publish(ctx context.Context, evt domain.Event) {
	p.mu.Lock()
	p.events = append(p.events, evt)
	p.mu.Unlock()
	if p.handler != nil {
		p.handler.Handle(ctx, evt)
	}
}

func (p *recordingPublisher) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type capturingMailer struct {
	mu    sync.Mutex
	to    string
	code  string
	err   error
	calls int
}

func (m *capturingMailer) SendResetCode(_ context.Context, to, code string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.to, m.code = to, code
	return m.err
}

// --- harness ---

// platform wires the services over in-memory storage with inline
// notification delivery.
type platform struct {
	users         *memUsers
	projects      *memProjects
	apps          *memApplications
	notifications *memNotifications
	events        *recordingPublisher

	projectSvc *ProjectService
	appSvc     *ApplicationService
	inbox      *NotificationService
}

func newPlatform(guard ports.SubmitGuard) *platform {
	p := &platform{
		users:         newMemUsers(),
		projects:      newMemProjects(),
		apps:          newMemApplications(),
		notifications: newMemNotifications(),
	}
	log := zerolog.Nop()
	p.events = &recordingPublisher{handler: NewNotifier(p.notifications, p.users, log)}
	p.projectSvc = NewProjectService(p.projects, p.apps, p.users, p.events, log)
	p.appSvc = NewApplicationService(p.apps, p.projects, p.users, guard, p.events, log)
	p.inbox = NewNotificationService(p.notifications)
	return p
}

func (p *platform) createProject(t *testing.T, owner domain.Caller, title string) *domain.Project {
	t.Helper()
	created, err := p.projectSvc.Create(context.Background(), owner, domain.Project{
		Title:       title,
		Description: "Research project " + title,
		MaxStudents: 2,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return created
}

func ptr[T any](v T) *T { return &v }
