package http

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opentrusty/taskboard/internal/authz"
	"github.com/opentrusty/taskboard/internal/identity"
	"github.com/opentrusty/taskboard/internal/project"
	"github.com/opentrusty/taskboard/pkg/rbac"
)

// memStore backs users, projects, tasks and ownership lookups in memory.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*identity.User
	credentials map[string]*identity.Credentials
	projects    map[string]*project.Project
	tasks       map[string]*project.Task
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*identity.User),
		credentials: make(map[string]*identity.Credentials),
		projects:    make(map[string]*project.Project),
		tasks:       make(map[string]*project.Task),
	}
}

// identity.UserRepository

func (m *memStore) Create(ctx context.Context, user *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return identity.ErrUserAlreadyExists
		}
	}
	cp := *user
	cp.CreatedAt = time.Now()
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) AddCredentials(ctx context.Context, c *identity.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.credentials[c.UserID] = &cp
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (m *memStore) GetByProvider(ctx context.Context, provider identity.Provider, providerID string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (m *memStore) List(ctx context.Context) ([]*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*identity.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) UpdateProfile(ctx context.Context, userID string, p identity.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return identity.ErrUserNotFound
	}
	u.Profile = p
	return nil
}

func (m *memStore) UpdateRole(ctx context.Context, userID string, role rbac.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return identity.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (m *memStore) UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return identity.ErrUserNotFound
	}
	u.FailedLoginAttempts = failedAttempts
	u.LockedUntil = lockedUntil
	return nil
}

func (m *memStore) GetCredentials(ctx context.Context, userID string) (*identity.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credentials[userID]
	if !ok {
		return &identity.Credentials{UserID: userID}, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[userID] = &identity.Credentials{UserID: userID, PasswordHash: passwordHash}
	return nil
}

func (m *memStore) GetStats(ctx context.Context, userID string) (*identity.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &identity.Stats{}
	for _, p := range m.projects {
		if p.OwnerID != userID {
			continue
		}
		if p.Status == project.StatusActive {
			stats.ActiveProjects++
		}
		for _, t := range m.tasks {
			if t.ProjectID == p.ID && t.Status == project.TaskDone {
				stats.TasksCompleted++
			}
		}
	}
	return stats, nil
}

// project.Repository

func (m *memStore) CreateProject(ctx context.Context, p *project.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.projects[p.ID] = &cp
	return nil
}

func (m *memStore) GetProject(ctx context.Context, id string) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, project.ErrProjectNotFound
	}
	return m.decorate(p), nil
}

// decorate fills the joined columns. Callers hold mu.
func (m *memStore) decorate(p *project.Project) *project.Project {
	cp := *p
	if owner, ok := m.users[p.OwnerID]; ok {
		cp.OwnerName = owner.Profile.Name
	}
	cp.TaskCount, cp.CompletedTasks = 0, 0
	for _, t := range m.tasks {
		if t.ProjectID != p.ID {
			continue
		}
		cp.TaskCount++
		if t.Status == project.TaskDone {
			cp.CompletedTasks++
		}
	}
	return &cp
}

func (m *memStore) ListProjects(ctx context.Context, ownerID string) ([]*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*project.Project{}
	for _, p := range m.projects {
		if ownerID == "" || p.OwnerID == ownerID {
			out = append(out, m.decorate(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) UpdateProject(ctx context.Context, id string, u project.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return project.ErrProjectNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) DeleteProject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return project.ErrProjectNotFound
	}
	delete(m.projects, id)
	for tid, t := range m.tasks {
		if t.ProjectID == id {
			delete(m.tasks, tid)
		}
	}
	return nil
}

func (m *memStore) CreateTask(ctx context.Context, t *project.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[t.ProjectID]; !ok {
		return project.ErrProjectNotFound
	}
	cp := *t
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.tasks[t.ID] = &cp
	return nil
}

func (m *memStore) GetTask(ctx context.Context, projectID, taskID string) (*project.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return nil, project.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ListTasks(ctx context.Context, projectID string) ([]*project.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*project.Task{}
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) UpdateTask(ctx context.Context, projectID, taskID string, u project.TaskUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return project.ErrTaskNotFound
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	t.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) DeleteTask(ctx context.Context, projectID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return project.ErrTaskNotFound
	}
	delete(m.tasks, taskID)
	return nil
}

// authz.OwnerLookup

func (m *memStore) FindOwner(ctx context.Context, resource rbac.ResourceType, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch resource {
	case rbac.ResourceProject:
		if p, ok := m.projects[id]; ok {
			return p.OwnerID, nil
		}
	case rbac.ResourceTask:
		if t, ok := m.tasks[id]; ok {
			if p, ok := m.projects[t.ProjectID]; ok {
				return p.OwnerID, nil
			}
		}
	case rbac.ResourceUser:
		if _, ok := m.users[id]; ok {
			return id, nil
		}
	}
	return "", authz.ErrResourceNotFound
}

func (m *memStore) project(id string) (*project.Project, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (m *memStore) task(id string) (*project.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}
