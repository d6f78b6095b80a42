// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/opentrusty/taskboard/internal/authz"
	"github.com/opentrusty/taskboard/internal/identity"
	"github.com/opentrusty/taskboard/internal/project"
	"github.com/opentrusty/taskboard/internal/session"
	redisstore "github.com/opentrusty/taskboard/internal/store/redis"
	"github.com/opentrusty/taskboard/pkg/rbac"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forbiddenBody = `{"error":"insufficient permissions","code":"insufficient_permissions"}`

type testEnv struct {
	store    *memStore
	identity *identity.Service
	projects *project.Service
	tokens   *session.TokenService
	handler  *Handler
	router   http.Handler
}

type envOption func(*Dependencies)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	store := newMemStore()

	idSvc, err := identity.NewService(store, identity.NewPasswordHasher(16*1024, 1, 2, 16, 32), nil, 3, time.Minute)
	require.NoError(t, err)

	authzSvc, err := authz.NewService(rbac.MustNewAuthorizer(), authz.NewResolver(store), nil)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens := session.NewTokenService(strings.Repeat("k", 32), "taskboard-test", time.Hour, redisstore.NewRevocationStore(client))

	deps := Dependencies{
		Identity:    idSvc,
		Projects:    project.NewService(store),
		Authz:       authzSvc,
		Tokens:      tokens,
		States:      redisstore.NewStateStore(client, time.Minute),
		FrontendURL: "http://frontend.test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	h := NewHandler(deps)
	return &testEnv{
		store:    store,
		identity: idSvc,
		projects: deps.Projects,
		tokens:   tokens,
		handler:  h,
		router:   NewRouter(h, nil, RouterConfig{AuthPerMinute: 1000}),
	}
}

// user registers an account, assigns role and returns it with a token.
func (e *testEnv) user(t *testing.T, email string, role rbac.Role) (*identity.User, string) {
	t.Helper()
	ctx := context.Background()

	u, err := e.identity.Register(ctx, email, "secret123", identity.Profile{Name: strings.Split(email, "@")[0]})
	require.NoError(t, err)
	if role != rbac.RoleViewer {
		u, err = e.identity.SetRole(ctx, u.ID, role)
		require.NoError(t, err)
	}

	token, _, err := e.tokens.Issue(u.ID)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) project(t *testing.T, ownerID, name string) *project.Project {
	t.Helper()
	p, err := e.projects.CreateProject(context.Background(), ownerID, name, "", "")
	require.NoError(t, err)
	return p
}

func (e *testEnv) task(t *testing.T, projectID, title string) *project.Task {
	t.Helper()
	task, err := e.projects.CreateTask(context.Background(), projectID, title, "")
	require.NoError(t, err)
	return task
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// TestPurpose: Validates that a TeamLead cannot delete a project owned by someone else.
// Scope: Integration Test (router + services + in-memory store)
// Security: Ownership enforcement on destructive project operations
// Expected: 403 with the canonical body; the project row still exists afterwards.
// Test Case ID: HTTP-01
func TestProjects_TeamLeadCannotDeleteForeignProject(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner@example.com", rbac.RoleDeveloper)
	_, leadToken := env.user(t, "lead@example.com", rbac.RoleTeamLead)
	p := env.project(t, owner.ID, "Apollo")

	w := env.do(t, http.MethodDelete, "/api/v1/projects/"+p.ID, leadToken, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, forbiddenBody, w.Body.String())
	_, ok := env.store.project(p.ID)
	assert.True(t, ok, "project must survive a denied delete")
}

// TestPurpose: Validates that an Admin can edit a task in a project owned by another user.
// Scope: Integration Test
// Security: Any-scope permissions bypass ownership
// Expected: 200 and the new status is persisted.
// Test Case ID: HTTP-02
func TestTasks_AdminUpdatesForeignTask(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner@example.com", rbac.RoleDeveloper)
	_, adminToken := env.user(t, "admin@example.com", rbac.RoleAdmin)
	p := env.project(t, owner.ID, "Apollo")
	task := env.task(t, p.ID, "Launch")

	w := env.do(t, http.MethodPut, "/api/v1/projects/"+p.ID+"/tasks/"+task.ID, adminToken,
		map[string]string{"status": "done"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[TaskResponse](t, w)
	assert.Equal(t, "done", resp.Status)

	stored, ok := env.store.task(task.ID)
	require.True(t, ok)
	assert.Equal(t, project.TaskDone, stored.Status)
}

// TestPurpose: Validates that authentication is checked before authorization.
// Scope: Integration Test
// Security: 401 precedes 403 and nothing is mutated
// Expected: Missing, malformed and forged tokens all get 401 unauthenticated.
// Test Case ID: HTTP-03
func TestAuthentication_PrecedesAuthorization(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner@example.com", rbac.RoleDeveloper)
	p := env.project(t, owner.ID, "Apollo")

	forged := session.NewTokenService(strings.Repeat("x", 32), "taskboard-test", time.Hour, nil)
	forgedToken, _, err := forged.Issue(owner.ID)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing": "",
		"garbage": "not-a-jwt",
		"forged":  forgedToken,
	} {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodDelete, "/api/v1/projects/"+p.ID, token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, CodeUnauthenticated, decodeBody[ErrorResponse](t, w).Code)
		})
	}

	_, ok := env.store.project(p.ID)
	assert.True(t, ok)

	// a token for a deleted account is not a principal
	ghostToken, _, err := env.tokens.Issue("00000000-0000-7000-8000-000000000000")
	require.NoError(t, err)
	w := env.do(t, http.MethodGet, "/api/v1/projects", ghostToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPurpose: Validates that missing resources are reported as 404 before any permission check.
// Scope: Integration Test
// Security: Consistent not-found handling across project and task routes
// Expected: Unknown project or task is 404; existing foreign project is 403.
// Test Case ID: HTTP-04
func TestNotFound_PrecedesForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner@example.com", rbac.RoleDeveloper)
	_, devToken := env.user(t, "dev@example.com", rbac.RoleDeveloper)
	p := env.project(t, owner.ID, "Apollo")
	other := env.project(t, owner.ID, "Gemini")
	task := env.task(t, p.ID, "Launch")

	w := env.do(t, http.MethodDelete, "/api/v1/projects/missing", devToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeBody[ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodDelete, "/api/v1/projects/"+p.ID, devToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/projects/"+p.ID+"/tasks/missing", devToken, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// a task addressed through the wrong project does not exist there
	w = env.do(t, http.MethodPut, "/api/v1/projects/"+other.ID+"/tasks/"+task.ID, devToken, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/projects/missing/tasks", devToken, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPurpose: Validates the Developer role's ownership-scoped permissions.
// Scope: Integration Test
// Security: Own-scope permissions apply only to owned resources
// Expected: Developer edits and deletes own project, edits own task, cannot delete tasks or touch others' projects or add tasks to them.
// Test Case ID: HTTP-05
func TestProjects_DeveloperOwnership(t *testing.T) {
	env := newTestEnv(t)
	dev, devToken := env.user(t, "dev@example.com", rbac.RoleDeveloper)
	other, _ := env.user(t, "other@example.com", rbac.RoleDeveloper)

	w := env.do(t, http.MethodPost, "/api/v1/projects", devToken, map[string]string{"name": "Mine"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	mine := decodeBody[ProjectResponse](t, w)
	assert.Equal(t, dev.ID, mine.OwnerID)
	assert.Equal(t, "active", mine.Status)
	assert.Equal(t, "dev", mine.OwnerName)

	w = env.do(t, http.MethodPost, "/api/v1/projects/"+mine.ID+"/tasks", devToken, map[string]string{"title": "Write docs"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decodeBody[TaskResponse](t, w)
	assert.Equal(t, "todo", task.Status)

	w = env.do(t, http.MethodPut, "/api/v1/projects/"+mine.ID+"/tasks/"+task.ID, devToken, map[string]string{"status": "in-progress"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/projects/"+mine.ID+"/tasks/"+task.ID, devToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, forbiddenBody, w.Body.String())

	theirs := env.project(t, other.ID, "Theirs")
	w = env.do(t, http.MethodGet, "/api/v1/projects/"+theirs.ID, devToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/projects/"+theirs.ID+"/tasks", devToken, map[string]string{"title": "Planted"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, forbiddenBody, w.Body.String())
	planted, err := env.projects.ListTasks(context.Background(), theirs.ID)
	require.NoError(t, err)
	assert.Empty(t, planted)
	w = env.do(t, http.MethodPut, "/api/v1/projects/"+theirs.ID, devToken, map[string]string{"name": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	stored, _ := env.store.project(theirs.ID)
	assert.Equal(t, "Theirs", stored.Name)

	w = env.do(t, http.MethodPut, "/api/v1/projects/"+mine.ID, devToken, map[string]string{"status": "on-hold"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "on-hold", decodeBody[ProjectResponse](t, w).Status)

	w = env.do(t, http.MethodPut, "/api/v1/projects/"+mine.ID, devToken, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/projects/"+mine.ID, devToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := env.store.project(mine.ID)
	assert.False(t, ok)
	_, ok = env.store.task(task.ID)
	assert.False(t, ok, "tasks go with their project")
}

// TestPurpose: Validates project listing scope per role.
// Scope: Integration Test
// Security: view_all_projects gates visibility of others' projects
// Expected: Developer lists own projects only; Manager lists all with task counts.
// Test Case ID: HTTP-06
func TestProjects_ListScope(t *testing.T) {
	env := newTestEnv(t)
	dev, devToken := env.user(t, "dev@example.com", rbac.RoleDeveloper)
	other, _ := env.user(t, "other@example.com", rbac.RoleDeveloper)
	_, managerToken := env.user(t, "manager@example.com", rbac.RoleManager)
	_, viewerToken := env.user(t, "viewer@example.com", rbac.RoleViewer)

	mine := env.project(t, dev.ID, "Mine")
	env.project(t, other.ID, "Theirs")
	done := env.task(t, mine.ID, "Done")
	_, err := env.projects.UpdateTask(context.Background(), mine.ID, done.ID, project.TaskUpdate{Status: ptr(project.TaskDone)})
	require.NoError(t, err)
	env.task(t, mine.ID, "Open")

	w := env.do(t, http.MethodGet, "/api/v1/projects", devToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	own := decodeBody[[]ProjectResponse](t, w)
	require.Len(t, own, 1)
	assert.Equal(t, mine.ID, own[0].ID)
	assert.Equal(t, 2, own[0].TaskCount)
	assert.Equal(t, 1, own[0].CompletedTasks)

	w = env.do(t, http.MethodGet, "/api/v1/projects", managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]ProjectResponse](t, w), 2)

	w = env.do(t, http.MethodGet, "/api/v1/projects", viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]ProjectResponse](t, w))

	w = env.do(t, http.MethodPost, "/api/v1/projects", viewerToken, map[string]string{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, forbiddenBody, w.Body.String())
}

// TestPurpose: Validates that the profile endpoint cannot be used for self role escalation.
// Scope: Integration Test
// Security: Privilege escalation prevention
// Expected: A body carrying "role" is rejected; a normal update keeps the role.
// Test Case ID: HTTP-07
func TestProfile_CannotChangeRole(t *testing.T) {
	env := newTestEnv(t)
	viewer, token := env.user(t, "viewer@example.com", rbac.RoleViewer)

	w := env.do(t, http.MethodPut, "/api/v1/auth/profile", token, `{"name":"Eve","role":"Admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/auth/profile", token, map[string]string{"name": "Eve", "department": "Ops"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[UserResponse](t, w)
	assert.Equal(t, "Eve", resp.Name)
	assert.Equal(t, "Ops", resp.Department)
	assert.Equal(t, rbac.RoleViewer, resp.Role)

	stored, err := env.store.GetByID(context.Background(), viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleViewer, stored.Role)
}

// TestPurpose: Validates the role management endpoint and that role changes apply on the next request.
// Scope: Integration Test
// Security: manage_users is Admin only; roles are read fresh per request
// Expected: Manager gets 403; Admin changes role; invalid role is 400; unknown user is 404.
// Test Case ID: HTTP-08
func TestUsers_UpdateRole(t *testing.T) {
	env := newTestEnv(t)
	target, targetToken := env.user(t, "target@example.com", rbac.RoleViewer)
	_, managerToken := env.user(t, "manager@example.com", rbac.RoleManager)
	_, adminToken := env.user(t, "admin@example.com", rbac.RoleAdmin)

	path := "/api/v1/users/" + target.ID + "/role"

	w := env.do(t, http.MethodPut, path, managerToken, map[string]string{"role": "Admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, path, targetToken, map[string]string{"role": "Admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, path, adminToken, map[string]string{"role": "Overlord"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidRole, decodeBody[ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodPut, "/api/v1/users/missing/role", adminToken, map[string]string{"role": "Developer"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the target is resolved before the body is read
	w = env.do(t, http.MethodPut, "/api/v1/users/missing/role", adminToken, map[string]string{"role": "Overlord"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodPut, "/api/v1/users/missing/role", adminToken, "{not json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// before promotion the target cannot create projects
	w = env.do(t, http.MethodPost, "/api/v1/projects", targetToken, map[string]string{"name": "Early"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, path, adminToken, map[string]string{"role": "developer"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, rbac.RoleDeveloper, decodeBody[UserResponse](t, w).Role)

	// same token, new role
	w = env.do(t, http.MethodPost, "/api/v1/projects", targetToken, map[string]string{"name": "Now"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/users", managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]UserResponse](t, w), 3)

	w = env.do(t, http.MethodGet, "/api/v1/users", targetToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestPurpose: Validates the register, login, profile and logout flow.
// Scope: Integration Test
// Security: New accounts are Viewers; revoked tokens stop working
// Expected: 201 on register, 200 on login, 401 on wrong password, 401 after logout.
// Test Case ID: HTTP-09
func TestAuth_RegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: "Alice Doe", Email: "Alice@Example.com", Password: "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decodeBody[AuthResponse](t, w)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, rbac.RoleViewer, reg.User.Role)
	assert.Equal(t, "General", reg.User.Department)
	assert.Equal(t, "alice@example.com", reg.User.Email)

	w = env.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeUserExists, decodeBody[ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeInvalidCredentials, decodeBody[ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "alice@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decodeBody[AuthResponse](t, w).Token

	w = env.do(t, http.MethodGet, "/api/v1/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decodeBody[ProfileResponse](t, w)
	assert.Equal(t, "Alice Doe", profile.User.Name)
	assert.Equal(t, 0, profile.Stats.ActiveProjects)

	w = env.do(t, http.MethodGet, "/api/v1/auth/permissions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	perms := decodeBody[PermissionsResponse](t, w)
	assert.Equal(t, rbac.RoleViewer, perms.Role)
	assert.ElementsMatch(t, rbac.ViewerPermissions(), perms.Permissions)

	w = env.do(t, http.MethodGet, "/api/v1/settings", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/auth/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// the registration token is a separate session
	w = env.do(t, http.MethodGet, "/api/v1/auth/profile", reg.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestPurpose: Validates password change rules.
// Scope: Integration Test
// Security: Current password required; OAuth accounts have no password
// Expected: Wrong current password is 401; success lets the new password log in; OAuth user gets 400.
// Test Case ID: HTTP-10
func TestAuth_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "dev@example.com", rbac.RoleDeveloper)

	w := env.do(t, http.MethodPost, "/api/v1/auth/change-password", token, ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newsecret"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/change-password", token, ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "newsecret"})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "dev@example.com", Password: "newsecret"})
	assert.Equal(t, http.StatusOK, w.Code)

	g, err := env.identity.LoginWithProvider(context.Background(), identity.ExternalIdentity{
		Provider: identity.ProviderGoogle, Subject: "sub-1", Email: "g@example.com", Name: "G",
	})
	require.NoError(t, err)
	gToken, _, err := env.tokens.Issue(g.ID)
	require.NoError(t, err)

	w = env.do(t, http.MethodPost, "/api/v1/auth/change-password", gToken, ChangePasswordRequest{CurrentPassword: "whatever", NewPassword: "newsecret"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeOAuthPasswordChange, decodeBody[ErrorResponse](t, w).Code)
}

func ptr[T any](v T) *T { return &v }
