package http

import (
	"time"

	"github.com/opentrusty/taskboard/internal/identity"
	"github.com/opentrusty/taskboard/internal/project"
	"github.com/opentrusty/taskboard/pkg/rbac"
)

// RegisterRequest represents the registration payload
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Department string `json:"department,omitempty" validate:"omitempty,max=100"`
}

// LoginRequest represents the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest has no role field; unknown fields are rejected.
type UpdateProfileRequest struct {
	Name       string `json:"name,omitempty" validate:"omitempty,max=100"`
	Avatar     string `json:"avatar,omitempty" validate:"omitempty,url"`
	Department string `json:"department,omitempty" validate:"omitempty,max=100"`
}

// ChangePasswordRequest represents the password change payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// UpdateRoleRequest represents the role change payload
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// ProjectRequest is used for create and update. On update, absent fields
// are kept.
type ProjectRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=active completed on-hold"`
}

// TaskRequest is used for create and update. On update, absent fields are
// kept.
type TaskRequest struct {
	Title  *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=todo in-progress done"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar"`
	Role       rbac.Role `json:"role"`
	Department string    `json:"department"`
	Provider   string    `json:"provider"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatsResponse summarizes a user's activity
type StatsResponse struct {
	TasksCompleted int `json:"tasks_completed"`
	ActiveProjects int `json:"active_projects"`
}

// ProfileResponse is the authenticated user's profile
type ProfileResponse struct {
	User  UserResponse  `json:"user"`
	Stats StatsResponse `json:"stats"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// PermissionsResponse drives client-side gating
type PermissionsResponse struct {
	Role         rbac.Role         `json:"role"`
	Permissions  []rbac.Permission `json:"permissions"`
	Capabilities []rbac.Capability `json:"capabilities"`
}

// SettingsResponse is the settings page payload
type SettingsResponse struct {
	Role        rbac.Role         `json:"role"`
	Department  string            `json:"department"`
	Provider    string            `json:"provider"`
	Permissions []rbac.Permission `json:"permissions"`
}

// ProjectResponse is the public view of a project
type ProjectResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	OwnerID        string    `json:"owner_id"`
	OwnerName      string    `json:"owner_name"`
	TaskCount      int       `json:"task_count"`
	CompletedTasks int       `json:"completed_tasks"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TaskResponse is the public view of a task
type TaskResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Profile.Name,
		Email:      u.Email,
		Avatar:     u.Profile.Avatar,
		Role:       u.Role,
		Department: u.Profile.Department,
		Provider:   string(u.Provider),
		CreatedAt:  u.CreatedAt,
	}
}

func toProjectResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Status:         string(p.Status),
		OwnerID:        p.OwnerID,
		OwnerName:      p.OwnerName,
		TaskCount:      p.TaskCount,
		CompletedTasks: p.CompletedTasks,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toTaskResponse(t *project.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		ProjectID: t.ProjectID,
		Title:     t.Title,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
