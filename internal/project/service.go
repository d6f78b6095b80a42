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

package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opentrusty/taskboard/internal/id"
	"github.com/opentrusty/taskboard/internal/observability/logger"
)

// Service provides project and task business logic. It does not
// authorize; callers run the access check before any mutation.
type Service struct {
	repo Repository
}

// NewService creates a new project service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListProjects lists every project when all is set, otherwise only the
// projects owned by userID.
func (s *Service) ListProjects(ctx context.Context, userID string, all bool) ([]*Project, error) {
	if all {
		return s.repo.ListProjects(ctx, "")
	}
	if userID == "" {
		return []*Project{}, nil
	}
	return s.repo.ListProjects(ctx, userID)
}

// GetProject retrieves a project by ID
func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}

// CreateProject creates a project owned by ownerID.
func (s *Service) CreateProject(ctx context.Context, ownerID, name, description, status string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	p := &Project{
		ID:          id.NewUUIDv7(),
		Name:        name,
		Description: description,
		Status:      st,
		OwnerID:     ownerID,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	slog.InfoContext(ctx, "project created", logger.ProjectID(p.ID), logger.UserID(ownerID))
	return s.repo.GetProject(ctx, p.ID)
}

// UpdateProject applies u and returns the updated project.
func (s *Service) UpdateProject(ctx context.Context, id string, u Update) (*Project, error) {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		u.Name = &name
	}
	if u.Status != nil {
		if _, err := ParseStatus(string(*u.Status)); err != nil || *u.Status == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *u.Status)
		}
	}

	if err := s.repo.UpdateProject(ctx, id, u); err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, id)
}

// DeleteProject deletes a project and its tasks
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "project deleted", logger.ProjectID(id))
	return nil
}

// ListTasks lists the tasks of a project
func (s *Service) ListTasks(ctx context.Context, projectID string) ([]*Task, error) {
	return s.repo.ListTasks(ctx, projectID)
}

// GetTask retrieves a task of a project
func (s *Service) GetTask(ctx context.Context, projectID, taskID string) (*Task, error) {
	return s.repo.GetTask(ctx, projectID, taskID)
}

// CreateTask adds a task to an existing project.
func (s *Service) CreateTask(ctx context.Context, projectID, title, status string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	st, err := ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	t := &Task{
		ID:        id.NewUUIDv7(),
		ProjectID: projectID,
		Title:     title,
		Status:    st,
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return s.repo.GetTask(ctx, projectID, t.ID)
}

// UpdateTask applies u and returns the updated task.
func (s *Service) UpdateTask(ctx context.Context, projectID, taskID string, u TaskUpdate) (*Task, error) {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		u.Title = &title
	}
	if u.Status != nil {
		if _, err := ParseTaskStatus(string(*u.Status)); err != nil || *u.Status == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *u.Status)
		}
	}

	if err := s.repo.UpdateTask(ctx, projectID, taskID, u); err != nil {
		return nil, err
	}
	return s.repo.GetTask(ctx, projectID, taskID)
}

// DeleteTask deletes a task of a project
func (s *Service) DeleteTask(ctx context.Context, projectID, taskID string) error {
	if err := s.repo.DeleteTask(ctx, projectID, taskID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "task deleted", logger.ProjectID(projectID), logger.TaskID(taskID))
	return nil
}
