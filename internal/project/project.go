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
	"errors"
	"fmt"
	"time"
)

// Domain errors
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrNameRequired    = errors.New("name is required")
	ErrTitleRequired   = errors.New("title is required")
)

// Status represents project status
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusOnHold    Status = "on-hold"
)

// ParseStatus validates a project status. Empty means active.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusActive, nil
	case StatusActive, StatusCompleted, StatusOnHold:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Project is a named unit of work owned by one user. Task counts are
// computed on read.
type Project struct {
	ID             string
	Name           string
	Description    string
	Status         Status
	OwnerID        string
	OwnerName      string
	TaskCount      int
	CompletedTasks int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Update holds the fields to change; nil fields are kept.
type Update struct {
	Name        *string
	Description *string
	Status      *Status
}

// Repository defines the interface for project and task persistence.
// Every mutation is a single statement.
type Repository interface {
	// CreateProject inserts a project
	CreateProject(ctx context.Context, p *Project) error

	// GetProject retrieves a project with owner name and task counts
	GetProject(ctx context.Context, id string) (*Project, error)

	// ListProjects lists projects newest first. An empty ownerID lists all.
	ListProjects(ctx context.Context, ownerID string) ([]*Project, error)

	// UpdateProject applies u to the project
	UpdateProject(ctx context.Context, id string, u Update) error

	// DeleteProject deletes a project and, by cascade, its tasks
	DeleteProject(ctx context.Context, id string) error

	// CreateTask inserts a task
	CreateTask(ctx context.Context, t *Task) error

	// GetTask retrieves a task that belongs to projectID
	GetTask(ctx context.Context, projectID, taskID string) (*Task, error)

	// ListTasks lists the tasks of a project newest first
	ListTasks(ctx context.Context, projectID string) ([]*Task, error)

	// UpdateTask applies u to a task of projectID
	UpdateTask(ctx context.Context, projectID, taskID string, u TaskUpdate) error

	// DeleteTask deletes a task of projectID
	DeleteTask(ctx context.Context, projectID, taskID string) error
}
