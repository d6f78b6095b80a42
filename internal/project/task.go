package project

import (
	"fmt"
	"time"
)

// TaskStatus represents task progress
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in-progress"
	TaskDone       TaskStatus = "done"
)

// ParseTaskStatus validates a task status. Empty means todo.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case "":
		return TaskTodo, nil
	case TaskTodo, TaskInProgress, TaskDone:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Task belongs to exactly one project and has no owner of its own.
type Task struct {
	ID        string
	ProjectID string
	Title     string
	Status    TaskStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskUpdate holds the fields to change; nil fields are kept.
type TaskUpdate struct {
	Title  *string
	Status *TaskStatus
}
