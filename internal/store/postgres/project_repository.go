package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/opentrusty/taskboard/internal/id"
	"github.com/opentrusty/taskboard/internal/project"
)

const projectSelect = `
	SELECT p.id, p.name, p.description, p.status, p.owner_id, u.name,
		(SELECT COUNT(*) FROM tasks WHERE project_id = p.id),
		(SELECT COUNT(*) FROM tasks WHERE project_id = p.id AND status = 'done'),
		p.created_at, p.updated_at
	FROM projects p
	JOIN users u ON p.owner_id = u.id`

const taskColumns = `id, project_id, title, status, created_at, updated_at`

// ProjectRepository implements project.Repository
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// CreateProject inserts a project
func (r *ProjectRepository) CreateProject(ctx context.Context, p *project.Project) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO projects (id, name, description, status, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Name, p.Description, string(p.Status), p.OwnerID, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetProject retrieves a project with owner name and task counts
func (r *ProjectRepository) GetProject(ctx context.Context, projectID string) (*project.Project, error) {
	if !id.Valid(projectID) {
		return nil, project.ErrProjectNotFound
	}
	p, err := scanProject(r.db.pool.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, projectID))
	if err != nil {
		if isNoRows(err) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects lists projects newest first. An empty ownerID lists all.
func (r *ProjectRepository) ListProjects(ctx context.Context, ownerID string) ([]*project.Project, error) {
	var rows pgx.Rows
	var err error
	if ownerID == "" {
		rows, err = r.db.pool.Query(ctx, projectSelect+` ORDER BY p.created_at DESC`)
	} else {
		if !id.Valid(ownerID) {
			return []*project.Project{}, nil
		}
		rows, err = r.db.pool.Query(ctx, projectSelect+` WHERE p.owner_id = $1 ORDER BY p.created_at DESC`, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*project.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// UpdateProject applies u in a single statement
func (r *ProjectRepository) UpdateProject(ctx context.Context, projectID string, u project.Update) error {
	if !id.Valid(projectID) {
		return project.ErrProjectNotFound
	}
	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}

	tag, err := r.db.pool.Exec(ctx, `
		UPDATE projects
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			status = COALESCE($4, status),
			updated_at = NOW()
		WHERE id = $1
	`, projectID, u.Name, u.Description, status)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

// DeleteProject deletes a project; tasks go with it by cascade
func (r *ProjectRepository) DeleteProject(ctx context.Context, projectID string) error {
	if !id.Valid(projectID) {
		return project.ErrProjectNotFound
	}
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

// CreateTask inserts a task
func (r *ProjectRepository) CreateTask(ctx context.Context, t *project.Task) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tasks (id, project_id, title, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.ProjectID, t.Title, string(t.Status), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// GetTask retrieves a task that belongs to projectID
func (r *ProjectRepository) GetTask(ctx context.Context, projectID, taskID string) (*project.Task, error) {
	if !id.Valid(projectID) || !id.Valid(taskID) {
		return nil, project.ErrTaskNotFound
	}
	t, err := scanTask(r.db.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND project_id = $2`, taskID, projectID,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, project.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListTasks lists the tasks of a project newest first
func (r *ProjectRepository) ListTasks(ctx context.Context, projectID string) ([]*project.Task, error) {
	if !id.Valid(projectID) {
		return []*project.Task{}, nil
	}
	rows, err := r.db.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at DESC`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*project.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies u in a single statement
func (r *ProjectRepository) UpdateTask(ctx context.Context, projectID, taskID string, u project.TaskUpdate) error {
	if !id.Valid(projectID) || !id.Valid(taskID) {
		return project.ErrTaskNotFound
	}
	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}

	tag, err := r.db.pool.Exec(ctx, `
		UPDATE tasks
		SET title = COALESCE($3, title),
			status = COALESCE($4, status),
			updated_at = NOW()
		WHERE id = $1 AND project_id = $2
	`, taskID, projectID, u.Title, status)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrTaskNotFound
	}
	return nil
}

// DeleteTask deletes a task of projectID
func (r *ProjectRepository) DeleteTask(ctx context.Context, projectID, taskID string) error {
	if !id.Valid(projectID) || !id.Valid(taskID) {
		return project.ErrTaskNotFound
	}
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND project_id = $2`, taskID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrTaskNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var p project.Project
	var status string
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &status, &p.OwnerID, &p.OwnerName,
		&p.TaskCount, &p.CompletedTasks,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = project.Status(status)
	return &p, nil
}

func scanTask(row pgx.Row) (*project.Task, error) {
	var t project.Task
	var status string
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = project.TaskStatus(status)
	return &t, nil
}
