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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/opentrusty/taskboard/internal/id"
	"github.com/opentrusty/taskboard/internal/identity"
	"github.com/opentrusty/taskboard/pkg/rbac"
)

const userColumns = `
	id, email, role, provider, COALESCE(provider_id, ''),
	name, avatar, department,
	failed_login_attempts, locked_until,
	created_at, updated_at`

// UserRepository implements identity.UserRepository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user identity
func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	now := time.Now()
	var providerID *string
	if user.ProviderID != "" {
		providerID = &user.ProviderID
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO users (
			id, email, role, provider, provider_id,
			name, avatar, department,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		user.ID, user.Email, user.Role.String(), string(user.Provider), providerID,
		user.Profile.Name, user.Profile.Avatar, user.Profile.Department,
		now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now

	return nil
}

// AddCredentials sets the password hash of an existing user
func (r *UserRepository) AddCredentials(ctx context.Context, credentials *identity.Credentials) error {
	now := time.Now()
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, credentials.UserID, credentials.PasswordHash, now)
	if err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}

	credentials.UpdatedAt = now

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*identity.User, error) {
	if !id.Valid(userID) {
		return nil, identity.ErrUserNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByProvider retrieves a user by external provider subject
func (r *UserRepository) GetByProvider(ctx context.Context, provider identity.Provider, providerID string) (*identity.User, error) {
	return r.getOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider = $1 AND provider_id = $2`,
		string(provider), providerID,
	)
}

// List retrieves all users ordered by creation time
func (r *UserRepository) List(ctx context.Context) ([]*identity.User, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*identity.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateProfile replaces the display fields of a user
func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, profile identity.Profile) error {
	return r.execOne(ctx, `
		UPDATE users
		SET name = $2, avatar = $3, department = $4, updated_at = NOW()
		WHERE id = $1
	`, userID, profile.Name, profile.Avatar, profile.Department)
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, userID string, role rbac.Role) error {
	return r.execOne(ctx, `
		UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1
	`, userID, role.String())
}

// UpdateLockout updates user lockout status
func (r *UserRepository) UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error {
	return r.execOne(ctx, `
		UPDATE users
		SET failed_login_attempts = $2, locked_until = $3, updated_at = NOW()
		WHERE id = $1
	`, userID, failedAttempts, lockedUntil)
}

// GetCredentials retrieves user credentials
func (r *UserRepository) GetCredentials(ctx context.Context, userID string) (*identity.Credentials, error) {
	if !id.Valid(userID) {
		return nil, identity.ErrUserNotFound
	}

	var credentials identity.Credentials
	var hash *string
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, password_hash, updated_at FROM users WHERE id = $1
	`, userID).Scan(&credentials.UserID, &hash, &credentials.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	if hash != nil {
		credentials.PasswordHash = *hash
	}

	return &credentials, nil
}

// UpdatePassword updates user password
func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	return r.execOne(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, userID, passwordHash)
}

// GetStats counts completed tasks and active projects owned by the user
func (r *UserRepository) GetStats(ctx context.Context, userID string) (*identity.Stats, error) {
	if !id.Valid(userID) {
		return nil, identity.ErrUserNotFound
	}

	var stats identity.Stats
	err := r.db.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tasks t JOIN projects p ON t.project_id = p.id
			 WHERE p.owner_id = $1 AND t.status = 'done'),
			(SELECT COUNT(*) FROM projects WHERE owner_id = $1 AND status = 'active')
	`, userID).Scan(&stats.TasksCompleted, &stats.ActiveProjects)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return &stats, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*identity.User, error) {
	user, err := scanUser(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) execOne(ctx context.Context, query string, userID string, args ...any) error {
	if !id.Valid(userID) {
		return identity.ErrUserNotFound
	}
	tag, err := r.db.pool.Exec(ctx, query, append([]any{userID}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*identity.User, error) {
	var user identity.User
	var role, provider string
	err := row.Scan(
		&user.ID, &user.Email, &role, &provider, &user.ProviderID,
		&user.Profile.Name, &user.Profile.Avatar, &user.Profile.Department,
		&user.FailedLoginAttempts, &user.LockedUntil,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// unknown stored roles fall back to the least privileged role
	user.Role = rbac.RoleOf(role)
	user.Provider = identity.Provider(provider)
	return &user, nil
}
