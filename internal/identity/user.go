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

package identity

import (
	"context"
	"errors"
	"time"

	"github.com/opentrusty/taskboard/pkg/rbac"
)

// Domain errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrWeakPassword        = errors.New("password does not meet security requirements")
	ErrAccountLocked       = errors.New("account is locked")
	ErrOAuthPasswordChange = errors.New("cannot change password for OAuth users")
	ErrProviderMismatch    = errors.New("email is registered with a different sign-in method")
)

// Provider identifies how a user signs in.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// Registration defaults
const (
	DefaultRole       = rbac.RoleViewer
	DefaultDepartment = "General"
	MinPasswordLength = 6
)

// User represents a principal of the system
type User struct {
	ID                  string
	Email               string
	Role                rbac.Role
	Provider            Provider
	ProviderID          string // external subject; empty for local accounts
	Profile             Profile
	FailedLoginAttempts int
	LockedUntil         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Profile holds display fields. None of them are security relevant.
type Profile struct {
	Name       string
	Avatar     string
	Department string
}

// Credentials represents user authentication credentials
type Credentials struct {
	UserID       string
	PasswordHash string
	UpdatedAt    time.Time
}

// Stats summarizes a user's activity for the profile page.
type Stats struct {
	TasksCompleted int
	ActiveProjects int
}

// ExternalIdentity is the verified identity returned by a sign-in provider.
type ExternalIdentity struct {
	Provider Provider
	Subject  string
	Email    string
	Name     string
	Picture  string
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create inserts a user. Returns ErrUserAlreadyExists on a duplicate email.
	Create(ctx context.Context, user *User) error

	// AddCredentials sets the password hash of an existing user
	AddCredentials(ctx context.Context, credentials *Credentials) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by lower-cased email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByProvider retrieves a user by external provider subject
	GetByProvider(ctx context.Context, provider Provider, providerID string) (*User, error)

	// List retrieves all users ordered by creation time
	List(ctx context.Context) ([]*User, error)

	// UpdateProfile replaces the display fields of a user
	UpdateProfile(ctx context.Context, userID string, profile Profile) error

	// UpdateRole changes a user's role
	UpdateRole(ctx context.Context, userID string, role rbac.Role) error

	// UpdateLockout updates user lockout status
	UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error

	// GetCredentials retrieves user credentials
	GetCredentials(ctx context.Context, userID string) (*Credentials, error)

	// UpdatePassword updates user password
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error

	// GetStats counts completed tasks and active projects owned by the user
	GetStats(ctx context.Context, userID string) (*Stats, error)
}
