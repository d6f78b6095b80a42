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
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/opentrusty/taskboard/internal/id"
	"github.com/opentrusty/taskboard/internal/observability/logger"
	"github.com/opentrusty/taskboard/internal/observability/metrics"
	"github.com/opentrusty/taskboard/pkg/rbac"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Service provides identity-related business logic
type Service struct {
	repo               UserRepository
	hasher             *PasswordHasher
	loginAttempts      metric.Int64Counter
	lockoutMaxAttempts int
	lockoutDuration    time.Duration
}

// NewService creates a new identity service
func NewService(
	repo UserRepository,
	hasher *PasswordHasher,
	meter *metrics.Meter,
	lockoutMaxAttempts int,
	lockoutDuration time.Duration,
) (*Service, error) {
	if meter == nil {
		meter = metrics.Noop()
	}
	loginAttempts, err := meter.CreateCounter(metrics.LoginAttemptsTotal, "Password login attempts by outcome")
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:               repo,
		hasher:             hasher,
		loginAttempts:      loginAttempts,
		lockoutMaxAttempts: lockoutMaxAttempts,
		lockoutDuration:    lockoutDuration,
	}, nil
}

// Register creates a local account with the default role and department.
func (s *Service) Register(ctx context.Context, email, password string, profile Profile) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:       id.NewUUIDv7(),
		Email:    email,
		Role:     DefaultRole,
		Provider: ProviderLocal,
		Profile:  withDefaults(profile),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.repo.AddCredentials(ctx, &Credentials{UserID: user.ID, PasswordHash: passwordHash}); err != nil {
		return nil, fmt.Errorf("failed to add credentials: %w", err)
	}

	slog.InfoContext(ctx, "user registered", logger.UserID(user.ID), logger.Provider(string(user.Provider)))
	return user, nil
}

// Authenticate authenticates a local user with email and password
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.countLogin(ctx, "unknown_user")
		return nil, ErrInvalidCredentials
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		s.countLogin(ctx, "locked")
		return nil, ErrAccountLocked
	}

	credentials, err := s.repo.GetCredentials(ctx, user.ID)
	if err != nil || credentials.PasswordHash == "" {
		s.countLogin(ctx, "no_password")
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, credentials.PasswordHash)
	if err != nil || !valid {
		attempts := user.FailedLoginAttempts + 1
		if user.LockedUntil != nil {
			// an expired lock starts a fresh window
			attempts = 1
		}
		var lockedUntil *time.Time
		if s.lockoutMaxAttempts > 0 && attempts >= s.lockoutMaxAttempts {
			until := time.Now().Add(s.lockoutDuration)
			lockedUntil = &until
			slog.WarnContext(ctx, "account locked after failed logins",
				logger.UserID(user.ID),
				slog.Int("attempts", attempts),
			)
		}
		if err := s.repo.UpdateLockout(ctx, user.ID, attempts, lockedUntil); err != nil {
			slog.ErrorContext(ctx, "failed to record failed login", logger.UserID(user.ID), logger.Error(err))
		}
		s.countLogin(ctx, "invalid_password")
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := s.repo.UpdateLockout(ctx, user.ID, 0, nil); err != nil {
			slog.ErrorContext(ctx, "failed to reset lockout", logger.UserID(user.ID), logger.Error(err))
		}
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
	}

	s.countLogin(ctx, "success")
	return user, nil
}

// LoginWithProvider finds or creates the user behind a verified external
// identity. An email already registered under another provider is rejected.
func (s *Service) LoginWithProvider(ctx context.Context, ext ExternalIdentity) (*User, error) {
	if ext.Subject == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByProvider(ctx, ext.Provider, ext.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up provider identity: %w", err)
	}

	email, err := normalizeEmail(ext.Email)
	if err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetByEmail(ctx, email); err == nil {
		slog.WarnContext(ctx, "provider sign-in for email registered elsewhere",
			logger.UserID(existing.ID),
			logger.Provider(string(existing.Provider)),
		)
		return nil, ErrProviderMismatch
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user = &User{
		ID:         id.NewUUIDv7(),
		Email:      email,
		Role:       DefaultRole,
		Provider:   ext.Provider,
		ProviderID: ext.Subject,
		Profile:    withDefaults(Profile{Name: ext.Name, Avatar: ext.Picture}),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user registered", logger.UserID(user.ID), logger.Provider(string(user.Provider)))
	return user, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// GetByEmail retrieves a user by email
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// ListUsers returns every user.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// GetStats returns the profile statistics of a user.
func (s *Service) GetStats(ctx context.Context, userID string) (*Stats, error) {
	return s.repo.GetStats(ctx, userID)
}

// UpdateProfile merges non-empty fields of update into the user's profile.
// Roles are not part of the profile and cannot change here.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update Profile) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(update.Name); name != "" {
		user.Profile.Name = name
	}
	if update.Avatar != "" {
		user.Profile.Avatar = update.Avatar
	}
	if update.Department != "" {
		user.Profile.Department = update.Department
	}

	if err := s.repo.UpdateProfile(ctx, userID, user.Profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// SetRole changes a user's role. Callers are responsible for authorizing
// the change.
func (s *Service) SetRole(ctx context.Context, userID string, role rbac.Role) (*User, error) {
	if !role.Valid() {
		return nil, rbac.ErrUnknownRole
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	slog.InfoContext(ctx, "user role changed",
		logger.UserID(userID),
		slog.String("from", user.Role.String()),
		slog.String("to", role.String()),
	)
	user.Role = role
	return user, nil
}

// ChangePassword changes user password
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Provider != ProviderLocal {
		return ErrOAuthPasswordChange
	}

	credentials, err := s.repo.GetCredentials(ctx, userID)
	if err != nil {
		return ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(oldPassword, credentials.PasswordHash)
	if err != nil || !valid {
		return ErrInvalidCredentials
	}

	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, userID, newHash)
}

func (s *Service) countLogin(ctx context.Context, outcome string) {
	s.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// DefaultAvatar returns a generated initials avatar for name.
func DefaultAvatar(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}

func withDefaults(p Profile) Profile {
	p.Name = strings.TrimSpace(p.Name)
	if p.Department == "" {
		p.Department = DefaultDepartment
	}
	if p.Avatar == "" {
		p.Avatar = DefaultAvatar(p.Name)
	}
	return p
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) < 3 || len(email) > 254 {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
