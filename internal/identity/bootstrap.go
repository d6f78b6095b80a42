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

	"github.com/opentrusty/taskboard/internal/observability/logger"
	"github.com/opentrusty/taskboard/pkg/rbac"
)

// BootstrapService promotes the configured first administrator. Registration
// always yields Viewer, so this is the only path to the first Admin.
type BootstrapService struct {
	identityService *Service
}

// NewBootstrapService creates a new bootstrap service
func NewBootstrapService(identityService *Service) *BootstrapService {
	return &BootstrapService{identityService: identityService}
}

// Bootstrap promotes the user registered under email to Admin. An empty
// email disables bootstrap. An account that is already Admin is left alone.
func (s *BootstrapService) Bootstrap(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}

	user, err := s.identityService.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			slog.WarnContext(ctx, "bootstrap admin has not registered yet", logger.Email(email))
			return nil
		}
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	if user.Role == rbac.RoleAdmin {
		return nil
	}

	if _, err := s.identityService.SetRole(ctx, user.ID, rbac.RoleAdmin); err != nil {
		return fmt.Errorf("failed to promote bootstrap admin: %w", err)
	}

	slog.InfoContext(ctx, "bootstrapped initial admin", logger.UserID(user.ID), logger.Email(email))
	return nil
}
