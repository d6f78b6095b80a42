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

package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/opentrusty/taskboard/internal/observability/logger"
	"github.com/opentrusty/taskboard/pkg/rbac"
)

// Resolver answers ownership questions. It never returns an error: any
// failure to establish ownership yields false.
type Resolver struct {
	lookup OwnerLookup
}

// NewResolver creates a new ownership resolver
func NewResolver(lookup OwnerLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// IsOwner reports whether principalID owns the resource.
func (r *Resolver) IsOwner(ctx context.Context, resource rbac.ResourceType, resourceID, principalID string) bool {
	if resourceID == "" || principalID == "" {
		return false
	}

	ownerID, err := r.lookup.FindOwner(ctx, resource, resourceID)
	if err != nil {
		if !errors.Is(err, ErrResourceNotFound) {
			slog.WarnContext(ctx, "ownership lookup failed",
				logger.Resource(resource.String()),
				logger.ResourceID(resourceID),
				logger.Error(err),
			)
		}
		return false
	}

	return ownerID != "" && ownerID == principalID
}
