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

package http

import (
	"context"

	"github.com/opentrusty/taskboard/internal/authz"
	"github.com/opentrusty/taskboard/internal/session"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	claimsKey    contextKey = "token_claims"
)

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal retrieves the authenticated principal from context. The zero
// Principal is unauthenticated.
func GetPrincipal(ctx context.Context) authz.Principal {
	if val, ok := ctx.Value(principalKey).(authz.Principal); ok {
		return val
	}
	return authz.Principal{}
}

// GetUserID retrieves the authenticated User ID from context.
func GetUserID(ctx context.Context) string {
	return GetPrincipal(ctx).UserID
}

func withClaims(ctx context.Context, c *session.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// GetClaims retrieves the bearer token claims from context.
func GetClaims(ctx context.Context) *session.Claims {
	if val, ok := ctx.Value(claimsKey).(*session.Claims); ok {
		return val
	}
	return nil
}
