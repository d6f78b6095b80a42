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

package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrUnknownRole       = errors.New("unknown role")
	ErrUnknownPermission = errors.New("unknown permission")
	ErrUnknownAction     = errors.New("unknown action")
	ErrUnknownResource   = errors.New("unknown resource type")
)

// Role is one of the five fixed privilege tiers.
// The zero value is RoleViewer, the least privileged role.
type Role uint8

const (
	RoleViewer Role = iota
	RoleDeveloper
	RoleTeamLead
	RoleManager
	RoleAdmin

	roleCount
)

var roleNames = [roleCount]string{
	RoleViewer:    "Viewer",
	RoleDeveloper: "Developer",
	RoleTeamLead:  "TeamLead",
	RoleManager:   "Manager",
	RoleAdmin:     "Admin",
}

// Roles returns every defined role, most privileged first.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleTeamLead, RoleDeveloper, RoleViewer}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r < roleCount
}

func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
	return roleNames[r]
}

// MarshalText encodes the canonical role name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return []byte(roleNames[r]), nil
}

// UnmarshalText decodes a role name strictly.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole parses a role name. Matching ignores case, spaces, dashes and
// underscores, so "Team Lead", "team_lead" and "TeamLead" are equivalent.
func ParseRole(s string) (Role, error) {
	key := normalizeRole(s)
	for i, name := range roleNames {
		if key == strings.ToLower(name) {
			return Role(i), nil
		}
	}
	return RoleViewer, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// RoleOf parses a stored role name, resolving anything unrecognised to
// RoleViewer. Use it where a corrupted value must never surface as an error
// that could be mistaken for a grant.
func RoleOf(s string) Role {
	r, err := ParseRole(s)
	if err != nil {
		return RoleViewer
	}
	return r
}

func normalizeRole(s string) string {
	return strings.Map(func(c rune) rune {
		switch c {
		case ' ', '_', '-', '\t':
			return -1
		}
		return c
	}, strings.ToLower(strings.TrimSpace(s)))
}
