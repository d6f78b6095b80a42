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

import "fmt"

// Permission names a single capability a role may hold.
// The zero value is not a valid permission and is never granted.
type Permission uint8

// -----------------------------------------------------------------------------
// Permission Constants
// Wire names are the snake_case strings returned by String.
// -----------------------------------------------------------------------------

const (
	PermViewUsers Permission = iota + 1
	PermManageUsers
	PermViewAllProjects
	PermViewOwnProjects
	PermCreateProject
	PermEditAnyProject
	PermEditOwnProject
	PermDeleteAnyProject
	PermDeleteOwnProject
	PermCreateTask
	PermEditAnyTask
	PermEditOwnTask
	PermDeleteAnyTask
	PermDeleteOwnTask
	PermChangeOwnPassword
	PermViewSettings

	permissionEnd
)

var permissionNames = [permissionEnd]string{
	PermViewUsers:         "view_users",
	PermManageUsers:       "manage_users",
	PermViewAllProjects:   "view_all_projects",
	PermViewOwnProjects:   "view_own_projects",
	PermCreateProject:     "create_project",
	PermEditAnyProject:    "edit_any_project",
	PermEditOwnProject:    "edit_own_project",
	PermDeleteAnyProject:  "delete_any_project",
	PermDeleteOwnProject:  "delete_own_project",
	PermCreateTask:        "create_task",
	PermEditAnyTask:       "edit_any_task",
	PermEditOwnTask:       "edit_own_task",
	PermDeleteAnyTask:     "delete_any_task",
	PermDeleteOwnTask:     "delete_own_task",
	PermChangeOwnPassword: "change_own_password",
	PermViewSettings:      "view_settings",
}

// AllPermissions returns every defined permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, 0, permissionEnd-1)
	for p := PermViewUsers; p < permissionEnd; p++ {
		out = append(out, p)
	}
	return out
}

// Valid reports whether p is a defined permission.
func (p Permission) Valid() bool {
	return p > 0 && p < permissionEnd
}

func (p Permission) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Permission(%d)", uint8(p))
	}
	return permissionNames[p]
}

// MarshalText encodes the wire name.
func (p Permission) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPermission, uint8(p))
	}
	return []byte(permissionNames[p]), nil
}

// UnmarshalText decodes a wire name.
func (p *Permission) UnmarshalText(text []byte) error {
	parsed, err := ParsePermission(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePermission parses a wire name such as "edit_own_task".
func ParsePermission(s string) (Permission, error) {
	for p := PermViewUsers; p < permissionEnd; p++ {
		if permissionNames[p] == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPermission, s)
}

// permSet is a bitset indexed by Permission.
type permSet uint32

func (s permSet) has(p Permission) bool {
	return p.Valid() && s&(1<<p) != 0
}

func (s permSet) with(p Permission) permSet {
	return s | 1<<p
}

func (s permSet) list() []Permission {
	out := make([]Permission, 0, permissionEnd-1)
	for p := PermViewUsers; p < permissionEnd; p++ {
		if s.has(p) {
			out = append(out, p)
		}
	}
	return out
}
