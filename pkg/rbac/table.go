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
)

// -----------------------------------------------------------------------------
// Role Permission Mappings
// Each role's set is declared in full. Sets are never derived from another role.
// Every call returns a fresh slice.
// -----------------------------------------------------------------------------

// AdminPermissions returns the permissions of the Admin role.
func AdminPermissions() []Permission {
	return []Permission{
		PermViewUsers,
		PermManageUsers,
		PermViewAllProjects,
		PermViewOwnProjects,
		PermCreateProject,
		PermEditAnyProject,
		PermEditOwnProject,
		PermDeleteAnyProject,
		PermDeleteOwnProject,
		PermCreateTask,
		PermEditAnyTask,
		PermEditOwnTask,
		PermDeleteAnyTask,
		PermDeleteOwnTask,
		PermChangeOwnPassword,
		PermViewSettings,
	}
}

// ManagerPermissions returns the permissions of the Manager role.
// Managers may delete only the projects they own.
func ManagerPermissions() []Permission {
	return []Permission{
		PermViewUsers,
		PermViewAllProjects,
		PermViewOwnProjects,
		PermCreateProject,
		PermEditAnyProject,
		PermEditOwnProject,
		PermDeleteOwnProject,
		PermCreateTask,
		PermEditAnyTask,
		PermEditOwnTask,
		PermDeleteAnyTask,
		PermDeleteOwnTask,
		PermChangeOwnPassword,
		PermViewSettings,
	}
}

// TeamLeadPermissions returns the permissions of the TeamLead role.
func TeamLeadPermissions() []Permission {
	return []Permission{
		PermViewAllProjects,
		PermViewOwnProjects,
		PermCreateProject,
		PermEditOwnProject,
		PermDeleteOwnProject,
		PermCreateTask,
		PermEditAnyTask,
		PermEditOwnTask,
		PermDeleteOwnTask,
		PermChangeOwnPassword,
		PermViewSettings,
	}
}

// DeveloperPermissions returns the permissions of the Developer role.
func DeveloperPermissions() []Permission {
	return []Permission{
		PermViewOwnProjects,
		PermCreateProject,
		PermEditOwnProject,
		PermDeleteOwnProject,
		PermCreateTask,
		PermEditOwnTask,
		PermChangeOwnPassword,
		PermViewSettings,
	}
}

// ViewerPermissions returns the permissions of the Viewer role.
func ViewerPermissions() []Permission {
	return []Permission{
		PermViewOwnProjects,
		PermChangeOwnPassword,
		PermViewSettings,
	}
}

// Table is the immutable role to permission mapping. Build it once at
// startup and share it; it is safe for concurrent use.
type Table struct {
	grants [roleCount]permSet
}

// NewTable builds a table from an explicit grant list. Every role must have
// an entry and every permission must be defined.
func NewTable(grants map[Role][]Permission) (*Table, error) {
	t := &Table{}
	for role, perms := range grants {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(role))
		}
		var set permSet
		for _, p := range perms {
			if !p.Valid() {
				return nil, fmt.Errorf("role %s: %w: %d", role, ErrUnknownPermission, uint8(p))
			}
			set = set.with(p)
		}
		t.grants[role] = set
	}
	for r := Role(0); r < roleCount; r++ {
		if _, ok := grants[r]; !ok {
			return nil, fmt.Errorf("role %s has no permission entry", r)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// DefaultTable returns the canonical table.
func DefaultTable() *Table {
	t, err := NewTable(map[Role][]Permission{
		RoleAdmin:     AdminPermissions(),
		RoleManager:   ManagerPermissions(),
		RoleTeamLead:  TeamLeadPermissions(),
		RoleDeveloper: DeveloperPermissions(),
		RoleViewer:    ViewerPermissions(),
	})
	if err != nil {
		panic(fmt.Sprintf("rbac: invalid default table: %v", err))
	}
	return t
}

// Validate checks that every role holds at least one permission and that
// no undefined permission bit is set.
func (t *Table) Validate() error {
	var errs []error
	valid := permSet(0)
	for _, p := range AllPermissions() {
		valid = valid.with(p)
	}
	for r := Role(0); r < roleCount; r++ {
		set := t.grants[r]
		if set == 0 {
			errs = append(errs, fmt.Errorf("role %s has an empty permission set", r))
		}
		if set&^valid != 0 {
			errs = append(errs, fmt.Errorf("role %s: %w", r, ErrUnknownPermission))
		}
	}
	return errors.Join(errs...)
}

// PermissionsFor returns a copy of the role's permission set. Undefined roles
// resolve to the Viewer set.
func (t *Table) PermissionsFor(role Role) []Permission {
	return t.set(role).list()
}

// HasPermission reports whether the role holds the permission.
func (t *Table) HasPermission(role Role, permission Permission) bool {
	return t.set(role).has(permission)
}

func (t *Table) set(role Role) permSet {
	if !role.Valid() {
		role = RoleViewer
	}
	return t.grants[role]
}
