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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectedGrants is the canonical matrix written out cell by cell, independent
// of the slices the table is built from.
var expectedGrants = map[Role]map[Permission]bool{
	RoleAdmin: {
		PermViewUsers: true, PermManageUsers: true, PermViewAllProjects: true, PermViewOwnProjects: true,
		PermCreateProject: true, PermEditAnyProject: true, PermEditOwnProject: true,
		PermDeleteAnyProject: true, PermDeleteOwnProject: true, PermCreateTask: true,
		PermEditAnyTask: true, PermEditOwnTask: true, PermDeleteAnyTask: true, PermDeleteOwnTask: true,
		PermChangeOwnPassword: true, PermViewSettings: true,
	},
	RoleManager: {
		PermViewUsers: true, PermViewAllProjects: true, PermViewOwnProjects: true,
		PermCreateProject: true, PermEditAnyProject: true, PermEditOwnProject: true,
		PermDeleteOwnProject: true, PermCreateTask: true,
		PermEditAnyTask: true, PermEditOwnTask: true, PermDeleteAnyTask: true, PermDeleteOwnTask: true,
		PermChangeOwnPassword: true, PermViewSettings: true,
	},
	RoleTeamLead: {
		PermViewAllProjects: true, PermViewOwnProjects: true,
		PermCreateProject: true, PermEditOwnProject: true, PermDeleteOwnProject: true,
		PermCreateTask: true, PermEditAnyTask: true, PermEditOwnTask: true, PermDeleteOwnTask: true,
		PermChangeOwnPassword: true, PermViewSettings: true,
	},
	RoleDeveloper: {
		PermViewOwnProjects: true, PermCreateProject: true, PermEditOwnProject: true,
		PermDeleteOwnProject: true, PermCreateTask: true, PermEditOwnTask: true,
		PermChangeOwnPassword: true, PermViewSettings: true,
	},
	RoleViewer: {
		PermViewOwnProjects: true, PermChangeOwnPassword: true, PermViewSettings: true,
	},
}

// TestPurpose: Validates that every role/permission cell of the default table matches the canonical matrix.
// Scope: Unit Test
// Security: Role to permission mapping correctness
// Expected: HasPermission agrees with the matrix for every pair, including pairs never granted.
// Test Case ID: RBAC-01
func TestTable_DefaultMatrix(t *testing.T) {
	table := DefaultTable()

	for _, role := range Roles() {
		for _, p := range AllPermissions() {
			assert.Equal(t, expectedGrants[role][p], table.HasPermission(role, p),
				"role=%s permission=%s", role, p)
		}
	}
}

// TestPurpose: Validates that PermissionsFor and the declared role sets return private copies.
// Scope: Unit Test
// Security: Immutability of the shared permission table
// Expected: Mutating the returned slice does not change later lookups.
// Test Case ID: RBAC-02
func TestTable_PermissionsFor(t *testing.T) {
	table := DefaultTable()

	for _, role := range Roles() {
		perms := table.PermissionsFor(role)
		require.NotEmpty(t, perms, "role=%s", role)
		assert.Len(t, perms, len(expectedGrants[role]))
		for _, p := range perms {
			assert.True(t, table.HasPermission(role, p))
		}
	}

	perms := table.PermissionsFor(RoleViewer)
	perms[0] = PermManageUsers
	assert.False(t, table.HasPermission(RoleViewer, PermManageUsers))

	declared := ViewerPermissions()
	declared[0] = PermManageUsers
	assert.NotContains(t, ViewerPermissions(), PermManageUsers)
	assert.False(t, DefaultTable().HasPermission(RoleViewer, PermManageUsers))
}

// TestPurpose: Validates that undefined roles and permissions fail closed.
// Scope: Unit Test
// Security: Safe default for corrupted role values
// Expected: Undefined roles get the Viewer set; undefined permissions are never held.
// Test Case ID: RBAC-03
func TestTable_UnknownInputsFailClosed(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, table.PermissionsFor(RoleViewer), table.PermissionsFor(Role(200)))
	assert.False(t, table.HasPermission(Role(200), PermManageUsers))
	assert.False(t, table.HasPermission(RoleAdmin, Permission(0)))
	assert.False(t, table.HasPermission(RoleAdmin, Permission(99)))

	for _, raw := range []string{"", "root", "superuser", "  ", "Admin!"} {
		role := RoleOf(raw)
		assert.Equal(t, RoleViewer, role, "raw=%q", raw)
		assert.Equal(t, table.PermissionsFor(RoleViewer), table.PermissionsFor(role))
	}
}

func TestNewTable_Validation(t *testing.T) {
	full := map[Role][]Permission{
		RoleAdmin:     AdminPermissions(),
		RoleManager:   ManagerPermissions(),
		RoleTeamLead:  TeamLeadPermissions(),
		RoleDeveloper: DeveloperPermissions(),
		RoleViewer:    ViewerPermissions(),
	}

	t.Run("complete table", func(t *testing.T) {
		_, err := NewTable(full)
		assert.NoError(t, err)
	})

	t.Run("missing role", func(t *testing.T) {
		partial := map[Role][]Permission{RoleAdmin: AdminPermissions()}
		_, err := NewTable(partial)
		assert.Error(t, err)
	})

	t.Run("undefined permission", func(t *testing.T) {
		bad := map[Role][]Permission{}
		for r, p := range full {
			bad[r] = p
		}
		bad[RoleViewer] = []Permission{PermViewSettings, Permission(77)}
		_, err := NewTable(bad)
		assert.ErrorIs(t, err, ErrUnknownPermission)
	})

	t.Run("empty role set", func(t *testing.T) {
		bad := map[Role][]Permission{}
		for r, p := range full {
			bad[r] = p
		}
		bad[RoleDeveloper] = nil
		_, err := NewTable(bad)
		assert.Error(t, err)
	})
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"Admin":     RoleAdmin,
		"admin":     RoleAdmin,
		"Manager":   RoleManager,
		"Team Lead": RoleTeamLead,
		"team_lead": RoleTeamLead,
		"TeamLead":  RoleTeamLead,
		"team-lead": RoleTeamLead,
		"developer": RoleDeveloper,
		" Viewer ":  RoleViewer,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRole("owner")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRole_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleTeamLead})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"TeamLead"}`, string(b))

	var in struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"Team Lead"}`), &in))
	assert.Equal(t, RoleTeamLead, in.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"god"}`), &in))
}

func TestPermission_Names(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range AllPermissions() {
		name := p.String()
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true

		parsed, err := ParsePermission(name)
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	assert.Len(t, seen, 16)

	_, err := ParsePermission("delete_everything")
	assert.ErrorIs(t, err, ErrUnknownPermission)
}
