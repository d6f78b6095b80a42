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

// Action is an operation a principal attempts on a resource.
type Action uint8

const (
	ActionView Action = iota + 1
	ActionCreate
	ActionEdit
	ActionDelete
	ActionManage

	actionEnd
)

var actionNames = [actionEnd]string{
	ActionView:   "view",
	ActionCreate: "create",
	ActionEdit:   "edit",
	ActionDelete: "delete",
	ActionManage: "manage",
}

func (a Action) String() string {
	if a == 0 || a >= actionEnd {
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
	return actionNames[a]
}

// MarshalText encodes the action name.
func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText decodes an action name.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction parses an action name such as "edit".
func ParseAction(s string) (Action, error) {
	for a := ActionView; a < actionEnd; a++ {
		if actionNames[a] == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// ResourceType identifies the kind of resource an action targets.
type ResourceType uint8

const (
	ResourceProject ResourceType = iota + 1
	ResourceTask
	ResourceUser

	resourceEnd
)

var resourceNames = [resourceEnd]string{
	ResourceProject: "project",
	ResourceTask:    "task",
	ResourceUser:    "user",
}

func (r ResourceType) String() string {
	if r == 0 || r >= resourceEnd {
		return fmt.Sprintf("ResourceType(%d)", uint8(r))
	}
	return resourceNames[r]
}

// MarshalText encodes the resource type name.
func (r ResourceType) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText decodes a resource type name.
func (r *ResourceType) UnmarshalText(text []byte) error {
	parsed, err := ParseResourceType(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseResourceType parses a resource type name such as "task".
func ParseResourceType(s string) (ResourceType, error) {
	for r := ResourceProject; r < resourceEnd; r++ {
		if resourceNames[r] == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownResource, s)
}

// Reason explains an authorization decision. Values are stable wire codes.
type Reason string

const (
	ReasonGranted                 Reason = "granted"
	ReasonInsufficientPermissions Reason = "insufficient_permissions"
	ReasonUnmappedAction          Reason = "unmapped_action"
)

// Rule names the permissions that satisfy an action on a resource type.
// Own applies when the principal owns the resource, Any applies always.
// Actions with no notion of ownership use the same permission for both.
type Rule struct {
	Own Permission
	Any Permission
}

type ruleKey struct {
	action   Action
	resource ResourceType
}

var defaultRules = map[ruleKey]Rule{
	{ActionView, ResourceProject}:   {Own: PermViewOwnProjects, Any: PermViewAllProjects},
	{ActionCreate, ResourceProject}: {Own: PermCreateProject, Any: PermCreateProject},
	{ActionEdit, ResourceProject}:   {Own: PermEditOwnProject, Any: PermEditAnyProject},
	{ActionDelete, ResourceProject}: {Own: PermDeleteOwnProject, Any: PermDeleteAnyProject},

	{ActionView, ResourceTask}:   {Own: PermViewOwnProjects, Any: PermViewAllProjects},
	{ActionCreate, ResourceTask}: {Own: PermCreateTask, Any: PermCreateTask},
	{ActionEdit, ResourceTask}:   {Own: PermEditOwnTask, Any: PermEditAnyTask},
	{ActionDelete, ResourceTask}: {Own: PermDeleteOwnTask, Any: PermDeleteAnyTask},

	{ActionView, ResourceUser}:   {Own: PermViewUsers, Any: PermViewUsers},
	{ActionManage, ResourceUser}: {Own: PermManageUsers, Any: PermManageUsers},
}

// Pairs that are deliberately not authorizable. Anything neither mapped nor
// listed here fails validation at startup.
var unsupportedPairs = map[ruleKey]struct{}{
	{ActionManage, ResourceProject}: {},
	{ActionManage, ResourceTask}:    {},
	{ActionCreate, ResourceUser}:    {},
	{ActionEdit, ResourceUser}:      {},
	{ActionDelete, ResourceUser}:    {},
}

// Decision is the outcome of a single authorization check.
type Decision struct {
	Allowed    bool
	Permission Permission
	Reason     Reason
}

// Authorizer combines the role table with the action map. It holds no
// mutable state.
type Authorizer struct {
	table *Table
	rules map[ruleKey]Rule
}

// NewAuthorizer builds an authorizer over table and validates that every
// action and resource type pair is either mapped or explicitly unsupported.
func NewAuthorizer(table *Table) (*Authorizer, error) {
	if table == nil {
		return nil, errors.New("rbac: nil permission table")
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("rbac: %w", err)
	}
	a := &Authorizer{table: table, rules: defaultRules}
	if err := a.ValidateRules(); err != nil {
		return nil, err
	}
	return a, nil
}

// MustNewAuthorizer is NewAuthorizer over DefaultTable, panicking on error.
func MustNewAuthorizer() *Authorizer {
	a, err := NewAuthorizer(DefaultTable())
	if err != nil {
		panic(err)
	}
	return a
}

// ValidateRules reports every unmapped pair and every rule naming an
// undefined permission.
func (a *Authorizer) ValidateRules() error {
	var errs []error
	for act := ActionView; act < actionEnd; act++ {
		for res := ResourceProject; res < resourceEnd; res++ {
			key := ruleKey{act, res}
			rule, mapped := a.rules[key]
			_, unsupported := unsupportedPairs[key]
			switch {
			case mapped && unsupported:
				errs = append(errs, fmt.Errorf("rbac: %s %s is both mapped and unsupported", act, res))
			case !mapped && !unsupported:
				errs = append(errs, fmt.Errorf("rbac: %s %s has no permission mapping", act, res))
			case mapped && (!rule.Own.Valid() || !rule.Any.Valid()):
				errs = append(errs, fmt.Errorf("rbac: %s %s maps to an undefined permission", act, res))
			}
		}
	}
	return errors.Join(errs...)
}

// Table returns the underlying permission table.
func (a *Authorizer) Table() *Table {
	return a.table
}

// HasPermission reports whether role holds permission.
func (a *Authorizer) HasPermission(role Role, permission Permission) bool {
	return a.table.HasPermission(role, permission)
}

// PermissionsFor returns the role's permission set.
func (a *Authorizer) PermissionsFor(role Role) []Permission {
	return a.table.PermissionsFor(role)
}

// Rule returns the mapping for an action on a resource type.
func (a *Authorizer) Rule(action Action, resource ResourceType) (Rule, bool) {
	r, ok := a.rules[ruleKey{action, resource}]
	return r, ok
}

// Decide evaluates an action. An owner is satisfied by either the Own or the
// Any permission; a non-owner only by Any. Unmapped pairs are denied.
func (a *Authorizer) Decide(role Role, action Action, resource ResourceType, isOwner bool) Decision {
	rule, ok := a.rules[ruleKey{action, resource}]
	if !ok {
		return Decision{Reason: ReasonUnmappedAction}
	}
	if isOwner && a.table.HasPermission(role, rule.Own) {
		return Decision{Allowed: true, Permission: rule.Own, Reason: ReasonGranted}
	}
	if a.table.HasPermission(role, rule.Any) {
		return Decision{Allowed: true, Permission: rule.Any, Reason: ReasonGranted}
	}
	required := rule.Any
	if isOwner {
		required = rule.Own
	}
	return Decision{Permission: required, Reason: ReasonInsufficientPermissions}
}

// Authorize is Decide reduced to its verdict.
func (a *Authorizer) Authorize(role Role, action Action, resource ResourceType, isOwner bool) bool {
	return a.Decide(role, action, resource, isOwner).Allowed
}
