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

// Capability tells a client whether an action on a resource type is open to
// the role, for resources it owns and for resources it does not. Clients use
// it for optimistic UI gating only; the server re-checks every request.
type Capability struct {
	Action   Action       `json:"action"`
	Resource ResourceType `json:"resource"`
	Own      bool         `json:"own"`
	Any      bool         `json:"any"`
}

// Capabilities lists every mapped action for role in a stable order.
func (a *Authorizer) Capabilities(role Role) []Capability {
	var out []Capability
	for res := ResourceProject; res < resourceEnd; res++ {
		for act := ActionView; act < actionEnd; act++ {
			if _, ok := a.rules[ruleKey{act, res}]; !ok {
				continue
			}
			out = append(out, Capability{
				Action:   act,
				Resource: res,
				Own:      a.Authorize(role, act, res, true),
				Any:      a.Authorize(role, act, res, false),
			})
		}
	}
	return out
}

// Can is the client-side mirror of Authorize over a capability list.
func Can(caps []Capability, action Action, resource ResourceType, isOwner bool) bool {
	for _, c := range caps {
		if c.Action == action && c.Resource == resource {
			if isOwner {
				return c.Own
			}
			return c.Any
		}
	}
	return false
}
