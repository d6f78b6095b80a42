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

package oidc

import (
	"errors"
	"fmt"
)

// Sign-in failures
var (
	ErrMissingCode      = errors.New("missing authorization code")
	ErrMissingIDToken   = errors.New("missing id_token in token response")
	ErrEmailNotVerified = errors.New("provider email is not verified")
)

// Error is an error returned by the provider on the callback redirect,
// such as access_denied when the user cancels consent.
type Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *Error) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("oidc error: %s", e.Code)
	}
	return fmt.Sprintf("oidc error: %s (%s)", e.Code, e.Description)
}

// ErrAccessDenied is the callback error code for a declined consent.
const ErrAccessDenied = "access_denied"

// NewError creates a new provider error
func NewError(code, description string) *Error {
	return &Error{
		Code:        code,
		Description: description,
	}
}
