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
	"log/slog"
	"net/http"

	"github.com/opentrusty/taskboard/internal/audit"
	"github.com/opentrusty/taskboard/internal/identity"
	"github.com/opentrusty/taskboard/internal/observability/logger"
)

// Register handles user registration
// @Summary Register User
// @Description Creates a Viewer account and returns an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration Request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.identityService.Register(r.Context(), req.Email, req.Password, identity.Profile{
		Name:       req.Name,
		Department: req.Department,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.audit(r, audit.Event{Type: audit.TypeUserRegistered, ActorID: user.ID, Metadata: map[string]any{"provider": string(user.Provider)}})

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login handles password authentication
// @Summary Login
// @Description Authenticates with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login Request"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.audit(r, audit.Event{Type: audit.TypeLoginFailed, Metadata: map[string]any{"email": req.Email, "reason": err.Error()}})
		respondServiceError(w, r, err)
		return
	}
	h.audit(r, audit.Event{Type: audit.TypeLoginSuccess, ActorID: user.ID})

	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *identity.User) {
	token, claims, err := h.tokens.Issue(user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token", logger.UserID(user.ID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, CodeInternal, "failed to issue token")
		return
	}

	respondJSON(w, status, AuthResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      toUserResponse(user),
	})
}

// Logout revokes the caller's token
// @Summary Logout
// @Tags Auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetClaims(r.Context()); claims != nil {
		if err := h.tokens.Revoke(r.Context(), claims); err != nil {
			slog.ErrorContext(r.Context(), "failed to revoke token", logger.UserID(claims.UserID()), logger.Error(err))
			respondError(w, http.StatusInternalServerError, CodeInternal, "failed to log out")
			return
		}
		h.audit(r, audit.Event{Type: audit.TypeLogout, ActorID: claims.UserID()})
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile returns the caller's profile and activity stats
// @Summary Get Profile
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ProfileResponse
// @Router /auth/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	user, err := h.identityService.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	stats, err := h.identityService.GetStats(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ProfileResponse{
		User: toUserResponse(user),
		Stats: StatsResponse{
			TasksCompleted: stats.TasksCompleted,
			ActiveProjects: stats.ActiveProjects,
		},
	})
}

// UpdateProfile updates display fields of the caller
// @Summary Update Profile
// @Description Updates name, avatar and department. Roles cannot be changed here.
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.identityService.UpdateProfile(r.Context(), GetUserID(r.Context()), identity.Profile{
		Name:       req.Name,
		Avatar:     req.Avatar,
		Department: req.Department,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// ChangePassword changes the caller's password
// @Summary Change Password
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Param request body ChangePasswordRequest true "Passwords"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/change-password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.identityService.ChangePassword(r.Context(), GetUserID(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.audit(r, audit.Event{Type: audit.TypePasswordChanged, ActorID: GetUserID(r.Context())})

	w.WriteHeader(http.StatusNoContent)
}

// GetPermissions returns the caller's role, permissions and capabilities
// @Summary Get Permissions
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} PermissionsResponse
// @Router /auth/permissions [get]
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	respondJSON(w, http.StatusOK, PermissionsResponse{
		Role:         p.Role,
		Permissions:  h.authzService.Permissions(p),
		Capabilities: h.authzService.Capabilities(p),
	})
}

// GetSettings returns the caller's settings page
// @Summary Get Settings
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SettingsResponse
// @Failure 403 {object} ErrorResponse
// @Router /settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	user, err := h.identityService.GetUser(r.Context(), p.UserID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, SettingsResponse{
		Role:        user.Role,
		Department:  user.Profile.Department,
		Provider:    string(user.Provider),
		Permissions: h.authzService.Permissions(p),
	})
}
