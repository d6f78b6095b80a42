package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opentrusty/taskboard/internal/audit"
	"github.com/opentrusty/taskboard/pkg/rbac"
)

// ListUsers lists every user
// @Summary List Users
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} UserResponse
// @Failure 403 {object} ErrorResponse
// @Router /users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.identityService.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateUserRole changes another user's role
// @Summary Update User Role
// @Tags Users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UpdateRoleRequest true "Role"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/role [put]
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	before, err := h.identityService.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := h.authzService.Check(r.Context(), GetPrincipal(r.Context()), rbac.ActionManage, rbac.ResourceUser, userID); err != nil {
		h.deny(w, r, err, rbac.ResourceUser.String(), userID)
		return
	}

	var req UpdateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidRole, "unknown role: "+req.Role)
		return
	}

	user, err := h.identityService.SetRole(r.Context(), userID, role)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.audit(r, audit.Event{
		Type:       audit.TypeRoleChanged,
		ActorID:    GetUserID(r.Context()),
		Resource:   rbac.ResourceUser.String(),
		ResourceID: userID,
		Metadata:   map[string]any{"from": before.Role.String(), "to": role.String()},
	})
	respondJSON(w, http.StatusOK, toUserResponse(user))
}
