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
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opentrusty/taskboard/internal/audit"
	"github.com/opentrusty/taskboard/internal/project"
	"github.com/opentrusty/taskboard/pkg/rbac"
)

// loadProject fetches the project named in the path and authorizes action
// on it. A missing project is answered with 404 before any authorization.
func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request, action rbac.Action) (*project.Project, bool) {
	projectID := chi.URLParam(r, "id")

	p, err := h.projectService.GetProject(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, r, err)
		return nil, false
	}
	if err := h.authzService.Check(r.Context(), GetPrincipal(r.Context()), action, rbac.ResourceProject, p.ID); err != nil {
		h.deny(w, r, err, rbac.ResourceProject.String(), p.ID)
		return nil, false
	}
	return p, true
}

// loadTask fetches the task named in the path, scoped to the project in the
// path, and authorizes action on it through the parent project's owner.
func (h *Handler) loadTask(w http.ResponseWriter, r *http.Request, action rbac.Action) (*project.Task, bool) {
	projectID := chi.URLParam(r, "id")
	taskID := chi.URLParam(r, "taskID")

	t, err := h.projectService.GetTask(r.Context(), projectID, taskID)
	if err != nil {
		respondServiceError(w, r, err)
		return nil, false
	}
	if err := h.authzService.Check(r.Context(), GetPrincipal(r.Context()), action, rbac.ResourceTask, t.ID); err != nil {
		h.deny(w, r, err, rbac.ResourceTask.String(), t.ID)
		return nil, false
	}
	return t, true
}

// ListProjects lists projects visible to the caller
// @Summary List Projects
// @Description All projects with view_all_projects, otherwise the caller's own
// @Tags Projects
// @Security BearerAuth
// @Produce json
// @Success 200 {array} ProjectResponse
// @Router /projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	all := h.authzService.Can(p, rbac.PermViewAllProjects)
	if !all {
		if err := h.authzService.Require(r.Context(), p, rbac.PermViewOwnProjects); err != nil {
			h.deny(w, r, err, rbac.ResourceProject.String(), "")
			return
		}
	}

	projects, err := h.projectService.ListProjects(r.Context(), p.UserID, all)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := make([]ProjectResponse, 0, len(projects))
	for _, proj := range projects {
		resp = append(resp, toProjectResponse(proj))
	}
	respondJSON(w, http.StatusOK, resp)
}

// CreateProject creates a project owned by the caller
// @Summary Create Project
// @Tags Projects
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ProjectRequest true "Project"
// @Success 201 {object} ProjectResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.projectService.CreateProject(r.Context(), GetUserID(r.Context()),
		deref(req.Name), deref(req.Description), deref(req.Status))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toProjectResponse(p))
}

// GetProject returns a single project
// @Summary Get Project
// @Tags Projects
// @Security BearerAuth
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} ProjectResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r, rbac.ActionView)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toProjectResponse(p))
}

// UpdateProject updates a project
// @Summary Update Project
// @Tags Projects
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body ProjectRequest true "Fields to change"
// @Success 200 {object} ProjectResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id} [put]
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r, rbac.ActionEdit)
	if !ok {
		return
	}

	var req ProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	update := project.Update{Name: req.Name, Description: req.Description}
	if req.Status != nil {
		s := project.Status(*req.Status)
		update.Status = &s
	}

	updated, err := h.projectService.UpdateProject(r.Context(), p.ID, update)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProjectResponse(updated))
}

// DeleteProject deletes a project and its tasks
// @Summary Delete Project
// @Tags Projects
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id} [delete]
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r, rbac.ActionDelete)
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(r.Context(), p.ID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.audit(r, audit.Event{
		Type:       audit.TypeProjectDeleted,
		ActorID:    GetUserID(r.Context()),
		Resource:   rbac.ResourceProject.String(),
		ResourceID: p.ID,
		Metadata:   map[string]any{"owner_id": p.OwnerID, "name": p.Name},
	})
	w.WriteHeader(http.StatusNoContent)
}

// ListTasks lists the tasks of a project
// @Summary List Tasks
// @Tags Tasks
// @Security BearerAuth
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} TaskResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id}/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r, rbac.ActionView)
	if !ok {
		return
	}

	tasks, err := h.projectService.ListTasks(r.Context(), p.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}
	respondJSON(w, http.StatusOK, resp)
}

// CreateTask adds a task to a project
// @Summary Create Task
// @Tags Tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body TaskRequest true "Task"
// @Success 201 {object} TaskResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id}/tasks [post]
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	// tasks are only added to projects the caller can see
	p, ok := h.loadProject(w, r, rbac.ActionView)
	if !ok {
		return
	}
	if err := h.authzService.Authorize(r.Context(), principal, rbac.ActionCreate, rbac.ResourceTask, p.OwnerID == principal.UserID); err != nil {
		h.deny(w, r, err, rbac.ResourceProject.String(), p.ID)
		return
	}

	var req TaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	t, err := h.projectService.CreateTask(r.Context(), p.ID, deref(req.Title), deref(req.Status))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTaskResponse(t))
}

// UpdateTask updates a task
// @Summary Update Task
// @Tags Tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param taskID path string true "Task ID"
// @Param request body TaskRequest true "Fields to change"
// @Success 200 {object} TaskResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id}/tasks/{taskID} [put]
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTask(w, r, rbac.ActionEdit)
	if !ok {
		return
	}

	var req TaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	update := project.TaskUpdate{Title: req.Title}
	if req.Status != nil {
		s := project.TaskStatus(*req.Status)
		update.Status = &s
	}

	updated, err := h.projectService.UpdateTask(r.Context(), t.ProjectID, t.ID, update)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTaskResponse(updated))
}

// DeleteTask deletes a task
// @Summary Delete Task
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param taskID path string true "Task ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id}/tasks/{taskID} [delete]
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTask(w, r, rbac.ActionDelete)
	if !ok {
		return
	}

	if err := h.projectService.DeleteTask(r.Context(), t.ProjectID, t.ID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.audit(r, audit.Event{
		Type:       audit.TypeTaskDeleted,
		ActorID:    GetUserID(r.Context()),
		Resource:   rbac.ResourceTask.String(),
		ResourceID: t.ID,
		Metadata:   map[string]any{"project_id": t.ProjectID},
	})
	w.WriteHeader(http.StatusNoContent)
}
