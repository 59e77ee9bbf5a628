package handler

import (
	"net/http"
	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common"

	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Post("/assigntasks", h.assignTasks)
	r.Put("/tasks/{id}/status", h.updateStatus)
}

// RegisterProjectRoutes mounts the routes nested under /projects.
func (h *TaskHandler) RegisterProjectRoutes(r chi.Router) {
	r.Get("/{id}/tasks", h.listProjectTasks)
}

func (h *TaskHandler) assignTasks(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserIDFromContext(r.Context())

	var inputs []service.TaskInput
	if err := decodeJSON(w, r, &inputs); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	resp, err := h.taskService.AssignTasks(r.Context(), callerID, inputs)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *TaskHandler) listProjectTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListProjectTasks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateTaskStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	task, err := h.taskService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, task)
}
