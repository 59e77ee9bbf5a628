package handler

import (
	"net/http"
	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

type projectDetailsResponse struct {
	Project *model.ProjectDetails `json:"project"`
	Message string                `json:"message"`
}

func (h *ProjectHandler) RegisterRoutes(r chi.Router) {
	inProgress, completed := model.ProjectInProgress, model.ProjectCompleted
	r.Post("/create-project", h.createProject)
	r.Get("/allProjects", h.listProjects(nil))
	r.Get("/completedProjects", h.listProjects(&completed))
	r.Get("/inProgressProjects", h.listProjects(&inProgress))
	r.Get("/projectMembersDetails", h.membersDetails)
}

func (h *ProjectHandler) createProject(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserIDFromContext(r.Context())

	var req service.CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	project, err := h.projectService.CreateProject(r.Context(), callerID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) listProjects(status *model.ProjectStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projectService.ListProjects(r.Context(), status)
		if err != nil {
			common.RespondWithDomainError(w, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, projects)
	}
}

func (h *ProjectHandler) membersDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.projectService.MembersDetails(r.Context(), r.URL.Query().Get("project_id"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, projectDetailsResponse{
		Project: details,
		Message: "Project details with all member details fetched successfully.",
	})
}
