package handler

import (
	"net/http"
	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes mounts the read routes. They need an authenticated caller.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	pending, active, rejected := model.StatusPending, model.StatusActive, model.StatusRejected
	r.Get("/getPendingUsers", h.listUsers(&pending))
	r.Get("/getActiveUsers", h.listUsers(&active))
	r.Get("/getRejectedUsers", h.listUsers(&rejected))
	r.Get("/getAllUsers", h.listUsers(nil))
	r.Get("/getUser/{id}", h.getUser)
	r.Get("/me", h.me)
}

// RegisterAdminRoutes mounts the role lifecycle routes. The router guards
// them with middleware.AdminOnly.
func (h *UserHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/assignUserRole", h.assignRole)
	r.Put("/revokeUserRole", h.revokeRole)
}

func (h *UserHandler) listUsers(status *model.UserStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.userService.ListUsers(r.Context(), status)
		if err != nil {
			common.RespondWithDomainError(w, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, users)
	}
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		common.RespondWithDomainError(w, common.ErrMissingToken)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, claims)
}

func (h *UserHandler) assignRole(w http.ResponseWriter, r *http.Request) {
	var req service.AssignRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	user, err := h.userService.AssignRole(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) revokeRole(w http.ResponseWriter, r *http.Request) {
	var req service.RevokeRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	user, err := h.userService.RevokeRole(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}
