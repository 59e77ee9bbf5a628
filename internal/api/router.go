package api

import (
	"net/http"
	"taskboard/internal/api/handler"
	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Projects *service.ProjectService
	Tasks    *service.TaskService
}

func NewRouter(svc Services, authn *middleware.Authenticator, log logrus.FieldLogger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(timeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(svc.Auth)
	userHandler := handler.NewUserHandler(svc.Users)
	projectHandler := handler.NewProjectHandler(svc.Projects)
	taskHandler := handler.NewTaskHandler(svc.Tasks)

	r.Route("/api", func(api chi.Router) {
		// Auth routes (public)
		authHandler.RegisterRoutes(api)

		// Everything below needs a bearer token
		api.Group(func(protected chi.Router) {
			protected.Use(authn.Verify)

			userHandler.RegisterRoutes(protected)
			protected.Group(func(admin chi.Router) {
				admin.Use(middleware.AdminOnly)
				userHandler.RegisterAdminRoutes(admin)
			})

			protected.Route("/projects", func(pr chi.Router) {
				projectHandler.RegisterRoutes(pr)
				taskHandler.RegisterProjectRoutes(pr)
			})
			taskHandler.RegisterRoutes(protected)
		})
	})

	return r
}
