package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ukydev/fleetsheet/internal/middleware"
	"github.com/ukydev/fleetsheet/internal/models"
)

// RouterConfig carries the handlers and middleware the API is assembled from.
type RouterConfig struct {
	Auth       *AuthHandler
	Timesheets *TimesheetHandler
	Reviews    *ReviewHandler
	Vehicles   *VehicleHandler
	Directory  *DirectoryHandler
	Reports    *ReportHandler

	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimitMiddleware
	RateLimit      int
	RateWindow     time.Duration

	// Health reports backing-store reachability; nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.RateLimit(cfg.RateLimit, cfg.RateWindow))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/auth/login", cfg.Auth.Login)
	r.Post("/api/auth/register", cfg.Auth.Register)

	employerOnly := cfg.AuthMiddleware.RequireRole(models.RoleEmployer)

	r.Group(func(r chi.Router) {
		r.Use(cfg.AuthMiddleware.Authenticate)

		r.Get("/api/auth/profile", cfg.Auth.GetProfile)
		r.Put("/api/auth/profile", cfg.Auth.UpdateProfile)
		r.Post("/api/auth/change-password", cfg.Auth.ChangePassword)

		r.Route("/api/timesheets", func(r chi.Router) {
			r.Get("/", cfg.Timesheets.List)
			r.Post("/", cfg.Timesheets.Create)
			r.Get("/{id}", cfg.Timesheets.Get)
			r.Put("/{id}", cfg.Timesheets.Update)
			r.With(employerOnly).Delete("/{id}", cfg.Timesheets.Delete)
		})

		r.Route("/api/reviews", func(r chi.Router) {
			r.Post("/", cfg.Reviews.Create)
			r.Get("/{id}", cfg.Reviews.Get)
			r.Put("/{id}", cfg.Reviews.Update)
			r.With(employerOnly).Delete("/{id}", cfg.Reviews.Delete)
		})

		r.Route("/api/vehicles", func(r chi.Router) {
			r.Get("/", cfg.Vehicles.List)
			r.With(employerOnly).Post("/", cfg.Vehicles.Create)
			r.Get("/{id}", cfg.Vehicles.Get)
			r.With(employerOnly).Put("/{id}", cfg.Vehicles.Update)
			r.With(employerOnly).Delete("/{id}", cfg.Vehicles.Delete)
			r.Get("/{id}/reviews", cfg.Vehicles.Reviews)
		})

		r.Route("/api/employees", func(r chi.Router) {
			r.With(employerOnly).Get("/", cfg.Directory.ListEmployees)
			r.With(employerOnly).Post("/", cfg.Directory.CreateEmployee)
			r.Get("/{id}", cfg.Directory.GetEmployee)
			r.With(employerOnly).Put("/{id}", cfg.Directory.UpdateEmployee)
		})

		r.Get("/api/clients", cfg.Directory.ListClients)
		r.With(employerOnly).Post("/api/clients", cfg.Directory.CreateClient)
		r.Get("/api/projects", cfg.Directory.ListProjects)
		r.With(employerOnly).Post("/api/projects", cfg.Directory.CreateProject)

		r.Route("/api/reports", func(r chi.Router) {
			r.Use(cfg.AuthMiddleware.RequirePermission("view_reports"))
			r.Get("/{kind}/{id}", cfg.Reports.Download)
			r.Post("/email", cfg.Reports.Email)
		})
	})

	return otelhttp.NewHandler(r, "fleetsheet-api")
}
