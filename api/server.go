/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend
  5. Metrics:    Prometheus request counters and latency

ROUTE GROUPS:
  /api/login              Public authentication
  /api/employees/*        Roster management
  /api/orders/*           Appreciation and disciplinary orders
  /api/benefits/*         Benefit pipeline
  /api/notifications/*    Inbox and websocket push
  /api/admin/*            User management, entitlement checks, imports
  /metrics                Prometheus scrape endpoint

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/personnel-engine/store/sqlite"
)

// Server holds the handler dependencies.
type Server struct {
	store     *sqlite.Store
	tokens    *TokenIssuer
	hub       *Hub
	scheduler *EntitlementScheduler
}

// NewServer wires a server from its dependencies.
func NewServer(store *sqlite.Store, tokens *TokenIssuer, hub *Hub, scheduler *EntitlementScheduler) *Server {
	return &Server{store: store, tokens: tokens, hub: hub, scheduler: scheduler}
}

// NewRouter creates a new router with all routes configured.
func NewRouter(s *Server) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(MetricsMiddleware)

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/login", s.Login)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(s.RequireAuth)

			r.Get("/me", s.CurrentUser)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", s.ListEmployees)
				r.Get("/export", s.ExportEmployeesExcel)
				r.Get("/export.csv", s.ExportEmployeesCSV)
				r.Get("/template", s.EmployeeTemplateExcel)
				r.With(s.RequireAdmin).Post("/import", s.ImportEmployeesExcel)
				r.Get("/{id}", s.GetEmployee)
				r.Get("/{id}/orders", s.ListEmployeeOrders)
				r.Get("/{id}/benefits", s.ListEmployeeBenefits)
				r.With(s.RequireAdmin).Post("/", s.CreateEmployee)
				r.With(s.RequireAdmin).Put("/{id}", s.UpdateEmployee)
				r.With(s.RequireAdmin).Delete("/{id}", s.DeleteEmployee)
			})

			r.Route("/workplaces", func(r chi.Router) {
				r.Get("/", s.ListWorkplaces)
				r.With(s.RequireAdmin).Post("/", s.CreateWorkplace)
				r.With(s.RequireAdmin).Put("/{id}", s.UpdateWorkplace)
				r.With(s.RequireAdmin).Delete("/{id}", s.DeleteWorkplace)
			})

			r.Route("/job-titles", func(r chi.Router) {
				r.Get("/", s.ListJobTitles)
				r.With(s.RequireAdmin).Post("/", s.CreateJobTitle)
				r.With(s.RequireAdmin).Put("/{id}", s.UpdateJobTitle)
				r.With(s.RequireAdmin).Delete("/{id}", s.DeleteJobTitle)
			})

			r.Route("/qualifications", func(r chi.Router) {
				r.Get("/", s.ListQualifications)
				r.With(s.RequireAdmin).Post("/", s.CreateQualification)
				r.With(s.RequireAdmin).Put("/{id}", s.UpdateQualification)
				r.With(s.RequireAdmin).Delete("/{id}", s.DeleteQualification)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", s.ListOrders)
				r.With(s.RequireAdmin).Post("/", s.CreateOrder)
				r.With(s.RequireAdmin).Delete("/{id}", s.DeleteOrder)
			})

			r.Route("/benefits", func(r chi.Router) {
				r.Get("/", s.ListBenefits)
				r.Get("/pending", s.ListPendingBenefits)
				r.With(s.RequireAdmin).Post("/", s.CreateBenefit)
				r.With(s.RequireAdmin).Put("/{id}/process", s.ProcessBenefit)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.ListNotifications)
				r.Get("/unread-count", s.UnreadNotificationCount)
				r.Get("/subscribe", s.SubscribeNotifications)
				r.Post("/{id}/read", s.MarkNotificationRead)
				r.Post("/read-all", s.MarkAllNotificationsRead)
				r.Delete("/{id}", s.DeleteNotification)
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(s.RequireAdmin)

				r.Get("/users", s.ListUsers)
				r.Post("/users", s.CreateUser)
				r.Put("/users/{id}", s.UpdateUser)
				r.Delete("/users/{id}", s.DeleteUser)

				r.Post("/entitlement-check", s.TriggerEntitlementCheck)
				r.Get("/sweep-runs", s.ListSweepRuns)
			})
		})
	})

	// Health check for load balancers
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
