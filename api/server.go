/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/assignments/*     Lease management, statements, balances
  /api/payments/*        Payment submission and approval
  /api/admin/*           Manual override + reconciliation trigger
  /api/reconciliation/*  Audit trail
  /api/reports/*         Portfolio summaries

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Assignment (lease) routes
		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", h.ListAssignments)
			r.Post("/", h.CreateAssignment)
			r.Get("/{id}", h.GetAssignment)
			r.Post("/{id}/end", h.EndAssignment)
			r.Get("/{id}/statement", h.GetStatement)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/payments", h.ListAssignmentPayments)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", h.SubmitPayment)
			r.Post("/{id}/approve", h.ApprovePayment)
			r.Post("/{id}/deny", h.DenyPayment)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/rent-due", h.SetRentDue)
			r.Post("/reconcile", h.TriggerReconciliation)
		})

		// Reconciliation audit trail
		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/runs", h.ListReconciliationRuns)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/units", h.UnitsReport)
		})
	})

	return r
}
