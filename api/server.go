/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chosen for the same reasons as the rest of this stack: lightweight,
  context-based, RESTful route patterns.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests

ROUTE GROUPS:
  /healthz         Liveness check
  /clients/*       Client accounts (read) and revision history
  /transactions/*  Transaction submission and read/dispute lookups

SECURITY NOTE:
  No authentication middleware (spec's Non-goals: no authN/Z). All
  endpoints are public.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/paymentengine/main.go: server startup
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

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", h.HealthCheck)

	r.Route("/clients", func(r chi.Router) {
		r.Get("/", h.ListClients)
		r.Get("/{id}", h.GetClient)
		r.Get("/{id}/revisions/{revision}", h.GetClientRevision)
		r.Get("/{id}/transactions", h.GetClientTransactions)
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", h.SubmitTransaction)
		r.Get("/{id}", h.GetTransaction)
		r.Get("/{id}/revisions/{revision}", h.GetTransactionRevision)
		r.Get("/{id}/dispute", h.GetDisputeForTransaction)
	})

	return r
}
