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
  /api/assets/*        Asset registration and depreciation cycles
  /api/depreciation/*  Summary, due list, batch runs
  /api/units/*         Business units
  /api/batch-runs      Batch run history
  /api/scenarios/*     Demo scenarios

SECURITY NOTE:
  Actor identification comes from the X-Actor-ID header; there is no
  authentication middleware. An API gateway is expected in front.

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Asset routes
		r.Route("/assets", func(r chi.Router) {
			r.Get("/", h.ListAssets)
			r.Post("/", h.CreateAsset)
			r.Get("/{id}", h.GetAsset)
			r.Post("/{id}/depreciation", h.RunDepreciation)
			r.Get("/{id}/depreciation/history", h.GetHistory)
			r.Get("/{id}/depreciation/schedule", h.GetSchedule)
			r.Get("/{id}/audit", h.GetAudit)
		})

		// Depreciation routes
		r.Route("/depreciation", func(r chi.Router) {
			r.Get("/summary", h.GetSummary)
			r.Get("/due", h.ListDueAssets)
			r.Post("/batch", h.RunBatch)
		})

		// Batch run history
		r.Get("/batch-runs", h.ListBatchRuns)

		// Business unit routes
		r.Route("/units", func(r chi.Router) {
			r.Get("/", h.ListBusinessUnits)
			r.Post("/", h.CreateBusinessUnit)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
