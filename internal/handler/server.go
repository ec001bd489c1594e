// Package handler implements the HTTP surface of the trip planner API.
// Handlers are methods on Server, split by resource (trips.go, logs.go,
// export.go, health.go). They decode requests, call the services, and map
// domain errors to the JSON error envelope. No business rules live here.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/service"
)

// TripServicer is the trip behaviour the handlers depend on.
// Defined in the consumer package so tests can inject a mock.
type TripServicer interface {
	Plan(ctx context.Context, in service.PlanInput) (domain.Trip, bool, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, ownerID uuid.UUID, p domain.PaginationParams) (domain.Page[domain.Trip], error)
	Update(ctx context.Context, u domain.TripUpdate) (domain.Trip, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// LogServicer is the log behaviour the handlers depend on.
type LogServicer interface {
	Generate(ctx context.Context, in service.GenerateInput) ([]domain.LogEntry, error)
	List(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.LogEntry, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (domain.LogEntry, error)
}

// Server holds the handler dependencies.
type Server struct {
	trips  TripServicer
	logs   LogServicer
	logger *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, logs LogServicer, logger *slog.Logger) *Server {
	return &Server{trips: trips, logs: logs, logger: logger}
}

// RouteOptions carries the pieces of the router that main wires from config.
// Nil fields are skipped.
type RouteOptions struct {
	// Authenticate guards every route except /healthz and /openapi.yaml.
	Authenticate func(http.Handler) http.Handler

	// PlanLimiter is applied to POST /trips only.
	PlanLimiter func(http.Handler) http.Handler

	// OpenAPI is served verbatim at /openapi.yaml.
	OpenAPI []byte

	// Ping reports database health for /healthz.
	Ping func(context.Context) error
}

// Routes returns the API router.
func (s *Server) Routes(opts RouteOptions) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.health(opts.Ping))
	if opts.OpenAPI != nil {
		r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(opts.OpenAPI)
		})
	}

	r.Group(func(r chi.Router) {
		if opts.Authenticate != nil {
			r.Use(opts.Authenticate)
		}

		r.Route("/trips", func(r chi.Router) {
			plan := http.Handler(http.HandlerFunc(s.planTrip))
			if opts.PlanLimiter != nil {
				plan = opts.PlanLimiter(plan)
			}
			r.Method(http.MethodPost, "/", plan)
			r.Get("/", s.listTrips)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getTrip)
				r.Patch("/", s.updateTrip)
				r.Delete("/", s.deleteTrip)
				r.Get("/route", s.getRoute)
				r.Post("/generate_logs", s.generateLogs)
				r.Get("/logs", s.listLogs)
			})
		})

		r.Route("/log-entries/{id}", func(r chi.Router) {
			r.Get("/", s.getLog)
			r.Get("/download_pdf", s.downloadPDF)
			r.Get("/download_image", s.downloadImage)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errorDetail{Code: "not_found", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errorDetail{Code: "method_not_allowed", Message: "method not allowed"})
	})
	return r
}
