// Package httpapi exposes the planner and the vehicle catalog over JSON/HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/signalsfoundry/route-link-planner/internal/logging"
	"github.com/signalsfoundry/route-link-planner/internal/observability"
	"github.com/signalsfoundry/route-link-planner/internal/planning"
	"github.com/signalsfoundry/route-link-planner/kb"
	"github.com/signalsfoundry/route-link-planner/model"
)

// maxBodyBytes bounds request bodies; a 10000-point profile fits easily.
const maxBodyBytes = 4 << 20

// Fleet is the mutable vehicle catalog behind /api/drones.
type Fleet interface {
	List() []model.VehicleProfile
	Get(id string) (model.VehicleProfile, error)
	Add(v model.VehicleProfile) error
	Upsert(v model.VehicleProfile) error
	Remove(id string) error
}

var _ Fleet = (*kb.Catalog)(nil)

// Handlers holds the dependencies shared by all routes.
type Handlers struct {
	svc   *planning.Service
	fleet Fleet
	log   logging.Logger
	newID func() string
}

// NewRouter builds the mux router with request-id and metrics middleware.
// collector may be nil.
func NewRouter(svc *planning.Service, fleet Fleet, log logging.Logger, collector *observability.PlannerCollector) *mux.Router {
	if log == nil {
		log = logging.Noop()
	}
	h := &Handlers{svc: svc, fleet: fleet, log: log, newID: logging.NewRequestID}

	router := mux.NewRouter()
	router.Use(requestIDMiddleware(log))
	router.Use(collector.HTTPMiddleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no such route", Code: "not_found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", Code: "method_not_allowed"})
	})

	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.HandleFunc("/radio-analysis", h.radioAnalysis).Methods(http.MethodPost)
	router.HandleFunc("/elevation", h.elevation).Methods(http.MethodPost)
	router.HandleFunc("/routes/plan", h.planRoute).Methods(http.MethodPost)
	router.HandleFunc("/routes/boundary", h.rangeBoundary).Methods(http.MethodPost)
	router.HandleFunc("/vehicles", h.listVehicles).Methods(http.MethodGet)

	drones := router.PathPrefix("/api/drones").Subrouter()
	drones.HandleFunc("", h.listVehicles).Methods(http.MethodGet)
	drones.HandleFunc("", h.createDrone).Methods(http.MethodPost)
	drones.HandleFunc("/{id}", h.getDrone).Methods(http.MethodGet)
	drones.HandleFunc("/{id}", h.updateDrone).Methods(http.MethodPut)
	drones.HandleFunc("/{id}", h.deleteDrone).Methods(http.MethodDelete)

	return router
}

// Server wraps an http.Server around the planner router.
type Server struct {
	httpServer *http.Server
	log        logging.Logger
}

// NewServer creates the HTTP server listening on addr.
func NewServer(addr string, handler http.Handler, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       90 * time.Second,
		},
		log: log,
	}
}

// Serve accepts connections on lis until Shutdown.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info(context.Background(), "HTTP API listening", logging.String("address", lis.Addr().String()))
	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http api: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info(ctx, "shutting down HTTP API")
	return s.httpServer.Shutdown(ctx)
}

func requestIDMiddleware(base logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := r.Header.Get(RequestIDHeader); id != "" {
				ctx = logging.ContextWithRequestID(ctx, id)
			}
			ctx, _ = logging.WithRequestLogger(ctx, base.With(
				logging.String("http_method", r.Method),
				logging.String("path", r.URL.Path),
			))
			w.Header().Set(RequestIDHeader, logging.RequestIDFromContext(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"
