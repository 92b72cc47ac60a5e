// Package api exposes the tamanhos resource over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rogrs/loja/internal/page"
)

// Pinger reports whether the backing stores answer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// API holds the handler groups and their dependencies
type API struct {
	tamanhos *Tamanhos
	health   Pinger
	logger   *zap.Logger
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewAPI creates a new API instance
func NewAPI(store TamanhosStore, index TamanhosSearch, mirror IndexMirror, health Pinger, paging page.Config, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		tamanhos: NewTamanhos(store, index, mirror, paging, logger),
		health:   health,
		logger:   logger,
	}
}

// NewRouter returns a chi router with the standard middleware stack and every route registered.
func NewRouter(a *API) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(a.logger))
	r.Use(middleware.Recoverer)
	a.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all API endpoints to the given chi router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/", a.rootHandler)
	r.Get("/healthz", a.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/tamanhos", func(r chi.Router) {
			r.Post("/", a.tamanhos.CreateHandler)
			r.Put("/", a.tamanhos.UpdateHandler)
			r.Get("/", a.tamanhos.ListHandler)
			r.Get("/{id}", a.tamanhos.GetHandler)
			r.Delete("/{id}", a.tamanhos.DeleteHandler)
		})
		r.Get("/_search/tamanhos", a.tamanhos.SearchHandler)
	})
}

func (a *API) rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if _, err := fmt.Fprintln(w, "Loja web service is running!"); err != nil {
		a.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.Ping(r.Context()); err != nil {
			a.logger.Error("health check failed", zap.Error(err))
			writeJSON(w, a.logger, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	writeJSON(w, a.logger, http.StatusOK, HealthResponse{Status: "ok"})
}
