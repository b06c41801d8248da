// internal/server/server.go

// Package server exposes the solver and the catalog over HTTP: one solve
// endpoint, read-only catalog endpoints, backend diagnostics, and the
// operational trio of health, readiness, and metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/common/logger"
	"flavor-solver/internal/models"
	"flavor-solver/internal/solver"
)

// CatalogReader is the slice of the catalog the API reads from.
type CatalogReader interface {
	GetIngredient(ctx context.Context, id string) (models.Ingredient, error)
	ListIngredients(ctx context.Context) ([]models.Ingredient, error)
	GetRequirement(ctx context.Context, id string) (models.Requirement, error)
	ListRequirements(ctx context.Context) ([]models.Requirement, error)
}

// IngredientSearcher resolves free-text ingredient queries.
type IngredientSearcher interface {
	SearchIngredients(ctx context.Context, query string) ([]models.Ingredient, error)
}

// Deps collects everything the server needs. Ready reports whether the
// downstream dependencies are reachable; nil means always ready.
type Deps struct {
	Catalog  CatalogReader
	Search   IngredientSearcher
	Selector *solver.Selector
	Logger   logger.Logger
	Ready    func(ctx context.Context) error
}

// Server holds the handler state. It owns no lifecycle of its own; the
// composition root starts the http.Server and tears the selector down.
type Server struct {
	catalog  CatalogReader
	search   IngredientSearcher
	selector *solver.Selector
	log      logger.Logger
	errors   *errors.ErrorHandler
	schema   *gojsonschema.Schema
	ready    func(ctx context.Context) error
}

// New builds a server and compiles the solve request schema once.
func New(deps Deps) (*Server, error) {
	schema, err := compileSolveSchema()
	if err != nil {
		return nil, err
	}

	return &Server{
		catalog:  deps.Catalog,
		search:   deps.Search,
		selector: deps.Selector,
		log:      deps.Logger,
		errors:   errors.NewErrorHandler(deps.Logger),
		schema:   schema,
		ready:    deps.Ready,
	}, nil
}

// Routes returns the full handler tree wrapped in the middleware chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/solve", s.handleSolve)
	mux.HandleFunc("GET /v1/ingredients", s.handleListIngredients)
	mux.HandleFunc("GET /v1/ingredients/{id}", s.handleGetIngredient)
	mux.HandleFunc("GET /v1/requirements", s.handleListRequirements)
	mux.HandleFunc("GET /v1/requirements/{id}", s.handleGetRequirement)
	mux.HandleFunc("GET /v1/backends", s.handleBackends)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return chain(mux,
		withRequestID,
		withLogging(s.log),
		withMetrics,
		withRecovery(s.log, s.errors),
	)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("response encoding failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
