// internal/server/handlers.go

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/models"
	"flavor-solver/internal/solver"
)

const maxSolveBodyBytes = 1 << 20

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxSolveBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.errors.WriteHTTP(w, requestID, errors.NewInvalidInputError(fmt.Sprintf("read request body: %v", err)))
		return
	}

	if violations, ok := validateAgainst(s.schema, body); !ok {
		s.errors.WriteHTTP(w, requestID, errors.NewSchemaValidationFailedError(violations))
		return
	}

	var req solveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errors.WriteHTTP(w, requestID, errors.NewInvalidInputError(fmt.Sprintf("decode request: %v", err)))
		return
	}

	opts, err := req.Options.toSolverOptions()
	if err != nil {
		s.errors.WriteHTTP(w, requestID, err)
		return
	}

	requirement, err := s.resolveRequirement(r.Context(), req)
	if err != nil {
		s.errors.WriteHTTP(w, requestID, err)
		return
	}

	stocks, err := s.resolveStocks(r.Context(), req.Stocks)
	if err != nil {
		s.errors.WriteHTTP(w, requestID, err)
		return
	}

	result, stats, err := s.selector.Solve(r.Context(), solver.Request{
		Requirement: requirement,
		Stocks:      stocks,
		Slots:       req.Slots,
	}, opts)
	if err != nil {
		s.errors.WriteHTTP(w, requestID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, newSolveResponse(requestID, requirement, result, stats))
}

// resolveRequirement prefers the catalog reference when both forms are
// present; an inline target produces an unnamed requirement.
func (s *Server) resolveRequirement(ctx context.Context, req solveRequest) (models.Requirement, error) {
	if req.RequirementID != "" {
		return s.catalog.GetRequirement(ctx, req.RequirementID)
	}
	if req.Target != nil {
		return models.Requirement{Target: *req.Target}, nil
	}
	return models.Requirement{}, errors.NewInvalidInputError("either requirement_id or target is required")
}

func (s *Server) resolveStocks(ctx context.Context, stocks []stockRequest) ([]models.Stock, error) {
	resolved := make([]models.Stock, 0, len(stocks))
	for _, stock := range stocks {
		ing, err := s.catalog.GetIngredient(ctx, stock.IngredientID)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, models.Stock{
			Ingredient: ing,
			Available:  stock.Count,
		})
	}
	return resolved, nil
}

func (s *Server) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	var (
		ingredients []models.Ingredient
		err         error
	)
	if query := r.URL.Query().Get("q"); query != "" {
		ingredients, err = s.search.SearchIngredients(r.Context(), query)
	} else {
		ingredients, err = s.catalog.ListIngredients(r.Context())
	}
	if err != nil {
		s.errors.WriteHTTP(w, requestID, err)
		return
	}

	if ingredients == nil {
		ingredients = []models.Ingredient{}
	}
	s.writeJSON(w, http.StatusOK, ingredientsResponse{Ingredients: ingredients})
}

func (s *Server) handleGetIngredient(w http.ResponseWriter, r *http.Request) {
	ing, err := s.catalog.GetIngredient(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errors.WriteHTTP(w, requestIDFrom(r.Context()), err)
		return
	}
	s.writeJSON(w, http.StatusOK, ing)
}

func (s *Server) handleListRequirements(w http.ResponseWriter, r *http.Request) {
	requirements, err := s.catalog.ListRequirements(r.Context())
	if err != nil {
		s.errors.WriteHTTP(w, requestIDFrom(r.Context()), err)
		return
	}

	if requirements == nil {
		requirements = []models.Requirement{}
	}
	s.writeJSON(w, http.StatusOK, requirementsResponse{Requirements: requirements})
}

func (s *Server) handleGetRequirement(w http.ResponseWriter, r *http.Request) {
	req, err := s.catalog.GetRequirement(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errors.WriteHTTP(w, requestIDFrom(r.Context()), err)
		return
	}
	s.writeJSON(w, http.StatusOK, req)
}

// handleBackends exposes the selector's probe diagnostics. Asking for the
// status triggers the lazy probes, so the first call may start the pools.
func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	resp := backendsResponse{
		Worker:       backendStatus{Available: s.selector.WorkerBackendAvailable()},
		DataParallel: backendStatus{Available: s.selector.DataParallelAvailable()},
	}
	if err := s.selector.LastWorkerInitError(); err != nil {
		resp.Worker.InitError = err.Error()
	}
	if err := s.selector.LastDataParallelInitError(); err != nil {
		resp.DataParallel.InitError = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
