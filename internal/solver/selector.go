// internal/solver/selector.go
package solver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"flavor-solver/internal/common/config"
	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/common/logger"
	"flavor-solver/internal/common/metrics"
	"flavor-solver/internal/common/observability"
	"flavor-solver/internal/models"
)

// Options carries per-request execution overrides. Force flags take
// precedence over the automatic decision; a forced backend that is
// unavailable or fails degrades to the sequential path rather than erroring.
// Zero values for BatchSize and SolutionCap mean "use the configured
// default".
type Options struct {
	ForceSequential   bool `json:"forceSequential"`
	ForceParallel     bool `json:"forceParallel"`
	ForceDataParallel bool `json:"forceDataParallel"`
	BatchSize         int  `json:"batchSize"`
	SolutionCap       int  `json:"solutionCap"`
}

// Selector owns the execution strategies and picks one per request. It is
// the only component that holds state across requests: lazily probed backend
// pools and their initialization outcomes. Every path through Solve returns
// a well-formed SearchResult for valid input; backend trouble of any kind
// ends in a sequential re-run, never in a caller-visible failure.
type Selector struct {
	cfg config.EngineConfig
	log logger.Logger
	obs *observability.Observability

	mu           sync.Mutex
	partitioned  *PartitionedSolver
	dataParallel *DataParallelSolver
	workerProbed bool
	dataProbed   bool
	workerErr    error
	dataErr      error
	tornDown     bool
}

// NewSelector builds a selector around the engine configuration. obs may be
// nil when no meter pipeline is wired, for example in tests.
func NewSelector(cfg config.EngineConfig, log logger.Logger, obs *observability.Observability) *Selector {
	return &Selector{cfg: cfg, log: log, obs: obs}
}

// ensureWorkerBackend probes the worker pool on first use. A failed probe is
// cached and disables the backend for this selector's lifetime; it never
// propagates to the caller.
func (s *Selector) ensureWorkerBackend() *PartitionedSolver {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workerProbed || s.tornDown {
		return s.partitioned
	}
	s.workerProbed = true
	if s.cfg.DisableWorkerBackend {
		s.log.Debug("worker backend disabled by configuration", nil)
		return nil
	}

	pool := NewPartitionedSolver(s.cfg.Workers)
	if err := pool.Start(); err != nil {
		s.workerErr = err
		s.log.Warn("worker backend unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	s.partitioned = pool
	s.log.Info("worker backend ready", map[string]interface{}{
		"workers": pool.Workers(),
	})
	return pool
}

// ensureDataParallelBackend probes the batch evaluation pool on first use,
// with the same caching rules as ensureWorkerBackend.
func (s *Selector) ensureDataParallelBackend() *DataParallelSolver {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataProbed || s.tornDown {
		return s.dataParallel
	}
	s.dataProbed = true
	if s.cfg.DisableDataParallel {
		s.log.Debug("data-parallel backend disabled by configuration", nil)
		return nil
	}

	pool := NewDataParallelSolver(s.cfg.Workers, s.cfg.MaxSlotsPerCandidate)
	if err := pool.Start(); err != nil {
		s.dataErr = err
		s.log.Warn("data-parallel backend unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	s.dataParallel = pool
	s.log.Info("data-parallel backend ready", map[string]interface{}{
		"workers":  pool.Workers(),
		"maxSlots": pool.MaxSlotsPerCandidate(),
	})
	return pool
}

// WorkerBackendAvailable reports whether the worker pool is usable, probing
// it if this is the first ask.
func (s *Selector) WorkerBackendAvailable() bool {
	return s.ensureWorkerBackend() != nil
}

// DataParallelAvailable reports whether the batch evaluation pool is usable,
// probing it if this is the first ask.
func (s *Selector) DataParallelAvailable() bool {
	return s.ensureDataParallelBackend() != nil
}

// LastWorkerInitError returns the cached worker probe error, nil when the
// probe succeeded or has not run.
func (s *Selector) LastWorkerInitError() error {
	s.ensureWorkerBackend()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workerErr
}

// LastDataParallelInitError returns the cached batch backend probe error,
// nil when the probe succeeded or has not run.
func (s *Selector) LastDataParallelInitError() error {
	s.ensureDataParallelBackend()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataErr
}

// Teardown stops both backend pools and disables further probing. Safe to
// call repeatedly or before anything was initialized; solves issued after
// teardown run sequentially.
func (s *Selector) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tornDown {
		return
	}
	s.tornDown = true
	if s.partitioned != nil {
		s.partitioned.Stop()
		s.partitioned = nil
	}
	if s.dataParallel != nil {
		s.dataParallel.Stop()
		s.dataParallel = nil
	}
}

// Solve picks a strategy per the decision policy and runs it. The context
// feeds metric recording only; a running search is never cancelled
// mid-flight.
func (s *Selector) Solve(ctx context.Context, req Request, opts Options) (models.SearchResult, Stats, error) {
	solutionCap := opts.SolutionCap
	if solutionCap == 0 {
		solutionCap = s.cfg.SolutionCap
	}
	batchCap := opts.BatchSize
	if batchCap == 0 {
		batchCap = s.cfg.BatchCap
	}

	planned, run := s.plan(req, opts, solutionCap, batchCap)

	if err := validateRequest(req); err != nil {
		metrics.SearchesFailed.WithLabelValues(string(planned), errorCode(err)).Inc()
		s.recordProcessed(ctx, planned, "rejected")
		return models.SearchResult{}, Stats{Strategy: planned}, err
	}

	metrics.SearchesActive.WithLabelValues(string(planned)).Inc()
	defer metrics.SearchesActive.WithLabelValues(string(planned)).Dec()

	start := time.Now()
	result, stats, err := run()
	elapsed := time.Since(start)

	metrics.SearchDuration.WithLabelValues(string(stats.Strategy)).Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordSearchDuration(ctx, elapsed, string(stats.Strategy))
	}
	if err != nil {
		metrics.SearchesFailed.WithLabelValues(string(stats.Strategy), errorCode(err)).Inc()
		s.recordProcessed(ctx, stats.Strategy, "failed")
		return models.SearchResult{}, stats, err
	}

	metrics.SearchesCompleted.WithLabelValues(string(stats.Strategy)).Inc()
	metrics.RecipesFound.WithLabelValues(string(stats.Strategy)).Observe(float64(len(result.Recipes)))
	if stats.NodesExplored > 0 {
		metrics.NodesExplored.WithLabelValues(string(stats.Strategy)).Observe(float64(stats.NodesExplored))
	}
	if result.LimitReached {
		metrics.LimitReached.WithLabelValues(string(stats.Strategy)).Inc()
	}
	s.recordProcessed(ctx, stats.Strategy, "completed")
	return result, stats, nil
}

// plan resolves the decision policy to a strategy and its runner. Force
// flags win in sequential, data-parallel, parallel order; automatic mode
// compares the request's size against the configured thresholds and only
// considers backends that probe as available.
func (s *Selector) plan(req Request, opts Options, solutionCap, batchCap int) (Strategy, func() (models.SearchResult, Stats, error)) {
	switch {
	case opts.ForceSequential:
		return StrategySequential, func() (models.SearchResult, Stats, error) {
			return runSequential(req, solutionCap)
		}

	case opts.ForceDataParallel:
		pool := s.ensureDataParallelBackend()
		if pool == nil {
			return StrategyDataParallel, s.sequentialFallback(req, solutionCap, StrategyDataParallel, unavailableCause(s.LastDataParallelInitError()))
		}
		return StrategyDataParallel, s.withFallback(req, solutionCap, func() (models.SearchResult, Stats, error) {
			return pool.Solve(req, batchCap)
		})

	case opts.ForceParallel:
		pool := s.ensureWorkerBackend()
		if pool == nil {
			return StrategyPartitioned, s.sequentialFallback(req, solutionCap, StrategyPartitioned, unavailableCause(s.LastWorkerInitError()))
		}
		return StrategyPartitioned, s.withFallback(req, solutionCap, func() (models.SearchResult, Stats, error) {
			return pool.Solve(req, solutionCap)
		})
	}

	if len(req.Stocks) >= s.cfg.MinStocksForDataParallel && req.Slots >= s.cfg.MinSlotsForDataParallel {
		// Requests wider than the candidate layout are not offered to the
		// batch backend; a forced override still is, and falls back.
		if pool := s.ensureDataParallelBackend(); pool != nil && req.Slots <= pool.MaxSlotsPerCandidate() {
			return StrategyDataParallel, s.withFallback(req, solutionCap, func() (models.SearchResult, Stats, error) {
				return pool.Solve(req, batchCap)
			})
		}
	}
	if len(req.Stocks) >= s.cfg.MinStocksForPartitioned && req.Slots >= s.cfg.MinSlotsForPartitioned {
		if pool := s.ensureWorkerBackend(); pool != nil {
			return StrategyPartitioned, s.withFallback(req, solutionCap, func() (models.SearchResult, Stats, error) {
				return pool.Solve(req, solutionCap)
			})
		}
	}
	return StrategySequential, func() (models.SearchResult, Stats, error) {
		return runSequential(req, solutionCap)
	}
}

// withFallback wraps a backend runner so that any failure re-runs the same
// request sequentially. Invalid input is already rejected before runners
// execute, so a failure here is always backend trouble.
func (s *Selector) withFallback(req Request, solutionCap int, run func() (models.SearchResult, Stats, error)) func() (models.SearchResult, Stats, error) {
	return func() (models.SearchResult, Stats, error) {
		result, stats, err := run()
		if err == nil {
			return result, stats, nil
		}
		return s.sequentialFallback(req, solutionCap, stats.Strategy, err)()
	}
}

// sequentialFallback returns a runner that records the fallback and solves
// sequentially on behalf of the failed strategy.
func (s *Selector) sequentialFallback(req Request, solutionCap int, from Strategy, cause error) func() (models.SearchResult, Stats, error) {
	return func() (models.SearchResult, Stats, error) {
		s.log.Warn("strategy unavailable or failed, solving sequentially", map[string]interface{}{
			"strategy": string(from),
			"error":    cause.Error(),
		})
		metrics.Fallbacks.WithLabelValues(string(from)).Inc()

		result, stats, err := runSequential(req, solutionCap)
		stats.FellBack = true
		return result, stats, err
	}
}

func (s *Selector) recordProcessed(ctx context.Context, strategy Strategy, status string) {
	if s.obs != nil {
		s.obs.RecordSearchProcessed(ctx, string(strategy), status)
	}
}

// unavailableCause explains a refused forced backend: the cached probe
// error when one exists, otherwise the pool was torn down or never probed.
func unavailableCause(initErr error) error {
	if initErr != nil {
		return initErr
	}
	return fmt.Errorf("backend not available")
}

func errorCode(err error) string {
	if stdErr, ok := err.(*errors.StandardError); ok {
		return string(stdErr.Code)
	}
	return string(errors.ErrCodeInternal)
}
