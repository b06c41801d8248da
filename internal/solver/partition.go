// internal/solver/partition.go
package solver

import (
	"fmt"
	"runtime"
	"sync"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/models"
)

var errPoolStopped = fmt.Errorf("worker pool stopped")

// PartitionedSolver fans one search out across a persistent worker pool.
// The search space case-splits on the first stock's usage count; each count
// becomes an independent task that runs the sequential search from the second
// stock with the accumulator pre-seeded. The split is disjoint and
// exhaustive, so merging task results needs no deduplication.
//
// Communication is strictly message passing: one task in, one result out per
// worker per task. There is no mid-task cancellation; Stop terminates the
// pool as a whole and abandons anything still queued.
type PartitionedSolver struct {
	workers int
	tasks   chan partitionTask
	quit    chan struct{}
	wg      sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

type partitionTask struct {
	req      Request
	firstUse int
	cap      int
	results  chan<- partitionResult
}

// partitionResult is one task's reply: the recipes found in its partition,
// its own cap flag, and how many nodes it explored.
type partitionResult struct {
	recipes      []models.Recipe
	limitReached bool
	nodes        int
	err          error
}

// NewPartitionedSolver sizes the pool. A worker count of 0 means one worker
// per available CPU; a negative count is surfaced by Start.
func NewPartitionedSolver(workers int) *PartitionedSolver {
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &PartitionedSolver{
		workers: workers,
		tasks:   make(chan partitionTask),
		quit:    make(chan struct{}),
	}
}

// Start launches the pool workers. Callers must Start before Solve.
func (p *PartitionedSolver) Start() error {
	if p.workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", p.workers)
	}
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
	return nil
}

// Stop terminates the pool as a whole. Running tasks finish their current
// work; queued tasks are abandoned. Safe to call repeatedly or before Start.
func (p *PartitionedSolver) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
	})
}

// Workers reports the pool size.
func (p *PartitionedSolver) Workers() int {
	return p.workers
}

func (p *PartitionedSolver) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			task.results <- p.runTask(task)
		}
	}
}

// runTask executes one partition. A panic inside the search is returned as
// the task's error so a poisoned request cannot take the pool down.
func (p *PartitionedSolver) runTask(task partitionTask) (result partitionResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = partitionResult{err: fmt.Errorf("partition with first use %d panicked: %v", task.firstUse, rec)}
		}
	}()

	run := newSequentialRun(task.req, task.cap)
	run.usage[0] = task.firstUse
	seed := task.req.Stocks[0].Ingredient.Flavors.Scale(task.firstUse)
	run.search(1, seed, task.req.Slots-task.firstUse)

	return partitionResult{
		recipes:      run.recipes,
		limitReached: run.limitHit,
		nodes:        run.nodes,
	}
}

// Solve has the same contract as Sequential but executes across the pool.
// If any task fails, the whole operation returns an error; the sequential
// fallback is the Selector's responsibility, not this component's.
func (p *PartitionedSolver) Solve(req Request, solutionCap int) (models.SearchResult, Stats, error) {
	stats := Stats{Strategy: StrategyPartitioned}
	if err := validateRequest(req); err != nil {
		return models.SearchResult{}, stats, err
	}

	// A target met by the empty combination short-circuits before
	// partitioning. Pre-seeding each first-stock count would otherwise
	// record one recipe per partition where the plain search records only
	// the empty one.
	if (models.Vector{}).Meets(req.Requirement.Target) {
		stats.NodesExplored = 1
		return models.SearchResult{Recipes: []models.Recipe{{Requirement: req.Requirement}}}, stats, nil
	}

	if len(req.Stocks) == 0 {
		stats.NodesExplored = 1
		return models.SearchResult{}, stats, nil
	}

	partitions := minInt(req.Stocks[0].Available, req.Slots) + 1
	stats.Partitions = partitions

	// A single partition skips the pool machinery entirely.
	if partitions == 1 {
		result := p.runTask(partitionTask{req: req, firstUse: 0, cap: solutionCap})
		if result.err != nil {
			return models.SearchResult{}, stats, errors.NewBackendExecutionFailedError(string(StrategyPartitioned), result.err)
		}
		stats.NodesExplored = result.nodes
		return models.SearchResult{Recipes: result.recipes, LimitReached: result.limitReached}, stats, nil
	}

	// The queue is fully materialized up front: one task per possible first
	// stock count, bounded by the stock's availability.
	results := make(chan partitionResult, partitions)
	for use := 0; use < partitions; use++ {
		task := partitionTask{req: req, firstUse: use, cap: solutionCap, results: results}
		select {
		case p.tasks <- task:
		case <-p.quit:
			return models.SearchResult{}, stats, errors.NewBackendExecutionFailedError(string(StrategyPartitioned), errPoolStopped)
		}
	}

	// Merge in completion order; limit flags OR together. Each task carries
	// its own cap, so the merged list can exceed a single task's cap without
	// any task reporting its limit.
	var merged models.SearchResult
	var firstErr error
	for i := 0; i < partitions; i++ {
		select {
		case result := <-results:
			if result.err != nil {
				if firstErr == nil {
					firstErr = result.err
				}
				continue
			}
			merged.Recipes = append(merged.Recipes, result.recipes...)
			merged.LimitReached = merged.LimitReached || result.limitReached
			stats.NodesExplored += result.nodes
		case <-p.quit:
			return models.SearchResult{}, stats, errors.NewBackendExecutionFailedError(string(StrategyPartitioned), errPoolStopped)
		}
	}

	if firstErr != nil {
		return models.SearchResult{}, stats, errors.NewBackendExecutionFailedError(string(StrategyPartitioned), firstErr)
	}
	return merged, stats, nil
}
