// internal/solver/evaluator.go
package solver

import (
	"fmt"
	"runtime"
	"sync"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/models"
)

// DefaultMaxSlotsPerCandidate is the candidate row width when none is
// configured. Every candidate occupies a fixed-width row in the index buffer
// regardless of how many units it actually uses.
const DefaultMaxSlotsPerCandidate = 8

// evalBuffers is the flat data layout one batch dispatch operates on.
// Candidates lower to fixed-width int32 rows padded with -1; ingredient
// flavors and the requirement lower to struct-of-arrays value rows. Buffers
// are allocated per dispatch and go out of scope with it, so repeated
// requests cannot accumulate evaluation state.
type evalBuffers struct {
	stride       int     // candidate row width
	flavorValues []int32 // one row of NumDimensions values per stock
	candidates   []int32 // one row of stride stock indices per candidate
	requirement  [models.NumDimensions]int32
	totals       []int32 // one row of NumDimensions sums per candidate
	valid        []int32 // 1 when the candidate meets the requirement
}

func newEvalBuffers(req Request, candidates [][]int, stride int) *evalBuffers {
	b := &evalBuffers{
		stride:       stride,
		flavorValues: make([]int32, len(req.Stocks)*models.NumDimensions),
		candidates:   make([]int32, len(candidates)*stride),
		totals:       make([]int32, len(candidates)*models.NumDimensions),
		valid:        make([]int32, len(candidates)),
	}

	for i, stock := range req.Stocks {
		for d, v := range stock.Ingredient.Flavors.Values() {
			b.flavorValues[i*models.NumDimensions+d] = int32(v)
		}
	}
	for d, v := range req.Requirement.Target.Values() {
		b.requirement[d] = int32(v)
	}

	for i := range b.candidates {
		b.candidates[i] = -1
	}
	for row, cand := range candidates {
		base := row * stride
		for s, stockIdx := range cand {
			b.candidates[base+s] = int32(stockIdx)
		}
	}
	return b
}

// evaluateRange runs the per-candidate kernel over rows [first, first+count).
// Each row is independent: sum the flavor values of its stock indices, then
// compare every dimension against the requirement.
func evaluateRange(b *evalBuffers, first, count int) {
	for row := first; row < first+count; row++ {
		base := row * b.stride
		var totals [models.NumDimensions]int32
		for s := 0; s < b.stride; s++ {
			idx := b.candidates[base+s]
			if idx < 0 {
				break
			}
			values := int(idx) * models.NumDimensions
			for d := 0; d < models.NumDimensions; d++ {
				totals[d] += b.flavorValues[values+d]
			}
		}

		valid := int32(1)
		out := row * models.NumDimensions
		for d := 0; d < models.NumDimensions; d++ {
			b.totals[out+d] = totals[d]
			if totals[d] < b.requirement[d] {
				valid = 0
			}
		}
		b.valid[row] = valid
	}
}

type evalChunk struct {
	buf   *evalBuffers
	first int
	count int
	done  chan<- struct{}
}

// DataParallelSolver evaluates generated candidates in independent
// fixed-layout batches across a persistent worker pool. Unlike the
// partitioned solver it does not prune: throughput comes from evaluating
// many candidates at once, and its batch cap bounds candidates rather than
// solutions, so it can report fewer recipes than the tree strategies when
// the space outgrows the cap. That difference is part of the strategy's
// contract, not something to reconcile.
type DataParallelSolver struct {
	workers  int
	maxSlots int
	chunks   chan evalChunk
	quit     chan struct{}
	wg       sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewDataParallelSolver sizes the pool and fixes the candidate row width.
// workers 0 means one per available CPU; maxSlots 0 means
// DefaultMaxSlotsPerCandidate. Negative values are surfaced by Start.
func NewDataParallelSolver(workers, maxSlots int) *DataParallelSolver {
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if maxSlots == 0 {
		maxSlots = DefaultMaxSlotsPerCandidate
	}
	return &DataParallelSolver{
		workers:  workers,
		maxSlots: maxSlots,
		chunks:   make(chan evalChunk),
		quit:     make(chan struct{}),
	}
}

// Start launches the evaluation workers. Callers must Start before Solve.
func (d *DataParallelSolver) Start() error {
	if d.workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", d.workers)
	}
	if d.maxSlots < 1 {
		return fmt.Errorf("candidate width must be at least 1, got %d", d.maxSlots)
	}
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.worker()
		}
	})
	return nil
}

// Stop terminates the pool. A dispatch in flight is abandoned as a whole;
// there is no finer cancellation granularity. Safe to call repeatedly or
// before Start.
func (d *DataParallelSolver) Stop() {
	d.stopOnce.Do(func() {
		close(d.quit)
		d.wg.Wait()
	})
}

// Workers reports the pool size.
func (d *DataParallelSolver) Workers() int {
	return d.workers
}

// MaxSlotsPerCandidate reports the fixed candidate row width.
func (d *DataParallelSolver) MaxSlotsPerCandidate() int {
	return d.maxSlots
}

func (d *DataParallelSolver) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.quit:
			return
		case chunk := <-d.chunks:
			evaluateRange(chunk.buf, chunk.first, chunk.count)
			chunk.done <- struct{}{}
		}
	}
}

// dispatchBatch splits the candidate rows into one contiguous chunk per
// worker and waits for all of them. The batch completes or fails as a unit.
func (d *DataParallelSolver) dispatchBatch(buf *evalBuffers, numCandidates int) error {
	if numCandidates == 0 {
		return nil
	}

	chunkSize := (numCandidates + d.workers - 1) / d.workers
	done := make(chan struct{}, d.workers)
	submitted := 0
	for first := 0; first < numCandidates; first += chunkSize {
		count := minInt(chunkSize, numCandidates-first)
		select {
		case d.chunks <- evalChunk{buf: buf, first: first, count: count, done: done}:
			submitted++
		case <-d.quit:
			return errPoolStopped
		}
	}

	for received := 0; received < submitted; received++ {
		select {
		case <-done:
		case <-d.quit:
			return errPoolStopped
		}
	}
	return nil
}

// Solve runs the generate-evaluate-assemble pipeline. batchCap bounds
// generated candidates, not solutions; the limit flag reports whether the
// evaluator's valid count reached that cap. Requests whose slot limit
// exceeds the candidate row width cannot be laid out and fail as a backend
// execution error, which the selector turns into a sequential fallback.
func (d *DataParallelSolver) Solve(req Request, batchCap int) (models.SearchResult, Stats, error) {
	stats := Stats{Strategy: StrategyDataParallel}
	if err := validateRequest(req); err != nil {
		return models.SearchResult{}, stats, err
	}
	if req.Slots > d.maxSlots {
		return models.SearchResult{}, stats, errors.NewBackendExecutionFailedError(string(StrategyDataParallel),
			fmt.Errorf("slot limit %d exceeds candidate width %d", req.Slots, d.maxSlots))
	}

	candidates, _ := generateCandidates(req.Stocks, req.Slots, batchCap)
	stats.Candidates = len(candidates)

	buf := newEvalBuffers(req, candidates, d.maxSlots)
	if err := d.dispatchBatch(buf, len(candidates)); err != nil {
		return models.SearchResult{}, stats, errors.NewBackendExecutionFailedError(string(StrategyDataParallel), err)
	}

	recipes, validCount := assembleRecipes(req, candidates, buf)
	return models.SearchResult{
		Recipes:      recipes,
		LimitReached: batchCap > 0 && validCount >= batchCap,
	}, stats, nil
}
