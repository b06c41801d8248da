// internal/solver/sequential.go
package solver

import "flavor-solver/internal/models"

// Sequential runs the exhaustive backtracking search in the caller's
// goroutine and returns every recipe satisfying the request, or a prefix of
// solutionCap recipes with LimitReached set when more exist. A non-positive
// cap means uncapped. Only malformed input produces an error.
func Sequential(req Request, solutionCap int) (models.SearchResult, error) {
	result, _, err := runSequential(req, solutionCap)
	return result, err
}

func runSequential(req Request, solutionCap int) (models.SearchResult, Stats, error) {
	stats := Stats{Strategy: StrategySequential}
	if err := validateRequest(req); err != nil {
		return models.SearchResult{}, stats, err
	}

	run := newSequentialRun(req, solutionCap)
	run.search(0, models.Vector{}, req.Slots)

	stats.NodesExplored = run.nodes
	return run.result(), stats, nil
}

// sequentialRun holds the mutable state of one depth-first search: the usage
// counts along the current path, the recipes found so far, and the
// per-suffix flavor maxima the bounding prune multiplies out.
type sequentialRun struct {
	req       Request
	target    models.Vector
	cap       int
	suffixMax []models.Vector
	usage     []int
	recipes   []models.Recipe
	limitHit  bool
	nodes     int
}

func newSequentialRun(req Request, solutionCap int) *sequentialRun {
	return &sequentialRun{
		req:       req,
		target:    req.Requirement.Target,
		cap:       solutionCap,
		suffixMax: suffixMaxima(req.Stocks),
		usage:     make([]int, len(req.Stocks)),
	}
}

// search visits the node where stocks[:idx] have fixed usage counts, acc is
// their summed flavor contribution, and remaining slots are still free.
// Recipes are recorded at the shallowest node whose accumulator meets the
// target; such a node is never descended from, so no reported recipe extends
// another with additional later-indexed stocks.
func (r *sequentialRun) search(idx int, acc models.Vector, remaining int) {
	r.nodes++

	// The cap is checked on entry at every node so a full result set
	// unwinds the search before any further work.
	if r.cap > 0 && len(r.recipes) >= r.cap {
		r.limitHit = true
		return
	}

	if acc.Meets(r.target) {
		r.recipes = append(r.recipes, buildRecipe(r.req, r.usage, idx))
		return
	}

	if remaining == 0 || idx == len(r.req.Stocks) {
		return
	}

	flavors := r.req.Stocks[idx].Ingredient.Flavors
	maxUse := minInt(r.req.Stocks[idx].Available, remaining)
	next := acc
	for use := 0; use <= maxUse; use++ {
		if use > 0 {
			next = next.Add(flavors)
		}
		left := remaining - use

		// Bounding prune: grant every free slot the best per-dimension value
		// among the not-yet-considered stocks; if even that relaxation misses
		// the target the branch cannot succeed. A larger use of the current
		// stock can still pass, so failing the bound skips this count only.
		if !next.Add(r.suffixMax[idx+1].Scale(left)).Meets(r.target) {
			continue
		}

		r.usage[idx] = use
		r.search(idx+1, next, left)
		if r.limitHit {
			break
		}
	}
}

func (r *sequentialRun) result() models.SearchResult {
	return models.SearchResult{
		Recipes:      r.recipes,
		LimitReached: r.limitHit,
	}
}
