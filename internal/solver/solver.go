// Package solver finds every way to combine a bounded stock of ingredients
// into at most a fixed number of slots so that the summed flavor vector meets
// a requirement in all dimensions.
//
// Three execution strategies produce equivalent answers: a sequential
// backtracking search with branch-and-bound pruning, a partitioned variant
// that fans the same search out across a worker pool, and a data-parallel
// variant that enumerates bounded candidate combinations up front and
// evaluates them in one batch. The Selector picks among them per request and
// falls back to the sequential path whenever another backend fails.
//
// A search stops descending as soon as its running total meets the
// requirement: each reported recipe is recorded at the shallowest point where
// it satisfies the target, so no recipe in a result extends another one with
// additional later-indexed stocks. Using more units of the final stock than
// strictly needed still yields distinct recipes.
package solver

import (
	"fmt"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/models"
)

// Request carries the inputs of one search: the requirement to satisfy, the
// stock snapshot to draw from, and the slot limit. The stock list is treated
// as a fixed-order, read-only snapshot for the duration of the search.
type Request struct {
	Requirement models.Requirement
	Stocks      []models.Stock
	Slots       int
}

// Strategy identifies which execution path produced a result.
type Strategy string

const (
	StrategySequential   Strategy = "sequential"
	StrategyPartitioned  Strategy = "partitioned"
	StrategyDataParallel Strategy = "data_parallel"
)

// Stats describes how a search executed. NodesExplored covers the
// backtracking strategies; Candidates covers the data-parallel one.
type Stats struct {
	Strategy      Strategy `json:"strategy"`
	NodesExplored int      `json:"nodesExplored"`
	Partitions    int      `json:"partitions,omitempty"`
	Candidates    int      `json:"candidates,omitempty"`
	FellBack      bool     `json:"fellBack,omitempty"`
}

// validateRequest rejects malformed input. Anything else the solvers absorb:
// an empty stock list, a zero slot limit, and an unreachable requirement all
// degenerate to normal, possibly empty results.
func validateRequest(req Request) error {
	if req.Slots < 0 {
		return errors.NewInvalidInputError(fmt.Sprintf("slot limit must not be negative, got %d", req.Slots))
	}
	if req.Requirement.Target.HasNegative() {
		return errors.NewInvalidInputError("requirement target has a negative dimension")
	}
	for i, stock := range req.Stocks {
		if stock.Available < 0 {
			return errors.NewInvalidInputError(
				fmt.Sprintf("stock %d (%s) has negative available count %d", i, stock.Ingredient.ID, stock.Available))
		}
		if stock.Ingredient.Flavors.HasNegative() {
			return errors.NewInvalidInputError(
				fmt.Sprintf("stock %d (%s) has a negative flavor dimension", i, stock.Ingredient.ID))
		}
	}
	return nil
}

// suffixMaxima returns, for every index i, the element-wise maximum flavor
// vector over stocks[i:]. The final entry is the zero vector. The bounding
// prune multiplies these by the remaining slot budget to get an upper bound
// no completion of a branch can exceed.
func suffixMaxima(stocks []models.Stock) []models.Vector {
	maxima := make([]models.Vector, len(stocks)+1)
	for i := len(stocks) - 1; i >= 0; i-- {
		maxima[i] = maxima[i+1].Max(stocks[i].Ingredient.Flavors)
	}
	return maxima
}

// buildRecipe turns the usage counts accumulated for stocks[:depth] into a
// Recipe, keeping only non-zero entries.
func buildRecipe(req Request, usage []int, depth int) models.Recipe {
	recipe := models.Recipe{Requirement: req.Requirement}
	for i := 0; i < depth; i++ {
		if usage[i] > 0 {
			recipe.Entries = append(recipe.Entries, models.RecipeEntry{
				Ingredient: req.Stocks[i].Ingredient,
				Used:       usage[i],
			})
		}
	}
	return recipe
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
