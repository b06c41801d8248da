// internal/solver/batch.go
package solver

import (
	"flavor-solver/internal/models"
)

// candidateGenerator enumerates concrete combinations for the data-parallel
// path. It walks the same case-split as the sequential search but with no
// flavor bounds and no requirement checks, so it over-generates: every true
// solution is among its output, most candidates are not solutions. A
// candidate is a flat list of stock indices in ascending order, one entry per
// unit used.
type candidateGenerator struct {
	stocks   []models.Stock
	batchCap int
	current  []int
	out      [][]int
	capped   bool
}

// generateCandidates returns up to batchCap candidates and whether generation
// stopped before the space was exhausted. batchCap <= 0 means unbounded.
func generateCandidates(stocks []models.Stock, slots, batchCap int) ([][]int, bool) {
	g := &candidateGenerator{
		stocks:   stocks,
		batchCap: batchCap,
		current:  make([]int, 0, slots),
	}
	g.walk(0, slots)
	return g.out, g.capped
}

func (g *candidateGenerator) walk(idx, remaining int) {
	if remaining == 0 || idx == len(g.stocks) {
		if g.batchCap > 0 && len(g.out) >= g.batchCap {
			g.capped = true
			return
		}
		g.out = append(g.out, append([]int(nil), g.current...))
		return
	}

	maxUse := minInt(g.stocks[idx].Available, remaining)
	pushed := 0
	for use := 0; use <= maxUse; use++ {
		if use > 0 {
			g.current = append(g.current, idx)
			pushed++
		}
		g.walk(idx+1, remaining-use)
		if g.capped {
			break
		}
	}
	g.current = g.current[:len(g.current)-pushed]
}

// assembleRecipes turns evaluator output back into Recipes. Valid candidates
// are kept only when their highest-indexed ingredient is load-bearing, which
// reproduces exactly the recipes the tree search records: dropping every unit
// of the last ingredient must break the requirement. The second return value
// is the raw evaluator valid count, before that filter.
func assembleRecipes(req Request, candidates [][]int, buf *evalBuffers) ([]models.Recipe, int) {
	var recipes []models.Recipe
	validCount := 0
	for row, cand := range candidates {
		if buf.valid[row] == 0 {
			continue
		}
		validCount++
		if !lastIngredientNecessary(cand, buf, row) {
			continue
		}
		recipes = append(recipes, candidateRecipe(req, cand))
	}
	return recipes, validCount
}

// lastIngredientNecessary reports whether removing all units of the
// candidate's highest stock index leaves at least one requirement dimension
// unmet. The empty candidate has nothing to remove and always passes.
func lastIngredientNecessary(cand []int, buf *evalBuffers, row int) bool {
	if len(cand) == 0 {
		return true
	}
	last := cand[len(cand)-1]
	lastUse := 0
	for i := len(cand) - 1; i >= 0 && cand[i] == last; i-- {
		lastUse++
	}
	totals := row * models.NumDimensions
	flavors := last * models.NumDimensions
	for d := 0; d < models.NumDimensions; d++ {
		reduced := buf.totals[totals+d] - int32(lastUse)*buf.flavorValues[flavors+d]
		if reduced < buf.requirement[d] {
			return true
		}
	}
	return false
}

// candidateRecipe re-groups a flat index list into (Ingredient, Used) pairs.
// The list is sorted by construction, so runs of equal indices are
// consecutive.
func candidateRecipe(req Request, cand []int) models.Recipe {
	recipe := models.Recipe{Requirement: req.Requirement}
	for i := 0; i < len(cand); {
		j := i
		for j < len(cand) && cand[j] == cand[i] {
			j++
		}
		recipe.Entries = append(recipe.Entries, models.RecipeEntry{
			Ingredient: req.Stocks[cand[i]].Ingredient,
			Used:       j - i,
		})
		i = j
	}
	return recipe
}
