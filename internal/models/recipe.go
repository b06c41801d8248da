// internal/models/recipe.go
package models

// RecipeEntry records how many units of one ingredient a recipe uses.
type RecipeEntry struct {
	Ingredient Ingredient `json:"ingredient"`
	Used       int        `json:"used"`
}

// Recipe is a concrete assignment of ingredient counts whose summed flavors
// meet a requirement within the slot limit. Recipes are produced by a search
// and never mutated afterwards.
type Recipe struct {
	Requirement Requirement   `json:"requirement"`
	Entries     []RecipeEntry `json:"entries"`
}

// TotalFlavor sums the flavor contribution of every entry.
func (r Recipe) TotalFlavor() Vector {
	var total Vector
	for _, e := range r.Entries {
		total = total.Add(e.Ingredient.Flavors.Scale(e.Used))
	}
	return total
}

// SlotsUsed is the total unit count across all entries.
func (r Recipe) SlotsUsed() int {
	used := 0
	for _, e := range r.Entries {
		used += e.Used
	}
	return used
}

// TotalCalories sums calories across all entries.
func (r Recipe) TotalCalories() int {
	total := 0
	for _, e := range r.Entries {
		total += e.Ingredient.Calories * e.Used
	}
	return total
}

// SearchResult is the outcome of one search. When LimitReached is set the
// recipe list is a prefix of the full solution set, cut off at the cap.
type SearchResult struct {
	Recipes      []Recipe `json:"recipes"`
	LimitReached bool     `json:"limitReached"`
}
