// internal/models/ingredient.go
package models

// Ingredient is reference data: loaded once and never mutated by a search.
type Ingredient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	Calories int    `json:"calories"`
	Flavors  Vector `json:"flavors"`
	Special  bool   `json:"special"`
}

// Stock pairs an ingredient with the number of units one search may draw
// from it. The stock list is treated as a fixed-order snapshot for the
// duration of a search.
type Stock struct {
	Ingredient Ingredient `json:"ingredient"`
	Available  int        `json:"available"`
}
