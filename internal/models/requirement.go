package models

// Requirement is the minimum flavor total a recipe must reach in every
// dimension.
type Requirement struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Target Vector `json:"target"`
}
