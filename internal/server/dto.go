// internal/server/dto.go

package server

import (
	"fmt"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/models"
	"flavor-solver/internal/solver"
)

// solveRequest is the wire form of a search. The requirement comes either
// from the catalog by ID or inline as a target vector; stocks reference
// catalog ingredients by ID.
type solveRequest struct {
	RequirementID string         `json:"requirement_id,omitempty"`
	Target        *models.Vector `json:"target,omitempty"`
	Stocks        []stockRequest `json:"stocks"`
	Slots         int            `json:"slots"`
	Options       solveOptions   `json:"options,omitempty"`
}

type stockRequest struct {
	IngredientID string `json:"ingredient_id"`
	Count        int    `json:"count"`
}

type solveOptions struct {
	Strategy    string `json:"strategy,omitempty"`
	BatchSize   int    `json:"batch_size,omitempty"`
	SolutionCap int    `json:"solution_cap,omitempty"`
}

// Strategy names accepted in requests. They match the names reported back
// in stats so a caller can pin exactly what a previous response ran.
const (
	strategyAuto         = "auto"
	strategySequential   = "sequential"
	strategyPartitioned  = "partitioned"
	strategyDataParallel = "data_parallel"
)

func (o solveOptions) toSolverOptions() (solver.Options, error) {
	opts := solver.Options{
		BatchSize:   o.BatchSize,
		SolutionCap: o.SolutionCap,
	}
	switch o.Strategy {
	case "", strategyAuto:
	case strategySequential:
		opts.ForceSequential = true
	case strategyPartitioned:
		opts.ForceParallel = true
	case strategyDataParallel:
		opts.ForceDataParallel = true
	default:
		return solver.Options{}, errors.NewInvalidInputError(fmt.Sprintf("unknown strategy %q", o.Strategy))
	}
	return opts, nil
}

type solveResponse struct {
	RequestID    string          `json:"request_id"`
	Requirement  requirementView `json:"requirement"`
	Recipes      []recipeView    `json:"recipes"`
	LimitReached bool            `json:"limit_reached"`
	Stats        searchStats     `json:"stats"`
}

type requirementView struct {
	ID     string        `json:"id,omitempty"`
	Name   string        `json:"name,omitempty"`
	Target models.Vector `json:"target"`
}

type recipeView struct {
	Entries       []entryView   `json:"entries"`
	TotalFlavor   models.Vector `json:"total_flavor"`
	SlotsUsed     int           `json:"slots_used"`
	TotalCalories int           `json:"total_calories"`
	Rating        string        `json:"rating"`
}

type entryView struct {
	IngredientID string `json:"ingredient_id"`
	Name         string `json:"name"`
	Used         int    `json:"used"`
}

type searchStats struct {
	Strategy      string `json:"strategy"`
	NodesExplored int    `json:"nodes_explored"`
	Partitions    int    `json:"partitions,omitempty"`
	Candidates    int    `json:"candidates,omitempty"`
	FellBack      bool   `json:"fell_back,omitempty"`
}

type ingredientsResponse struct {
	Ingredients []models.Ingredient `json:"ingredients"`
}

type requirementsResponse struct {
	Requirements []models.Requirement `json:"requirements"`
}

type backendStatus struct {
	Available bool   `json:"available"`
	InitError string `json:"init_error,omitempty"`
}

type backendsResponse struct {
	Worker       backendStatus `json:"worker"`
	DataParallel backendStatus `json:"data_parallel"`
}

// Rating grades how tightly a recipe lands on its target, for display only.
// The engine itself never ranks results.
const (
	ratingExact       = "exact"
	ratingTight       = "tight"
	ratingRich        = "rich"
	ratingExtravagant = "extravagant"
)

func ratingFor(total, target models.Vector) string {
	targetSum := vectorSum(target)
	excess := vectorSum(total) - targetSum
	switch {
	case excess <= 0:
		return ratingExact
	case excess*4 <= targetSum:
		return ratingTight
	case excess <= targetSum:
		return ratingRich
	default:
		return ratingExtravagant
	}
}

func vectorSum(v models.Vector) int {
	sum := 0
	for _, value := range v.Values() {
		sum += value
	}
	return sum
}

func newSolveResponse(requestID string, req models.Requirement, result models.SearchResult, stats solver.Stats) solveResponse {
	recipes := make([]recipeView, 0, len(result.Recipes))
	for _, recipe := range result.Recipes {
		recipes = append(recipes, newRecipeView(recipe, req.Target))
	}

	return solveResponse{
		RequestID: requestID,
		Requirement: requirementView{
			ID:     req.ID,
			Name:   req.Name,
			Target: req.Target,
		},
		Recipes:      recipes,
		LimitReached: result.LimitReached,
		Stats: searchStats{
			Strategy:      string(stats.Strategy),
			NodesExplored: stats.NodesExplored,
			Partitions:    stats.Partitions,
			Candidates:    stats.Candidates,
			FellBack:      stats.FellBack,
		},
	}
}

func newRecipeView(recipe models.Recipe, target models.Vector) recipeView {
	entries := make([]entryView, 0, len(recipe.Entries))
	for _, entry := range recipe.Entries {
		entries = append(entries, entryView{
			IngredientID: entry.Ingredient.ID,
			Name:         entry.Ingredient.Name,
			Used:         entry.Used,
		})
	}

	total := recipe.TotalFlavor()
	return recipeView{
		Entries:       entries,
		TotalFlavor:   total,
		SlotsUsed:     recipe.SlotsUsed(),
		TotalCalories: recipe.TotalCalories(),
		Rating:        ratingFor(total, target),
	}
}
