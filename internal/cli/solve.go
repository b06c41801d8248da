package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"flavor-solver/internal/catalog"
	"flavor-solver/internal/common/config"
	"flavor-solver/internal/common/logger"
	"flavor-solver/internal/models"
	"flavor-solver/internal/solver"
)

var (
	solveDataFile    string
	solveRequirement string
	solveTarget      string
	solveStocks      []string
	solveSlots       int
	solveStrategy    string
	solveSolutionCap int
	solveBatchSize   int
	solveJSON        bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Find ingredient combinations for a flavor requirement",
	Long: `Searches a local game-data export for every combination of the given
stocks whose summed flavor meets the requirement. The requirement comes
from the export by ID or as an inline target vector.`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&solveDataFile, "data", "", "path to the game-data export (required)")
	solveCmd.Flags().StringVarP(&solveRequirement, "requirement", "r", "", "requirement ID from the export")
	solveCmd.Flags().StringVarP(&solveTarget, "target", "t", "", "inline target, e.g. sweet=10,fresh=5")
	solveCmd.Flags().StringArrayVarP(&solveStocks, "stock", "s", nil, "stock entry as id=count (repeatable)")
	solveCmd.Flags().IntVar(&solveSlots, "slots", 0, "slot limit for each recipe (required)")
	solveCmd.Flags().StringVar(&solveStrategy, "strategy", "auto", "execution strategy: auto, sequential, partitioned or data_parallel")
	solveCmd.Flags().IntVar(&solveSolutionCap, "solution-cap", 0, "stop after this many recipes (0 = configured default)")
	solveCmd.Flags().IntVar(&solveBatchSize, "batch-size", 0, "candidate batch size for the data-parallel strategy")
	solveCmd.Flags().BoolVar(&solveJSON, "json", false, "output the result as JSON")
	_ = solveCmd.MarkFlagRequired("data")
	_ = solveCmd.MarkFlagRequired("slots")
	solveCmd.MarkFlagsOneRequired("requirement", "target")
	solveCmd.MarkFlagsMutuallyExclusive("requirement", "target")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(solveDataFile)
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}
	export, err := catalog.ParseExport(data)
	if err != nil {
		return fmt.Errorf("failed to parse data file: %w", err)
	}

	requirement, err := resolveRequirementArg(export)
	if err != nil {
		return err
	}
	stocks, err := resolveStockArgs(export)
	if err != nil {
		return err
	}
	opts, err := strategyOptions()
	if err != nil {
		return err
	}

	selector := solver.NewSelector(config.DefaultEngine(), logger.NewNoOpLogger(), nil)
	defer selector.Teardown()

	result, stats, err := selector.Solve(context.Background(), solver.Request{
		Requirement: requirement,
		Stocks:      stocks,
		Slots:       solveSlots,
	}, opts)
	if err != nil {
		return fmt.Errorf("solve failed: %w", err)
	}

	if solveJSON {
		return outputSolveJSON(cmd, result, stats)
	}
	return outputSolveTable(cmd, result, stats)
}

func resolveRequirementArg(export catalog.Export) (models.Requirement, error) {
	if solveRequirement != "" {
		req, ok := export.Requirement(solveRequirement)
		if !ok {
			return models.Requirement{}, fmt.Errorf("requirement %q not found in %s", solveRequirement, solveDataFile)
		}
		return req, nil
	}

	target, err := parseTargetArg(solveTarget)
	if err != nil {
		return models.Requirement{}, err
	}
	return models.Requirement{Target: target}, nil
}

// parseTargetArg reads an inline target like "sweet=10,fresh=5". Unnamed
// dimensions stay zero.
func parseTargetArg(raw string) (models.Vector, error) {
	var target models.Vector
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return models.Vector{}, fmt.Errorf("malformed target entry %q, want flavor=value", part)
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return models.Vector{}, fmt.Errorf("target %s must be a non-negative integer, got %q", key, value)
		}
		switch strings.ToLower(key) {
		case "sweet":
			target.Sweet = n
		case "spicy":
			target.Spicy = n
		case "sour":
			target.Sour = n
		case "bitter":
			target.Bitter = n
		case "fresh":
			target.Fresh = n
		default:
			return models.Vector{}, fmt.Errorf("unknown flavor %q", key)
		}
	}
	return target, nil
}

func resolveStockArgs(export catalog.Export) ([]models.Stock, error) {
	stocks := make([]models.Stock, 0, len(solveStocks))
	for _, raw := range solveStocks {
		id, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("malformed stock entry %q, want id=count", raw)
		}
		count, err := strconv.Atoi(value)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("stock count for %s must be a non-negative integer, got %q", id, value)
		}
		ing, ok := export.Ingredient(id)
		if !ok {
			return nil, fmt.Errorf("ingredient %q not found in %s", id, solveDataFile)
		}
		stocks = append(stocks, models.Stock{Ingredient: ing, Available: count})
	}
	return stocks, nil
}

func strategyOptions() (solver.Options, error) {
	opts := solver.Options{
		BatchSize:   solveBatchSize,
		SolutionCap: solveSolutionCap,
	}
	switch solveStrategy {
	case "", "auto":
	case "sequential":
		opts.ForceSequential = true
	case "partitioned":
		opts.ForceParallel = true
	case "data_parallel":
		opts.ForceDataParallel = true
	default:
		return solver.Options{}, fmt.Errorf("unknown strategy %q", solveStrategy)
	}
	return opts, nil
}

func outputSolveJSON(cmd *cobra.Command, result models.SearchResult, stats solver.Stats) error {
	payload := struct {
		Recipes      []models.Recipe `json:"recipes"`
		LimitReached bool            `json:"limit_reached"`
		Stats        struct {
			Strategy      string `json:"strategy"`
			NodesExplored int    `json:"nodes_explored"`
			Partitions    int    `json:"partitions,omitempty"`
			Candidates    int    `json:"candidates,omitempty"`
			FellBack      bool   `json:"fell_back,omitempty"`
		} `json:"stats"`
	}{Recipes: result.Recipes, LimitReached: result.LimitReached}
	payload.Stats.Strategy = string(stats.Strategy)
	payload.Stats.NodesExplored = stats.NodesExplored
	payload.Stats.Partitions = stats.Partitions
	payload.Stats.Candidates = stats.Candidates
	payload.Stats.FellBack = stats.FellBack

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSolveTable(cmd *cobra.Command, result models.SearchResult, stats solver.Stats) error {
	if len(result.Recipes) == 0 {
		cmd.Println("No recipes found.")
		return nil
	}

	cmd.Printf("Recipes (%d, strategy %s):\n\n", len(result.Recipes), stats.Strategy)
	for i, recipe := range result.Recipes {
		parts := make([]string, 0, len(recipe.Entries))
		for _, entry := range recipe.Entries {
			parts = append(parts, fmt.Sprintf("%dx %s", entry.Used, entry.Ingredient.Name))
		}
		line := strings.Join(parts, ", ")
		if line == "" {
			line = "(empty recipe)"
		}
		cmd.Printf("  [%d] %s\n", i+1, line)
		cmd.Printf("      flavor %s | slots %d | calories %d\n",
			formatVector(recipe.TotalFlavor()), recipe.SlotsUsed(), recipe.TotalCalories())
	}
	if result.LimitReached {
		cmd.Println()
		cmd.Println("Solution cap reached; more combinations may exist.")
	}
	return nil
}

var flavorNames = [models.NumDimensions]string{"sweet", "spicy", "sour", "bitter", "fresh"}

func formatVector(v models.Vector) string {
	parts := make([]string, 0, models.NumDimensions)
	for i, value := range v.Values() {
		if value != 0 {
			parts = append(parts, fmt.Sprintf("%s %d", flavorNames[i], value))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
