// internal/solver/solver_test.go
package solver

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestStock(id string, available int, flavors models.Vector) models.Stock {
	return models.Stock{
		Ingredient: models.Ingredient{
			ID:      id,
			Name:    id,
			Flavors: flavors,
		},
		Available: available,
	}
}

func createTestRequest(target models.Vector, slots int, stocks ...models.Stock) Request {
	return Request{
		Requirement: models.Requirement{ID: "req-1", Name: "test requirement", Target: target},
		Stocks:      stocks,
		Slots:       slots,
	}
}

// recipeKey flattens a recipe into "id:used,id:used" form so result sets can
// be compared across strategies regardless of discovery order.
func recipeKey(recipe models.Recipe) string {
	parts := make([]string, 0, len(recipe.Entries))
	for _, entry := range recipe.Entries {
		parts = append(parts, fmt.Sprintf("%s:%d", entry.Ingredient.ID, entry.Used))
	}
	return strings.Join(parts, ",")
}

func recipeKeys(result models.SearchResult) []string {
	keys := make([]string, 0, len(result.Recipes))
	for _, recipe := range result.Recipes {
		keys = append(keys, recipeKey(recipe))
	}
	sort.Strings(keys)
	return keys
}

// assertFeasible checks the recipe invariants: positive entry counts within
// stock availability, slot usage within the limit, and a flavor total that
// meets the requirement.
func assertFeasible(t *testing.T, req Request, result models.SearchResult) {
	t.Helper()

	available := make(map[string]int, len(req.Stocks))
	for _, stock := range req.Stocks {
		available[stock.Ingredient.ID] = stock.Available
	}

	for _, recipe := range result.Recipes {
		total := models.Vector{}
		slots := 0
		for _, entry := range recipe.Entries {
			require.GreaterOrEqual(t, entry.Used, 1, "entry counts must be positive")
			require.LessOrEqual(t, entry.Used, available[entry.Ingredient.ID], "entry exceeds stock availability")
			total = total.Add(entry.Ingredient.Flavors.Scale(entry.Used))
			slots += entry.Used
		}
		assert.LessOrEqual(t, slots, req.Slots, "recipe exceeds slot limit")
		assert.True(t, total.Meets(req.Requirement.Target), "recipe %q does not meet the requirement", recipeKey(recipe))
	}
}

// assertLastEntryNecessary checks the recording rule: dropping every unit of
// a recipe's final ingredient must leave the requirement unmet, otherwise a
// shallower node would have recorded it first.
func assertLastEntryNecessary(t *testing.T, req Request, result models.SearchResult) {
	t.Helper()
	for _, recipe := range result.Recipes {
		if len(recipe.Entries) == 0 {
			continue
		}
		last := recipe.Entries[len(recipe.Entries)-1]
		total := recipe.TotalFlavor().Values()
		lastContribution := last.Ingredient.Flavors.Scale(last.Used).Values()
		var values [models.NumDimensions]int
		for d := range values {
			values[d] = total[d] - lastContribution[d]
		}
		reduced := models.VectorFromValues(values)
		assert.False(t, reduced.Meets(req.Requirement.Target),
			"recipe %q would also qualify without its final ingredient", recipeKey(recipe))
	}
}

func assertInvalidInput(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok, "expected a StandardError, got %T", err)
	assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)
}

// ==========================
// Request Validation Tests
// ==========================

func TestValidateRequest(t *testing.T) {
	valid := createTestRequest(models.Vector{Sweet: 5}, 3,
		createTestStock("berry-a", 2, models.Vector{Sweet: 3}))

	tests := []struct {
		name    string
		mutate  func(req *Request)
		wantErr bool
	}{
		{
			name:    "well-formed request",
			mutate:  func(req *Request) {},
			wantErr: false,
		},
		{
			name:    "zero slots is allowed",
			mutate:  func(req *Request) { req.Slots = 0 },
			wantErr: false,
		},
		{
			name:    "empty stock list is allowed",
			mutate:  func(req *Request) { req.Stocks = nil },
			wantErr: false,
		},
		{
			name:    "negative slot limit",
			mutate:  func(req *Request) { req.Slots = -1 },
			wantErr: true,
		},
		{
			name:    "negative requirement dimension",
			mutate:  func(req *Request) { req.Requirement.Target.Spicy = -2 },
			wantErr: true,
		},
		{
			name:    "negative stock availability",
			mutate:  func(req *Request) { req.Stocks[0].Available = -1 },
			wantErr: true,
		},
		{
			name:    "negative ingredient flavor",
			mutate:  func(req *Request) { req.Stocks[0].Ingredient.Flavors.Fresh = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			req.Stocks = append([]models.Stock(nil), valid.Stocks...)
			tt.mutate(&req)

			err := validateRequest(req)
			if tt.wantErr {
				assertInvalidInput(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ==========================
// Helper Construction Tests
// ==========================

func TestSuffixMaxima(t *testing.T) {
	stocks := []models.Stock{
		createTestStock("berry-a", 1, models.Vector{Sweet: 3, Sour: 1}),
		createTestStock("berry-b", 1, models.Vector{Spicy: 2, Sour: 5}),
		createTestStock("berry-c", 1, models.Vector{Sweet: 1, Fresh: 4}),
	}

	maxima := suffixMaxima(stocks)

	require.Len(t, maxima, 4)
	assert.Equal(t, models.Vector{Sweet: 3, Spicy: 2, Sour: 5, Fresh: 4}, maxima[0])
	assert.Equal(t, models.Vector{Sweet: 1, Spicy: 2, Sour: 5, Fresh: 4}, maxima[1])
	assert.Equal(t, models.Vector{Sweet: 1, Fresh: 4}, maxima[2])
	assert.Equal(t, models.Vector{}, maxima[3])
}

func TestBuildRecipe_SkipsUnusedStocks(t *testing.T) {
	req := createTestRequest(models.Vector{}, 5,
		createTestStock("berry-a", 3, models.Vector{Sweet: 1}),
		createTestStock("berry-b", 3, models.Vector{Spicy: 1}),
		createTestStock("berry-c", 3, models.Vector{Sour: 1}),
	)

	recipe := buildRecipe(req, []int{2, 0, 1}, 3)

	require.Len(t, recipe.Entries, 2)
	assert.Equal(t, "berry-a", recipe.Entries[0].Ingredient.ID)
	assert.Equal(t, 2, recipe.Entries[0].Used)
	assert.Equal(t, "berry-c", recipe.Entries[1].Ingredient.ID)
	assert.Equal(t, 1, recipe.Entries[1].Used)
	assert.Equal(t, "req-1", recipe.Requirement.ID)
}
