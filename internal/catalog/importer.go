// internal/catalog/importer.go

package catalog

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/common/logger"
	"flavor-solver/internal/models"
)

// catalogWriter is the slice of the cache the importer needs. Writes go
// through the cache type so stale entries are invalidated as rows land.
type catalogWriter interface {
	UpsertIngredient(ctx context.Context, ing models.Ingredient) error
	UpsertRequirement(ctx context.Context, req models.Requirement) error
}

// Importer loads a game-data JSON export into the catalog. The export is a
// single document with an "ingredients" array and an optional
// "requirements" array:
//
//	{
//	  "ingredients": [
//	    {"id": "...", "name": "...", "level": 1, "calories": 28,
//	     "flavors": {"sweet": 3, "spicy": 0, "sour": 0, "bitter": 0, "fresh": 1},
//	     "special": false}
//	  ],
//	  "requirements": [
//	    {"id": "...", "name": "...",
//	     "target": {"sweet": 10, "spicy": 0, "sour": 0, "bitter": 0, "fresh": 5}}
//	  ]
//	}
//
// Rows are upserted one at a time so a re-import refreshes the catalog in
// place. search may be nil; when set, each ingredient is also indexed.
type Importer struct {
	writer catalogWriter
	search *Search
	log    logger.Logger
}

// ImportSummary counts the rows an import wrote.
type ImportSummary struct {
	Ingredients  int `json:"ingredients"`
	Requirements int `json:"requirements"`
}

// NewImporter creates an importer writing through the given catalog layer.
func NewImporter(writer catalogWriter, search *Search, log logger.Logger) *Importer {
	return &Importer{
		writer: writer,
		search: search,
		log:    log,
	}
}

// Import parses and loads one export document. Parsing stops at the first
// malformed entry so a bad file never half-applies silently; rows already
// upserted before the failure stay in place.
func (i *Importer) Import(ctx context.Context, data []byte) (ImportSummary, error) {
	if !gjson.ValidBytes(data) {
		return ImportSummary{}, errors.NewImportParseFailedError("document is not valid JSON")
	}

	root := gjson.ParseBytes(data)

	ingredients := root.Get("ingredients")
	if !ingredients.Exists() || !ingredients.IsArray() {
		return ImportSummary{}, errors.NewImportParseFailedError("missing ingredients array")
	}

	var summary ImportSummary
	var loadErr error

	ingredients.ForEach(func(_, v gjson.Result) bool {
		ing, err := parseIngredient(v, summary.Ingredients)
		if err != nil {
			loadErr = err
			return false
		}
		if err := i.writer.UpsertIngredient(ctx, ing); err != nil {
			loadErr = err
			return false
		}
		if i.search != nil {
			if err := i.search.IndexIngredient(ctx, ing); err != nil {
				i.log.Warn("ingredient indexing failed", map[string]interface{}{
					"ingredient_id": ing.ID,
					"error":         err.Error(),
				})
			}
		}
		summary.Ingredients++
		return true
	})
	if loadErr != nil {
		return summary, loadErr
	}

	root.Get("requirements").ForEach(func(_, v gjson.Result) bool {
		req, err := parseRequirement(v, summary.Requirements)
		if err != nil {
			loadErr = err
			return false
		}
		if err := i.writer.UpsertRequirement(ctx, req); err != nil {
			loadErr = err
			return false
		}
		summary.Requirements++
		return true
	})
	if loadErr != nil {
		return summary, loadErr
	}

	i.log.Info("catalog import complete", map[string]interface{}{
		"ingredients":  summary.Ingredients,
		"requirements": summary.Requirements,
	})
	return summary, nil
}

// Export is a parsed game-data document, not yet written anywhere.
type Export struct {
	Ingredients  []models.Ingredient
	Requirements []models.Requirement
}

// Ingredient looks up an ingredient by ID.
func (e Export) Ingredient(id string) (models.Ingredient, bool) {
	for _, ing := range e.Ingredients {
		if ing.ID == id {
			return ing, true
		}
	}
	return models.Ingredient{}, false
}

// Requirement looks up a requirement by ID.
func (e Export) Requirement(id string) (models.Requirement, bool) {
	for _, req := range e.Requirements {
		if req.ID == id {
			return req, true
		}
	}
	return models.Requirement{}, false
}

// ParseExport validates and parses a full export document without writing
// anything. Tools use it to solve against a local file and to reject a bad
// document before dialing the database.
func ParseExport(data []byte) (Export, error) {
	if !gjson.ValidBytes(data) {
		return Export{}, errors.NewImportParseFailedError("document is not valid JSON")
	}

	root := gjson.ParseBytes(data)

	ingredients := root.Get("ingredients")
	if !ingredients.Exists() || !ingredients.IsArray() {
		return Export{}, errors.NewImportParseFailedError("missing ingredients array")
	}

	var export Export
	var parseErr error

	ingredients.ForEach(func(_, v gjson.Result) bool {
		ing, err := parseIngredient(v, len(export.Ingredients))
		if err != nil {
			parseErr = err
			return false
		}
		export.Ingredients = append(export.Ingredients, ing)
		return true
	})
	if parseErr != nil {
		return Export{}, parseErr
	}

	root.Get("requirements").ForEach(func(_, v gjson.Result) bool {
		req, err := parseRequirement(v, len(export.Requirements))
		if err != nil {
			parseErr = err
			return false
		}
		export.Requirements = append(export.Requirements, req)
		return true
	})
	if parseErr != nil {
		return Export{}, parseErr
	}

	return export, nil
}

func parseIngredient(v gjson.Result, index int) (models.Ingredient, error) {
	ing := models.Ingredient{
		ID:       v.Get("id").String(),
		Name:     v.Get("name").String(),
		Level:    int(v.Get("level").Int()),
		Calories: int(v.Get("calories").Int()),
		Flavors:  parseVector(v.Get("flavors")),
		Special:  v.Get("special").Bool(),
	}
	if ing.ID == "" || ing.Name == "" {
		return models.Ingredient{}, errors.NewImportParseFailedError(
			fmt.Sprintf("ingredient %d: id and name are required", index))
	}
	if ing.Flavors.HasNegative() {
		return models.Ingredient{}, errors.NewImportParseFailedError(
			fmt.Sprintf("ingredient %q: flavor values must be non-negative", ing.ID))
	}
	return ing, nil
}

func parseRequirement(v gjson.Result, index int) (models.Requirement, error) {
	req := models.Requirement{
		ID:     v.Get("id").String(),
		Name:   v.Get("name").String(),
		Target: parseVector(v.Get("target")),
	}
	if req.ID == "" || req.Name == "" {
		return models.Requirement{}, errors.NewImportParseFailedError(
			fmt.Sprintf("requirement %d: id and name are required", index))
	}
	if req.Target.HasNegative() {
		return models.Requirement{}, errors.NewImportParseFailedError(
			fmt.Sprintf("requirement %q: target values must be non-negative", req.ID))
	}
	return req, nil
}

func parseVector(v gjson.Result) models.Vector {
	return models.Vector{
		Sweet:  int(v.Get("sweet").Int()),
		Spicy:  int(v.Get("spicy").Int()),
		Sour:   int(v.Get("sour").Int()),
		Bitter: int(v.Get("bitter").Int()),
		Fresh:  int(v.Get("fresh").Int()),
	}
}
