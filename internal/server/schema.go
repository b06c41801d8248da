// internal/server/schema.go

package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var nonNegativeInteger = map[string]interface{}{
	"type":    "integer",
	"minimum": 0,
}

var flavorVectorSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"sweet":  nonNegativeInteger,
		"spicy":  nonNegativeInteger,
		"sour":   nonNegativeInteger,
		"bitter": nonNegativeInteger,
		"fresh":  nonNegativeInteger,
	},
}

// solveRequestSchema is the structural contract of POST /v1/solve. The
// either/or between requirement_id and target is checked in the handler
// where the message can be clearer than a schema combinator's.
var solveRequestSchema = map[string]interface{}{
	"$schema":              "http://json-schema.org/draft-07/schema#",
	"type":                 "object",
	"required":             []string{"stocks", "slots"},
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"requirement_id": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"target": flavorVectorSchema,
		"stocks": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":                 "object",
				"required":             []string{"ingredient_id", "count"},
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"ingredient_id": map[string]interface{}{
						"type":      "string",
						"minLength": 1,
					},
					"count": nonNegativeInteger,
				},
			},
		},
		"slots": nonNegativeInteger,
		"options": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]interface{}{
				"strategy": map[string]interface{}{
					"type": "string",
					"enum": []string{strategyAuto, strategySequential, strategyPartitioned, strategyDataParallel},
				},
				"batch_size":   nonNegativeInteger,
				"solution_cap": nonNegativeInteger,
			},
		},
	},
}

func compileSolveSchema() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(solveRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile solve request schema: %w", err)
	}
	return schema, nil
}

// validateAgainst runs a document through the compiled schema and flattens
// the violation list into one message.
func validateAgainst(schema *gojsonschema.Schema, body []byte) (string, bool) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Sprintf("request is not valid JSON: %v", err), false
	}
	if result.Valid() {
		return "", true
	}

	violations := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		violations[i] = desc.String()
	}
	return strings.Join(violations, "; "), false
}
