// internal/catalog/search.go

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/common/logger"
	"flavor-solver/internal/models"
)

// Search resolves free-text ingredient lookups. With an Elasticsearch
// client it runs a fuzzy match against the ingredient index and falls back
// to the store's ILIKE scan when the query fails; without a client every
// lookup goes straight to the store. Indexing failures never fail an
// import, the index is a convenience copy of the store.
type Search struct {
	store *Store
	es    *elasticsearch.Client
	index string
	log   logger.Logger
}

// NewSearch creates a search adapter. es may be nil, in which case all
// lookups use the store scan and indexing is a no-op.
func NewSearch(store *Store, es *elasticsearch.Client, index string, log logger.Logger) *Search {
	return &Search{
		store: store,
		es:    es,
		index: index,
		log:   log,
	}
}

// Indexed reports whether an Elasticsearch client is configured.
func (s *Search) Indexed() bool {
	return s.es != nil
}

// SearchIngredients finds ingredients whose name matches the query.
func (s *Search) SearchIngredients(ctx context.Context, query string) ([]models.Ingredient, error) {
	if s.es == nil {
		return s.store.SearchIngredientsByName(ctx, query)
	}

	ingredients, err := s.searchIndex(ctx, query)
	if err != nil {
		s.log.Warn("index search failed, falling back to store scan", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return s.store.SearchIngredientsByName(ctx, query)
	}
	return ingredients, nil
}

func (s *Search) searchIndex(ctx context.Context, query string) ([]models.Ingredient, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"name": map[string]interface{}{
					"query":     query,
					"fuzziness": "AUTO",
				},
			},
		},
		"size": 50,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(fmt.Errorf("search returned status %s", res.Status()))
	}

	var envelope struct {
		Hits struct {
			Hits []struct {
				Source models.Ingredient `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}

	ingredients := make([]models.Ingredient, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		ingredients = append(ingredients, hit.Source)
	}
	return ingredients, nil
}

// IndexIngredient writes one ingredient document to the index, keyed by
// the ingredient ID so re-imports overwrite in place.
func (s *Search) IndexIngredient(ctx context.Context, ing models.Ingredient) error {
	if s.es == nil {
		return nil
	}

	payload, err := json.Marshal(ing)
	if err != nil {
		return errors.NewSearchQueryFailedError(err)
	}

	res, err := s.es.Index(
		s.index,
		bytes.NewReader(payload),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(ing.ID),
	)
	if err != nil {
		return errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchQueryFailedError(fmt.Errorf("index returned status %s", res.Status()))
	}
	return nil
}
