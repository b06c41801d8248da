// internal/catalog/search_test.go
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/common/logger"
	"flavor-solver/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

const testIndex = "flavor-ingredients"

// newTestESClient points a real client at a local test server. The product
// header is what the v8 client checks before trusting a response.
func newTestESClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func writeSearchHits(w http.ResponseWriter, ingredients ...models.Ingredient) {
	type hit struct {
		Source models.Ingredient `json:"_source"`
	}
	hits := make([]hit, 0, len(ingredients))
	for _, ing := range ingredients {
		hits = append(hits, hit{Source: ing})
	}

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"hits": map[string]interface{}{"hits": hits},
	})
}

// ==========================
// Query Path
// ==========================

func TestSearch_NoClientScansStore(t *testing.T) {
	store, mock := newTestStore(t)
	search := NewSearch(store, nil, "", logger.NewNoOpLogger())

	want := createTestIngredient("berry-a", "Sweet Berry", models.Vector{Sweet: 3})
	rows := addIngredientRow(sqlmock.NewRows(ingredientColumns), want)
	mock.ExpectQuery(`FROM ingredients\s+WHERE name ILIKE`).
		WithArgs("berry").
		WillReturnRows(rows)

	got, err := search.SearchIngredients(context.Background(), "berry")

	require.NoError(t, err)
	assert.Equal(t, []models.Ingredient{want}, got)
	assert.False(t, search.Indexed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_IndexQueryReturnsHits(t *testing.T) {
	store, mock := newTestStore(t)

	first := createTestIngredient("berry-a", "Sweet Berry", models.Vector{Sweet: 3})
	second := createTestIngredient("berry-b", "Sweetroot", models.Vector{Sweet: 2})

	es := newTestESClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/"+testIndex+"/_search", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "sweet", gjson.GetBytes(body, "query.match.name.query").String())

		writeSearchHits(w, first, second)
	})

	search := NewSearch(store, es, testIndex, logger.NewNoOpLogger())
	got, err := search.SearchIngredients(context.Background(), "sweet")

	require.NoError(t, err)
	assert.Equal(t, []models.Ingredient{first, second}, got)
	assert.True(t, search.Indexed())
	// The store is never consulted when the index answers.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_IndexErrorFallsBackToStore(t *testing.T) {
	store, mock := newTestStore(t)

	es := newTestESClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"search_phase_execution_exception"}}`))
	})

	want := createTestIngredient("berry-a", "Sweet Berry", models.Vector{Sweet: 3})
	rows := addIngredientRow(sqlmock.NewRows(ingredientColumns), want)
	mock.ExpectQuery(`FROM ingredients\s+WHERE name ILIKE`).
		WithArgs("berry").
		WillReturnRows(rows)

	search := NewSearch(store, es, testIndex, logger.NewNoOpLogger())
	got, err := search.SearchIngredients(context.Background(), "berry")

	require.NoError(t, err)
	assert.Equal(t, []models.Ingredient{want}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_UnreachableIndexFallsBackToStore(t *testing.T) {
	store, mock := newTestStore(t)

	// Nothing listens on the reserved port, so the transport errors out.
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{"http://127.0.0.1:1"}})
	require.NoError(t, err)

	want := createTestIngredient("berry-a", "Sweet Berry", models.Vector{Sweet: 3})
	rows := addIngredientRow(sqlmock.NewRows(ingredientColumns), want)
	mock.ExpectQuery(`FROM ingredients\s+WHERE name ILIKE`).
		WithArgs("berry").
		WillReturnRows(rows)

	search := NewSearch(store, es, testIndex, logger.NewNoOpLogger())
	got, err := search.SearchIngredients(context.Background(), "berry")

	require.NoError(t, err)
	assert.Equal(t, []models.Ingredient{want}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Indexing Path
// ==========================

func TestSearch_IndexIngredient_WritesDocument(t *testing.T) {
	store, _ := newTestStore(t)

	ing := createTestIngredient("berry-a", "Sweet Berry", models.Vector{Sweet: 3, Fresh: 1})

	var captured models.Ingredient
	es := newTestESClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/"+testIndex+"/_doc/berry-a", r.URL.Path)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	search := NewSearch(store, es, testIndex, logger.NewNoOpLogger())
	err := search.IndexIngredient(context.Background(), ing)

	require.NoError(t, err)
	assert.Equal(t, ing, captured)
}

func TestSearch_IndexIngredient_NoClientIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	search := NewSearch(store, nil, "", logger.NewNoOpLogger())

	err := search.IndexIngredient(context.Background(), createTestIngredient("berry-a", "Sweet Berry", models.Vector{}))

	assert.NoError(t, err)
}

func TestSearch_IndexIngredient_ErrorStatus(t *testing.T) {
	store, _ := newTestStore(t)

	es := newTestESClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"type":"cluster_block_exception"}}`))
	})

	search := NewSearch(store, es, testIndex, logger.NewNoOpLogger())
	err := search.IndexIngredient(context.Background(), createTestIngredient("berry-a", "Sweet Berry", models.Vector{}))

	assertErrorCode(t, err, errors.ErrCodeSearchQueryFailed)
}
