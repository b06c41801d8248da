// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flavor-solver/internal/catalog"
	"flavor-solver/internal/common/config"
	"flavor-solver/internal/common/database"
	"flavor-solver/internal/common/logger"
	"flavor-solver/internal/models"
	"flavor-solver/internal/server"
	"flavor-solver/internal/solver"
)

// skipUnlessE2E keeps the suite out of ordinary test runs; it needs live
// PostgreSQL and Redis on localhost.
func skipUnlessE2E(t *testing.T) {
	t.Helper()
	if os.Getenv("E2E") == "" {
		t.Skip("set E2E=1 to run against live services")
	}
}

const seedExport = `{
  "ingredients": [
    {"id": "berry-a", "name": "Sweet Berry", "level": 12, "calories": 28,
     "flavors": {"sweet": 3, "fresh": 1}},
    {"id": "pepper-b", "name": "Fire Pepper", "level": 20, "calories": 40,
     "flavors": {"spicy": 4}, "special": true},
    {"id": "leaf-c", "name": "Crisp Leaf", "level": 5, "calories": 15,
     "flavors": {"sweet": 1, "fresh": 2}},
    {"id": "plum-d", "name": "Sour Plum", "level": 9, "calories": 22,
     "flavors": {"sour": 3, "sweet": 1}}
  ],
  "requirements": [
    {"id": "req-salad", "name": "Morning Salad", "target": {"sweet": 3, "fresh": 1}},
    {"id": "req-feast", "name": "Evening Feast", "target": {"sweet": 6, "fresh": 3}}
  ]
}`

func TestFullE2E(t *testing.T) {
	skipUnlessE2E(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Log("🚀 Starting full E2E test with real services...")

	// 🔧 Force localhost so the suite runs against a local compose stack.
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"

	pg, redisClient := assertServicesConnectivity(t, ctx, cfg)
	defer pg.Close()
	defer redisClient.Close()

	createDatabaseTables(t, ctx, pg)

	log := logger.NewNoOpLogger()
	store := catalog.NewStore(pg.GetDB())
	cache := catalog.NewCache(store, redisClient.GetClient(), time.Minute, log)
	search := catalog.NewSearch(store, nil, cfg.Catalog.SearchIndex, log)

	t.Run("import", func(t *testing.T) {
		importer := catalog.NewImporter(cache, nil, log)
		summary, err := importer.Import(ctx, []byte(seedExport))

		require.NoError(t, err)
		assert.Equal(t, 4, summary.Ingredients)
		assert.Equal(t, 2, summary.Requirements)
	})

	selector := solver.NewSelector(cfg.Engine, log, nil)
	defer selector.Teardown()

	srv, err := server.New(server.Deps{
		Catalog:  cache,
		Search:   search,
		Selector: selector,
		Logger:   log,
	})
	require.NoError(t, err)

	api := httptest.NewServer(srv.Routes())
	defer api.Close()

	t.Run("solve by requirement", func(t *testing.T) {
		body := `{
			"requirement_id": "req-salad",
			"stocks": [
				{"ingredient_id": "berry-a", "count": 2},
				{"ingredient_id": "leaf-c", "count": 3}
			],
			"slots": 4
		}`
		resp := postJSON(t, api.URL+"/v1/solve", body)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var solveResp struct {
			Recipes []struct {
				Entries []struct {
					IngredientID string `json:"ingredient_id"`
					Used         int    `json:"used"`
				} `json:"entries"`
			} `json:"recipes"`
			LimitReached bool `json:"limit_reached"`
			Stats        struct {
				Strategy string `json:"strategy"`
			} `json:"stats"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&solveResp))

		assert.NotEmpty(t, solveResp.Recipes, "seeded stocks can satisfy req-salad")
		assert.False(t, solveResp.LimitReached)
		assert.NotEmpty(t, solveResp.Stats.Strategy)
	})

	t.Run("solve with inline target and forced strategy", func(t *testing.T) {
		body := `{
			"target": {"sweet": 6, "fresh": 3},
			"stocks": [
				{"ingredient_id": "berry-a", "count": 3},
				{"ingredient_id": "leaf-c", "count": 3},
				{"ingredient_id": "plum-d", "count": 2}
			],
			"slots": 5,
			"options": {"strategy": "partitioned"}
		}`
		resp := postJSON(t, api.URL+"/v1/solve", body)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var solveResp struct {
			Recipes []json.RawMessage `json:"recipes"`
			Stats   struct {
				Strategy string `json:"strategy"`
			} `json:"stats"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&solveResp))

		assert.NotEmpty(t, solveResp.Recipes)
		assert.Equal(t, "partitioned", solveResp.Stats.Strategy)
	})

	t.Run("list ingredients", func(t *testing.T) {
		resp, err := http.Get(api.URL + "/v1/ingredients")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var listResp struct {
			Ingredients []models.Ingredient `json:"ingredients"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listResp))
		assert.GreaterOrEqual(t, len(listResp.Ingredients), 4)
	})

	t.Run("get requirement", func(t *testing.T) {
		resp, err := http.Get(api.URL + "/v1/requirements/req-feast")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var req models.Requirement
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&req))
		assert.Equal(t, "Evening Feast", req.Name)
		assert.Equal(t, models.Vector{Sweet: 6, Fresh: 3}, req.Target)
	})

	t.Run("cached ingredient survives a direct row change", func(t *testing.T) {
		// Warm the cache, mutate the row behind its back, and confirm the
		// stale entry is served until an upsert invalidates it.
		first, err := cache.GetIngredient(ctx, "berry-a")
		require.NoError(t, err)

		_, err = pg.GetDB().ExecContext(ctx,
			`UPDATE ingredients SET calories = calories + 1 WHERE id = $1`, "berry-a")
		require.NoError(t, err)

		second, err := cache.GetIngredient(ctx, "berry-a")
		require.NoError(t, err)
		assert.Equal(t, first.Calories, second.Calories)

		require.NoError(t, cache.UpsertIngredient(ctx, first))
	})

	t.Run("health and metrics", func(t *testing.T) {
		for _, path := range []string{"/health", "/ready", "/metrics"} {
			resp, err := http.Get(api.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
	})

	t.Log("✅ Full E2E flow passed")
}

func assertServicesConnectivity(t *testing.T, ctx context.Context, cfg *config.Config) (*database.PostgresClient, *database.RedisClient) {
	t.Log("🔍 Checking service connectivity...")

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "❌ PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "❌ PostgreSQL ping failed")
	t.Log("✅ PostgreSQL connected")

	redisClient, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "❌ Redis client creation failed")
	require.NoError(t, redisClient.Ping(ctx), "❌ Redis ping failed")
	t.Log("✅ Redis connected")

	return pg, redisClient
}

func createDatabaseTables(t *testing.T, ctx context.Context, pg *database.PostgresClient) {
	t.Log("🔧 Creating catalog tables...")

	db := pg.GetDB()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS ingredients (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			calories INTEGER NOT NULL DEFAULT 0,
			sweet INTEGER NOT NULL DEFAULT 0,
			spicy INTEGER NOT NULL DEFAULT 0,
			sour INTEGER NOT NULL DEFAULT 0,
			bitter INTEGER NOT NULL DEFAULT 0,
			fresh INTEGER NOT NULL DEFAULT 0,
			special BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS requirements (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			sweet INTEGER NOT NULL DEFAULT 0,
			spicy INTEGER NOT NULL DEFAULT 0,
			sour INTEGER NOT NULL DEFAULT 0,
			bitter INTEGER NOT NULL DEFAULT 0,
			fresh INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, query := range queries {
		_, err := db.ExecContext(ctx, query)
		require.NoError(t, err, "❌ Failed to create table")
	}

	t.Log("✅ Catalog tables ready")
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	return resp
}

// ==========================
// Benchmarks
// ==========================

// BenchmarkSelectorAuto measures the full selection path, strategy choice
// included. The per-engine benchmarks live next to the engines.
func BenchmarkSelectorAuto(b *testing.B) {
	selector := solver.NewSelector(config.DefaultEngine(), logger.NewNoOpLogger(), nil)
	defer selector.Teardown()

	flavors := []models.Vector{
		{Sweet: 3, Fresh: 1},
		{Spicy: 4},
		{Sweet: 1, Fresh: 2},
		{Sour: 3, Sweet: 1},
		{Bitter: 2, Fresh: 1},
		{Sweet: 2, Sour: 1},
	}
	stocks := make([]models.Stock, len(flavors))
	for i, f := range flavors {
		stocks[i] = models.Stock{
			Ingredient: models.Ingredient{
				ID:       fmt.Sprintf("ing-%d", i),
				Name:     fmt.Sprintf("Ingredient %d", i),
				Calories: 20 + i,
				Flavors:  f,
			},
			Available: 3,
		}
	}
	req := solver.Request{
		Requirement: models.Requirement{Target: models.Vector{Sweet: 9, Fresh: 4}},
		Stocks:      stocks,
		Slots:       6,
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := selector.Solve(context.Background(), req, solver.Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
