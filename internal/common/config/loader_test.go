// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
app:
  name: flavor-solver
database:
  postgres:
    host: localhost
    port: 5432
    database: flavors
    user: solver
  redis:
    address: localhost:6379
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	viper.Reset()
	cfg, err := LoadFromFile(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 200, cfg.Engine.SolutionCap)
	assert.Equal(t, 4096, cfg.Engine.BatchCap)
	assert.Equal(t, 8, cfg.Engine.MaxSlotsPerCandidate)
	assert.Equal(t, 0, cfg.Engine.Workers, "workers should stay 0 so the pool sizes itself")
	assert.Equal(t, 4, cfg.Engine.MinStocksForPartitioned)
	assert.Equal(t, 3, cfg.Engine.MinSlotsForPartitioned)
	assert.Equal(t, 8, cfg.Engine.MinStocksForDataParallel)
	assert.Equal(t, 5, cfg.Engine.MinSlotsForDataParallel)
	assert.Equal(t, 600000, cfg.Catalog.CacheTTL)
	assert.Equal(t, "ingredients", cfg.Catalog.SearchIndex)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 25, cfg.Database.Postgres.MaxConnections)
}

func TestLoadFromFile_OverridesDefaults(t *testing.T) {
	viper.Reset()
	cfg, err := LoadFromFile(writeConfigFile(t, minimalConfig+`
engine:
  solution_cap: 50
  batch_cap: 1024
  workers: 2
  min_stocks_for_data_parallel: 12
`))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Engine.SolutionCap)
	assert.Equal(t, 1024, cfg.Engine.BatchCap)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, 12, cfg.Engine.MinStocksForDataParallel)
	assert.Equal(t, 5, cfg.Engine.MinSlotsForDataParallel, "untouched threshold keeps its default")
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectedErr string
	}{
		{
			name: "missing postgres host",
			content: `
database:
  postgres:
    database: flavors
    user: solver
  redis:
    address: localhost:6379
`,
			expectedErr: "database.postgres.host is required",
		},
		{
			name: "missing redis address",
			content: `
database:
  postgres:
    host: localhost
    database: flavors
    user: solver
`,
			expectedErr: "database.redis.address is required",
		},
		{
			name: "search enabled without elasticsearch",
			content: minimalConfig + `
catalog:
  search_enabled: true
`,
			expectedErr: "database.elasticsearch.addresses or url is required",
		},
		{
			name: "negative max slots per candidate",
			content: minimalConfig + `
engine:
  max_slots_per_candidate: -1
`,
			expectedErr: "engine.max_slots_per_candidate must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			_, err := LoadFromFile(writeConfigFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestDefaultEngine(t *testing.T) {
	engine := DefaultEngine()

	assert.Equal(t, 200, engine.SolutionCap)
	assert.Equal(t, 4096, engine.BatchCap)
	assert.Equal(t, 8, engine.MaxSlotsPerCandidate)
	assert.Equal(t, 0, engine.Workers)
	assert.False(t, engine.DisableWorkerBackend)
	assert.False(t, engine.DisableDataParallel)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "flavors",
		User:     "solver",
		Password: "secret",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=solver password=secret dbname=flavors sslmode=require",
		p.GetDSN())
}

func TestElasticsearchConfig_GetURL(t *testing.T) {
	assert.Equal(t, "", ElasticsearchConfig{}.GetURL())
	assert.Equal(t, "http://es:9200", ElasticsearchConfig{Addresses: []string{"http://es:9200"}}.GetURL())
	assert.Equal(t, "http://direct:9200", ElasticsearchConfig{
		URL:       "http://direct:9200",
		Addresses: []string{"http://es:9200"},
	}.GetURL())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
