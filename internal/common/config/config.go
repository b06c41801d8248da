// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// EngineConfig holds solver caps, pool sizing, and the thresholds the
// strategy selector consults in automatic mode.
type EngineConfig struct {
	SolutionCap          int `mapstructure:"solution_cap"`
	BatchCap             int `mapstructure:"batch_cap"`
	MaxSlotsPerCandidate int `mapstructure:"max_slots_per_candidate"`
	Workers              int `mapstructure:"workers"` // 0 means one per available CPU

	// Backends are enabled unless excluded here; a disabled backend never
	// probes and the selector treats it as unavailable.
	DisableWorkerBackend bool `mapstructure:"disable_worker_backend"`
	DisableDataParallel  bool `mapstructure:"disable_data_parallel"`

	MinStocksForPartitioned  int `mapstructure:"min_stocks_for_partitioned"`
	MinSlotsForPartitioned   int `mapstructure:"min_slots_for_partitioned"`
	MinStocksForDataParallel int `mapstructure:"min_stocks_for_data_parallel"`
	MinSlotsForDataParallel  int `mapstructure:"min_slots_for_data_parallel"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CatalogConfig holds reference-data settings: cache TTL for ingredient and
// requirement lookups and the optional Elasticsearch name search.
type CatalogConfig struct {
	CacheTTL      int    `mapstructure:"cache_ttl"` // milliseconds
	SearchEnabled bool   `mapstructure:"search_enabled"`
	SearchIndex   string `mapstructure:"search_index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
