package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flavor-solver/internal/catalog"
	"flavor-solver/internal/common/config"
	"flavor-solver/internal/common/database"
	"flavor-solver/internal/common/logger"
)

var (
	importDataFile   string
	importConfigFile string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a game-data export into the catalog",
	Long: `Parses a game-data JSON export and upserts its ingredients and
requirements into the catalog database. When the catalog name search is
enabled, each ingredient is also indexed.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importDataFile, "data", "", "path to the game-data export (required)")
	importCmd.Flags().StringVar(&importConfigFile, "config", "", "config file path (defaults to the standard search path)")
	_ = importCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(importDataFile)
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}
	// Reject a bad document before dialing the database.
	if _, err := catalog.ParseExport(data); err != nil {
		return fmt.Errorf("failed to parse data file: %w", err)
	}

	var cfg *config.Config
	if importConfigFile != "" {
		cfg, err = config.LoadFromFile(importConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewZapAdapter(logger.New("warn", "console"))
	ctx := context.Background()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}

	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}

	store := catalog.NewStore(pg.GetDB())
	writer := catalog.NewCache(store, redisClient.GetClient(), config.GetDuration(cfg.Catalog.CacheTTL), log)

	var search *catalog.Search
	if cfg.Catalog.SearchEnabled {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = esClient.Ping()
		}
		if err != nil {
			cmd.PrintErrf("elasticsearch unavailable, skipping indexing: %v\n", err)
		} else {
			search = catalog.NewSearch(store, esClient.Client, cfg.Catalog.SearchIndex, log)
		}
	}

	importer := catalog.NewImporter(writer, search, log)
	summary, err := importer.Import(ctx, data)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d ingredients and %d requirements.\n", summary.Ingredients, summary.Requirements)
	return nil
}
