package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/welltegra/welltegra-api/internal/config"
	"github.com/welltegra/welltegra-api/internal/dataset"
	"github.com/welltegra/welltegra-api/internal/store/postgres"
	"github.com/welltegra/welltegra-api/internal/store/sqlite"
)

// importer is the dataset-import capability shared by the database-backed
// stores.
type importer interface {
	Import(ctx context.Context, ds dataset.Dataset) error
	Close() error
}

// NewLoadCmd creates the 'load' command that imports a dataset file into a
// SQLite or Postgres record store.
func NewLoadCmd() *cobra.Command {
	var (
		configPath  string
		datasetPath string
		driver      string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Import a dataset file into a sqlite or postgres store",
		Long: `Load a historical runs dataset (JSON) into a database-backed record
store, replacing any existing contents. The target driver and connection
settings come from the config file; --driver and --dataset override it.`,
		Example: `  # Import the sample dataset into a local SQLite file
  welltegra-api load --config config.example.yaml --driver sqlite

  # Import into Postgres (DSN resolved from the configured env var)
  welltegra-api load --driver postgres --dataset data/historical_runs.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), configPath, datasetPath, driver)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "dataset file (default: store.dataset from config)")
	cmd.Flags().StringVar(&driver, "driver", "", "target driver: sqlite or postgres (default: store.driver from config)")
	return cmd
}

func runLoad(ctx context.Context, configPath, datasetPath, driver string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if datasetPath == "" {
		datasetPath = cfg.Store.Dataset
	}
	if driver == "" {
		driver = cfg.Store.Driver
	}

	ds, err := dataset.Load(datasetPath)
	if err != nil {
		return err
	}
	runs, placements := ds.Split()

	var dst importer
	switch driver {
	case "sqlite":
		dst, err = sqlite.Open(cfg.Store.SQLitePath)
	case "postgres":
		dst, err = postgres.Open(ctx, cfg.Store.DSN())
	default:
		return fmt.Errorf("load: driver %q cannot be imported into: want sqlite or postgres", driver)
	}
	if err != nil {
		return err
	}
	defer dst.Close()

	if err := dst.Import(ctx, ds); err != nil {
		return err
	}

	slog.Info("dataset imported",
		"driver", driver,
		"dataset", datasetPath,
		"runs", len(runs),
		"tools", len(placements),
	)
	return nil
}
