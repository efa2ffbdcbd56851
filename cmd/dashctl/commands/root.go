package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"dashboard/internal/config"
	"dashboard/internal/dashboard"
	"dashboard/internal/engine"
	"dashboard/internal/salesdb"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	datasetArg string
	csvPath    string
)

var rootCmd = &cobra.Command{
	Use:   "dashctl",
	Short: "dashctl inspects the movie and sales datasets from the command line.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})))
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "dashboard.json5", "config file, merged with its .local variant")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	flags.StringVar(&datasetArg, "dataset", "movies", "dataset to read: movies or sales")
	flags.StringVar(&csvPath, "csv", "", "read the dataset from this CSV instead of the configured source")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadDataset reads the dataset selected by --dataset from --csv or, failing
// that, from the config.
func loadDataset(ctx context.Context) (*engine.Dataset, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	switch datasetArg {
	case "movies":
		path := cfg.Movies.CSV
		if csvPath != "" {
			path = csvPath
		}
		return dashboard.LoadMovies(path)
	case "sales":
		if csvPath != "" {
			return dashboard.LoadSalesCSV(csvPath)
		}
		if cfg.Sales.Database.Enabled() {
			db, err := salesdb.Open(ctx, cfg.Sales.Database)
			if err != nil {
				return nil, err
			}
			defer db.Close()
			return salesdb.Load(ctx, db)
		}
		if cfg.Sales.CSV == "" {
			return nil, fmt.Errorf("no sales source: pass --csv or configure sales.csv or sales.database")
		}
		return dashboard.LoadSalesCSV(cfg.Sales.CSV)
	}
	return nil, fmt.Errorf("unknown dataset %q, want movies or sales", datasetArg)
}
