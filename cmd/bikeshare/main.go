package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cyclecraft/bikeshare/internal/config"
)

// @title Bike-share Analytics API
// @version 1.0
// @description Published bike-share trip analytics: result tables, analysis runs, charts and workbook export.
// @contact.email CycleCraft@company.com
// @BasePath /

var (
	v   *viper.Viper
	cfg config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v = config.New()

	root := &cobra.Command{
		Use:           "bikeshare",
		Short:         "Bike-share trip analytics: ingest, analyze and serve the dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("config")
			var err error
			if cfg, err = config.Load(v, file); err != nil {
				return err
			}
			config.SetupLogging(cfg.LogLevel)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("trips", config.DefaultTripsCSV, "trip CSV file")
	flags.String("small", "", "auxiliary CSV loaded into small_data")
	flags.String("analytic-db", config.DefaultAnalyticDB, "DuckDB file holding the trip table")
	flags.String("relational-db", config.DefaultRelationalDB, "SQLite file holding the result tables")
	flags.String("trip-table", config.DefaultTripTable, "name of the trip table")
	flags.Int("max-rows", config.DefaultMaxResultRows, "row cap of every result table")
	flags.Int("preview-rows", config.DefaultPreviewRows, "rows printed per result after analysis")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("output-dir", config.DefaultOutputDir, "directory for charts and workbooks")

	for key, flag := range map[string]string{
		"trips_csv":       "trips",
		"small_csv":       "small",
		"analytic_db":     "analytic-db",
		"relational_db":   "relational-db",
		"trip_table":      "trip-table",
		"max_result_rows": "max-rows",
		"preview_rows":    "preview-rows",
		"log_level":       "log-level",
		"output_dir":      "output-dir",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			log.Fatalf("bind flag %s: %v", flag, err)
		}
	}

	addCommands(root)
	return root
}
