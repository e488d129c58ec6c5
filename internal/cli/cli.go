// Package cli implements the report command: a terminal summary, file
// exports and a SQLite import of the sales dataset.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"superstore-dashboard/internal/app"
	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/console"
	"superstore-dashboard/internal/export"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
	"superstore-dashboard/internal/storage"
)

type App struct {
	rootCmd *cobra.Command
	version string

	configFile string
	source     string
	regions    []string
	categories []string
	trend      string
	quiet      bool
}

func NewApp(version string) *App {
	a := &App{version: version}

	rootCmd := &cobra.Command{
		Use:           "report",
		Short:         "Superstore sales reports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			console.SetOutput(cmd.ErrOrStderr())
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "superstore report version: %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	flags.StringVarP(&a.source, "source", "s", "", "Data source URI (overrides DATA_SOURCE)")
	flags.StringSliceVarP(&a.regions, "region", "r", nil, "Regions to include (default: all)")
	flags.StringSliceVarP(&a.categories, "category", "c", nil, "Categories to include (default: all)")
	flags.StringVarP(&a.trend, "trend", "t", models.AllCategories, "Category for the monthly trend, or All")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "Only log errors")

	rootCmd.AddCommand(a.summaryCmd(), a.exportCmd(), a.importCmd())

	a.rootCmd = rootCmd
	return a
}

func (a *App) ExecuteContext(ctx context.Context) error {
	return a.rootCmd.ExecuteContext(ctx)
}

// SetArgs and SetOutput exist for tests.
func (a *App) SetArgs(args []string) { a.rootCmd.SetArgs(args) }

func (a *App) SetOutput(w io.Writer) {
	a.rootCmd.SetOut(w)
	a.rootCmd.SetErr(w)
}

func (a *App) loadConfig() (*config.Config, *slog.Logger, error) {
	if a.configFile != "" {
		if err := os.Setenv("CONFIG_FILE", a.configFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if a.source != "" {
		cfg.Data.Source = a.source
	}
	if a.quiet {
		cfg.Logger.Level = "error"
	}
	return cfg, observability.NewLoggerTo(os.Stderr, cfg.Logger), nil
}

// selection applies the filter flags over the full domain. A flag given
// with an empty value selects nothing.
func (a *App) selection(cmd *cobra.Command, defaults models.FilterSelection) models.FilterSelection {
	sel := defaults
	if cmd.Flags().Changed("region") {
		sel.Regions = a.regions
	}
	if cmd.Flags().Changed("category") {
		sel.Categories = a.categories
	}
	sel.TrendCategory = a.trend
	return sel
}

// dashboard loads the dataset and computes the dashboard for the flags.
func (a *App) dashboard(cmd *cobra.Command) (*services.Analytics, models.Dashboard, models.FilterSelection, error) {
	cfg, logger, err := a.loadConfig()
	if err != nil {
		return nil, models.Dashboard{}, models.FilterSelection{}, err
	}

	ctx := cmd.Context()
	analytics := app.NewAnalytics(ctx, cfg, logger)

	status := console.StartStatus(fmt.Sprintf("Loading %s", cfg.Data.Source))
	if err := app.Preload(ctx, analytics, cfg.Data.LoadTimeout, logger); err != nil {
		status.Fail(err.Error())
		return nil, models.Dashboard{}, models.FilterSelection{}, err
	}
	status.Success("Dataset loaded")
	warnSkipped(analytics.Stats(ctx))

	sel := a.selection(cmd, analytics.DefaultSelection(ctx))
	return analytics, analytics.Dashboard(ctx, sel), sel, nil
}

func (a *App) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print metrics and grouped sales to the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dash, _, err := a.dashboard(cmd)
			if err != nil {
				return err
			}
			return console.Summary(cmd.OutOrStdout(), dash)
		},
	}
}

func (a *App) exportCmd() *cobra.Command {
	var (
		types []string
		dir   string
		name  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered view as CSV, JSON or PDF reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := export.ParseFormats(strings.Join(types, ","))
			if err != nil {
				return err
			}

			analytics, dash, sel, err := a.dashboard(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ds, _ := analytics.Load(ctx)
			view, err := analytics.View(ctx, sel)
			if err != nil {
				return err
			}

			if name == "" {
				name = "superstore-report-" + time.Now().Format("20060102-150405")
			}
			report := export.Report{
				Title:       "Superstore Sales Report",
				Source:      ds.Source(),
				GeneratedAt: time.Now(),
				Dashboard:   dash,
				Rows:        services.DeriveMonth(view),
			}

			console.LogInfo("Writing %d orders to %s", len(report.Rows), dir)
			paths, err := export.WriteAll(ctx, dir, name, formats, report)
			if err != nil {
				return err
			}
			for _, p := range paths {
				console.LogSuccess("Saved %s", p)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&types, "type", "y", []string{"csv"}, "Report types: csv, json, pdf")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to save the report files")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Base name of the report files (without extension)")
	return cmd
}

func (a *App) importCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the data source into a SQLite database (read back with sqlite://<path>)",
		RunE: func(cmd *cobra.Command, args []string) error {
			analytics, _, _, err := a.dashboard(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ds, err := analytics.Load(ctx)
			if err != nil {
				return err
			}

			count, err := importDataset(ctx, dbPath, ds.Records())
			if err != nil {
				return err
			}
			console.LogSuccess("Imported %d orders into %s", count, dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "data/superstore.db", "SQLite database path")
	return cmd
}

func importDataset(ctx context.Context, dbPath string, records []models.Record) (int, error) {
	repo, err := storage.Open(ctx, dbPath)
	if err != nil {
		return 0, err
	}
	defer repo.Close()

	if err := repo.ReplaceOrders(ctx, records); err != nil {
		return 0, err
	}
	return repo.CountOrders(ctx)
}

// warnSkipped reports rows the loader could not use.
func warnSkipped(stats map[string]any) {
	if n, _ := stats["rows_skipped"].(int); n > 0 {
		console.LogWarning("%d rows skipped: missing fields or invalid amounts", n)
	}
	if n, _ := stats["dropped_dates"].(int); n > 0 {
		console.LogWarning("%d rows dropped for an invalid order date", n)
	}
}
