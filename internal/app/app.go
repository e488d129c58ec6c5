// Package app wires configuration to the dataset loader and analytics
// service shared by the web server and the report CLI.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/services"
)

func SourceOptions(cfg *config.Config) dataset.SourceOptions {
	return dataset.SourceOptions{
		HTTPClient:            &http.Client{Timeout: cfg.Data.HTTPTimeout},
		CopyDir:               cfg.Data.CacheDir,
		SheetsRange:           cfg.Google.SheetsRange,
		GoogleAPIKey:          cfg.Google.APIKey,
		GoogleCredentialsFile: cfg.Google.CredentialsFile,
		AWSRegion:             cfg.AWS.Region,
		AWSProfile:            cfg.AWS.Profile,
	}
}

// NewLoader builds the loader for the configured source. A source that
// cannot be constructed is kept as an unavailable source so the failure is
// reported through the normal load path.
func NewLoader(ctx context.Context, cfg *config.Config, logger *slog.Logger) *dataset.Loader {
	src, err := dataset.NewSource(ctx, cfg.Data.Source, SourceOptions(cfg))
	if err != nil {
		logger.Error("failed to configure data source", "source", cfg.Data.Source, "error", err)
		src = dataset.Unavailable(cfg.Data.Source, err)
	}

	return dataset.NewLoader(src, dataset.Options{
		DropInvalidDates: cfg.Data.DropInvalidDates,
		DateLayouts:      cfg.Data.DateLayouts,
		SnapshotDir:      cfg.Data.CacheDir,
	}, logger)
}

func NewAnalytics(ctx context.Context, cfg *config.Config, logger *slog.Logger) *services.Analytics {
	return services.NewAnalytics(NewLoader(ctx, cfg, logger), logger)
}

// Preload triggers the one-time dataset load and logs the outcome. A failure
// is not fatal; the dashboard reports it to viewers.
func Preload(ctx context.Context, analytics *services.Analytics, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	ds, err := analytics.Load(ctx)
	if err != nil {
		logger.Error("dataset unavailable", "error", err, "duration", time.Since(start))
		return err
	}
	logger.Info("dataset ready",
		"source", ds.Source(),
		"records", ds.Len(),
		"duration", time.Since(start),
	)
	return nil
}
