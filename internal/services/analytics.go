package services

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/format"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

// Analytics binds the dataset loader to the aggregation engine. Every call
// recomputes its view from the loaded dataset.
type Analytics struct {
	mu     sync.RWMutex
	loader *dataset.Loader
	logger *slog.Logger
}

func NewAnalytics(loader *dataset.Loader, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	if loader == nil {
		loader = dataset.NewStaticLoader(dataset.Empty())
	}
	return &Analytics{
		loader: loader,
		logger: logger,
	}
}

// SetDataset replaces the loader with one holding ds.
func (a *Analytics) SetDataset(ds *dataset.Dataset) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loader = dataset.NewStaticLoader(ds)
}

// Load returns the process dataset, loading it on first use.
func (a *Analytics) Load(ctx context.Context) (*dataset.Dataset, error) {
	a.mu.RLock()
	loader := a.loader
	a.mu.RUnlock()
	return loader.Load(ctx)
}

// Options lists the filter control values.
func (a *Analytics) Options(ctx context.Context) (models.Options, error) {
	ds, err := a.Load(ctx)
	regions, categories := Domain(ds)
	return models.Options{
		Regions:         nonNil(regions),
		Categories:      nonNil(categories),
		TrendCategories: TrendCategories(categories),
	}, err
}

// DefaultSelection selects the full domain of the loaded dataset.
func (a *Analytics) DefaultSelection(ctx context.Context) models.FilterSelection {
	ds, _ := a.Load(ctx)
	return DefaultSelection(ds)
}

// View returns the filtered view for sel.
func (a *Analytics) View(ctx context.Context, sel models.FilterSelection) ([]models.Record, error) {
	ds, err := a.Load(ctx)
	if err != nil {
		return []models.Record{}, err
	}
	return Filter(ds, sel), nil
}

// Dashboard computes every metric and aggregate for sel. When the dataset
// failed to load, the result carries the error message and zero metrics and
// nothing else is computed.
func (a *Analytics) Dashboard(ctx context.Context, sel models.FilterSelection) models.Dashboard {
	ctx, span := observability.StartSpan(ctx, "analytics.dashboard")
	defer span.End(a.logger)

	start := time.Now()
	if sel.TrendCategory == "" {
		sel.TrendCategory = models.AllCategories
	}

	options, err := a.Options(ctx)
	if err != nil {
		msg := err.Error()
		if le, ok := dataset.AsLoadError(err); ok {
			msg = le.Message()
		}
		span.SetError(err)
		return emptyDashboard(sel, options, msg)
	}

	ds, _ := a.Load(ctx)
	view := Filter(ds, sel)

	totalSales := TotalSales(view)
	totalProfit := TotalProfit(view)

	dash := models.Dashboard{
		Selection: sel,
		Options:   options,
		Metrics: models.Metrics{
			TotalSales:     totalSales,
			TotalProfit:    totalProfit,
			SalesDisplay:   format.Currency(totalSales),
			ProfitDisplay:  format.Currency(totalProfit),
			RowCount:       len(view),
			DatasetRecords: ds.Len(),
		},
		SalesByState:     SalesByState(view),
		SalesByCategory:  SalesByCategory(view),
		CategoryCounts:   TransactionCountByCategory(view),
		MonthlyTrend:     MonthlySalesTrend(view, sel.TrendCategory),
		ProfitVsDiscount: ProfitVsDiscount(view),
		Preview:          Preview(view, PreviewRows),
	}

	span.SetTag("rows", strconv.Itoa(len(view)))
	a.logger.DebugContext(ctx, "dashboard computed",
		"regions", len(sel.Regions),
		"categories", len(sel.Categories),
		"trend_category", sel.TrendCategory,
		"rows", len(view),
		"duration", time.Since(start),
	)
	return dash
}

// Stats reports the loaded dataset for monitoring.
func (a *Analytics) Stats(ctx context.Context) map[string]any {
	a.mu.RLock()
	loader := a.loader
	a.mu.RUnlock()

	ds, err := loader.Load(ctx)
	regions, categories := Domain(ds)
	stats := loader.Stats()

	out := map[string]any{
		"source":        loader.SourceName(),
		"record_count":  ds.Len(),
		"loaded_at":     ds.LoadedAt(),
		"regions":       len(regions),
		"categories":    len(categories),
		"rows_read":     stats.Rows,
		"rows_skipped":  stats.Skipped,
		"missing_dates": stats.MissingDates,
		"dropped_dates": stats.DroppedDates,
	}
	if err != nil {
		out["load_error"] = err.Error()
	}
	return out
}

func emptyDashboard(sel models.FilterSelection, options models.Options, msg string) models.Dashboard {
	return models.Dashboard{
		Selection: sel,
		Options:   options,
		Metrics: models.Metrics{
			SalesDisplay:  format.Currency(TotalSales(nil)),
			ProfitDisplay: format.Currency(TotalProfit(nil)),
		},
		SalesByState:     []models.StateSales{},
		SalesByCategory:  []models.CategorySales{},
		CategoryCounts:   []models.CategoryCount{},
		MonthlyTrend:     []models.TrendPoint{},
		ProfitVsDiscount: []models.ScatterPoint{},
		Preview:          []models.MonthlyRecord{},
		Error:            msg,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
