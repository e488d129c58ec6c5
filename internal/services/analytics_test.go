package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "superstore.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics(nil, nil)
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.loader == nil {
		t.Error("loader should be initialized")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}

	ds, err := a.Load(context.Background())
	if err != nil || ds.Len() != 0 {
		t.Errorf("default analytics should hold an empty dataset, got %d records, err %v", ds.Len(), err)
	}
}

func TestAnalytics_Dashboard(t *testing.T) {
	a := NewAnalytics(nil, testLogger())
	a.SetDataset(scenarioDataset())

	dash := a.Dashboard(context.Background(), models.FilterSelection{
		Regions:    []string{"West", "East"},
		Categories: []string{"Furniture", "Technology"},
	})

	if dash.Error != "" {
		t.Fatalf("unexpected error: %s", dash.Error)
	}
	if dash.Metrics.SalesDisplay != "$300.00" {
		t.Errorf("sales display = %q, want $300.00", dash.Metrics.SalesDisplay)
	}
	if dash.Metrics.ProfitDisplay != "$5.00" {
		t.Errorf("profit display = %q, want $5.00", dash.Metrics.ProfitDisplay)
	}
	if dash.Metrics.RowCount != 2 || dash.Metrics.DatasetRecords != 2 {
		t.Errorf("unexpected counts: %+v", dash.Metrics)
	}
	if dash.Selection.TrendCategory != models.AllCategories {
		t.Errorf("trend category should default to All, got %q", dash.Selection.TrendCategory)
	}
	if len(dash.SalesByState) != 2 || len(dash.SalesByCategory) != 2 || len(dash.CategoryCounts) != 2 {
		t.Error("aggregates should have two groups each")
	}
	if len(dash.MonthlyTrend) != 2 || len(dash.ProfitVsDiscount) != 2 || len(dash.Preview) != 2 {
		t.Error("trend, scatter and preview should cover both rows")
	}
	if len(dash.Options.TrendCategories) != 3 {
		t.Errorf("trend options = %v", dash.Options.TrendCategories)
	}
}

func TestAnalytics_DashboardTrendCategory(t *testing.T) {
	a := NewAnalytics(nil, testLogger())
	a.SetDataset(scenarioDataset())

	sel := a.DefaultSelection(context.Background())
	sel.TrendCategory = "Technology"
	dash := a.Dashboard(context.Background(), sel)

	if len(dash.MonthlyTrend) != 1 || dash.MonthlyTrend[0].Month != "2024-02" {
		t.Errorf("trend = %+v", dash.MonthlyTrend)
	}
}

func TestAnalytics_LoadFromCSV(t *testing.T) {
	csv := `Order Date,Region,Category,State,Sales,Profit,Discount
1/15/2024,West,Furniture,California,100,10,0.1
2/10/2024,East,Technology,New York,200,-5,0.2`

	path := createTempCSV(t, csv)
	loader := dataset.NewLoader(dataset.NewFileSource(path), dataset.Options{DropInvalidDates: true}, testLogger())
	a := NewAnalytics(loader, testLogger())

	dash := a.Dashboard(context.Background(), a.DefaultSelection(context.Background()))
	if dash.Error != "" {
		t.Fatalf("unexpected error: %s", dash.Error)
	}
	if !dash.Metrics.TotalSales.Equal(dec("300")) {
		t.Errorf("total sales = %s, want 300", dash.Metrics.TotalSales)
	}

	stats := a.Stats(context.Background())
	if stats["record_count"] != 2 {
		t.Errorf("record_count = %v, want 2", stats["record_count"])
	}
	if _, ok := stats["load_error"]; ok {
		t.Error("stats should not report a load error")
	}
}

func TestAnalytics_LoadFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.csv")
	loader := dataset.NewLoader(dataset.NewFileSource(missing), dataset.Options{}, testLogger())
	a := NewAnalytics(loader, testLogger())

	ds, err := a.Load(context.Background())
	if !dataset.IsKind(err, dataset.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if ds.Len() != 0 {
		t.Error("expected an empty dataset")
	}

	dash := a.Dashboard(context.Background(), models.FilterSelection{
		Regions:    []string{"West"},
		Categories: []string{"Furniture"},
	})
	if dash.Error == "" {
		t.Error("dashboard should carry the load error")
	}
	if !dash.Metrics.TotalSales.IsZero() || !dash.Metrics.TotalProfit.IsZero() {
		t.Error("metrics should be zero after a failed load")
	}
	if dash.Metrics.SalesDisplay != "$0.00" {
		t.Errorf("sales display = %q, want $0.00", dash.Metrics.SalesDisplay)
	}
	if dash.SalesByState == nil || len(dash.SalesByState) != 0 {
		t.Error("aggregates should be empty, not nil")
	}

	view, err := a.View(context.Background(), a.DefaultSelection(context.Background()))
	if err == nil || len(view) != 0 {
		t.Error("View should report the load error with an empty view")
	}

	if _, ok := a.Stats(context.Background())["load_error"]; !ok {
		t.Error("stats should report the load error")
	}
}

func TestAnalytics_EmptySelection(t *testing.T) {
	a := NewAnalytics(nil, testLogger())
	a.SetDataset(scenarioDataset())

	dash := a.Dashboard(context.Background(), models.FilterSelection{})
	if dash.Error != "" {
		t.Fatalf("empty selection is not an error, got %q", dash.Error)
	}
	if dash.Metrics.RowCount != 0 || !dash.Metrics.TotalSales.IsZero() {
		t.Errorf("empty selection should yield zero metrics, got %+v", dash.Metrics)
	}
	if len(dash.Options.Regions) != 2 {
		t.Error("options should still list the full domain")
	}
}
