package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

func testReport() Report {
	ds := dataset.New("test.csv", []models.Record{
		{OrderID: "CA-1", OrderDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), HasDate: true, Region: "West", Category: "Furniture", State: "California", Sales: decimal.RequireFromString("100.50"), Profit: decimal.RequireFromString("10"), Discount: decimal.RequireFromString("0.1"), Quantity: 2},
		{OrderID: "CA-2", OrderDate: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), HasDate: true, Region: "East", Category: "Technology", State: "New York", Sales: decimal.RequireFromString("200"), Profit: decimal.RequireFromString("-5"), Discount: decimal.RequireFromString("0.2")},
		{OrderID: "CA-3", OrderDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), HasDate: true, Region: "West", Category: "Furniture", State: "Oregon", Sales: decimal.RequireFromString("40"), Profit: decimal.RequireFromString("4"), Discount: decimal.RequireFromString("0")},
		{OrderID: "CA-4", OrderDate: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), HasDate: true, Region: "East", Category: "Technology", State: "New York", Sales: decimal.RequireFromString("80"), Profit: decimal.RequireFromString("12"), Discount: decimal.RequireFromString("0.05")},
	})

	a := services.NewAnalytics(nil, nil)
	a.SetDataset(ds)
	ctx := context.Background()
	sel := a.DefaultSelection(ctx)
	view, _ := a.View(ctx, sel)

	return Report{
		Title:       "Test Report",
		Source:      ds.Source(),
		GeneratedAt: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		Dashboard:   a.Dashboard(ctx, sel),
		Rows:        services.DeriveMonth(view),
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"csv", "csv", false},
		{"CSV, pdf ,json", "csv,pdf,json", false},
		{"csv,csv", "csv", false},
		{"xlsx", "", true},
		{" , ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormats(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormats(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			parts := make([]string, len(got))
			for i, f := range got {
				parts[i] = string(f)
			}
			if strings.Join(parts, ",") != tt.want {
				t.Errorf("ParseFormats(%q) = %v, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteCSVReadsBack(t *testing.T) {
	r := testReport()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, r.Rows); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	table, err := dataset.ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	records, stats, err := dataset.Decode(table, dataset.DecodeOptions{DropInvalidDates: true})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if stats.Skipped != 0 || len(records) != len(r.Rows) {
		t.Fatalf("read back %d records (%d skipped), want %d", len(records), stats.Skipped, len(r.Rows))
	}
	for i, rec := range records {
		want := r.Rows[i]
		if rec.OrderID != want.OrderID || !rec.Sales.Equal(want.Sales) || !rec.OrderDate.Equal(want.OrderDate) || rec.Quantity != want.Quantity {
			t.Errorf("record %d = %+v, want %+v", i, rec, want.Record)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testReport()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Title != "Test Report" || len(decoded.Rows) != 4 {
		t.Errorf("unexpected report: %s %d rows", decoded.Title, len(decoded.Rows))
	}
	if !decoded.Dashboard.Metrics.TotalSales.Equal(decimal.RequireFromString("420.50")) {
		t.Errorf("total sales = %s", decoded.Dashboard.Metrics.TotalSales)
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, testReport()); err != nil {
		t.Fatalf("WritePDF() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestWritePDFEmptyDashboard(t *testing.T) {
	r := testReport()
	r.Dashboard = models.Dashboard{Error: "Data source \"x.csv\" was not found."}
	r.Rows = nil

	var buf bytes.Buffer
	if err := WritePDF(&buf, r); err != nil {
		t.Fatalf("WritePDF() error = %v", err)
	}
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WriteAll(context.Background(), dir, "report", []Format{FormatCSV, FormatJSON, FormatPDF}, testReport())
	if err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("got %d paths", len(paths))
	}
	for i, ext := range []string{".csv", ".json", ".pdf"} {
		if filepath.Ext(paths[i]) != ext {
			t.Errorf("path %d = %s, want %s", i, paths[i], ext)
		}
		info, err := os.Stat(paths[i])
		if err != nil || info.Size() == 0 {
			t.Errorf("%s missing or empty: %v", paths[i], err)
		}
	}
}

func TestWriteAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WriteAll(ctx, t.TempDir(), "report", []Format{FormatCSV}, testReport())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WriteAll() error = %v, want context.Canceled", err)
	}
}

func TestChartsWithoutData(t *testing.T) {
	if _, err := BarChartPNG("empty", nil, nil); !errors.Is(err, ErrNoChartData) {
		t.Errorf("bar chart error = %v", err)
	}
	if _, err := BarChartPNG("zeros", []string{"a"}, []float64{0}); !errors.Is(err, ErrNoChartData) {
		t.Errorf("zero bar chart error = %v", err)
	}
	if _, err := PieChartPNG("empty", nil); !errors.Is(err, ErrNoChartData) {
		t.Errorf("pie chart error = %v", err)
	}
	single := []models.TrendPoint{{Month: "2024-01", Category: "Furniture", Sales: decimal.NewFromInt(5)}}
	if _, err := TrendChartPNG("single month", single); !errors.Is(err, ErrNoChartData) {
		t.Errorf("trend chart error = %v", err)
	}
	if _, err := ScatterChartPNG("empty", nil); !errors.Is(err, ErrNoChartData) {
		t.Errorf("scatter chart error = %v", err)
	}
}

func TestChartsRender(t *testing.T) {
	r := testReport()
	pngHeader := []byte("\x89PNG")

	labels, values := stateSeries(r.Dashboard.SalesByState)
	renders := map[string]func() ([]byte, error){
		"bar":     func() ([]byte, error) { return BarChartPNG("Sales by State", labels, values) },
		"pie":     func() ([]byte, error) { return PieChartPNG("Sales by Category", r.Dashboard.SalesByCategory) },
		"trend":   func() ([]byte, error) { return TrendChartPNG("Trend", r.Dashboard.MonthlyTrend) },
		"scatter": func() ([]byte, error) { return ScatterChartPNG("Scatter", r.Dashboard.ProfitVsDiscount) },
	}
	for name, render := range renders {
		t.Run(name, func(t *testing.T) {
			png, err := render()
			if err != nil {
				t.Fatalf("render error = %v", err)
			}
			if !bytes.HasPrefix(png, pngHeader) {
				t.Error("output is not a PNG")
			}
		})
	}
}
