package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"superstore-dashboard/internal/format"
	"superstore-dashboard/internal/models"
)

const (
	pageWidth     = 190.0
	previewInPDF  = 25
	statesInTable = 30
)

var (
	headerColor       = [3]int{40, 40, 40}
	headerTextColor   = [3]int{255, 255, 255}
	sectionTitleColor = [3]int{0, 0, 0}
	bodyTextColor     = [3]int{50, 50, 50}
	lineColor         = [3]int{200, 200, 200}
	lossColor         = [3]int{192, 0, 0}
)

type chartSpec struct {
	name   string
	render func() ([]byte, error)
	width  float64
}

// WritePDF renders the report: metrics, charts, the sales-by-state table and
// the first rows of the view.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	dash := r.Dashboard

	section := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+pageWidth, pdf.GetY())
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}

	pdf.AddPage()
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	title := r.Title
	if title == "" {
		title = "Superstore Sales Report"
	}
	pdf.CellFormat(0, 12, tr("  "+title), "", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Source: %s   Generated: %s", r.Source, r.GeneratedAt.Format("2006-01-02 15:04"))), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	section("Selection")
	pdf.MultiCell(pageWidth, 5, tr(fmt.Sprintf("Regions: %s\nCategories: %s\nTrend: %s",
		joinOrNone(dash.Selection.Regions),
		joinOrNone(dash.Selection.Categories),
		dash.Selection.TrendCategory,
	)), "", "L", false)
	pdf.Ln(4)

	section("Summary")
	if dash.Error != "" {
		pdf.SetTextColor(lossColor[0], lossColor[1], lossColor[2])
		pdf.MultiCell(pageWidth, 5, tr(dash.Error), "", "L", false)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.Ln(2)
	}
	metricWidth := pageWidth / 3
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(metricWidth, 7, "Total Sales", "B", 0, "L", false, 0, "")
	pdf.CellFormat(metricWidth, 7, "Total Profit", "B", 0, "L", false, 0, "")
	pdf.CellFormat(metricWidth, 7, "Orders", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(metricWidth, 12, tr(dash.Metrics.SalesDisplay), "", 0, "L", false, 0, "")
	if dash.Metrics.TotalProfit.IsNegative() {
		pdf.SetTextColor(lossColor[0], lossColor[1], lossColor[2])
	}
	pdf.CellFormat(metricWidth, 12, tr(dash.Metrics.ProfitDisplay), "", 0, "L", false, 0, "")
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(metricWidth, 12, format.Count(dash.Metrics.RowCount), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	charts := []chartSpec{
		{"sales_by_state", func() ([]byte, error) {
			labels, values := stateSeries(dash.SalesByState)
			return BarChartPNG("Sales by State", labels, values)
		}, pageWidth},
		{"sales_by_category", func() ([]byte, error) {
			return PieChartPNG("Sales by Category", dash.SalesByCategory)
		}, 110},
		{"category_counts", func() ([]byte, error) {
			labels, values := countSeries(dash.CategoryCounts)
			return BarChartPNG("Transactions by Category", labels, values)
		}, pageWidth},
		{"monthly_trend", func() ([]byte, error) {
			return TrendChartPNG("Monthly Sales Trend", dash.MonthlyTrend)
		}, pageWidth},
		{"profit_vs_discount", func() ([]byte, error) {
			return ScatterChartPNG("Profit vs Discount", dash.ProfitVsDiscount)
		}, pageWidth},
	}

	pdf.AddPage()
	section("Charts")
	for _, c := range charts {
		png, err := c.render()
		if errors.Is(err, ErrNoChartData) {
			continue
		}
		if err != nil {
			return fmt.Errorf("render %s chart: %w", c.name, err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader(c.name, opts, bytes.NewReader(png))
		pdf.ImageOptions(c.name, pdf.GetX(), pdf.GetY(), c.width, 0, true, opts, 0, "")
		pdf.Ln(4)
	}

	pdf.AddPage()
	section("Sales by State")
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(120, 7, "State", "B", 0, "L", false, 0, "")
	pdf.CellFormat(70, 7, "Sales", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for i, row := range dash.SalesByState {
		if i == statesInTable {
			pdf.CellFormat(0, 6, tr(fmt.Sprintf("... %d more", len(dash.SalesByState)-statesInTable)), "", 1, "L", false, 0, "")
			break
		}
		pdf.CellFormat(120, 6, tr(row.State), "", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, tr(format.Currency(row.Sales)), "", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	section("Filtered Data Preview")
	previewTable(pdf, tr, r.Rows)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}

func previewTable(pdf *gofpdf.Fpdf, tr func(string) string, rows []models.MonthlyRecord) {
	widths := []float64{24, 18, 22, 36, 34, 22, 20, 14}
	headers := []string{"Order Date", "Month", "Region", "State", "Category", "Sales", "Profit", "Disc."}

	pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		ln := 0
		if i == len(headers)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, h, "B", ln, "L", false, 0, "")
	}

	pdf.SetFont("Arial", "", 8)
	if len(rows) == 0 {
		pdf.CellFormat(0, 6, "No rows match the selection.", "", 1, "L", false, 0, "")
		return
	}
	for _, r := range rows[:min(len(rows), previewInPDF)] {
		date := ""
		if r.HasDate {
			date = r.OrderDate.Format("2006-01-02")
		}
		cells := []string{
			date, r.Month, r.Region, truncate(r.State, 20), truncate(r.Category, 18),
			format.Currency(r.Sales), format.Currency(r.Profit), format.Percent(r.Discount),
		}
		for i, c := range cells {
			ln := 0
			if i == len(cells)-1 {
				ln = 1
			}
			pdf.CellFormat(widths[i], 5, tr(c), "", ln, "L", false, 0, "")
		}
	}
}

func stateSeries(rows []models.StateSales) ([]string, []float64) {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.State
		values[i] = floatOf(r.Sales)
	}
	return labels, values
}

func countSeries(rows []models.CategoryCount) ([]string, []float64) {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Category
		values[i] = float64(r.Count)
	}
	return labels, values
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
