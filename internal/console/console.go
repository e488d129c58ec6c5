// Package console prints dashboard summaries to a terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"superstore-dashboard/internal/format"
	"superstore-dashboard/internal/models"
)

const (
	barWidth   = 40
	maxTopRows = 15
)

var (
	heading  = color.New(color.FgCyan, color.Bold).SprintFunc()
	positive = color.New(color.FgGreen, color.Bold).SprintFunc()
	negative = color.New(color.FgRed, color.Bold).SprintFunc()
	muted    = color.New(color.FgHiBlack).SprintFunc()
)

// output receives the log lines. Stdout stays free for command output.
var output io.Writer = os.Stderr

// SetOutput redirects the log lines.
func SetOutput(w io.Writer) {
	output = w
}

func LogInfo(msg string, a ...any) {
	pterm.Info.WithWriter(output).Printfln(msg, a...)
}

func LogWarning(msg string, a ...any) {
	pterm.Warning.WithWriter(output).Printfln(msg, a...)
}

func LogError(msg string, a ...any) {
	pterm.Error.WithWriter(output).Printfln(msg, a...)
}

func LogSuccess(msg string, a ...any) {
	pterm.Success.WithWriter(output).Printfln(msg, a...)
}

// Status is a running spinner. The zero value is a no-op.
type Status struct {
	spinner *pterm.SpinnerPrinter
}

func StartStatus(message string) *Status {
	spinner, _ := pterm.DefaultSpinner.WithWriter(output).Start(message)
	return &Status{spinner: spinner}
}

func (s *Status) Success(message string) {
	if s != nil && s.spinner != nil {
		s.spinner.Success(message)
	}
}

func (s *Status) Fail(message string) {
	if s != nil && s.spinner != nil {
		s.spinner.Fail(message)
	}
}

// Summary writes the metrics, the grouped sales tables and the monthly trend
// bars of dash to w.
func Summary(w io.Writer, dash models.Dashboard) error {
	var b strings.Builder

	fmt.Fprintln(&b, heading("Superstore Sales Summary"))
	fmt.Fprintf(&b, "%s %s\n", muted("Regions:"), joinOrNone(dash.Selection.Regions))
	fmt.Fprintf(&b, "%s %s\n", muted("Categories:"), joinOrNone(dash.Selection.Categories))
	fmt.Fprintln(&b)

	if dash.Error != "" {
		fmt.Fprintln(&b, negative(dash.Error))
		fmt.Fprintln(&b)
	}

	profit := positive(dash.Metrics.ProfitDisplay)
	if dash.Metrics.TotalProfit.IsNegative() {
		profit = negative(dash.Metrics.ProfitDisplay)
	}
	metrics, err := renderTable(pterm.TableData{
		{"Total Sales", "Total Profit", "Orders"},
		{dash.Metrics.SalesDisplay, profit, format.Count(dash.Metrics.RowCount)},
	})
	if err != nil {
		return err
	}
	b.WriteString(metrics)
	fmt.Fprintln(&b)

	if len(dash.SalesByState) > 0 {
		data := pterm.TableData{{"State", "Sales"}}
		for _, r := range dash.SalesByState[:min(len(dash.SalesByState), maxTopRows)] {
			data = append(data, []string{r.State, format.Currency(r.Sales)})
		}
		table, err := renderTable(data)
		if err != nil {
			return err
		}
		fmt.Fprintln(&b, heading("Sales by State"))
		b.WriteString(table)
		if extra := len(dash.SalesByState) - maxTopRows; extra > 0 {
			fmt.Fprintln(&b, muted(fmt.Sprintf("... %d more states", extra)))
		}
		fmt.Fprintln(&b)
	}

	if len(dash.SalesByCategory) > 0 {
		counts := make(map[string]int, len(dash.CategoryCounts))
		for _, c := range dash.CategoryCounts {
			counts[c.Category] = c.Count
		}
		data := pterm.TableData{{"Category", "Sales", "Transactions"}}
		for _, r := range dash.SalesByCategory {
			data = append(data, []string{r.Category, format.Currency(r.Sales), format.Count(counts[r.Category])})
		}
		table, err := renderTable(data)
		if err != nil {
			return err
		}
		fmt.Fprintln(&b, heading("Sales by Category"))
		b.WriteString(table)
		fmt.Fprintln(&b)
	}

	if bars := TrendBars(dash.MonthlyTrend); bars != "" {
		fmt.Fprintln(&b, heading("Monthly Sales Trend"))
		b.WriteString(bars)
	}

	_, err = io.WriteString(w, b.String())
	return err
}

// TrendBars renders the monthly trend as horizontal bars scaled to the
// largest month, one row per trend point.
func TrendBars(points []models.TrendPoint) string {
	maxSales := 0.0
	for _, p := range points {
		maxSales = max(maxSales, p.Sales.InexactFloat64())
	}
	if maxSales <= 0 {
		return ""
	}

	data := pterm.TableData{{"Month", "Category", "Sales", ""}}
	for _, p := range points {
		n := int(p.Sales.InexactFloat64() / maxSales * barWidth)
		data = append(data, []string{p.Month, p.Category, format.Currency(p.Sales), pterm.FgCyan.Sprint(strings.Repeat("█", max(n, 0)))})
	}
	out, err := renderTable(data)
	if err != nil {
		return ""
	}
	return out
}

func renderTable(data pterm.TableData) (string, error) {
	out, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	if err != nil {
		return "", err
	}
	return out + "\n", nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
