// Package templates renders the dashboard page and the fragments patched over
// SSE. Components write markup through the templ runtime and escape every
// dynamic value.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	templruntime "github.com/a-h/templ/runtime"

	"superstore-dashboard/internal/format"
	"superstore-dashboard/internal/models"
)

const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"
	chartScript    = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"

	refresh = `data-on:change="@get('/sse/dashboard')"`
)

const head = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Superstore Sales Dashboard</title>
<script type="module" src="` + datastarScript + `"></script>
<script src="` + chartScript + `"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;display:flex;min-height:100vh;background:#f6f7f9}
aside{width:260px;padding:1rem;background:#fff;border-right:1px solid #e2e4e8}
main{flex:1;padding:1rem 2rem}
fieldset{border:1px solid #e2e4e8;margin-bottom:1rem}
.metrics{display:flex;gap:1rem}
.metric{background:#fff;border:1px solid #e2e4e8;border-radius:6px;padding:1rem;min-width:200px}
.metric strong{display:block;font-size:1.6rem}
.loss{color:#b42318}
.error{background:#fef3f2;border:1px solid #fda29b;padding:1rem;border-radius:6px}
.charts{display:grid;grid-template-columns:1fr 1fr;gap:1rem;margin:1rem 0}
.charts canvas{background:#fff;border:1px solid #e2e4e8;border-radius:6px;padding:.5rem}
table{border-collapse:collapse;width:100%;background:#fff}
th,td{padding:.4rem .6rem;border-bottom:1px solid #e2e4e8;text-align:left}
</style>
</head>
`

const charts = `<div class="charts" data-effect="window.renderCharts &amp;&amp; window.renderCharts($_salesByState, $_salesByCategory, $_categoryCounts, $_monthlyTrend, $_profitDiscount)">
<canvas id="chart-state"></canvas>
<canvas id="chart-category"></canvas>
<canvas id="chart-count"></canvas>
<canvas id="chart-trend"></canvas>
<canvas id="chart-scatter"></canvas>
</div>
<h2>Filtered data preview</h2>
`

const foot = `</main>
<script>
window.charts = {};
window.renderCharts = function (byState, byCategory, counts, trend, scatter) {
  if (!window.Chart) return;
  const draw = (id, config) => {
    if (window.charts[id]) window.charts[id].destroy();
    window.charts[id] = new Chart(document.getElementById(id), config);
  };
  const num = (v) => parseFloat(v);
  draw("chart-state", {type: "bar", data: {labels: byState.map(r => r.state), datasets: [{label: "Sales by State", data: byState.map(r => num(r.sales))}]}});
  draw("chart-category", {type: "pie", data: {labels: byCategory.map(r => r.category), datasets: [{label: "Sales by Category", data: byCategory.map(r => num(r.sales))}]}});
  draw("chart-count", {type: "bar", data: {labels: counts.map(r => r.category), datasets: [{label: "Transactions by Category", data: counts.map(r => r.count)}]}});
  const months = [...new Set(trend.map(p => p.month))];
  const series = [...new Set(trend.map(p => p.category))];
  draw("chart-trend", {type: "line", data: {labels: months, datasets: series.map(c => ({label: c, data: months.map(m => { const p = trend.find(t => t.month === m && t.category === c); return p ? num(p.sales) : null; })}))}});
  draw("chart-scatter", {type: "scatter", data: {datasets: [{label: "Profit vs Discount", data: scatter.map(p => ({x: num(p.discount), y: num(p.profit)}))}]}});
};
</script>
</body>
</html>
`

// markup writes to a templ buffer and keeps the first write error.
type markup struct {
	w   io.Writer
	err error
}

func (m *markup) raw(s string) {
	if m.err == nil {
		_, m.err = io.WriteString(m.w, s)
	}
}

// text writes s escaped for an element body or a quoted attribute.
func (m *markup) text(s string, errs ...error) {
	v, err := templ.JoinStringErrs(s, errs...)
	if err != nil {
		if m.err == nil {
			m.err = err
		}
		return
	}
	m.raw(templ.EscapeString(v))
}

// component adapts body to a templ.Component that renders through a pooled
// buffer when w is not one already.
func component(body func(m *markup)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) (err error) {
		if err = ctx.Err(); err != nil {
			return err
		}
		buf, existing := templruntime.GetBuffer(w)
		if !existing {
			defer func() {
				if releaseErr := templruntime.ReleaseBuffer(buf); err == nil {
					err = releaseErr
				}
			}()
		}
		m := &markup{w: buf}
		body(m)
		return m.err
	})
}

// ChartSignals is the chart data patched into the page. The leading
// underscore keeps the signals out of requests sent back by the browser.
type ChartSignals struct {
	SalesByState    []models.StateSales    `json:"_salesByState"`
	SalesByCategory []models.CategorySales `json:"_salesByCategory"`
	CategoryCounts  []models.CategoryCount `json:"_categoryCounts"`
	MonthlyTrend    []models.TrendPoint    `json:"_monthlyTrend"`
	ProfitDiscount  []models.ScatterPoint  `json:"_profitDiscount"`
}

// NewChartSignals collects the chart series of dash.
func NewChartSignals(dash models.Dashboard) ChartSignals {
	return ChartSignals{
		SalesByState:    dash.SalesByState,
		SalesByCategory: dash.SalesByCategory,
		CategoryCounts:  dash.CategoryCounts,
		MonthlyTrend:    dash.MonthlyTrend,
		ProfitDiscount:  dash.ProfitVsDiscount,
	}
}

type pageSignals struct {
	Regions       []string `json:"regions"`
	Categories    []string `json:"categories"`
	TrendCategory string   `json:"trendCategory"`
	ChartSignals
}

// Dashboard renders the full page for dash.
func Dashboard(dash models.Dashboard) templ.Component {
	return templ.Join(
		templ.Raw(head),
		body(dash),
		Metrics(dash),
		templ.Raw(charts),
		Preview(dash.Preview),
		templ.Raw(foot),
	)
}

// body opens the page body with the initial signals and the filter sidebar.
func body(dash models.Dashboard) templ.Component {
	return component(func(m *markup) {
		m.raw(`<body data-signals="`)
		m.text(templ.JSONString(pageSignals{
			Regions:       nonNil(dash.Selection.Regions),
			Categories:    nonNil(dash.Selection.Categories),
			TrendCategory: dash.Selection.TrendCategory,
			ChartSignals:  NewChartSignals(dash),
		}))
		m.raw("\">\n<aside>\n<h2>Filters</h2>\n")

		checkboxes(m, "Region", "regions", dash.Options.Regions, dash.Selection.Regions)
		checkboxes(m, "Category", "categories", dash.Options.Categories, dash.Selection.Categories)

		m.raw("<fieldset>\n<legend>Trend category</legend>\n<select data-bind:trend-category " + refresh + ">\n")
		for _, c := range dash.Options.TrendCategories {
			m.raw(`<option value="`)
			m.text(c)
			m.raw(`"`)
			if c == dash.Selection.TrendCategory {
				m.raw(" selected")
			}
			m.raw(">")
			m.text(c)
			m.raw("</option>\n")
		}
		m.raw("</select>\n</fieldset>\n</aside>\n<main>\n<h1>Superstore Sales Dashboard</h1>\n")
	})
}

func checkboxes(m *markup, legend, signal string, options, selected []string) {
	m.raw("<fieldset>\n<legend>" + legend + "</legend>\n")
	for _, v := range options {
		m.raw(`<label><input type="checkbox" value="`)
		m.text(v)
		m.raw(`" data-bind:` + signal + ` ` + refresh)
		if contains(selected, v) {
			m.raw(" checked")
		}
		m.raw("> ")
		m.text(v)
		m.raw("</label><br>\n")
	}
	m.raw("</fieldset>\n")
}

// Metrics renders the #metrics fragment, including the load error banner.
func Metrics(dash models.Dashboard) templ.Component {
	return component(func(m *markup) {
		m.raw("<div id=\"metrics\">\n")
		if dash.Error != "" {
			m.raw(`<div class="error" role="alert">`)
			m.text(dash.Error)
			m.raw("</div>\n")
		}
		m.raw("<div class=\"metrics\">\n<div class=\"metric\">Total Sales<strong>")
		m.text(dash.Metrics.SalesDisplay)
		m.raw("</strong></div>\n<div class=\"metric\">Total Profit<strong")
		if dash.Metrics.TotalProfit.IsNegative() {
			m.raw(` class="loss"`)
		}
		m.raw(">")
		m.text(dash.Metrics.ProfitDisplay)
		m.raw("</strong></div>\n<div class=\"metric\">Orders in view<strong>")
		m.text(format.Count(dash.Metrics.RowCount))
		m.raw("</strong></div>\n</div>\n</div>\n")
	})
}

// Preview renders the #preview table fragment.
func Preview(rows []models.MonthlyRecord) templ.Component {
	return component(func(m *markup) {
		m.raw("<div id=\"preview\">\n<table>\n<thead><tr><th>Order Date</th><th>Month</th><th>Region</th><th>State</th><th>Category</th><th>Sales</th><th>Profit</th><th>Discount</th></tr></thead>\n<tbody>\n")
		for _, r := range rows {
			m.raw("<tr>")
			for _, cell := range []string{
				orderDate(r),
				r.Month,
				r.Region,
				r.State,
				r.Category,
				format.Currency(r.Sales),
				format.Currency(r.Profit),
				format.Percent(r.Discount),
			} {
				m.raw("<td>")
				m.text(cell)
				m.raw("</td>")
			}
			m.raw("</tr>\n")
		}
		if len(rows) == 0 {
			m.raw("<tr><td colspan=\"8\">No rows match the current filters.</td></tr>\n")
		}
		m.raw("</tbody>\n</table>\n</div>\n")
	})
}

func orderDate(r models.MonthlyRecord) string {
	if !r.HasDate {
		return ""
	}
	return r.OrderDate.Format("2006-01-02")
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
