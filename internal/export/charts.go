package export

import (
	"bytes"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"superstore-dashboard/internal/models"
)

// ErrNoChartData is returned when a chart has nothing to plot.
var ErrNoChartData = errors.New("no chart data")

const (
	chartWidth  = 900
	chartHeight = 420
	maxBars     = 20
)

var seriesColors = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorOrange,
	chart.ColorRed,
	chart.ColorAlternateGray,
}

func floatOf(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// BarChartPNG renders labelled values as a bar chart. Only the first maxBars
// values are drawn.
func BarChartPNG(title string, labels []string, values []float64) ([]byte, error) {
	n := min(len(labels), len(values), maxBars)
	bars := make([]chart.Value, 0, n)
	nonZero := false
	for i := range n {
		bars = append(bars, chart.Value{Label: labels[i], Value: values[i]})
		if values[i] != 0 {
			nonZero = true
		}
	}
	if len(bars) == 0 || !nonZero {
		return nil, ErrNoChartData
	}

	bc := chart.BarChart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   max(8, (chartWidth-120)/len(bars)-10),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis:      chart.YAxis{Range: valueRange(values[:n])},
		Bars:       bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PieChartPNG renders category shares. Non-positive slices are left out.
func PieChartPNG(title string, rows []models.CategorySales) ([]byte, error) {
	values := make([]chart.Value, 0, len(rows))
	for _, r := range rows {
		if v := floatOf(r.Sales); v > 0 {
			values = append(values, chart.Value{Label: r.Category, Value: v})
		}
	}
	if len(values) == 0 {
		return nil, ErrNoChartData
	}

	pc := chart.PieChart{
		Title:  title,
		Width:  chartHeight,
		Height: chartHeight,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pc.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TrendChartPNG renders one line per category of the monthly trend. A line
// needs at least two months.
func TrendChartPNG(title string, points []models.TrendPoint) ([]byte, error) {
	type line struct {
		xs []time.Time
		ys []float64
	}
	var order []string
	lines := make(map[string]*line)
	for _, p := range points {
		month, err := time.Parse("2006-01", p.Month)
		if err != nil {
			continue
		}
		l, ok := lines[p.Category]
		if !ok {
			l = &line{}
			lines[p.Category] = l
			order = append(order, p.Category)
		}
		l.xs = append(l.xs, month)
		l.ys = append(l.ys, floatOf(p.Sales))
	}

	var series []chart.Series
	var allY []float64
	for i, name := range order {
		l := lines[name]
		if len(l.xs) < 2 {
			continue
		}
		allY = append(allY, l.ys...)
		col := seriesColors[i%len(seriesColors)]
		series = append(series, chart.TimeSeries{
			Name:    name,
			XValues: l.xs,
			YValues: l.ys,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 2},
		})
	}
	if len(series) == 0 {
		return nil, ErrNoChartData
	}

	ch := chart.Chart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01")},
		YAxis:      chart.YAxis{Name: "Sales", Range: valueRange(allY)},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ScatterChartPNG plots profit against discount.
func ScatterChartPNG(title string, points []models.ScatterPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, ErrNoChartData
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = floatOf(p.Discount)
		ys[i] = floatOf(p.Profit)
	}

	ch := chart.Chart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Discount", Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		YAxis:      chart.YAxis{Name: "Profit", Range: valueRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Orders",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    3,
					DotColor:    chart.ColorBlue,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// valueRange spans the values and zero. go-chart refuses a zero-height range,
// so a flat series gets one unit of headroom.
func valueRange(values []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
