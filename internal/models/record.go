package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllCategories selects every category in the monthly trend view.
const AllCategories = "All"

// Record is one sales-order line. OrderDate is the zero time when the source
// value could not be parsed; HasDate reports whether it is usable.
type Record struct {
	OrderID     string          `json:"order_id,omitempty"`
	OrderDate   time.Time       `json:"order_date"`
	HasDate     bool            `json:"has_date"`
	Region      string          `json:"region"`
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category,omitempty"`
	State       string          `json:"state"`
	City        string          `json:"city,omitempty"`
	Segment     string          `json:"segment,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity,omitempty"`
	Sales       decimal.Decimal `json:"sales"`
	Profit      decimal.Decimal `json:"profit"`
	Discount    decimal.Decimal `json:"discount"`
}

// MonthKey returns the year-month of the order date ("2024-03"), or "" when
// the date is missing.
func (r Record) MonthKey() string {
	if !r.HasDate {
		return ""
	}
	return r.OrderDate.Format("2006-01")
}

// MonthlyRecord is a Record carrying its derived MonthKey.
type MonthlyRecord struct {
	Record
	Month string `json:"month"`
}

// FilterSelection is the viewer's chosen subset of regions and categories.
// A nil or empty set selects nothing.
type FilterSelection struct {
	Regions       []string `json:"regions"`
	Categories    []string `json:"categories"`
	TrendCategory string   `json:"trend_category"`
}

type StateSales struct {
	State string          `json:"state"`
	Sales decimal.Decimal `json:"sales"`
}

type CategorySales struct {
	Category string          `json:"category"`
	Sales    decimal.Decimal `json:"sales"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// TrendPoint is one point of the monthly sales line. Category is set for
// per-category series and for a single selected category.
type TrendPoint struct {
	Month    string          `json:"month"`
	Category string          `json:"category,omitempty"`
	Sales    decimal.Decimal `json:"sales"`
}

type ScatterPoint struct {
	Discount decimal.Decimal `json:"discount"`
	Profit   decimal.Decimal `json:"profit"`
	Sales    decimal.Decimal `json:"sales"`
	Category string          `json:"category"`
	State    string          `json:"state"`
}

type Metrics struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
	SalesDisplay   string          `json:"sales_display"`
	ProfitDisplay  string          `json:"profit_display"`
	RowCount       int             `json:"row_count"`
	DatasetRecords int             `json:"dataset_records"`
}

// Options lists the values offered by the filter controls.
type Options struct {
	Regions         []string `json:"regions"`
	Categories      []string `json:"categories"`
	TrendCategories []string `json:"trend_categories"`
}

// Dashboard is everything a single render needs. Error is set when the
// dataset failed to load; aggregates are then empty.
type Dashboard struct {
	Selection        FilterSelection `json:"selection"`
	Options          Options         `json:"options"`
	Metrics          Metrics         `json:"metrics"`
	SalesByState     []StateSales    `json:"sales_by_state"`
	SalesByCategory  []CategorySales `json:"sales_by_category"`
	CategoryCounts   []CategoryCount `json:"category_counts"`
	MonthlyTrend     []TrendPoint    `json:"monthly_trend"`
	ProfitVsDiscount []ScatterPoint  `json:"profit_vs_discount"`
	Preview          []MonthlyRecord `json:"preview"`
	Error            string          `json:"error,omitempty"`
}
