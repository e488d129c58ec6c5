package services

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

const PreviewRows = 10

// SortOrder selects how grouped rows are ordered. The zero value keeps
// first-appearance order.
type SortOrder string

const (
	SortAppearance SortOrder = ""
	SortName       SortOrder = "name"
	SortSales      SortOrder = "sales"
)

func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortAppearance, "appearance":
		return SortAppearance, true
	case SortName:
		return SortName, true
	case SortSales:
		return SortSales, true
	default:
		return SortAppearance, false
	}
}

// Filter keeps records whose Region and Category are both selected, in
// dataset order. An empty region or category set yields an empty view.
func Filter(ds *dataset.Dataset, sel models.FilterSelection) []models.Record {
	view := []models.Record{}
	if len(sel.Regions) == 0 || len(sel.Categories) == 0 {
		return view
	}

	regions := toSet(sel.Regions)
	categories := toSet(sel.Categories)

	for _, rec := range ds.All() {
		if _, ok := regions[rec.Region]; !ok {
			continue
		}
		if _, ok := categories[rec.Category]; !ok {
			continue
		}
		view = append(view, rec)
	}
	return view
}

// DeriveMonth pairs each record with its MonthKey. Records without a date
// get an empty month.
func DeriveMonth(view []models.Record) []models.MonthlyRecord {
	out := make([]models.MonthlyRecord, len(view))
	for i, rec := range view {
		out[i] = models.MonthlyRecord{Record: rec, Month: rec.MonthKey()}
	}
	return out
}

func TotalSales(view []models.Record) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range view {
		total = total.Add(rec.Sales)
	}
	return total
}

func TotalProfit(view []models.Record) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range view {
		total = total.Add(rec.Profit)
	}
	return total
}

// SalesByState sums Sales per State in first-appearance order.
func SalesByState(view []models.Record) []models.StateSales {
	keys, sums := groupSum(view, func(r models.Record) string { return r.State })
	out := make([]models.StateSales, len(keys))
	for i, k := range keys {
		out[i] = models.StateSales{State: k, Sales: sums[k]}
	}
	return out
}

// SalesByCategory sums Sales per Category in first-appearance order.
func SalesByCategory(view []models.Record) []models.CategorySales {
	keys, sums := groupSum(view, func(r models.Record) string { return r.Category })
	out := make([]models.CategorySales, len(keys))
	for i, k := range keys {
		out[i] = models.CategorySales{Category: k, Sales: sums[k]}
	}
	return out
}

// TransactionCountByCategory counts rows per Category in first-appearance order.
func TransactionCountByCategory(view []models.Record) []models.CategoryCount {
	var order []string
	counts := make(map[string]int)
	for _, rec := range view {
		if _, seen := counts[rec.Category]; !seen {
			order = append(order, rec.Category)
		}
		counts[rec.Category]++
	}

	out := make([]models.CategoryCount, len(order))
	for i, c := range order {
		out[i] = models.CategoryCount{Category: c, Count: counts[c]}
	}
	return out
}

type monthCategory struct {
	month    string
	category string
}

// MonthlySalesTrend sums Sales per month. With models.AllCategories it keeps
// one series per category; otherwise only that category is summed. Points
// are ordered by month, then by the category's first appearance in view.
// Records without a date are left out.
func MonthlySalesTrend(view []models.Record, categoryFilter string) []models.TrendPoint {
	all := categoryFilter == "" || strings.EqualFold(categoryFilter, models.AllCategories)

	rank := make(map[string]int)
	for _, rec := range view {
		if _, ok := rank[rec.Category]; !ok {
			rank[rec.Category] = len(rank)
		}
	}

	var keys []monthCategory
	sums := make(map[monthCategory]decimal.Decimal)
	for _, rec := range view {
		month := rec.MonthKey()
		if month == "" {
			continue
		}
		if !all && rec.Category != categoryFilter {
			continue
		}
		key := monthCategory{month: month, category: rec.Category}
		if sum, ok := sums[key]; ok {
			sums[key] = sum.Add(rec.Sales)
			continue
		}
		keys = append(keys, key)
		sums[key] = rec.Sales
	}

	slices.SortStableFunc(keys, func(a, b monthCategory) int {
		if c := cmp.Compare(a.month, b.month); c != 0 {
			return c
		}
		return cmp.Compare(rank[a.category], rank[b.category])
	})

	out := make([]models.TrendPoint, len(keys))
	for i, k := range keys {
		out[i] = models.TrendPoint{Month: k.month, Category: k.category, Sales: sums[k]}
	}
	return out
}

// ProfitVsDiscount returns one scatter point per record.
func ProfitVsDiscount(view []models.Record) []models.ScatterPoint {
	out := make([]models.ScatterPoint, len(view))
	for i, rec := range view {
		out[i] = models.ScatterPoint{
			Discount: rec.Discount,
			Profit:   rec.Profit,
			Sales:    rec.Sales,
			Category: rec.Category,
			State:    rec.State,
		}
	}
	return out
}

// Preview returns the first n rows of view with their month keys.
func Preview(view []models.Record, n int) []models.MonthlyRecord {
	if n < 0 {
		n = 0
	}
	return DeriveMonth(view[:min(n, len(view))])
}

// Domain lists the distinct regions and categories of ds in first-appearance
// order.
func Domain(ds *dataset.Dataset) (regions, categories []string) {
	seenRegion := make(map[string]struct{})
	seenCategory := make(map[string]struct{})
	for _, rec := range ds.All() {
		if _, ok := seenRegion[rec.Region]; !ok {
			seenRegion[rec.Region] = struct{}{}
			regions = append(regions, rec.Region)
		}
		if _, ok := seenCategory[rec.Category]; !ok {
			seenCategory[rec.Category] = struct{}{}
			categories = append(categories, rec.Category)
		}
	}
	return regions, categories
}

// DefaultSelection selects every region and category with the "All" trend.
func DefaultSelection(ds *dataset.Dataset) models.FilterSelection {
	regions, categories := Domain(ds)
	return models.FilterSelection{
		Regions:       regions,
		Categories:    categories,
		TrendCategory: models.AllCategories,
	}
}

// TrendCategories is the option list of the trend selector.
func TrendCategories(categories []string) []string {
	return append([]string{models.AllCategories}, categories...)
}

// SortStates returns a sorted copy of rows.
func SortStates(rows []models.StateSales, order SortOrder) []models.StateSales {
	return sortGroups(rows, order,
		func(r models.StateSales) string { return r.State },
		func(r models.StateSales) decimal.Decimal { return r.Sales })
}

// SortCategories returns a sorted copy of rows.
func SortCategories(rows []models.CategorySales, order SortOrder) []models.CategorySales {
	return sortGroups(rows, order,
		func(r models.CategorySales) string { return r.Category },
		func(r models.CategorySales) decimal.Decimal { return r.Sales })
}

func sortGroups[T any](rows []T, order SortOrder, name func(T) string, sales func(T) decimal.Decimal) []T {
	out := slices.Clone(rows)
	switch order {
	case SortName:
		slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(name(a), name(b)) })
	case SortSales:
		slices.SortStableFunc(out, func(a, b T) int { return sales(b).Cmp(sales(a)) })
	}
	return out
}

func groupSum(view []models.Record, key func(models.Record) string) ([]string, map[string]decimal.Decimal) {
	var order []string
	sums := make(map[string]decimal.Decimal)
	for _, rec := range view {
		k := key(rec)
		if sum, ok := sums[k]; ok {
			sums[k] = sum.Add(rec.Sales)
			continue
		}
		order = append(order, k)
		sums[k] = rec.Sales
	}
	return order, sums
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
