package services

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// scenarioDataset is the two-row dataset used throughout the engine tests.
func scenarioDataset() *dataset.Dataset {
	return dataset.New("scenario", []models.Record{
		{
			OrderDate: day(2024, 1, 15), HasDate: true,
			Region: "West", Category: "Furniture", State: "California",
			Sales: dec("100"), Profit: dec("10"), Discount: dec("0.1"),
		},
		{
			OrderDate: day(2024, 2, 10), HasDate: true,
			Region: "East", Category: "Technology", State: "New York",
			Sales: dec("200"), Profit: dec("-5"), Discount: dec("0.2"),
		},
	})
}

// mixedDataset has repeated states and categories, a missing date and
// several months.
func mixedDataset() *dataset.Dataset {
	return dataset.New("mixed", []models.Record{
		{OrderDate: day(2024, 3, 1), HasDate: true, Region: "West", Category: "Technology", State: "Utah", Sales: dec("50"), Profit: dec("5")},
		{OrderDate: day(2024, 1, 2), HasDate: true, Region: "East", Category: "Furniture", State: "Ohio", Sales: dec("20.25"), Profit: dec("-1")},
		{OrderDate: day(2024, 1, 9), HasDate: true, Region: "West", Category: "Technology", State: "Ohio", Sales: dec("30"), Profit: dec("2")},
		{Region: "South", Category: "Office Supplies", State: "Texas", Sales: dec("12.5"), Profit: dec("1.5")},
		{OrderDate: day(2024, 3, 20), HasDate: true, Region: "West", Category: "Furniture", State: "Utah", Sales: dec("7.75"), Profit: dec("0.25")},
		{OrderDate: day(2024, 1, 30), HasDate: true, Region: "South", Category: "Furniture", State: "Texas", Sales: dec("100"), Profit: dec("40")},
	})
}

func TestScenario_SingleRegionCategory(t *testing.T) {
	view := Filter(scenarioDataset(), models.FilterSelection{
		Regions:    []string{"West"},
		Categories: []string{"Furniture"},
	})

	if len(view) != 1 {
		t.Fatalf("expected 1 row, got %d", len(view))
	}
	if !TotalSales(view).Equal(dec("100")) {
		t.Errorf("total sales = %s, want 100", TotalSales(view))
	}
	if !TotalProfit(view).Equal(dec("10")) {
		t.Errorf("total profit = %s, want 10", TotalProfit(view))
	}
}

func TestScenario_FullSelection(t *testing.T) {
	view := Filter(scenarioDataset(), models.FilterSelection{
		Regions:    []string{"West", "East"},
		Categories: []string{"Furniture", "Technology"},
	})

	if !TotalSales(view).Equal(dec("300")) {
		t.Errorf("total sales = %s, want 300", TotalSales(view))
	}
	if !TotalProfit(view).Equal(dec("5")) {
		t.Errorf("total profit = %s, want 5", TotalProfit(view))
	}
	if got := SalesByState(view); len(got) != 2 {
		t.Errorf("expected 2 states, got %v", got)
	}

	trend := MonthlySalesTrend(view, models.AllCategories)
	want := []models.TrendPoint{
		{Month: "2024-01", Category: "Furniture", Sales: dec("100")},
		{Month: "2024-02", Category: "Technology", Sales: dec("200")},
	}
	assertTrend(t, trend, want)
}

func TestFilter_SoundAndComplete(t *testing.T) {
	ds := mixedDataset()
	selections := []models.FilterSelection{
		{Regions: []string{"West"}, Categories: []string{"Technology", "Furniture"}},
		{Regions: []string{"South", "East"}, Categories: []string{"Furniture"}},
		{Regions: []string{"West", "East", "South"}, Categories: []string{"Office Supplies"}},
		{Regions: []string{"North"}, Categories: []string{"Furniture"}},
	}

	for i, sel := range selections {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			view := Filter(ds, sel)
			for _, rec := range view {
				if !slices.Contains(sel.Regions, rec.Region) || !slices.Contains(sel.Categories, rec.Category) {
					t.Errorf("unsound row in view: %+v", rec)
				}
			}

			want := 0
			for _, rec := range ds.All() {
				if slices.Contains(sel.Regions, rec.Region) && slices.Contains(sel.Categories, rec.Category) {
					want++
				}
			}
			if len(view) != want {
				t.Errorf("view has %d rows, want %d", len(view), want)
			}
		})
	}
}

func TestFilter_EmptySelection(t *testing.T) {
	ds := mixedDataset()
	tests := []models.FilterSelection{
		{},
		{Regions: []string{"West"}},
		{Categories: []string{"Furniture"}},
	}
	for _, sel := range tests {
		view := Filter(ds, sel)
		if view == nil || len(view) != 0 {
			t.Errorf("Filter(%+v) = %v, want empty non-nil view", sel, view)
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	ds := mixedDataset()
	before := ds.Records()
	sel := DefaultSelection(ds)

	first := Filter(ds, sel)
	first[0].Sales = dec("999999")
	second := Filter(ds, sel)

	if !slices.EqualFunc(before, ds.Records(), recordsEqual) {
		t.Error("Filter mutated the dataset")
	}
	if !second[0].Sales.Equal(before[0].Sales) {
		t.Error("mutating a view should not affect later filters")
	}
	if len(first) != len(second) {
		t.Errorf("views differ in length: %d vs %d", len(first), len(second))
	}
}

func TestEmptyView(t *testing.T) {
	var view []models.Record

	if !TotalSales(view).IsZero() || !TotalProfit(view).IsZero() {
		t.Error("totals of an empty view should be zero")
	}
	if got := SalesByState(view); got == nil || len(got) != 0 {
		t.Errorf("SalesByState(empty) = %v", got)
	}
	if got := SalesByCategory(view); len(got) != 0 {
		t.Errorf("SalesByCategory(empty) = %v", got)
	}
	if got := TransactionCountByCategory(view); len(got) != 0 {
		t.Errorf("TransactionCountByCategory(empty) = %v", got)
	}
	if got := MonthlySalesTrend(view, models.AllCategories); len(got) != 0 {
		t.Errorf("MonthlySalesTrend(empty) = %v", got)
	}
	if got := Preview(view, PreviewRows); len(got) != 0 {
		t.Errorf("Preview(empty) = %v", got)
	}
}

func TestPartitionProperties(t *testing.T) {
	ds := mixedDataset()
	view := Filter(ds, DefaultSelection(ds))

	stateSum := decimal.Zero
	for _, s := range SalesByState(view) {
		stateSum = stateSum.Add(s.Sales)
	}
	if !stateSum.Equal(TotalSales(view)) {
		t.Errorf("sum(salesByState) = %s, totalSales = %s", stateSum, TotalSales(view))
	}

	categorySum := decimal.Zero
	for _, c := range SalesByCategory(view) {
		categorySum = categorySum.Add(c.Sales)
	}
	if !categorySum.Equal(TotalSales(view)) {
		t.Errorf("sum(salesByCategory) = %s, totalSales = %s", categorySum, TotalSales(view))
	}

	count := 0
	for _, c := range TransactionCountByCategory(view) {
		count += c.Count
	}
	if count != len(view) {
		t.Errorf("sum(counts) = %d, rows = %d", count, len(view))
	}
}

func TestSalesByState_FirstAppearanceOrder(t *testing.T) {
	ds := mixedDataset()
	got := SalesByState(Filter(ds, DefaultSelection(ds)))

	want := []models.StateSales{
		{State: "Utah", Sales: dec("57.75")},
		{State: "Ohio", Sales: dec("50.25")},
		{State: "Texas", Sales: dec("112.5")},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i].State != want[i].State || !got[i].Sales.Equal(want[i].Sales) {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSortStates(t *testing.T) {
	rows := []models.StateSales{
		{State: "Utah", Sales: dec("57.75")},
		{State: "Ohio", Sales: dec("50.25")},
		{State: "Texas", Sales: dec("112.5")},
	}

	byName := SortStates(rows, SortName)
	if names := stateNames(byName); !slices.Equal(names, []string{"Ohio", "Texas", "Utah"}) {
		t.Errorf("by name = %v", names)
	}

	bySales := SortStates(rows, SortSales)
	if names := stateNames(bySales); !slices.Equal(names, []string{"Texas", "Utah", "Ohio"}) {
		t.Errorf("by sales = %v", names)
	}

	if names := stateNames(rows); !slices.Equal(names, []string{"Utah", "Ohio", "Texas"}) {
		t.Errorf("sorting should not modify the input, got %v", names)
	}

	cats := SortCategories([]models.CategorySales{{Category: "b"}, {Category: "a"}}, SortName)
	if cats[0].Category != "a" {
		t.Errorf("SortCategories by name = %v", cats)
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in   string
		want SortOrder
		ok   bool
	}{
		{"", SortAppearance, true},
		{"Name", SortName, true},
		{" sales ", SortSales, true},
		{"price", SortAppearance, false},
	}
	for _, tt := range tests {
		got, ok := ParseSortOrder(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseSortOrder(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTransactionCountByCategory(t *testing.T) {
	ds := mixedDataset()
	got := TransactionCountByCategory(Filter(ds, DefaultSelection(ds)))
	want := []models.CategoryCount{
		{Category: "Technology", Count: 2},
		{Category: "Furniture", Count: 3},
		{Category: "Office Supplies", Count: 1},
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMonthlySalesTrend_All(t *testing.T) {
	ds := mixedDataset()
	got := MonthlySalesTrend(Filter(ds, DefaultSelection(ds)), "all")

	want := []models.TrendPoint{
		{Month: "2024-01", Category: "Technology", Sales: dec("30")},
		{Month: "2024-01", Category: "Furniture", Sales: dec("120.25")},
		{Month: "2024-03", Category: "Technology", Sales: dec("50")},
		{Month: "2024-03", Category: "Furniture", Sales: dec("7.75")},
	}
	assertTrend(t, got, want)
}

func TestMonthlySalesTrend_SingleCategory(t *testing.T) {
	ds := mixedDataset()
	view := Filter(ds, DefaultSelection(ds))

	got := MonthlySalesTrend(view, "Furniture")
	want := []models.TrendPoint{
		{Month: "2024-01", Category: "Furniture", Sales: dec("120.25")},
		{Month: "2024-03", Category: "Furniture", Sales: dec("7.75")},
	}
	assertTrend(t, got, want)

	if got := MonthlySalesTrend(view, "Office Supplies"); len(got) != 0 {
		t.Errorf("records without dates should be excluded, got %v", got)
	}
	if got := MonthlySalesTrend(view, "Unknown"); len(got) != 0 {
		t.Errorf("unknown category should yield no points, got %v", got)
	}
}

func TestDeriveMonthAndPreview(t *testing.T) {
	ds := mixedDataset()
	view := Filter(ds, DefaultSelection(ds))

	months := DeriveMonth(view)
	if len(months) != len(view) {
		t.Fatalf("DeriveMonth dropped rows: %d vs %d", len(months), len(view))
	}
	if months[0].Month != "2024-03" || months[3].Month != "" {
		t.Errorf("unexpected months: %q, %q", months[0].Month, months[3].Month)
	}

	if got := Preview(view, 2); len(got) != 2 || got[0].State != "Utah" {
		t.Errorf("Preview(2) = %v", got)
	}
	if got := Preview(view, PreviewRows); len(got) != len(view) {
		t.Errorf("Preview larger than view = %d rows, want %d", len(got), len(view))
	}
}

func TestDomainAndDefaults(t *testing.T) {
	ds := mixedDataset()
	regions, categories := Domain(ds)

	if !slices.Equal(regions, []string{"West", "East", "South"}) {
		t.Errorf("regions = %v", regions)
	}
	if !slices.Equal(categories, []string{"Technology", "Furniture", "Office Supplies"}) {
		t.Errorf("categories = %v", categories)
	}

	sel := DefaultSelection(ds)
	if sel.TrendCategory != models.AllCategories {
		t.Errorf("default trend = %q", sel.TrendCategory)
	}
	if len(Filter(ds, sel)) != ds.Len() {
		t.Error("default selection should keep every row")
	}

	if got := TrendCategories(categories); got[0] != models.AllCategories || len(got) != 4 {
		t.Errorf("TrendCategories = %v", got)
	}

	r, c := Domain(dataset.Empty())
	if len(r) != 0 || len(c) != 0 {
		t.Error("empty dataset has an empty domain")
	}
}

func TestProfitVsDiscount(t *testing.T) {
	view := Filter(scenarioDataset(), DefaultSelection(scenarioDataset()))
	points := ProfitVsDiscount(view)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points[1].Discount.Equal(dec("0.2")) || !points[1].Profit.Equal(dec("-5")) || points[1].State != "New York" {
		t.Errorf("unexpected point: %+v", points[1])
	}
}

func assertTrend(t *testing.T, got, want []models.TrendPoint) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("trend = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Month != want[i].Month || got[i].Category != want[i].Category || !got[i].Sales.Equal(want[i].Sales) {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func stateNames(rows []models.StateSales) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.State
	}
	return names
}

func recordsEqual(a, b models.Record) bool {
	return a.Region == b.Region && a.Category == b.Category && a.State == b.State &&
		a.Sales.Equal(b.Sales) && a.Profit.Equal(b.Profit) && a.OrderDate.Equal(b.OrderDate)
}
