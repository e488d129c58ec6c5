package dataset

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const superstoreCSV = `Row ID,Order ID,Order Date,Segment,City,State,Region,Product Name,Category,Sub-Category,Sales,Quantity,Discount,Profit
1,CA-2016-152156,11/8/2016,Consumers,Henderson,Kentucky,South,Bush Bookcase,Furniture,Bookcases,261.96,2,0,41.9136
2,CA-2016-152157,not-a-date,Consumer,Los Angeles,California,West,Label Maker,Office Supplies,Labels,14.62,2,0,6.8714
3,US-2015-108966,2015-10-11,Consumer,Fort Lauderdale,Florida,South,Table,Furniture,Tables,957.5775,5,0.45,-383.031
4,US-2015-108967,10/11/2015,Consumer,Miami,Florida,,Chair,Furniture,Chairs,10,1,0,1
5,US-2015-108968,10/11/2015,Consumer,Miami,Florida,South,Chair,Furniture,Chairs,abc,1,0,1
`

func TestReadCSV_Comma(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(superstoreCSV))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(table.Rows) != 5 {
		t.Errorf("expected 5 rows, got %d", len(table.Rows))
	}
	if table.DecimalComma {
		t.Error("comma file should not use decimal comma")
	}
}

func TestReadCSV_SemicolonFallback(t *testing.T) {
	data := "\ufeffOrder Date;Region;Category;State;Sales;Profit;Discount\n" +
		"15/01/2024;West;Furniture;California;1.234,50;-10,5;0,2\n" +
		"2024-02-10;East;Technology;New York;200.75;5;0\n"

	table, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if !table.DecimalComma {
		t.Error("semicolon file should be read with decimal comma")
	}

	records, stats, err := Decode(table, DecodeOptions{DateLayouts: []string{"02/01/2006", "2006-01-02"}})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if stats.Loaded != 2 {
		t.Fatalf("expected 2 records, got %d (%+v)", stats.Loaded, stats)
	}
	if !records[0].Sales.Equal(decimal.RequireFromString("1234.50")) {
		t.Errorf("sales = %s, want 1234.50", records[0].Sales)
	}
	if !records[0].Profit.Equal(decimal.RequireFromString("-10.5")) {
		t.Errorf("profit = %s, want -10.5", records[0].Profit)
	}
	if records[0].MonthKey() != "2024-01" {
		t.Errorf("month = %q, want 2024-01", records[0].MonthKey())
	}
	if !records[1].Sales.Equal(decimal.RequireFromString("200.75")) {
		t.Errorf("sales without comma = %s, want 200.75", records[1].Sales)
	}
}

func TestReadCSV_Invalid(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty file", ""},
		{"whitespace only", "  \n\n"},
		{"missing columns", "Order Date,Region,Category\n2024-01-01,West,Furniture\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.csv)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecode_DatePolicy(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(superstoreCSV))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	tests := []struct {
		name        string
		drop        bool
		wantLoaded  int
		wantDropped int
	}{
		{"keep invalid dates", false, 3, 0},
		{"drop invalid dates", true, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, stats, err := Decode(table, DecodeOptions{DropInvalidDates: tt.drop})
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(records) != tt.wantLoaded {
				t.Errorf("loaded = %d, want %d", len(records), tt.wantLoaded)
			}
			if stats.Skipped != 2 {
				t.Errorf("skipped = %d, want 2 (empty region, bad sales)", stats.Skipped)
			}
			if stats.MissingDates != 1 {
				t.Errorf("missing dates = %d, want 1", stats.MissingDates)
			}
			if stats.DroppedDates != tt.wantDropped {
				t.Errorf("dropped dates = %d, want %d", stats.DroppedDates, tt.wantDropped)
			}
		})
	}
}

func TestDecode_Fields(t *testing.T) {
	table, _ := ReadCSV(strings.NewReader(superstoreCSV))
	records, _, err := Decode(table, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	first := records[0]
	if first.OrderID != "CA-2016-152156" || first.State != "Kentucky" || first.Region != "South" {
		t.Errorf("unexpected record: %+v", first)
	}
	if first.SubCategory != "Bookcases" || first.Quantity != 2 || first.City != "Henderson" {
		t.Errorf("optional columns not captured: %+v", first)
	}
	if !first.OrderDate.Equal(time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("order date = %v", first.OrderDate)
	}
	if records[1].HasDate || records[1].MonthKey() != "" {
		t.Error("unparseable date should be missing")
	}
	if !records[2].Discount.Equal(decimal.RequireFromString("0.45")) {
		t.Errorf("discount = %s, want 0.45", records[2].Discount)
	}
}

func TestDecode_MissingColumns(t *testing.T) {
	_, _, err := Decode(Table{Header: []string{"Region"}}, DecodeOptions{})
	if !errors.Is(err, errMissingColumns) {
		t.Errorf("expected errMissingColumns, got %v", err)
	}
}

func TestParseAmountAndDiscount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"$1,234.56", "1234.56", false},
		{"-$5", "-5", false},
		{" 42 ", "42", false},
		{"", "", true},
		{"n/a", "", true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in, false)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("parseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if d, err := parseDiscount("20%", false); err != nil || !d.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("parseDiscount(20%%) = %s, %v", d, err)
	}
	if _, err := parseDiscount("1.5", false); err == nil {
		t.Error("discount above 1 should be rejected")
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		" Order Date ":  colOrderDate,
		"ORDER_DATE":    colOrderDate,
		"Sub-Category":  colSubCategory,
		"sub_category":  colSubCategory,
		"\ufeffRegion": colRegion,
		"Product Name":  colProductName,
	}
	for in, want := range tests {
		if got := normalizeHeader(in); got != want {
			t.Errorf("normalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}
