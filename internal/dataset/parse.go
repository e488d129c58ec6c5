package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/models"
)

// Column headers, normalized by normalizeHeader.
const (
	colOrderDate   = "order date"
	colRegion      = "region"
	colCategory    = "category"
	colState       = "state"
	colSales       = "sales"
	colProfit      = "profit"
	colDiscount    = "discount"
	colOrderID     = "order id"
	colProductName = "product name"
	colSubCategory = "sub-category"
	colSegment     = "segment"
	colCity        = "city"
	colQuantity    = "quantity"
)

var requiredColumns = []string{colOrderDate, colRegion, colCategory, colState, colSales, colProfit, colDiscount}

// DefaultDateLayouts are tried in order when parsing Order Date.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"2-Jan-2006",
	"January 2, 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Table is raw tabular data: a header row plus string cells.
// DecimalComma is set for sources that write "1.234,56".
type Table struct {
	Header       []string
	Rows         [][]string
	DecimalComma bool
}

// DecodeOptions controls record validation.
type DecodeOptions struct {
	DropInvalidDates bool
	DateLayouts      []string
}

// LoadStats describes what happened to the raw rows.
type LoadStats struct {
	Rows         int `json:"rows"`
	Loaded       int `json:"loaded"`
	Skipped      int `json:"skipped"`
	MissingDates int `json:"missing_dates"`
	DroppedDates int `json:"dropped_dates"`
}

var errMissingColumns = errors.New("missing required columns")

// ReadCSV parses comma-separated data, retrying with a semicolon delimiter
// when the comma reading does not yield the required header.
func ReadCSV(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if len(bytes.TrimSpace(data)) == 0 {
		return Table{}, errors.New("empty file")
	}

	table, commaErr := readDelimited(data, ',')
	if commaErr == nil {
		return table, nil
	}

	table, semiErr := readDelimited(data, ';')
	if semiErr == nil {
		table.DecimalComma = true
		return table, nil
	}

	return Table{}, fmt.Errorf("parse csv: %w", commaErr)
}

func readDelimited(data []byte, delim rune) (Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(rows) == 0 {
		return Table{}, errors.New("empty file")
	}

	table := Table{Header: rows[0], Rows: rows[1:]}
	if missing := missingColumns(indexColumns(table.Header)); len(missing) > 0 {
		return Table{}, fmt.Errorf("%w: %s", errMissingColumns, strings.Join(missing, ", "))
	}
	return table, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	if h == "sub category" || h == "subcategory" {
		return colSubCategory
	}
	return h
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func missingColumns(idx map[string]int) []string {
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Decode converts a table into records. Rows with an empty Region, Category
// or State, or with an unparseable amount, are skipped. Rows whose date
// cannot be parsed are kept with HasDate=false unless DropInvalidDates is set.
func Decode(table Table, opts DecodeOptions) ([]models.Record, LoadStats, error) {
	idx := indexColumns(table.Header)
	if missing := missingColumns(idx); len(missing) > 0 {
		return nil, LoadStats{}, fmt.Errorf("%w: %s", errMissingColumns, strings.Join(missing, ", "))
	}

	layouts := opts.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	stats := LoadStats{Rows: len(table.Rows)}
	records := make([]models.Record, 0, len(table.Rows))

	for _, row := range table.Rows {
		rec, ok := decodeRow(row, idx, table.DecimalComma, layouts)
		if !ok {
			stats.Skipped++
			continue
		}
		if !rec.HasDate {
			stats.MissingDates++
			if opts.DropInvalidDates {
				stats.DroppedDates++
				continue
			}
		}
		records = append(records, rec)
	}

	stats.Loaded = len(records)
	return records, stats, nil
}

func decodeRow(row []string, idx map[string]int, decimalComma bool, layouts []string) (models.Record, bool) {
	cell := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := models.Record{
		OrderID:     cell(colOrderID),
		Region:      cell(colRegion),
		Category:    cell(colCategory),
		SubCategory: cell(colSubCategory),
		State:       cell(colState),
		City:        cell(colCity),
		Segment:     cell(colSegment),
		ProductName: cell(colProductName),
	}
	if rec.Region == "" || rec.Category == "" || rec.State == "" {
		return models.Record{}, false
	}

	var err error
	if rec.Sales, err = parseAmount(cell(colSales), decimalComma); err != nil || rec.Sales.IsNegative() {
		return models.Record{}, false
	}
	if rec.Profit, err = parseAmount(cell(colProfit), decimalComma); err != nil {
		return models.Record{}, false
	}
	if rec.Discount, err = parseDiscount(cell(colDiscount), decimalComma); err != nil {
		return models.Record{}, false
	}

	if q := cell(colQuantity); q != "" {
		if n, err := strconv.Atoi(q); err == nil {
			rec.Quantity = n
		}
	}

	if t, ok := ParseDate(cell(colOrderDate), layouts); ok {
		rec.OrderDate = t
		rec.HasDate = true
	}

	return rec, true
}

// ParseDate tries each layout in turn.
func ParseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseAmount(s string, decimalComma bool) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.Replace(s, "$", "", 1)
	s = strings.ReplaceAll(s, " ", "")
	if decimalComma && strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	return decimal.NewFromString(s)
}

var hundred = decimal.NewFromInt(100)

func parseDiscount(s string, decimalComma bool) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	d, err := parseAmount(strings.TrimSuffix(s, "%"), decimalComma)
	if err != nil {
		return decimal.Zero, err
	}
	if percent {
		d = d.Div(hundred)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("discount %s out of range", s)
	}
	return d, nil
}
