package dataset

import (
	"context"
	"os"
	"strconv"

	"superstore-dashboard/internal/storage"
)

// SQLiteSource reads orders previously imported into the SQLite store.
type SQLiteSource struct {
	Path string
}

func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{Path: path}
}

func (s *SQLiteSource) Name() string { return "sqlite://" + s.Path }

func (s *SQLiteSource) Open(ctx context.Context) (Table, error) {
	// Opening a missing path would create an empty database.
	if _, err := os.Stat(s.Path); err != nil {
		return Table{}, newLoadError(KindNotFound, s.Name(), err)
	}

	repo, err := storage.Open(ctx, s.Path)
	if err != nil {
		return Table{}, newLoadError(KindParseFailure, s.Name(), err)
	}
	defer repo.Close()

	records, err := repo.ListOrders(ctx)
	if err != nil {
		return Table{}, newLoadError(KindParseFailure, s.Name(), err)
	}

	table := Table{Header: []string{
		colOrderID, colOrderDate, colRegion, colCategory, colSubCategory, colState,
		colCity, colSegment, colProductName, colQuantity, colSales, colProfit, colDiscount,
	}}
	for _, r := range records {
		date := ""
		if r.HasDate {
			date = r.OrderDate.Format("2006-01-02")
		}
		table.Rows = append(table.Rows, []string{
			r.OrderID, date, r.Region, r.Category, r.SubCategory, r.State,
			r.City, r.Segment, r.ProductName, strconv.Itoa(r.Quantity),
			r.Sales.String(), r.Profit.String(), r.Discount.String(),
		})
	}
	return table, nil
}
