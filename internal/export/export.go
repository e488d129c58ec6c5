// Package export writes the filtered sales view and its aggregates to CSV,
// JSON and PDF report files.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"superstore-dashboard/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// Report is one export: the dashboard for a selection plus every row of the
// filtered view.
type Report struct {
	Title       string                 `json:"title"`
	Source      string                 `json:"source"`
	GeneratedAt time.Time              `json:"generated_at"`
	Dashboard   models.Dashboard       `json:"dashboard"`
	Rows        []models.MonthlyRecord `json:"rows"`
}

// ParseFormats parses a comma separated format list such as "csv,pdf".
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		switch f {
		case FormatCSV, FormatJSON, FormatPDF:
		default:
			return nil, fmt.Errorf("unsupported export format %q", f)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no export format given")
	}
	return formats, nil
}

var csvHeader = []string{
	"Order ID", "Order Date", "Month", "Region", "State", "City", "Category",
	"Sub-Category", "Segment", "Product Name", "Quantity", "Sales", "Profit", "Discount",
}

// WriteCSV writes rows with the same column names the loader reads.
func WriteCSV(w io.Writer, rows []models.MonthlyRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range rows {
		date := ""
		if r.HasDate {
			date = r.OrderDate.Format("2006-01-02")
		}
		quantity := ""
		if r.Quantity != 0 {
			quantity = strconv.Itoa(r.Quantity)
		}
		record := []string{
			r.OrderID, date, r.Month, r.Region, r.State, r.City, r.Category,
			r.SubCategory, r.Segment, r.ProductName, quantity,
			r.Sales.String(), r.Profit.String(), r.Discount.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func WriteJSON(w io.Writer, r Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("error encoding JSON data: %w", err)
	}
	return nil
}

// WriteAll writes the report in every format concurrently to
// dir/<name>.<ext> and returns the absolute paths in format order.
func WriteAll(ctx context.Context, dir, name string, formats []Format, r Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)

	for i, f := range formats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := writeFile(dir, name, f, r)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func writeFile(dir, name string, f Format, r Report) (path string, err error) {
	path = filepath.Join(dir, name+"."+string(f))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating %s file: %w", strings.ToUpper(string(f)), err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	switch f {
	case FormatCSV:
		err = WriteCSV(file, r.Rows)
	case FormatJSON:
		err = WriteJSON(file, r)
	case FormatPDF:
		err = WritePDF(file, r)
	default:
		err = fmt.Errorf("unsupported export format %q", f)
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return filepath.Abs(path)
}
