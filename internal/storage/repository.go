package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/models"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// Repository stores sales order lines in SQLite.
type Repository struct {
	db *sql.DB
}

// Open creates (if needed) and migrates the database at dbPath.
func Open(ctx context.Context, dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceOrders swaps the stored orders for records in one transaction.
func (r *Repository) ReplaceOrders(ctx context.Context, records []models.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO orders
		(order_id, order_date, region, category, sub_category, state, city, segment, product_name, quantity, sales, profit, discount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		orderDate := ""
		if rec.HasDate {
			orderDate = rec.OrderDate.Format(dateLayout)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.OrderID, orderDate, rec.Region, rec.Category, rec.SubCategory,
			rec.State, rec.City, rec.Segment, rec.ProductName, rec.Quantity,
			rec.Sales.String(), rec.Profit.String(), rec.Discount.String(),
		); err != nil {
			return fmt.Errorf("insert order %q: %w", rec.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListOrders returns every stored order in insertion order.
func (r *Repository) ListOrders(ctx context.Context) ([]models.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		order_id, order_date, region, category, sub_category, state, city, segment, product_name, quantity, sales, profit, discount
		FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var (
			rec                     models.Record
			orderDate               string
			sales, profit, discount string
		)
		if err := rows.Scan(&rec.OrderID, &orderDate, &rec.Region, &rec.Category, &rec.SubCategory,
			&rec.State, &rec.City, &rec.Segment, &rec.ProductName, &rec.Quantity,
			&sales, &profit, &discount); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		if orderDate != "" {
			t, err := time.Parse(dateLayout, orderDate)
			if err == nil {
				rec.OrderDate = t
				rec.HasDate = true
			}
		}
		if rec.Sales, err = decimal.NewFromString(sales); err != nil {
			return nil, fmt.Errorf("order %q sales: %w", rec.OrderID, err)
		}
		if rec.Profit, err = decimal.NewFromString(profit); err != nil {
			return nil, fmt.Errorf("order %q profit: %w", rec.OrderID, err)
		}
		if rec.Discount, err = decimal.NewFromString(discount); err != nil {
			return nil, fmt.Errorf("order %q discount: %w", rec.OrderID, err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return records, nil
}

func (r *Repository) CountOrders(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}
