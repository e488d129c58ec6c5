package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/models"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_ReplaceAndList(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	records := []models.Record{
		{
			OrderID:   "CA-1",
			OrderDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			HasDate:   true,
			Region:    "West",
			Category:  "Furniture",
			State:     "California",
			Quantity:  2,
			Sales:     decimal.RequireFromString("100.50"),
			Profit:    decimal.RequireFromString("-10.25"),
			Discount:  decimal.RequireFromString("0.2"),
		},
		{
			OrderID:  "CA-2",
			Region:   "East",
			Category: "Technology",
			State:    "New York",
			Sales:    decimal.RequireFromString("200"),
			Profit:   decimal.RequireFromString("5"),
			Discount: decimal.Zero,
		},
	}

	if err := repo.ReplaceOrders(ctx, records); err != nil {
		t.Fatalf("ReplaceOrders() error = %v", err)
	}

	got, err := repo.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
	if got[0].OrderID != "CA-1" || !got[0].HasDate || got[0].MonthKey() != "2024-01" {
		t.Errorf("unexpected first order: %+v", got[0])
	}
	if !got[0].Profit.Equal(decimal.RequireFromString("-10.25")) {
		t.Errorf("profit = %s, want -10.25", got[0].Profit)
	}
	if got[1].HasDate {
		t.Error("second order should have no date")
	}

	if err := repo.ReplaceOrders(ctx, records[:1]); err != nil {
		t.Fatalf("ReplaceOrders() error = %v", err)
	}
	n, err := repo.CountOrders(ctx)
	if err != nil {
		t.Fatalf("CountOrders() error = %v", err)
	}
	if n != 1 {
		t.Errorf("expected replace to leave 1 order, got %d", n)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orders.db")
	ctx := context.Background()

	repo, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	repo.Close()

	repo, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("second Open() should tolerate applied migrations, got %v", err)
	}
	repo.Close()
}
