//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgEdge/bikestore-loader/internal/loader"
	"github.com/pgEdge/bikestore-loader/internal/source"
)

func generateTestDataset(t *testing.T, seed uint64) *source.Dataset {
	t.Helper()

	size, err := SizeFor("small")
	if err != nil {
		t.Fatalf("SizeFor failed: %v", err)
	}

	dir := t.TempDir()
	if err := NewGenerator(size, seed).Generate(dir); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ds, err := source.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed on generated data: %v", err)
	}
	return ds
}

func TestGenerateRoundTrip(t *testing.T) {
	ds := generateTestDataset(t, 42)

	if len(ds.Brands) != len(brandNames) {
		t.Errorf("Expected %d brands, got %d", len(brandNames), len(ds.Brands))
	}
	if len(ds.Categories) != len(categoryNames) {
		t.Errorf("Expected %d categories, got %d", len(categoryNames), len(ds.Categories))
	}
	if len(ds.Stores) != 3 {
		t.Errorf("Expected 3 stores, got %d", len(ds.Stores))
	}
	if len(ds.Customers) != 150 {
		t.Errorf("Expected 150 customers, got %d", len(ds.Customers))
	}
	if len(ds.Products) != 60 {
		t.Errorf("Expected 60 products, got %d", len(ds.Products))
	}
	if len(ds.Staffs) != 9 {
		t.Errorf("Expected 9 staff rows, got %d", len(ds.Staffs))
	}
	if len(ds.Orders) != 300 {
		t.Errorf("Expected 300 orders, got %d", len(ds.Orders))
	}
	if len(ds.OrderItems) < len(ds.Orders) {
		t.Errorf("Expected at least one item per order, got %d items", len(ds.OrderItems))
	}
	if len(ds.Stocks) == 0 {
		t.Error("Expected stock rows, got none")
	}
}

func TestGenerateReferences(t *testing.T) {
	ds := generateTestDataset(t, 42)

	storeNames := make(map[string]bool)
	for _, s := range ds.Stores {
		storeNames[s.Name] = true
	}
	staffNames := make(map[string]bool)
	for _, s := range ds.Staffs {
		staffNames[s.FirstName+" "+s.LastName] = true
	}
	productIDs := make(map[int]bool)
	for _, p := range ds.Products {
		productIDs[p.ID] = true
	}
	orderIDs := make(map[int]bool)
	for _, o := range ds.Orders {
		orderIDs[o.ID] = true
	}

	for _, s := range ds.Staffs {
		if !storeNames[s.StoreName] {
			t.Errorf("Staff references unknown store %q", s.StoreName)
		}
		if s.ManagerName != "" && !staffNames[s.ManagerName] {
			t.Errorf("Staff references unknown manager %q", s.ManagerName)
		}
	}
	for _, p := range ds.Products {
		if p.BrandID < 1 || p.BrandID > len(brandNames) {
			t.Errorf("Product references unknown brand %d", p.BrandID)
		}
		if p.CategoryID < 1 || p.CategoryID > len(categoryNames) {
			t.Errorf("Product references unknown category %d", p.CategoryID)
		}
	}
	for _, s := range ds.Stocks {
		if !storeNames[s.StoreName] {
			t.Errorf("Stock references unknown store %q", s.StoreName)
		}
		if !productIDs[s.ProductID] {
			t.Errorf("Stock references unknown product %d", s.ProductID)
		}
	}
	for _, o := range ds.Orders {
		if !storeNames[o.StoreName] {
			t.Errorf("Order %d references unknown store %q", o.ID, o.StoreName)
		}
		if !staffNames[o.StaffName] {
			t.Errorf("Order %d references unknown staff %q", o.ID, o.StaffName)
		}
		if o.CustomerID < 1 || o.CustomerID > len(ds.Customers) {
			t.Errorf("Order %d references unknown customer %d", o.ID, o.CustomerID)
		}
	}
	for _, it := range ds.OrderItems {
		if !orderIDs[it.OrderID] {
			t.Errorf("Item references unknown order %d", it.OrderID)
		}
		if !productIDs[it.ProductID] {
			t.Errorf("Item references unknown product %d", it.ProductID)
		}
	}
}

func TestGenerateManagerOrdering(t *testing.T) {
	ds := generateTestDataset(t, 42)

	// Exactly one staff member has no manager, and at least one row
	// names a manager whose own row comes later in the file.
	var topLevel, forward int
	seen := make(map[string]bool)
	for _, s := range ds.Staffs {
		if s.ManagerName == "" {
			topLevel++
		} else if !seen[s.ManagerName] {
			forward++
		}
		seen[s.FirstName+" "+s.LastName] = true
	}

	if topLevel != 1 {
		t.Errorf("Expected exactly 1 staff without manager, got %d", topLevel)
	}
	if forward == 0 {
		t.Error("Expected at least one manager reference ahead of its row")
	}
}

func TestGenerateShippedDates(t *testing.T) {
	ds := generateTestDataset(t, 42)

	for _, o := range ds.Orders {
		shipped := o.ShippedDate != ""
		if o.Status == loader.OrderStatusCompleted && !shipped {
			t.Errorf("Completed order %d has no shipped date", o.ID)
		}
		if o.Status != loader.OrderStatusCompleted && shipped {
			t.Errorf("Order %d with status %d has a shipped date", o.ID, o.Status)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	size, err := SizeFor("small")
	if err != nil {
		t.Fatalf("SizeFor failed: %v", err)
	}

	dir1, dir2 := t.TempDir(), t.TempDir()
	if err := NewGenerator(size, 7).Generate(dir1); err != nil {
		t.Fatalf("First generate failed: %v", err)
	}
	if err := NewGenerator(size, 7).Generate(dir2); err != nil {
		t.Fatalf("Second generate failed: %v", err)
	}

	for _, name := range []string{source.StaffsFile, source.OrdersFile, source.OrderItemsFile} {
		b1, err := os.ReadFile(filepath.Join(dir1, name))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		b2, err := os.ReadFile(filepath.Join(dir2, name))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		if !bytes.Equal(b1, b2) {
			t.Errorf("Same seed produced different %s", name)
		}
	}
}

func TestSizeFor(t *testing.T) {
	s, err := SizeFor("small")
	if err != nil {
		t.Fatalf("SizeFor(small) failed: %v", err)
	}
	if s.Name != "small" {
		t.Errorf("Expected name small, got %s", s.Name)
	}

	if _, err := SizeFor("LARGE"); err != nil {
		t.Errorf("SizeFor should be case-insensitive, got: %v", err)
	}

	_, err = SizeFor("huge")
	if err == nil {
		t.Fatal("Expected error for unknown size")
	}
	if !strings.Contains(err.Error(), "unknown size") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestSizeNames(t *testing.T) {
	names := SizeNames()
	if len(names) != len(sizes) {
		t.Errorf("Expected %d size names, got %d", len(sizes), len(names))
	}
	for _, name := range names {
		if _, ok := sizes[name]; !ok {
			t.Errorf("SizeNames lists unknown preset %s", name)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2.00 TB"},
	}

	for _, tt := range tests {
		got := FormatSize(tt.bytes)
		if got != tt.want {
			t.Errorf("FormatSize(%d) = %s, want %s", tt.bytes, got, tt.want)
		}
	}
}
