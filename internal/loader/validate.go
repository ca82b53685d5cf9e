//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package loader

import (
	"context"
	"fmt"

	"github.com/pgEdge/bikestore-loader/internal/db"
)

// Violation is one referential integrity failure, identified by the
// table and row that hold the dangling reference.
type Violation struct {
	Table string
	Row   string
	Issue string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s row %s: %s", v.Table, v.Row, v.Issue)
}

// ValidationError reports the violations found by the final pipeline
// stage. One violation is enough to fail the load.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("validation failed: %s", e.Violations[0])
	}
	return fmt.Sprintf("validation failed: %d rows violate referential integrity", len(e.Violations))
}

// refCheck finds rows whose reference resolves to nothing. Each query
// returns the keys of the violating rows as text.
type refCheck struct {
	table string
	issue string
	query string
}

var refChecks = []refCheck{
	{
		table: "products",
		issue: "brand_id references a missing brand",
		query: `SELECT p.product_id::text FROM products p
                LEFT JOIN brands b ON b.brand_id = p.brand_id
                WHERE b.brand_id IS NULL`,
	},
	{
		table: "products",
		issue: "category_id references a missing category",
		query: `SELECT p.product_id::text FROM products p
                LEFT JOIN categories c ON c.category_id = p.category_id
                WHERE c.category_id IS NULL`,
	},
	{
		table: "staffs",
		issue: "store_id references a missing store",
		query: `SELECT st.staff_id::text FROM staffs st
                LEFT JOIN stores s ON s.store_id = st.store_id
                WHERE s.store_id IS NULL`,
	},
	{
		table: "staffs",
		issue: "manager_id references a missing staff row",
		query: `SELECT st.staff_id::text FROM staffs st
                LEFT JOIN staffs m ON m.staff_id = st.manager_id
                WHERE st.manager_id IS NOT NULL AND m.staff_id IS NULL`,
	},
	{
		table: "stocks",
		issue: "store_id references a missing store",
		query: `SELECT k.store_id::text || ':' || k.product_id::text FROM stocks k
                LEFT JOIN stores s ON s.store_id = k.store_id
                WHERE s.store_id IS NULL`,
	},
	{
		table: "stocks",
		issue: "product_id references a missing product",
		query: `SELECT k.store_id::text || ':' || k.product_id::text FROM stocks k
                LEFT JOIN products p ON p.product_id = k.product_id
                WHERE p.product_id IS NULL`,
	},
	{
		table: "stocks",
		issue: "quantity is negative",
		query: `SELECT store_id::text || ':' || product_id::text FROM stocks
                WHERE quantity < 0`,
	},
	{
		table: "orders",
		issue: "customer_id references a missing customer",
		query: `SELECT o.order_id::text FROM orders o
                LEFT JOIN customers c ON c.customer_id = o.customer_id
                WHERE c.customer_id IS NULL`,
	},
	{
		table: "orders",
		issue: "store_id references a missing store",
		query: `SELECT o.order_id::text FROM orders o
                LEFT JOIN stores s ON s.store_id = o.store_id
                WHERE s.store_id IS NULL`,
	},
	{
		table: "orders",
		issue: "staff_id references a missing staff row",
		query: `SELECT o.order_id::text FROM orders o
                LEFT JOIN staffs st ON st.staff_id = o.staff_id
                WHERE st.staff_id IS NULL`,
	},
	{
		table: "order_items",
		issue: "order_id references a missing order",
		query: `SELECT i.order_id::text || ':' || i.item_id::text FROM order_items i
                LEFT JOIN orders o ON o.order_id = i.order_id
                WHERE o.order_id IS NULL`,
	},
	{
		table: "order_items",
		issue: "product_id references a missing product",
		query: `SELECT i.order_id::text || ':' || i.item_id::text FROM order_items i
                LEFT JOIN products p ON p.product_id = i.product_id
                WHERE p.product_id IS NULL`,
	},
}

// ValidateReferences scans every relationship in the loaded data and
// returns one violation per dangling row. It takes the DB interface
// so the verify command can run it on its own connection, outside a
// load.
func ValidateReferences(ctx context.Context, q db.DB) ([]Violation, error) {
	var violations []Violation
	for _, check := range refChecks {
		rows, err := q.Query(ctx, check.query)
		if err != nil {
			return nil, fmt.Errorf("failed to validate %s: %w", check.table, err)
		}

		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to validate %s: %w", check.table, err)
			}
			violations = append(violations, Violation{
				Table: check.table,
				Row:   key,
				Issue: check.issue,
			})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to validate %s: %w", check.table, err)
		}
	}
	return violations, nil
}

// TotalMismatch is a store whose revenue through the order_details
// view disagrees with the same aggregate computed from the raw tables.
type TotalMismatch struct {
	Store     string
	ViewTotal float64
	RawTotal  float64
}

// VerifyTotals compares per-store revenue from the order_details view
// against the raw order_items rows joined through orders and stores.
// The two must agree to within a cent for every store. Rows the view
// silently drops through a broken join surface here as a mismatch.
func VerifyTotals(ctx context.Context, q db.DB) ([]TotalMismatch, error) {
	const query = `
        SELECT COALESCE(v.store_name, r.store_name),
               COALESCE(v.total, 0)::float8,
               COALESCE(r.total, 0)::float8
        FROM (
            SELECT store_name, SUM(line_total) AS total
            FROM order_details GROUP BY store_name
        ) v
        FULL OUTER JOIN (
            SELECT s.store_name, SUM(i.quantity * i.list_price * (1 - i.discount)) AS total
            FROM order_items i
            JOIN orders o ON o.order_id = i.order_id
            JOIN stores s ON s.store_id = o.store_id
            GROUP BY s.store_name
        ) r ON r.store_name = v.store_name
        WHERE v.store_name IS NULL OR r.store_name IS NULL
           OR ABS(v.total - r.total) > 0.01
        ORDER BY COALESCE(v.store_name, r.store_name)`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to verify totals: %w", err)
	}
	defer rows.Close()

	var mismatches []TotalMismatch
	for rows.Next() {
		var m TotalMismatch
		if err := rows.Scan(&m.Store, &m.ViewTotal, &m.RawTotal); err != nil {
			return nil, fmt.Errorf("failed to verify totals: %w", err)
		}
		mismatches = append(mismatches, m)
	}
	return mismatches, rows.Err()
}
