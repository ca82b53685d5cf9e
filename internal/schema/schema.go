//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package schema defines the bike store relational schema: the product
// catalog, sales organization, inventory and sales tables plus the
// flattened order_details view.
package schema

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema SQL for creating the bike store schema.
// Stores and staffs receive generated surrogate keys; every other table
// carries its key in the source data. Constraint rules: stock rows die
// with their store or product, order items die with their order,
// everything else restricts deletes.
const createSchemaSQL = `
-- Product Catalog
CREATE TABLE IF NOT EXISTS brands (
    brand_id   INTEGER PRIMARY KEY,
    brand_name VARCHAR(255) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS categories (
    category_id   INTEGER PRIMARY KEY,
    category_name VARCHAR(255) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS products (
    product_id   INTEGER PRIMARY KEY,
    product_name VARCHAR(255) NOT NULL,
    brand_id     INTEGER NOT NULL REFERENCES brands (brand_id) ON DELETE RESTRICT,
    category_id  INTEGER NOT NULL REFERENCES categories (category_id) ON DELETE RESTRICT,
    model_year   SMALLINT NOT NULL,
    list_price   NUMERIC(10,2) NOT NULL CHECK (list_price >= 0)
);

-- Sales Organization
CREATE TABLE IF NOT EXISTS stores (
    store_id   INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    store_name VARCHAR(255) NOT NULL UNIQUE,
    phone      VARCHAR(25),
    email      VARCHAR(255),
    street     VARCHAR(255),
    city       VARCHAR(255),
    state      VARCHAR(10),
    zip_code   VARCHAR(5)
);

CREATE TABLE IF NOT EXISTS staffs (
    staff_id   INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    first_name VARCHAR(50) NOT NULL,
    last_name  VARCHAR(50) NOT NULL,
    email      VARCHAR(255) NOT NULL UNIQUE,
    phone      VARCHAR(25),
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    street     VARCHAR(255),
    store_id   INTEGER NOT NULL REFERENCES stores (store_id) ON DELETE RESTRICT,
    manager_id INTEGER REFERENCES staffs (staff_id)
);

CREATE TABLE IF NOT EXISTS customers (
    customer_id INTEGER PRIMARY KEY,
    first_name  VARCHAR(50) NOT NULL,
    last_name   VARCHAR(50) NOT NULL,
    phone       VARCHAR(25),
    email       VARCHAR(255) NOT NULL UNIQUE,
    street      VARCHAR(255),
    city        VARCHAR(50),
    state       VARCHAR(10),
    zip_code    VARCHAR(5)
);

-- Inventory
CREATE TABLE IF NOT EXISTS stocks (
    store_id   INTEGER NOT NULL REFERENCES stores (store_id) ON DELETE CASCADE,
    product_id INTEGER NOT NULL REFERENCES products (product_id) ON DELETE CASCADE,
    quantity   INTEGER NOT NULL CHECK (quantity >= 0),
    PRIMARY KEY (store_id, product_id)
);

-- Sales
CREATE TABLE IF NOT EXISTS orders (
    order_id      INTEGER PRIMARY KEY,
    customer_id   INTEGER NOT NULL REFERENCES customers (customer_id) ON DELETE RESTRICT,
    order_status  SMALLINT NOT NULL CHECK (order_status BETWEEN 1 AND 4),
    order_date    DATE NOT NULL,
    required_date DATE NOT NULL,
    shipped_date  DATE,
    store_id      INTEGER NOT NULL REFERENCES stores (store_id) ON DELETE RESTRICT,
    staff_id      INTEGER NOT NULL REFERENCES staffs (staff_id) ON DELETE RESTRICT
);

CREATE TABLE IF NOT EXISTS order_items (
    order_id   INTEGER NOT NULL REFERENCES orders (order_id) ON DELETE CASCADE,
    item_id    INTEGER NOT NULL,
    product_id INTEGER NOT NULL REFERENCES products (product_id) ON DELETE RESTRICT,
    quantity   INTEGER NOT NULL CHECK (quantity > 0),
    list_price NUMERIC(10,2) NOT NULL,
    discount   NUMERIC(4,2) NOT NULL DEFAULT 0 CHECK (discount >= 0 AND discount <= 1),
    PRIMARY KEY (order_id, item_id)
);

-- Indexes for validation scans and the order detail view
CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand_id);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_staffs_store ON staffs(store_id);
CREATE INDEX IF NOT EXISTS idx_staffs_manager ON staffs(manager_id);
CREATE INDEX IF NOT EXISTS idx_stocks_product ON stocks(product_id);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_store ON orders(store_id);
CREATE INDEX IF NOT EXISTS idx_orders_staff ON orders(staff_id);
CREATE INDEX IF NOT EXISTS idx_orders_date ON orders(order_date);
CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);

-- Read-only flattened projection of an order with its line items.
-- line_total applies the discount to the captured list price.
CREATE OR REPLACE VIEW order_details AS
SELECT o.order_id,
       o.order_date,
       o.order_status,
       o.store_id,
       c.first_name || ' ' || c.last_name AS customer_name,
       s.store_name,
       st.first_name || ' ' || st.last_name AS staff_name,
       oi.item_id,
       p.product_name,
       oi.quantity,
       oi.list_price,
       oi.discount,
       oi.quantity * oi.list_price * (1 - oi.discount) AS line_total
FROM orders o
JOIN customers c    ON c.customer_id = o.customer_id
JOIN stores s       ON s.store_id = o.store_id
JOIN staffs st      ON st.staff_id = o.staff_id
JOIN order_items oi ON oi.order_id = o.order_id
JOIN products p     ON p.product_id = oi.product_id;
`

// Drop schema SQL
const dropSchemaSQL = `
DROP VIEW IF EXISTS order_details;
DROP TABLE IF EXISTS order_items CASCADE;
DROP TABLE IF EXISTS orders CASCADE;
DROP TABLE IF EXISTS stocks CASCADE;
DROP TABLE IF EXISTS staffs CASCADE;
DROP TABLE IF EXISTS customers CASCADE;
DROP TABLE IF EXISTS products CASCADE;
DROP TABLE IF EXISTS stores CASCADE;
DROP TABLE IF EXISTS categories CASCADE;
DROP TABLE IF EXISTS brands CASCADE;
`

// truncateDataSQL clears all data tables in one statement and resets
// the generated store and staff ids. The load run log is kept.
const truncateDataSQL = `
TRUNCATE order_items, orders, stocks, staffs, customers, products,
         stores, categories, brands
RESTART IDENTITY CASCADE
`

// Tables returns the data tables in dependency order (parents first).
func Tables() []string {
	return []string{
		"brands", "categories", "stores", "customers", "products",
		"staffs", "stocks", "orders", "order_items",
	}
}

// CreateSchema creates the bike store schema.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// DropSchema drops the bike store schema.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}

// TruncateData clears every data table so a load can start from an
// empty target.
func TruncateData(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, truncateDataSQL)
	return err
}
