//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pgEdge/bikestore-loader/internal/logging"
)

// File names expected in a source directory.
const (
	BrandsFile     = "brands.csv"
	CategoriesFile = "categories.csv"
	StoresFile     = "stores.csv"
	CustomersFile  = "customers.csv"
	ProductsFile   = "products.csv"
	StaffsFile     = "staffs.csv"
	StocksFile     = "stocks.csv"
	OrdersFile     = "orders.csv"
	OrderItemsFile = "order_items.csv"
)

// ReadDir reads all nine CSV files from dir. Every file must exist.
func ReadDir(dir string) (*Dataset, error) {
	ds := &Dataset{Dir: dir}
	var err error

	if ds.Brands, err = ReadBrands(filepath.Join(dir, BrandsFile)); err != nil {
		return nil, err
	}
	if ds.Categories, err = ReadCategories(filepath.Join(dir, CategoriesFile)); err != nil {
		return nil, err
	}
	if ds.Stores, err = ReadStores(filepath.Join(dir, StoresFile)); err != nil {
		return nil, err
	}
	if ds.Customers, err = ReadCustomers(filepath.Join(dir, CustomersFile)); err != nil {
		return nil, err
	}
	if ds.Products, err = ReadProducts(filepath.Join(dir, ProductsFile)); err != nil {
		return nil, err
	}
	if ds.Staffs, err = ReadStaffs(filepath.Join(dir, StaffsFile)); err != nil {
		return nil, err
	}
	if ds.Stocks, err = ReadStocks(filepath.Join(dir, StocksFile)); err != nil {
		return nil, err
	}
	if ds.Orders, err = ReadOrders(filepath.Join(dir, OrdersFile)); err != nil {
		return nil, err
	}
	if ds.OrderItems, err = ReadOrderItems(filepath.Join(dir, OrderItemsFile)); err != nil {
		return nil, err
	}

	logging.Debug().
		Str("dir", dir).
		Int("rows", ds.Rows()).
		Msg("Read source dataset")

	return ds, nil
}

// ReadBrands reads brands.csv.
func ReadBrands(path string) ([]Brand, error) {
	var brands []Brand
	err := readFile(path, []string{"brand_id", "brand_name"}, func(r *row) error {
		id, err := r.Int("brand_id")
		if err != nil {
			return err
		}
		brands = append(brands, Brand{
			Line: r.Line(),
			ID:   id,
			Name: r.Get("brand_name"),
		})
		return nil
	})
	return brands, err
}

// ReadCategories reads categories.csv.
func ReadCategories(path string) ([]Category, error) {
	var categories []Category
	err := readFile(path, []string{"category_id", "category_name"}, func(r *row) error {
		id, err := r.Int("category_id")
		if err != nil {
			return err
		}
		categories = append(categories, Category{
			Line: r.Line(),
			ID:   id,
			Name: r.Get("category_name"),
		})
		return nil
	})
	return categories, err
}

// ReadStores reads stores.csv.
func ReadStores(path string) ([]Store, error) {
	var stores []Store
	err := readFile(path, []string{"store_name"}, func(r *row) error {
		stores = append(stores, Store{
			Line:    r.Line(),
			Name:    r.Get("store_name"),
			Phone:   r.Get("phone"),
			Email:   r.Get("email"),
			Street:  r.Get("street"),
			City:    r.Get("city"),
			State:   r.Get("state"),
			ZipCode: r.Get("zip_code"),
		})
		return nil
	})
	return stores, err
}

// ReadCustomers reads customers.csv.
func ReadCustomers(path string) ([]Customer, error) {
	required := []string{"customer_id", "first_name", "last_name", "email"}
	var customers []Customer
	err := readFile(path, required, func(r *row) error {
		id, err := r.Int("customer_id")
		if err != nil {
			return err
		}
		customers = append(customers, Customer{
			Line:      r.Line(),
			ID:        id,
			FirstName: r.Get("first_name"),
			LastName:  r.Get("last_name"),
			Phone:     r.Get("phone"),
			Email:     r.Get("email"),
			Street:    r.Get("street"),
			City:      r.Get("city"),
			State:     r.Get("state"),
			ZipCode:   r.Get("zip_code"),
		})
		return nil
	})
	return customers, err
}

// ReadProducts reads products.csv.
func ReadProducts(path string) ([]Product, error) {
	required := []string{
		"product_id", "product_name", "brand_id", "category_id",
		"model_year", "list_price",
	}
	var products []Product
	err := readFile(path, required, func(r *row) error {
		id, err := r.Int("product_id")
		if err != nil {
			return err
		}
		brandID, err := r.Int("brand_id")
		if err != nil {
			return err
		}
		categoryID, err := r.Int("category_id")
		if err != nil {
			return err
		}
		modelYear, err := r.Int("model_year")
		if err != nil {
			return err
		}
		listPrice, err := r.Float("list_price")
		if err != nil {
			return err
		}
		products = append(products, Product{
			Line:       r.Line(),
			ID:         id,
			Name:       r.Get("product_name"),
			BrandID:    brandID,
			CategoryID: categoryID,
			ModelYear:  modelYear,
			ListPrice:  listPrice,
		})
		return nil
	})
	return products, err
}

// ReadStaffs reads staffs.csv. The manager_name column is optional and
// may be empty for staff without a manager.
func ReadStaffs(path string) ([]Staff, error) {
	required := []string{"first_name", "last_name", "email", "active", "store_name"}
	var staffs []Staff
	err := readFile(path, required, func(r *row) error {
		active, err := r.Bool("active")
		if err != nil {
			return err
		}
		staffs = append(staffs, Staff{
			Line:        r.Line(),
			FirstName:   r.Get("first_name"),
			LastName:    r.Get("last_name"),
			Email:       r.Get("email"),
			Phone:       r.Get("phone"),
			Active:      active,
			Street:      r.Get("street"),
			StoreName:   r.Get("store_name"),
			ManagerName: r.Get("manager_name"),
		})
		return nil
	})
	return staffs, err
}

// ReadStocks reads stocks.csv.
func ReadStocks(path string) ([]Stock, error) {
	required := []string{"store_name", "product_id", "quantity"}
	var stocks []Stock
	err := readFile(path, required, func(r *row) error {
		productID, err := r.Int("product_id")
		if err != nil {
			return err
		}
		quantity, err := r.Int("quantity")
		if err != nil {
			return err
		}
		stocks = append(stocks, Stock{
			Line:      r.Line(),
			StoreName: r.Get("store_name"),
			ProductID: productID,
			Quantity:  quantity,
		})
		return nil
	})
	return stocks, err
}

// ReadOrders reads orders.csv. Date columns are kept as raw text.
func ReadOrders(path string) ([]Order, error) {
	required := []string{
		"order_id", "customer_id", "order_status", "order_date",
		"required_date", "store_name", "staff_name",
	}
	var orders []Order
	err := readFile(path, required, func(r *row) error {
		id, err := r.Int("order_id")
		if err != nil {
			return err
		}
		customerID, err := r.Int("customer_id")
		if err != nil {
			return err
		}
		status, err := r.Int("order_status")
		if err != nil {
			return err
		}
		orders = append(orders, Order{
			Line:         r.Line(),
			ID:           id,
			CustomerID:   customerID,
			Status:       status,
			OrderDate:    r.Get("order_date"),
			RequiredDate: r.Get("required_date"),
			ShippedDate:  r.Get("shipped_date"),
			StoreName:    r.Get("store_name"),
			StaffName:    r.Get("staff_name"),
		})
		return nil
	})
	return orders, err
}

// ReadOrderItems reads order_items.csv.
func ReadOrderItems(path string) ([]OrderItem, error) {
	required := []string{
		"order_id", "item_id", "product_id", "quantity", "list_price",
		"discount",
	}
	var items []OrderItem
	err := readFile(path, required, func(r *row) error {
		orderID, err := r.Int("order_id")
		if err != nil {
			return err
		}
		itemID, err := r.Int("item_id")
		if err != nil {
			return err
		}
		productID, err := r.Int("product_id")
		if err != nil {
			return err
		}
		quantity, err := r.Int("quantity")
		if err != nil {
			return err
		}
		listPrice, err := r.Float("list_price")
		if err != nil {
			return err
		}
		discount, err := r.Float("discount")
		if err != nil {
			return err
		}
		items = append(items, OrderItem{
			Line:      r.Line(),
			OrderID:   orderID,
			ItemID:    itemID,
			ProductID: productID,
			Quantity:  quantity,
			ListPrice: listPrice,
			Discount:  discount,
		})
		return nil
	})
	return items, err
}

// row is one CSV record with header-based field access.
type row struct {
	file   string
	line   int
	fields []string
	index  map[string]int
}

// Line returns the 1-based line number within the file.
func (r *row) Line() int {
	return r.line
}

// Get returns the trimmed value of a column, or "" when the column is
// absent. The literal marker NULL means a missing value in exports of
// the original dataset.
func (r *row) Get(name string) string {
	i, ok := r.index[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	v := strings.TrimSpace(r.fields[i])
	if v == "NULL" {
		return ""
	}
	return v
}

// Int parses an integer column.
func (r *row) Int(name string) (int, error) {
	v := r.Get(name)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: column %s: invalid integer %q",
			r.file, r.line, name, v)
	}
	return n, nil
}

// Float parses a numeric column.
func (r *row) Float(name string) (float64, error) {
	v := r.Get(name)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: column %s: invalid number %q",
			r.file, r.line, name, v)
	}
	return f, nil
}

// Bool parses a boolean column; 1/0 and true/false are accepted.
func (r *row) Bool(name string) (bool, error) {
	v := r.Get(name)
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s line %d: column %s: invalid boolean %q",
			r.file, r.line, name, v)
	}
	return b, nil
}

// readFile opens a headered CSV file and calls fn for each record.
func readFile(path string, required []string, fn func(*row) error) error {
	base := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", base, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return fmt.Errorf("%s is empty", base)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s header: %w", base, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return fmt.Errorf("%s: missing required column %s", base, name)
		}
	}

	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv errors already carry the line number
			return fmt.Errorf("failed to read %s: %w", base, err)
		}
		line++

		r := &row{file: base, line: line, fields: fields, index: index}
		if err := fn(r); err != nil {
			return err
		}
	}

	return nil
}
