//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen generates sample CSV datasets in the layout the
// loader expects.
package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pgEdge/bikestore-loader/internal/loader"
	"github.com/pgEdge/bikestore-loader/internal/logging"
	"github.com/pgEdge/bikestore-loader/internal/source"
)

// Fixed catalogs keep generated data looking like a bike retailer.
var brandNames = []string{
	"Electra", "Haro", "Heller", "Pure Cycles", "Ritchey",
	"Strider", "Sun Bicycles", "Surly", "Trek",
}

var categoryNames = []string{
	"Children Bicycles", "Comfort Bicycles", "Cruisers Bicycles",
	"Cyclocross Bicycles", "Electric Bikes", "Mountain Bikes",
	"Road Bikes",
}

var baseStoreNames = []string{
	"Santa Cruz Bikes", "Baldwin Bikes", "Rowlett Bikes",
}

var productLines = []string{
	"Trail", "Cruiser", "Townie", "Superfly", "Marlin",
	"Roscoe", "Checkpoint", "Vale", "Verve", "Coaster",
}

// Generator writes a referentially consistent CSV dataset.
type Generator struct {
	faker *Faker
	size  Size
}

// NewGenerator creates a generator for the given size preset. A zero
// seed picks a random one; any other seed makes output reproducible.
func NewGenerator(size Size, seed uint64) *Generator {
	f := NewFaker()
	if seed != 0 {
		f = NewFakerWithSeed(seed)
	}
	return &Generator{faker: f, size: size}
}

// Generate writes all nine CSV files into dir, creating it if needed.
func (g *Generator) Generate(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	stores := g.storeNames()
	staffRows, staffNames := g.staffs(stores)
	products := g.products()
	orders, items := g.orders(stores, staffNames, products)

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{source.BrandsFile,
			[]string{"brand_id", "brand_name"},
			g.brands()},
		{source.CategoriesFile,
			[]string{"category_id", "category_name"},
			g.categories()},
		{source.StoresFile,
			[]string{"store_name", "phone", "email", "street", "city", "state", "zip_code"},
			g.stores(stores)},
		{source.CustomersFile,
			[]string{"customer_id", "first_name", "last_name", "phone", "email", "street", "city", "state", "zip_code"},
			g.customers()},
		{source.ProductsFile,
			[]string{"product_id", "product_name", "brand_id", "category_id", "model_year", "list_price"},
			g.productRows(products)},
		{source.StaffsFile,
			[]string{"first_name", "last_name", "email", "phone", "active", "street", "store_name", "manager_name"},
			staffRows},
		{source.StocksFile,
			[]string{"store_name", "product_id", "quantity"},
			g.stocks(stores, products)},
		{source.OrdersFile,
			[]string{"order_id", "customer_id", "order_status", "order_date", "required_date", "shipped_date", "store_name", "staff_name"},
			orders},
		{source.OrderItemsFile,
			[]string{"order_id", "item_id", "product_id", "quantity", "list_price", "discount"},
			items},
	}

	var total int
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeCSV(path, f.header, f.rows); err != nil {
			return err
		}
		total += len(f.rows)
		logging.Debug().
			Str("file", f.name).
			Int("rows", len(f.rows)).
			Msg("File written")
	}

	logging.Info().
		Str("dir", dir).
		Str("size", g.size.Name).
		Int("rows", total).
		Msg("Sample dataset written")
	return nil
}

func (g *Generator) brands() [][]string {
	rows := make([][]string, len(brandNames))
	for i, name := range brandNames {
		rows[i] = []string{strconv.Itoa(i + 1), name}
	}
	return rows
}

func (g *Generator) categories() [][]string {
	rows := make([][]string, len(categoryNames))
	for i, name := range categoryNames {
		rows[i] = []string{strconv.Itoa(i + 1), name}
	}
	return rows
}

// storeNames returns unique store names, starting from the fixed list
// and inventing "<City> Bikes" names once it runs out.
func (g *Generator) storeNames() []string {
	names := make([]string, 0, g.size.Stores)
	seen := make(map[string]bool)
	for _, name := range baseStoreNames {
		if len(names) == g.size.Stores {
			break
		}
		names = append(names, name)
		seen[name] = true
	}
	for len(names) < g.size.Stores {
		name := g.faker.City() + " Bikes"
		if seen[name] {
			continue
		}
		names = append(names, name)
		seen[name] = true
	}
	return names
}

func (g *Generator) stores(names []string) [][]string {
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{
			name,
			g.faker.Phone(),
			emailFor(name, "bikes.shop"),
			g.faker.Street(),
			g.faker.City(),
			g.faker.State(),
			g.faker.Zip(),
		}
	}
	return rows
}

func (g *Generator) customers() [][]string {
	rows := make([][]string, g.size.Customers)
	for i := range rows {
		first := g.faker.FirstName()
		last := g.faker.LastName()
		id := i + 1
		rows[i] = []string{
			strconv.Itoa(id),
			first,
			last,
			g.faker.NullableString(g.faker.Phone(), 0.3),
			emailFor(fmt.Sprintf("%s %s %d", first, last, id), "example.com"),
			g.faker.Street(),
			g.faker.City(),
			g.faker.State(),
			g.faker.Zip(),
		}
	}
	return rows
}

type genProduct struct {
	id    int
	price float64
}

func (g *Generator) products() []genProduct {
	products := make([]genProduct, g.size.Products)
	for i := range products {
		products[i] = genProduct{
			id:    i + 1,
			price: g.faker.Price(200, 12000),
		}
	}
	return products
}

func (g *Generator) productRows(products []genProduct) [][]string {
	rows := make([][]string, len(products))
	for i, p := range products {
		brandID := g.faker.Int(1, len(brandNames))
		year := g.faker.Int(2016, 2018)
		name := fmt.Sprintf("%s %s %d - %d",
			brandNames[brandID-1],
			Choose(g.faker, productLines),
			g.faker.Int(100, 999),
			year)
		rows[i] = []string{
			strconv.Itoa(p.id),
			name,
			strconv.Itoa(brandID),
			strconv.Itoa(g.faker.Int(1, len(categoryNames))),
			strconv.Itoa(year),
			formatPrice(p.price),
		}
	}
	return rows
}

// staffs builds staff rows plus the full names employed at each store.
// Every store gets a chief the rest of its staff report to. The first
// store's chief runs the company and manages the other chiefs; within
// each store the chief's row comes last, so some rows name a manager
// that only appears further down the file.
func (g *Generator) staffs(stores []string) ([][]string, map[string][]string) {
	rows := make([][]string, 0, len(stores)*g.size.StaffPerStore)
	names := make(map[string][]string, len(stores))
	seen := make(map[string]bool)

	// Full names must be unique so manager references resolve, and the
	// addresses derived from them must be unique for the email column.
	newName := func() (string, string) {
		for {
			first, last := g.faker.FirstName(), g.faker.LastName()
			email := emailFor(first+" "+last, "bikes.shop")
			if !seen[first+" "+last] && !seen[email] {
				seen[first+" "+last] = true
				seen[email] = true
				return first, last
			}
		}
	}

	row := func(first, last, store, manager string) []string {
		return []string{
			first,
			last,
			emailFor(first+" "+last, "bikes.shop"),
			g.faker.NullableString(g.faker.Phone(), 0.2),
			strconv.FormatBool(ChooseWeighted(g.faker, []bool{true, false}, []int{9, 1})),
			g.faker.Street(),
			store,
			manager,
		}
	}

	var companyChief string
	for i, store := range stores {
		first, last := newName()
		chief := first + " " + last
		names[store] = append(names[store], chief)

		manager := companyChief
		if i == 0 {
			companyChief = chief
			manager = ""
		}

		for j := 1; j < g.size.StaffPerStore; j++ {
			sf, sl := newName()
			names[store] = append(names[store], sf+" "+sl)
			rows = append(rows, row(sf, sl, store, chief))
		}
		rows = append(rows, row(first, last, store, manager))
	}
	return rows, names
}

// stocks lists roughly two thirds of the catalog at each store.
func (g *Generator) stocks(stores []string, products []genProduct) [][]string {
	var rows [][]string
	for _, store := range stores {
		for _, p := range products {
			if g.faker.Int(1, 3) == 3 {
				continue
			}
			rows = append(rows, []string{
				store,
				strconv.Itoa(p.id),
				strconv.Itoa(g.faker.Int(0, 30)),
			})
		}
	}
	return rows
}

func (g *Generator) orders(stores []string, staffNames map[string][]string, products []genProduct) ([][]string, [][]string) {
	start := time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2018, time.December, 1, 0, 0, 0, 0, time.UTC)
	statuses := []int{
		loader.OrderStatusPending,
		loader.OrderStatusProcessing,
		loader.OrderStatusRejected,
		loader.OrderStatusCompleted,
	}
	statusWeights := []int{5, 5, 3, 87}
	discounts := []float64{0, 0.05, 0.07, 0.1, 0.2}
	discountWeights := []int{30, 25, 20, 15, 10}

	orderRows := make([][]string, g.size.Orders)
	var itemRows [][]string
	for i := range orderRows {
		orderID := i + 1
		store := Choose(g.faker, stores)
		status := ChooseWeighted(g.faker, statuses, statusWeights)
		orderDate := g.faker.DateRange(start, end)

		shipped := ""
		if status == loader.OrderStatusCompleted {
			shipped = formatDate(orderDate.AddDate(0, 0, g.faker.Int(1, 5)))
		}

		orderRows[i] = []string{
			strconv.Itoa(orderID),
			strconv.Itoa(g.faker.Int(1, g.size.Customers)),
			strconv.Itoa(status),
			formatDate(orderDate),
			formatDate(orderDate.AddDate(0, 0, g.faker.Int(1, 7))),
			shipped,
			store,
			Choose(g.faker, staffNames[store]),
		}

		picked := make(map[int]bool)
		count := g.faker.Int(1, 3)
		for item := 1; item <= count; item++ {
			p := Choose(g.faker, products)
			if picked[p.id] {
				continue
			}
			picked[p.id] = true
			itemRows = append(itemRows, []string{
				strconv.Itoa(orderID),
				strconv.Itoa(item),
				strconv.Itoa(p.id),
				strconv.Itoa(g.faker.Int(1, 2)),
				formatPrice(p.price),
				fmt.Sprintf("%.2f", ChooseWeighted(g.faker, discounts, discountWeights)),
			})
		}
	}
	return orderRows, itemRows
}

// formatDate renders a date in the day/month/year layout the loader
// parses, without zero padding.
func formatDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

// emailFor derives a lowercase alphanumeric address from a name.
func emailFor(name, domain string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ':
			return '.'
		default:
			return -1
		}
	}, name)
	return mapped + "@" + domain
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
