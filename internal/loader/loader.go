//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package loader implements the staged bulk load from CSV files into
// the relational schema. Lookup tables load first, then customers,
// products and staff, then a second pass links staff to their
// managers, then stock and order data, and a final pass validates
// referential integrity across everything loaded.
//
// Natural keys in the input (store names, staff full names) resolve
// to generated ids through in-memory indexes that live only for the
// duration of one run.
package loader

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/bikestore-loader/internal/db"
	"github.com/pgEdge/bikestore-loader/internal/logging"
	"github.com/pgEdge/bikestore-loader/internal/source"
)

// Stage names in pipeline order.
const (
	StageLookups  = "lookups"
	StageEntities = "entities"
	StageManagers = "managers"
	StageSales    = "sales"
	StageValidate = "validate"
)

// Config holds tuning knobs for a load run.
type Config struct {
	// BatchSize is the number of rows sent per batch insert.
	BatchSize int

	// Workers is the number of concurrent insert workers per table.
	Workers int

	// MaxRowErrors caps the row errors reported per stage. Once a
	// stage collects more, loading stops early and the stage error
	// counts the overflow.
	MaxRowErrors int

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64
}

// DefaultConfig returns the default load configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:        1000,
		Workers:          4,
		MaxRowErrors:     20,
		ProgressInterval: 100000,
	}
}

// Loader runs one dataset through the load pipeline. It is not safe
// for concurrent use; create a new Loader per run.
type Loader struct {
	pool *pgxpool.Pool
	cfg  Config

	// Keys retained across stages so later rows can resolve their
	// references. Discarded with the Loader when the run ends.
	brandIDs    idSet
	categoryIDs idSet
	customerIDs idSet
	productIDs  idSet
	orderIDs    idSet
	storeIndex  *nameIndex
	staffIndex  *nameIndex
	staffRows   []staffRow
	staffIDs    []int

	tablesLoaded int
	rowsLoaded   int64
}

// Result summarizes a load run.
type Result struct {
	RunID        uuid.UUID
	TablesLoaded int
	RowsLoaded   int64
	TotalRows    int
	Elapsed      time.Duration
}

// New creates a Loader for one run against pool.
func New(pool *pgxpool.Pool, cfg Config) *Loader {
	return &Loader{
		pool:        pool,
		cfg:         cfg,
		brandIDs:    make(idSet),
		categoryIDs: make(idSet),
		customerIDs: make(idSet),
		productIDs:  make(idSet),
		orderIDs:    make(idSet),
		storeIndex:  newNameIndex(),
	}
}

// Run loads the dataset stage by stage. A stage that rejects rows
// stops the pipeline; no later stage runs after a failure. The run is
// recorded in the load_runs table either way.
func (l *Loader) Run(ctx context.Context, ds *source.Dataset) (*Result, error) {
	started := time.Now()

	runID, err := db.StartRun(ctx, l.pool, ds.Dir)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, TotalRows: ds.Rows()}

	logging.Info().
		Str("run_id", runID.String()).
		Str("source", ds.Dir).
		Int("rows", result.TotalRows).
		Msg("Starting load")

	stages := []struct {
		name string
		run  func(context.Context, *source.Dataset) error
	}{
		{StageLookups, l.loadLookups},
		{StageEntities, l.loadEntities},
		{StageManagers, l.loadManagers},
		{StageSales, l.loadSales},
		{StageValidate, l.runValidation},
	}

	var runErr error
	for _, stage := range stages {
		logging.Debug().Str("stage", stage.name).Msg("Stage starting")
		if runErr = stage.run(ctx, ds); runErr != nil {
			logging.Error().Err(runErr).Str("stage", stage.name).Msg("Stage failed")
			break
		}
	}

	result.TablesLoaded = l.tablesLoaded
	result.RowsLoaded = l.rowsLoaded
	result.Elapsed = time.Since(started)

	status := db.RunStatusCompleted
	if runErr != nil {
		status = db.RunStatusFailed
	}
	finishCtx := context.WithoutCancel(ctx)
	if err := db.FinishRun(finishCtx, l.pool, runID, status, l.tablesLoaded, l.rowsLoaded, runErr); err != nil {
		logging.Warn().Err(err).Msg("Failed to record run outcome")
	}

	if runErr != nil {
		return result, runErr
	}

	logging.Info().
		Str("run_id", runID.String()).
		Int("tables", result.TablesLoaded).
		Int64("rows", result.RowsLoaded).
		Dur("elapsed", result.Elapsed).
		Msg("Load complete")
	return result, nil
}

// loadLookups loads brands, categories and stores. Store names go
// into the name index so staff, stock and order rows can resolve
// their store references by name later.
func (l *Loader) loadLookups(ctx context.Context, ds *source.Dataset) error {
	brands, errs := prepareBrands(ds.Brands)
	categories, categoryErrs := prepareCategories(ds.Categories)
	stores, storeErrs := prepareStores(ds.Stores)
	errs = append(errs, categoryErrs...)
	errs = append(errs, storeErrs...)
	if len(errs) > 0 {
		return newStageError(StageLookups, errs, l.cfg.MaxRowErrors)
	}

	rowErrs, err := l.insertTable(ctx, "brands", insertBrandSQL, brandArgs(brands))
	if err != nil {
		return err
	}

	categoryRowErrs, err := l.insertTable(ctx, "categories", insertCategorySQL, categoryArgs(categories))
	if err != nil {
		return err
	}
	rowErrs = append(rowErrs, categoryRowErrs...)

	storeIDs, storeRowErrs, err := l.insertReturningIDs(ctx, "stores", insertStoreSQL, storeArgs(stores))
	if err != nil {
		return err
	}
	rowErrs = append(rowErrs, storeRowErrs...)

	if len(rowErrs) > 0 {
		return newStageError(StageLookups, rowErrs, l.cfg.MaxRowErrors)
	}

	for _, b := range brands {
		l.brandIDs.add(b.ID)
	}
	for _, c := range categories {
		l.categoryIDs.add(c.ID)
	}
	for i, s := range stores {
		l.storeIndex.add(s.Name, storeIDs[i])
	}
	return nil
}

// loadEntities loads customers, products and staff. Staff rows go in
// with manager_id NULL; the manager stage fills it in once every
// staff row has an id. Staff full names go into the name index that
// both the manager pass and order rows resolve against.
func (l *Loader) loadEntities(ctx context.Context, ds *source.Dataset) error {
	customers, errs := prepareCustomers(ds.Customers)
	products, productErrs := prepareProducts(ds.Products, l.brandIDs, l.categoryIDs)
	staffs, staffErrs := prepareStaffs(ds.Staffs, l.storeIndex)
	errs = append(errs, productErrs...)
	errs = append(errs, staffErrs...)
	if len(errs) > 0 {
		return newStageError(StageEntities, errs, l.cfg.MaxRowErrors)
	}

	rowErrs, err := l.insertTable(ctx, "customers", insertCustomerSQL, customerArgs(customers))
	if err != nil {
		return err
	}

	productRowErrs, err := l.insertTable(ctx, "products", insertProductSQL, productArgs(products))
	if err != nil {
		return err
	}
	rowErrs = append(rowErrs, productRowErrs...)

	staffIDs, staffRowErrs, err := l.insertReturningIDs(ctx, "staffs", insertStaffSQL, staffArgs(staffs))
	if err != nil {
		return err
	}
	rowErrs = append(rowErrs, staffRowErrs...)

	if len(rowErrs) > 0 {
		return newStageError(StageEntities, rowErrs, l.cfg.MaxRowErrors)
	}

	for _, c := range customers {
		l.customerIDs.add(c.ID)
	}
	for _, p := range products {
		l.productIDs.add(p.ID)
	}
	l.staffRows = staffs
	l.staffIDs = staffIDs
	l.staffIndex = buildStaffIndex(staffs, staffIDs)
	return nil
}

// loadManagers is the second pass over staff. It runs only after
// every staff insert is visible, so a manager named anywhere in the
// file resolves no matter which row order the file used.
func (l *Loader) loadManagers(ctx context.Context, _ *source.Dataset) error {
	updates, errs := resolveManagerRefs(l.staffRows, l.staffIDs, l.staffIndex)
	if len(errs) > 0 {
		return newStageError(StageManagers, errs, l.cfg.MaxRowErrors)
	}
	if len(updates) == 0 {
		return nil
	}

	_, rowErrs, err := l.insertRows(ctx, "staffs", updateManagerSQL, managerArgs(updates))
	if err != nil {
		return err
	}
	if len(rowErrs) > 0 {
		return newStageError(StageManagers, rowErrs, l.cfg.MaxRowErrors)
	}

	logging.Debug().Int("links", len(updates)).Msg("Manager references resolved")
	return nil
}

// loadSales loads stocks, orders and order items. Order items are
// checked against the order and product keys in memory, so an item
// for an order that never loaded is rejected here rather than left
// for the validation stage to find.
func (l *Loader) loadSales(ctx context.Context, ds *source.Dataset) error {
	stocks, errs := prepareStocks(ds.Stocks, l.storeIndex, l.productIDs)
	orders, orderErrs := prepareOrders(ds.Orders, l.customerIDs, l.storeIndex, l.staffIndex)
	errs = append(errs, orderErrs...)
	if len(errs) > 0 {
		return newStageError(StageSales, errs, l.cfg.MaxRowErrors)
	}

	for _, o := range orders {
		l.orderIDs.add(o.id)
	}
	items, itemErrs := prepareOrderItems(ds.OrderItems, l.orderIDs, l.productIDs)
	if len(itemErrs) > 0 {
		return newStageError(StageSales, itemErrs, l.cfg.MaxRowErrors)
	}

	rowErrs, err := l.insertTable(ctx, "stocks", insertStockSQL, stockArgs(stocks))
	if err != nil {
		return err
	}

	orderRowErrs, err := l.insertTable(ctx, "orders", insertOrderSQL, orderArgs(orders))
	if err != nil {
		return err
	}
	rowErrs = append(rowErrs, orderRowErrs...)

	// Items reference orders, so they only go in once every order row
	// made it.
	if len(rowErrs) > 0 {
		return newStageError(StageSales, rowErrs, l.cfg.MaxRowErrors)
	}

	itemRowErrs, err := l.insertTable(ctx, "order_items", insertOrderItemSQL, orderItemArgs(items))
	if err != nil {
		return err
	}
	if len(itemRowErrs) > 0 {
		return newStageError(StageSales, itemRowErrs, l.cfg.MaxRowErrors)
	}
	return nil
}

// runValidation is the final stage. Any referential integrity
// violation fails the load as a whole.
func (l *Loader) runValidation(ctx context.Context, _ *source.Dataset) error {
	violations, err := ValidateReferences(ctx, l.pool)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	logging.Info().Msg("Referential integrity verified")
	return nil
}

// Insert statements, one per target table. Stores and staffs return
// their generated keys; every other table carries its key in the
// input.
const (
	insertBrandSQL = `INSERT INTO brands (brand_id, brand_name) VALUES ($1, $2)`

	insertCategorySQL = `INSERT INTO categories (category_id, category_name) VALUES ($1, $2)`

	insertStoreSQL = `
        INSERT INTO stores (store_name, phone, email, street, city, state, zip_code)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING store_id`

	insertCustomerSQL = `
        INSERT INTO customers (customer_id, first_name, last_name, phone, email, street, city, state, zip_code)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	insertProductSQL = `
        INSERT INTO products (product_id, product_name, brand_id, category_id, model_year, list_price)
        VALUES ($1, $2, $3, $4, $5, $6)`

	insertStaffSQL = `
        INSERT INTO staffs (first_name, last_name, email, phone, active, street, store_id, manager_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
        RETURNING staff_id`

	updateManagerSQL = `UPDATE staffs SET manager_id = $1 WHERE staff_id = $2`

	insertStockSQL = `INSERT INTO stocks (store_id, product_id, quantity) VALUES ($1, $2, $3)`

	insertOrderSQL = `
        INSERT INTO orders (order_id, customer_id, order_status, order_date, required_date, shipped_date, store_id, staff_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertOrderItemSQL = `
        INSERT INTO order_items (order_id, item_id, product_id, quantity, list_price, discount)
        VALUES ($1, $2, $3, $4, $5, $6)`
)

// textOrNil turns an empty CSV field into a SQL NULL.
func textOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func brandArgs(brands []source.Brand) []rowArgs {
	rows := make([]rowArgs, len(brands))
	for i, b := range brands {
		rows[i] = rowArgs{line: b.Line, args: []any{b.ID, b.Name}}
	}
	return rows
}

func categoryArgs(categories []source.Category) []rowArgs {
	rows := make([]rowArgs, len(categories))
	for i, c := range categories {
		rows[i] = rowArgs{line: c.Line, args: []any{c.ID, c.Name}}
	}
	return rows
}

func storeArgs(stores []source.Store) []rowArgs {
	rows := make([]rowArgs, len(stores))
	for i, s := range stores {
		rows[i] = rowArgs{line: s.Line, args: []any{
			s.Name, textOrNil(s.Phone), textOrNil(s.Email), textOrNil(s.Street),
			textOrNil(s.City), textOrNil(s.State), textOrNil(s.ZipCode),
		}}
	}
	return rows
}

func customerArgs(customers []source.Customer) []rowArgs {
	rows := make([]rowArgs, len(customers))
	for i, c := range customers {
		rows[i] = rowArgs{line: c.Line, args: []any{
			c.ID, c.FirstName, c.LastName, textOrNil(c.Phone), c.Email,
			textOrNil(c.Street), textOrNil(c.City), textOrNil(c.State), textOrNil(c.ZipCode),
		}}
	}
	return rows
}

func productArgs(products []source.Product) []rowArgs {
	rows := make([]rowArgs, len(products))
	for i, p := range products {
		rows[i] = rowArgs{line: p.Line, args: []any{
			p.ID, p.Name, p.BrandID, p.CategoryID, p.ModelYear, p.ListPrice,
		}}
	}
	return rows
}

func staffArgs(staffs []staffRow) []rowArgs {
	rows := make([]rowArgs, len(staffs))
	for i, s := range staffs {
		rows[i] = rowArgs{line: s.src.Line, args: []any{
			s.src.FirstName, s.src.LastName, s.src.Email, textOrNil(s.src.Phone),
			s.src.Active, textOrNil(s.src.Street), s.storeID,
		}}
	}
	return rows
}

func managerArgs(updates []managerUpdate) []rowArgs {
	rows := make([]rowArgs, len(updates))
	for i, u := range updates {
		rows[i] = rowArgs{line: u.line, args: []any{u.managerID, u.staffID}}
	}
	return rows
}

func stockArgs(stocks []stockRow) []rowArgs {
	rows := make([]rowArgs, len(stocks))
	for i, s := range stocks {
		rows[i] = rowArgs{line: s.line, args: []any{s.storeID, s.productID, s.quantity}}
	}
	return rows
}

func orderArgs(orders []orderRow) []rowArgs {
	rows := make([]rowArgs, len(orders))
	for i, o := range orders {
		rows[i] = rowArgs{line: o.line, args: []any{
			o.id, o.customerID, o.status, o.orderDate, o.requiredDate,
			o.shippedDate, o.storeID, o.staffID,
		}}
	}
	return rows
}

func orderItemArgs(items []source.OrderItem) []rowArgs {
	rows := make([]rowArgs, len(items))
	for i, it := range items {
		rows[i] = rowArgs{line: it.Line, args: []any{
			it.OrderID, it.ItemID, it.ProductID, it.Quantity, it.ListPrice, it.Discount,
		}}
	}
	return rows
}
