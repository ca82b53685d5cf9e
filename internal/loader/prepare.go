package loader

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pgEdge/bikestore-loader/internal/source"
)

// Order status codes stored in orders.order_status.
const (
	OrderStatusPending    = 1
	OrderStatusProcessing = 2
	OrderStatusRejected   = 3
	OrderStatusCompleted  = 4
)

// staffRow is a staff record with its store reference resolved. The
// manager reference stays unresolved until every staff row has an id.
type staffRow struct {
	src     source.Staff
	storeID int
}

// stockRow is a stock record with its store name resolved.
type stockRow struct {
	line      int
	storeID   int
	productID int
	quantity  int
}

// orderRow is an order record with names resolved and dates parsed.
type orderRow struct {
	line         int
	id           int
	customerID   int
	status       int
	orderDate    time.Time
	requiredDate time.Time
	shippedDate  *time.Time
	storeID      int
	staffID      int
}

// managerUpdate links one staff row to its resolved manager.
type managerUpdate struct {
	line      int
	staffID   int
	managerID int
}

// prepareBrands checks brand rows before insert. Each rejected row
// carries at most one error, the first problem found.
func prepareBrands(brands []source.Brand) ([]source.Brand, []RowError) {
	var errs []RowError
	valid := make([]source.Brand, 0, len(brands))
	seenIDs := make(idSet, len(brands))
	seenNames := make(map[string]struct{}, len(brands))
	for _, b := range brands {
		switch {
		case b.Name == "":
			errs = append(errs, RowError{Table: "brands", Line: b.Line,
				Err: fmt.Errorf("brand_name is required")})
		case seenIDs.has(b.ID):
			errs = append(errs, RowError{Table: "brands", Line: b.Line,
				Err: &DuplicateError{Column: "brand_id", Value: strconv.Itoa(b.ID)}})
		default:
			if _, dup := seenNames[b.Name]; dup {
				errs = append(errs, RowError{Table: "brands", Line: b.Line,
					Err: &DuplicateError{Column: "brand_name", Value: b.Name}})
				continue
			}
			seenIDs.add(b.ID)
			seenNames[b.Name] = struct{}{}
			valid = append(valid, b)
		}
	}
	return valid, errs
}

func prepareCategories(categories []source.Category) ([]source.Category, []RowError) {
	var errs []RowError
	valid := make([]source.Category, 0, len(categories))
	seenIDs := make(idSet, len(categories))
	seenNames := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		switch {
		case c.Name == "":
			errs = append(errs, RowError{Table: "categories", Line: c.Line,
				Err: fmt.Errorf("category_name is required")})
		case seenIDs.has(c.ID):
			errs = append(errs, RowError{Table: "categories", Line: c.Line,
				Err: &DuplicateError{Column: "category_id", Value: strconv.Itoa(c.ID)}})
		default:
			if _, dup := seenNames[c.Name]; dup {
				errs = append(errs, RowError{Table: "categories", Line: c.Line,
					Err: &DuplicateError{Column: "category_name", Value: c.Name}})
				continue
			}
			seenIDs.add(c.ID)
			seenNames[c.Name] = struct{}{}
			valid = append(valid, c)
		}
	}
	return valid, errs
}

// prepareStores checks store rows. Store names must be unique because
// staffs, stocks and orders reference stores by name.
func prepareStores(stores []source.Store) ([]source.Store, []RowError) {
	var errs []RowError
	valid := make([]source.Store, 0, len(stores))
	seenNames := make(map[string]struct{}, len(stores))
	for _, s := range stores {
		switch {
		case s.Name == "":
			errs = append(errs, RowError{Table: "stores", Line: s.Line,
				Err: fmt.Errorf("store_name is required")})
		default:
			if _, dup := seenNames[s.Name]; dup {
				errs = append(errs, RowError{Table: "stores", Line: s.Line,
					Err: &DuplicateError{Column: "store_name", Value: s.Name}})
				continue
			}
			seenNames[s.Name] = struct{}{}
			valid = append(valid, s)
		}
	}
	return valid, errs
}

func prepareCustomers(customers []source.Customer) ([]source.Customer, []RowError) {
	var errs []RowError
	valid := make([]source.Customer, 0, len(customers))
	seenIDs := make(idSet, len(customers))
	seenEmails := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		switch {
		case c.Email == "":
			errs = append(errs, RowError{Table: "customers", Line: c.Line,
				Err: fmt.Errorf("email is required")})
		case seenIDs.has(c.ID):
			errs = append(errs, RowError{Table: "customers", Line: c.Line,
				Err: &DuplicateError{Column: "customer_id", Value: strconv.Itoa(c.ID)}})
		default:
			if _, dup := seenEmails[c.Email]; dup {
				errs = append(errs, RowError{Table: "customers", Line: c.Line,
					Err: &DuplicateError{Column: "email", Value: c.Email}})
				continue
			}
			seenIDs.add(c.ID)
			seenEmails[c.Email] = struct{}{}
			valid = append(valid, c)
		}
	}
	return valid, errs
}

// prepareProducts checks product rows against the brand and category
// keys loaded in the first stage.
func prepareProducts(products []source.Product, brandIDs, categoryIDs idSet) ([]source.Product, []RowError) {
	var errs []RowError
	valid := make([]source.Product, 0, len(products))
	seenIDs := make(idSet, len(products))
	for _, p := range products {
		switch {
		case p.Name == "":
			errs = append(errs, RowError{Table: "products", Line: p.Line,
				Err: fmt.Errorf("product_name is required")})
		case seenIDs.has(p.ID):
			errs = append(errs, RowError{Table: "products", Line: p.Line,
				Err: &DuplicateError{Column: "product_id", Value: strconv.Itoa(p.ID)}})
		case !brandIDs.has(p.BrandID):
			errs = append(errs, RowError{Table: "products", Line: p.Line,
				Err: &UnknownReferenceError{Column: "brand_id", Value: strconv.Itoa(p.BrandID)}})
		case !categoryIDs.has(p.CategoryID):
			errs = append(errs, RowError{Table: "products", Line: p.Line,
				Err: &UnknownReferenceError{Column: "category_id", Value: strconv.Itoa(p.CategoryID)}})
		case p.ListPrice < 0:
			errs = append(errs, RowError{Table: "products", Line: p.Line,
				Err: fmt.Errorf("list_price must be non-negative, got %v", p.ListPrice)})
		default:
			seenIDs.add(p.ID)
			valid = append(valid, p)
		}
	}
	return valid, errs
}

// prepareStaffs resolves each staff row's store name. Manager names
// are left alone here; they resolve in a second pass once every staff
// row has an id.
func prepareStaffs(staffs []source.Staff, stores *nameIndex) ([]staffRow, []RowError) {
	var errs []RowError
	valid := make([]staffRow, 0, len(staffs))
	seenEmails := make(map[string]struct{}, len(staffs))
	for _, s := range staffs {
		if s.FirstName == "" || s.LastName == "" {
			errs = append(errs, RowError{Table: "staffs", Line: s.Line,
				Err: fmt.Errorf("first_name and last_name are required")})
			continue
		}
		if s.Email == "" {
			errs = append(errs, RowError{Table: "staffs", Line: s.Line,
				Err: fmt.Errorf("email is required")})
			continue
		}
		if _, dup := seenEmails[s.Email]; dup {
			errs = append(errs, RowError{Table: "staffs", Line: s.Line,
				Err: &DuplicateError{Column: "email", Value: s.Email}})
			continue
		}
		if s.StoreName == "" {
			errs = append(errs, RowError{Table: "staffs", Line: s.Line,
				Err: fmt.Errorf("store_name is required")})
			continue
		}
		storeID, err := stores.lookup("store_name", s.StoreName)
		if err != nil {
			errs = append(errs, RowError{Table: "staffs", Line: s.Line, Err: err})
			continue
		}
		seenEmails[s.Email] = struct{}{}
		valid = append(valid, staffRow{src: s, storeID: storeID})
	}
	return valid, errs
}

// buildStaffIndex maps staff full names to their generated ids. The
// rows and ids slices are parallel. Repeated full names stay in the
// index so lookups can report them as ambiguous.
func buildStaffIndex(rows []staffRow, ids []int) *nameIndex {
	index := newNameIndex()
	for i, r := range rows {
		index.add(r.src.FullName(), ids[i])
	}
	return index
}

// resolveManagerRefs produces the manager link for every staff row
// that names one. Rows without a manager are skipped, not rejected.
// The result does not depend on the order staff rows were read in:
// the index already covers every inserted row.
func resolveManagerRefs(rows []staffRow, ids []int, index *nameIndex) ([]managerUpdate, []RowError) {
	var errs []RowError
	var updates []managerUpdate
	for i, r := range rows {
		if r.src.ManagerName == "" {
			continue
		}
		managerID, err := index.lookup("manager_name", r.src.ManagerName)
		if err != nil {
			errs = append(errs, RowError{Table: "staffs", Line: r.src.Line, Err: err})
			continue
		}
		updates = append(updates, managerUpdate{
			line:      r.src.Line,
			staffID:   ids[i],
			managerID: managerID,
		})
	}
	return updates, errs
}

// prepareStocks resolves store names and checks product references
// and quantities.
func prepareStocks(stocks []source.Stock, stores *nameIndex, productIDs idSet) ([]stockRow, []RowError) {
	var errs []RowError
	valid := make([]stockRow, 0, len(stocks))
	seen := make(map[[2]int]struct{}, len(stocks))
	for _, s := range stocks {
		if s.StoreName == "" {
			errs = append(errs, RowError{Table: "stocks", Line: s.Line,
				Err: fmt.Errorf("store_name is required")})
			continue
		}
		storeID, err := stores.lookup("store_name", s.StoreName)
		if err != nil {
			errs = append(errs, RowError{Table: "stocks", Line: s.Line, Err: err})
			continue
		}
		if !productIDs.has(s.ProductID) {
			errs = append(errs, RowError{Table: "stocks", Line: s.Line,
				Err: &UnknownReferenceError{Column: "product_id", Value: strconv.Itoa(s.ProductID)}})
			continue
		}
		if s.Quantity < 0 {
			errs = append(errs, RowError{Table: "stocks", Line: s.Line,
				Err: fmt.Errorf("quantity must be non-negative, got %d", s.Quantity)})
			continue
		}
		key := [2]int{storeID, s.ProductID}
		if _, dup := seen[key]; dup {
			errs = append(errs, RowError{Table: "stocks", Line: s.Line,
				Err: &DuplicateError{Column: "store_name, product_id",
					Value: fmt.Sprintf("%s, %d", s.StoreName, s.ProductID)}})
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, stockRow{
			line:      s.Line,
			storeID:   storeID,
			productID: s.ProductID,
			quantity:  s.Quantity,
		})
	}
	return valid, errs
}

// prepareOrders resolves customer, store and staff references and
// parses the three date columns. order_date and required_date must
// parse; shipped_date may be empty for orders not yet shipped.
func prepareOrders(orders []source.Order, customerIDs idSet, stores, staffs *nameIndex) ([]orderRow, []RowError) {
	var errs []RowError
	valid := make([]orderRow, 0, len(orders))
	seenIDs := make(idSet, len(orders))
	for _, o := range orders {
		if seenIDs.has(o.ID) {
			errs = append(errs, RowError{Table: "orders", Line: o.Line,
				Err: &DuplicateError{Column: "order_id", Value: strconv.Itoa(o.ID)}})
			continue
		}
		if !customerIDs.has(o.CustomerID) {
			errs = append(errs, RowError{Table: "orders", Line: o.Line,
				Err: &UnknownReferenceError{Column: "customer_id", Value: strconv.Itoa(o.CustomerID)}})
			continue
		}
		if o.Status < OrderStatusPending || o.Status > OrderStatusCompleted {
			errs = append(errs, RowError{Table: "orders", Line: o.Line,
				Err: fmt.Errorf("order_status must be between 1 and 4, got %d", o.Status)})
			continue
		}
		orderDate, err := parseDate("order_date", o.OrderDate)
		if err != nil {
			errs = append(errs, RowError{Table: "orders", Line: o.Line, Err: err})
			continue
		}
		requiredDate, err := parseDate("required_date", o.RequiredDate)
		if err != nil {
			errs = append(errs, RowError{Table: "orders", Line: o.Line, Err: err})
			continue
		}
		shippedDate, err := parseOptionalDate("shipped_date", o.ShippedDate)
		if err != nil {
			errs = append(errs, RowError{Table: "orders", Line: o.Line, Err: err})
			continue
		}
		if o.StoreName == "" {
			errs = append(errs, RowError{Table: "orders", Line: o.Line,
				Err: fmt.Errorf("store_name is required")})
			continue
		}
		storeID, err := stores.lookup("store_name", o.StoreName)
		if err != nil {
			errs = append(errs, RowError{Table: "orders", Line: o.Line, Err: err})
			continue
		}
		if o.StaffName == "" {
			errs = append(errs, RowError{Table: "orders", Line: o.Line,
				Err: fmt.Errorf("staff_name is required")})
			continue
		}
		staffID, err := staffs.lookup("staff_name", o.StaffName)
		if err != nil {
			errs = append(errs, RowError{Table: "orders", Line: o.Line, Err: err})
			continue
		}
		seenIDs.add(o.ID)
		valid = append(valid, orderRow{
			line:         o.Line,
			id:           o.ID,
			customerID:   o.CustomerID,
			status:       o.Status,
			orderDate:    orderDate,
			requiredDate: requiredDate,
			shippedDate:  shippedDate,
			storeID:      storeID,
			staffID:      staffID,
		})
	}
	return valid, errs
}

// prepareOrderItems checks each line item against the orders and
// products already loaded. An item naming an order or product that
// never made it into the database is rejected here, before the final
// validation stage ever runs.
func prepareOrderItems(items []source.OrderItem, orderIDs, productIDs idSet) ([]source.OrderItem, []RowError) {
	var errs []RowError
	valid := make([]source.OrderItem, 0, len(items))
	seen := make(map[[2]int]struct{}, len(items))
	for _, it := range items {
		if !orderIDs.has(it.OrderID) {
			errs = append(errs, RowError{Table: "order_items", Line: it.Line,
				Err: &UnknownReferenceError{Column: "order_id", Value: strconv.Itoa(it.OrderID)}})
			continue
		}
		if !productIDs.has(it.ProductID) {
			errs = append(errs, RowError{Table: "order_items", Line: it.Line,
				Err: &UnknownReferenceError{Column: "product_id", Value: strconv.Itoa(it.ProductID)}})
			continue
		}
		key := [2]int{it.OrderID, it.ItemID}
		if _, dup := seen[key]; dup {
			errs = append(errs, RowError{Table: "order_items", Line: it.Line,
				Err: &DuplicateError{Column: "order_id, item_id",
					Value: fmt.Sprintf("%d, %d", it.OrderID, it.ItemID)}})
			continue
		}
		if it.Quantity <= 0 {
			errs = append(errs, RowError{Table: "order_items", Line: it.Line,
				Err: fmt.Errorf("quantity must be positive, got %d", it.Quantity)})
			continue
		}
		if it.ListPrice < 0 {
			errs = append(errs, RowError{Table: "order_items", Line: it.Line,
				Err: fmt.Errorf("list_price must be non-negative, got %v", it.ListPrice)})
			continue
		}
		if it.Discount < 0 || it.Discount > 1 {
			errs = append(errs, RowError{Table: "order_items", Line: it.Line,
				Err: fmt.Errorf("discount must be between 0 and 1, got %v", it.Discount)})
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, it)
	}
	return valid, errs
}
