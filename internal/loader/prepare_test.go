package loader

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pgEdge/bikestore-loader/internal/source"
)

func TestPrepareBrands(t *testing.T) {
	brands := []source.Brand{
		{Line: 2, ID: 1, Name: "Electra"},
		{Line: 3, ID: 2, Name: "Haro"},
		{Line: 4, ID: 1, Name: "Surly"},   // repeated id
		{Line: 5, ID: 3, Name: "Electra"}, // repeated name
		{Line: 6, ID: 4, Name: ""},
	}

	valid, errs := prepareBrands(brands)
	if len(valid) != 2 {
		t.Errorf("Expected 2 valid rows, got %d", len(valid))
	}
	if len(errs) != 3 {
		t.Fatalf("Expected 3 row errors, got %d", len(errs))
	}

	var dup *DuplicateError
	if !errors.As(errs[0].Err, &dup) || dup.Column != "brand_id" {
		t.Errorf("Line 4 should be a duplicate brand_id, got %v", errs[0])
	}
	if !errors.As(errs[1].Err, &dup) || dup.Column != "brand_name" {
		t.Errorf("Line 5 should be a duplicate brand_name, got %v", errs[1])
	}
	if errs[0].Line != 4 || errs[1].Line != 5 || errs[2].Line != 6 {
		t.Errorf("Row errors carry wrong line numbers: %v", errs)
	}
}

func TestPrepareStoresDuplicateName(t *testing.T) {
	stores := []source.Store{
		{Line: 2, Name: "Santa Cruz Bikes"},
		{Line: 3, Name: "Baldwin Bikes"},
		{Line: 4, Name: "Santa Cruz Bikes"},
	}

	valid, errs := prepareStores(stores)
	if len(valid) != 2 {
		t.Errorf("Expected 2 valid rows, got %d", len(valid))
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 row error, got %d", len(errs))
	}
	if errs[0].Line != 4 {
		t.Errorf("Expected the second occurrence rejected, got line %d", errs[0].Line)
	}
	var dup *DuplicateError
	if !errors.As(errs[0].Err, &dup) {
		t.Fatalf("Expected DuplicateError, got %T", errs[0].Err)
	}
	if dup.Value != "Santa Cruz Bikes" {
		t.Errorf("Expected duplicate value Santa Cruz Bikes, got %q", dup.Value)
	}
}

func TestPrepareProducts(t *testing.T) {
	brandIDs := idSet{1: {}}
	categoryIDs := idSet{6: {}}

	products := []source.Product{
		{Line: 2, ID: 1, Name: "Trek 820 - 2016", BrandID: 1, CategoryID: 6, ModelYear: 2016, ListPrice: 379.99},
		{Line: 3, ID: 2, Name: "Ritchey Timberwolf", BrandID: 5, CategoryID: 6, ModelYear: 2016, ListPrice: 749.99},
		{Line: 4, ID: 3, Name: "Surly Wednesday", BrandID: 1, CategoryID: 9, ModelYear: 2016, ListPrice: 999.99},
	}

	valid, errs := prepareProducts(products, brandIDs, categoryIDs)
	if len(valid) != 1 {
		t.Errorf("Expected 1 valid row, got %d", len(valid))
	}
	if len(errs) != 2 {
		t.Fatalf("Expected 2 row errors, got %d", len(errs))
	}

	var unknown *UnknownReferenceError
	if !errors.As(errs[0].Err, &unknown) || unknown.Column != "brand_id" {
		t.Errorf("Line 3 should fail on brand_id, got %v", errs[0])
	}
	if !errors.As(errs[1].Err, &unknown) || unknown.Column != "category_id" {
		t.Errorf("Line 4 should fail on category_id, got %v", errs[1])
	}
}

func TestPrepareStaffs(t *testing.T) {
	stores := newNameIndex()
	stores.add("Santa Cruz Bikes", 1)
	stores.add("Baldwin Bikes", 2)

	staffs := []source.Staff{
		{Line: 2, FirstName: "Fabiola", LastName: "Jackson", Email: "fabiola@bikes.shop", StoreName: "Santa Cruz Bikes"},
		{Line: 3, FirstName: "Mireya", LastName: "Copeland", Email: "mireya@bikes.shop", StoreName: "Rowlett Bikes"},
		{Line: 4, FirstName: "Genna", LastName: "Serrano", Email: "fabiola@bikes.shop", StoreName: "Baldwin Bikes"},
	}

	valid, errs := prepareStaffs(staffs, stores)
	if len(valid) != 1 {
		t.Fatalf("Expected 1 valid row, got %d", len(valid))
	}
	if valid[0].storeID != 1 {
		t.Errorf("Expected store id 1 for Santa Cruz Bikes, got %d", valid[0].storeID)
	}
	if len(errs) != 2 {
		t.Fatalf("Expected 2 row errors, got %d", len(errs))
	}

	var unknown *UnknownReferenceError
	if !errors.As(errs[0].Err, &unknown) || unknown.Value != "Rowlett Bikes" {
		t.Errorf("Line 3 should fail on its store name, got %v", errs[0])
	}
	var dup *DuplicateError
	if !errors.As(errs[1].Err, &dup) || dup.Column != "email" {
		t.Errorf("Line 4 should fail on its repeated email, got %v", errs[1])
	}
}

func TestResolveManagerRefs(t *testing.T) {
	// Jane reports to John but appears first in the file. The second
	// pass resolves her row anyway because the index covers every
	// inserted staff row, whatever order they were read in.
	rows := []staffRow{
		{src: source.Staff{Line: 2, FirstName: "Jane", LastName: "Doe", ManagerName: "John Smith"}, storeID: 1},
		{src: source.Staff{Line: 3, FirstName: "John", LastName: "Smith", ManagerName: ""}, storeID: 1},
	}
	ids := []int{10, 11}
	index := buildStaffIndex(rows, ids)

	updates, errs := resolveManagerRefs(rows, ids, index)
	if len(errs) != 0 {
		t.Fatalf("Unexpected row errors: %v", errs)
	}
	if len(updates) != 1 {
		t.Fatalf("Expected 1 manager update, got %d", len(updates))
	}
	if updates[0].staffID != 10 || updates[0].managerID != 11 {
		t.Errorf("Expected staff 10 to link to manager 11, got %+v", updates[0])
	}
}

func TestResolveManagerRefsTopLevel(t *testing.T) {
	// A row without a manager stays unlinked. That is the normal case
	// for the top of the reporting chain, not an error.
	rows := []staffRow{
		{src: source.Staff{Line: 2, FirstName: "Fabiola", LastName: "Jackson"}, storeID: 1},
	}
	ids := []int{1}

	updates, errs := resolveManagerRefs(rows, ids, buildStaffIndex(rows, ids))
	if len(errs) != 0 {
		t.Errorf("Unexpected row errors: %v", errs)
	}
	if len(updates) != 0 {
		t.Errorf("Expected no updates, got %d", len(updates))
	}
}

func TestResolveManagerRefsUnknown(t *testing.T) {
	rows := []staffRow{
		{src: source.Staff{Line: 2, FirstName: "Jane", LastName: "Doe", ManagerName: "Nobody Here"}, storeID: 1},
	}
	ids := []int{1}

	updates, errs := resolveManagerRefs(rows, ids, buildStaffIndex(rows, ids))
	if len(updates) != 0 {
		t.Errorf("Expected no updates, got %d", len(updates))
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 row error, got %d", len(errs))
	}
	var unknown *UnknownReferenceError
	if !errors.As(errs[0].Err, &unknown) || unknown.Column != "manager_name" {
		t.Errorf("Expected unknown manager_name error, got %v", errs[0])
	}
}

func TestResolveManagerRefsAmbiguous(t *testing.T) {
	// Two staff share the full name the third row names as manager.
	rows := []staffRow{
		{src: source.Staff{Line: 2, FirstName: "Jane", LastName: "Doe", Email: "jane1@bikes.shop"}, storeID: 1},
		{src: source.Staff{Line: 3, FirstName: "Jane", LastName: "Doe", Email: "jane2@bikes.shop"}, storeID: 2},
		{src: source.Staff{Line: 4, FirstName: "Venita", LastName: "Daniel", ManagerName: "Jane Doe"}, storeID: 1},
	}
	ids := []int{1, 2, 3}

	_, errs := resolveManagerRefs(rows, ids, buildStaffIndex(rows, ids))
	if len(errs) != 1 {
		t.Fatalf("Expected 1 row error, got %d", len(errs))
	}
	if errs[0].Line != 4 {
		t.Errorf("Expected the referring row rejected, got line %d", errs[0].Line)
	}
	var ambiguous *AmbiguousReferenceError
	if !errors.As(errs[0].Err, &ambiguous) {
		t.Fatalf("Expected AmbiguousReferenceError, got %T", errs[0].Err)
	}
}

func TestPrepareStocks(t *testing.T) {
	stores := newNameIndex()
	stores.add("Santa Cruz Bikes", 1)
	productIDs := idSet{1: {}, 2: {}}

	stocks := []source.Stock{
		{Line: 2, StoreName: "Santa Cruz Bikes", ProductID: 1, Quantity: 27},
		{Line: 3, StoreName: "Santa Cruz Bikes", ProductID: 2, Quantity: 0},
		{Line: 4, StoreName: "Baldwin Bikes", ProductID: 1, Quantity: 5},
		{Line: 5, StoreName: "Santa Cruz Bikes", ProductID: 9, Quantity: 5},
		{Line: 6, StoreName: "Santa Cruz Bikes", ProductID: 1, Quantity: 12},
		{Line: 7, StoreName: "Santa Cruz Bikes", ProductID: 2, Quantity: -1},
	}

	valid, errs := prepareStocks(stocks, stores, productIDs)
	if len(valid) != 2 {
		t.Errorf("Expected 2 valid rows, got %d", len(valid))
	}
	if len(errs) != 4 {
		t.Fatalf("Expected 4 row errors, got %d", len(errs))
	}
	if errs[0].Line != 4 || errs[1].Line != 5 || errs[2].Line != 6 || errs[3].Line != 7 {
		t.Errorf("Row errors carry wrong line numbers: %v", errs)
	}
	var dup *DuplicateError
	if !errors.As(errs[2].Err, &dup) {
		t.Errorf("Line 6 should be a duplicate store and product pair, got %v", errs[2])
	}
}

func TestPrepareOrders(t *testing.T) {
	customerIDs := idSet{259: {}}
	stores := newNameIndex()
	stores.add("Santa Cruz Bikes", 1)
	staffs := newNameIndex()
	staffs.add("Mireya Copeland", 2)

	orders := []source.Order{
		{
			Line: 2, ID: 1, CustomerID: 259, Status: OrderStatusCompleted,
			OrderDate: "1/1/2016", RequiredDate: "3/1/2016", ShippedDate: "3/1/2016",
			StoreName: "Santa Cruz Bikes", StaffName: "Mireya Copeland",
		},
		{
			Line: 3, ID: 2, CustomerID: 259, Status: OrderStatusPending,
			OrderDate: "4/1/2016", RequiredDate: "6/1/2016", ShippedDate: "",
			StoreName: "Santa Cruz Bikes", StaffName: "Mireya Copeland",
		},
	}

	valid, errs := prepareOrders(orders, customerIDs, stores, staffs)
	if len(errs) != 0 {
		t.Fatalf("Unexpected row errors: %v", errs)
	}
	if len(valid) != 2 {
		t.Fatalf("Expected 2 valid rows, got %d", len(valid))
	}

	first := valid[0]
	if first.storeID != 1 || first.staffID != 2 {
		t.Errorf("Expected resolved store 1 and staff 2, got %d and %d", first.storeID, first.staffID)
	}
	wantDate := time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !first.orderDate.Equal(wantDate) {
		t.Errorf("Expected order date %v, got %v", wantDate, first.orderDate)
	}
	if first.shippedDate == nil {
		t.Error("Expected a shipped date on the first order")
	}

	// An empty shipped date loads as NULL, meaning not yet shipped.
	if valid[1].shippedDate != nil {
		t.Errorf("Expected nil shipped date, got %v", *valid[1].shippedDate)
	}
}

func TestPrepareOrdersRejections(t *testing.T) {
	customerIDs := idSet{1: {}}
	stores := newNameIndex()
	stores.add("Santa Cruz Bikes", 1)
	staffs := newNameIndex()
	staffs.add("Mireya Copeland", 2)
	staffs.add("Jane Doe", 3)
	staffs.add("Jane Doe", 4)

	base := source.Order{
		CustomerID: 1, Status: OrderStatusPending,
		OrderDate: "1/1/2016", RequiredDate: "3/1/2016",
		StoreName: "Santa Cruz Bikes", StaffName: "Mireya Copeland",
	}

	tests := []struct {
		name   string
		modify func(*source.Order)
		want   string
	}{
		{
			name:   "unknown customer",
			modify: func(o *source.Order) { o.CustomerID = 99 },
			want:   "customer_id",
		},
		{
			name:   "status out of range",
			modify: func(o *source.Order) { o.Status = 5 },
			want:   "order_status",
		},
		{
			name:   "missing order date",
			modify: func(o *source.Order) { o.OrderDate = "" },
			want:   "order_date",
		},
		{
			name:   "malformed required date",
			modify: func(o *source.Order) { o.RequiredDate = "2016-01-03" },
			want:   "required_date",
		},
		{
			name:   "malformed shipped date",
			modify: func(o *source.Order) { o.ShippedDate = "soon" },
			want:   "shipped_date",
		},
		{
			name:   "unknown store",
			modify: func(o *source.Order) { o.StoreName = "Rowlett Bikes" },
			want:   "store_name",
		},
		{
			name:   "unknown staff",
			modify: func(o *source.Order) { o.StaffName = "Nobody Here" },
			want:   "staff_name",
		},
		{
			name:   "ambiguous staff",
			modify: func(o *source.Order) { o.StaffName = "Jane Doe" },
			want:   "staff_name",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base
			o.Line = 2
			o.ID = i + 1
			tt.modify(&o)

			valid, errs := prepareOrders([]source.Order{o}, customerIDs, stores, staffs)
			if len(valid) != 0 {
				t.Fatalf("Expected no valid rows, got %d", len(valid))
			}
			if len(errs) != 1 {
				t.Fatalf("Expected 1 row error, got %d", len(errs))
			}
			if got := errs[0].Err.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("Expected error naming %s, got %q", tt.want, got)
			}
		})
	}
}

func TestPrepareOrderItems(t *testing.T) {
	orderIDs := idSet{1: {}}
	productIDs := idSet{20: {}}

	items := []source.OrderItem{
		{Line: 2, OrderID: 1, ItemID: 1, ProductID: 20, Quantity: 2, ListPrice: 599.99, Discount: 0.07},
		{Line: 3, OrderID: 9, ItemID: 1, ProductID: 20, Quantity: 1, ListPrice: 599.99, Discount: 0},
		{Line: 4, OrderID: 1, ItemID: 2, ProductID: 33, Quantity: 1, ListPrice: 599.99, Discount: 0},
		{Line: 5, OrderID: 1, ItemID: 1, ProductID: 20, Quantity: 1, ListPrice: 599.99, Discount: 0},
		{Line: 6, OrderID: 1, ItemID: 3, ProductID: 20, Quantity: 0, ListPrice: 599.99, Discount: 0},
		{Line: 7, OrderID: 1, ItemID: 4, ProductID: 20, Quantity: 1, ListPrice: 599.99, Discount: 1.5},
	}

	valid, errs := prepareOrderItems(items, orderIDs, productIDs)
	if len(valid) != 1 {
		t.Errorf("Expected 1 valid row, got %d", len(valid))
	}
	if len(errs) != 5 {
		t.Fatalf("Expected 5 row errors, got %d", len(errs))
	}

	// An item naming an order that never loaded fails right here, not
	// in the validation stage.
	var unknown *UnknownReferenceError
	if !errors.As(errs[0].Err, &unknown) || unknown.Column != "order_id" {
		t.Errorf("Line 3 should fail on order_id, got %v", errs[0])
	}
	if !errors.As(errs[1].Err, &unknown) || unknown.Column != "product_id" {
		t.Errorf("Line 4 should fail on product_id, got %v", errs[1])
	}
	var dup *DuplicateError
	if !errors.As(errs[2].Err, &dup) {
		t.Errorf("Line 5 should be a duplicate item, got %v", errs[2])
	}
}
