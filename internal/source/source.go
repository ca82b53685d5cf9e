// Package source reads the bike store CSV files into typed records.
// It handles structure only (files, headers, field types); resolving
// names to ids and validating semantics is the loader's job.
package source

// Brand is one row of brands.csv.
type Brand struct {
	Line int
	ID   int
	Name string
}

// Category is one row of categories.csv.
type Category struct {
	Line int
	ID   int
	Name string
}

// Store is one row of stores.csv. Stores carry no id column; surrogate
// ids are assigned at insert.
type Store struct {
	Line    int
	Name    string
	Phone   string
	Email   string
	Street  string
	City    string
	State   string
	ZipCode string
}

// Customer is one row of customers.csv.
type Customer struct {
	Line      int
	ID        int
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Street    string
	City      string
	State     string
	ZipCode   string
}

// Product is one row of products.csv.
type Product struct {
	Line       int
	ID         int
	Name       string
	BrandID    int
	CategoryID int
	ModelYear  int
	ListPrice  float64
}

// Staff is one row of staffs.csv. StoreName references a store by name
// and ManagerName optionally references another staff row by full
// name; both are resolved during loading. Street is carried into the
// table as-is.
type Staff struct {
	Line        int
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Active      bool
	Street      string
	StoreName   string
	ManagerName string
}

// FullName returns the name under which a staff row can be referenced
// as a manager.
func (s Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Stock is one row of stocks.csv.
type Stock struct {
	Line      int
	StoreName string
	ProductID int
	Quantity  int
}

// Order is one row of orders.csv. Store and staff are referenced by
// name. Dates stay raw day/month/year text here; the loader parses
// them so malformed values can be collected per row.
type Order struct {
	Line         int
	ID           int
	CustomerID   int
	Status       int
	OrderDate    string
	RequiredDate string
	ShippedDate  string
	StoreName    string
	StaffName    string
}

// OrderItem is one row of order_items.csv.
type OrderItem struct {
	Line      int
	OrderID   int
	ItemID    int
	ProductID int
	Quantity  int
	ListPrice float64
	Discount  float64
}

// Dataset holds every parsed CSV file of one load source.
type Dataset struct {
	Dir        string
	Brands     []Brand
	Categories []Category
	Stores     []Store
	Customers  []Customer
	Products   []Product
	Staffs     []Staff
	Stocks     []Stock
	Orders     []Order
	OrderItems []OrderItem
}

// Rows returns the total number of records across all files.
func (d *Dataset) Rows() int {
	return len(d.Brands) + len(d.Categories) + len(d.Stores) +
		len(d.Customers) + len(d.Products) + len(d.Staffs) +
		len(d.Stocks) + len(d.Orders) + len(d.OrderItems)
}
