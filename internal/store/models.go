package store

import "time"

// Medicine represents a catalog entry. Stock is a derived aggregate kept
// consistent with the sum of all committed purchase and sale deltas; it is
// only ever written through the stock delta path, never by catalog updates.
type Medicine struct {
	ID           int64
	Name         string
	Category     string
	DosageForm   string
	BatchNumber  string
	Manufacturer string
	ExpiryDate   time.Time
	Unit         string
	BuyingPrice  int64 // price in cents
	SellingPrice int64 // price in cents
	Country      string
	Stock        int32
	Version      int32
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Supplier struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Purchase struct {
	ID            int64
	MedicineID    int64
	SupplierID    int64
	Quantity      int32
	PurchasePrice int64 // cost per unit in cents
	TotalCost     int64 // quantity * purchase price
	PurchaseDate  time.Time
	CreatedAt     time.Time
}

type Sale struct {
	ID           int64
	MedicineID   int64
	Quantity     int32
	SellingPrice int64 // price per unit in cents
	TotalAmount  int64 // quantity * selling price
	CustomerName string
	SaleDate     time.Time
	CreatedAt    time.Time
}

// DailySales aggregates the sales committed on a single calendar day.
type DailySales struct {
	Day          time.Time
	Transactions int64
	UnitsSold    int64
	Revenue      int64
}

// Dashboard is the snapshot behind the landing page.
type Dashboard struct {
	MedicineCount int64
	SupplierCount int64
	LowStock      []Medicine
	TodaySales    DailySales
}
