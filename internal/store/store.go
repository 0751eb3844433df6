// Package store provides an interface for inventory storage operations.
package store

import (
	"context"
	"time"
)

// MedicineStore is an interface for medicine catalog storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type MedicineStore interface {
	// FindByID retrieves a single medicine by its unique identifier.
	// Returns ErrMedicineNotFound if no medicine exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Medicine, error)

	// FindAll returns all medicines with pagination support.
	// Returns an empty slice if no medicines exist.
	FindAll(ctx context.Context, offset, limit int32) ([]Medicine, error)

	// Create adds a new medicine to the catalog.
	Create(ctx context.Context, m *Medicine) (*Medicine, error)

	// Update modifies a medicine's catalog attributes. The medicine's stock
	// is never written by Update; stock flows only through AdjustStock.
	// Returns ErrMedicineNotFound if the ID does not resolve and
	// ErrConcurrentModification if the version is stale.
	Update(ctx context.Context, m *Medicine) (*Medicine, error)

	// DeleteByID removes a medicine by its ID and version.
	DeleteByID(ctx context.Context, id int64, version int32) error

	// AdjustStock applies a signed delta to the medicine's stock and returns
	// the new value. The check and the write happen atomically; a delta that
	// would drive stock negative fails with ErrInsufficientStock and leaves
	// the stock unchanged.
	AdjustStock(ctx context.Context, id int64, delta int32) (int32, error)
}

// SupplierStore is an interface for supplier storage operations.
type SupplierStore interface {
	// FindSupplierByID returns ErrSupplierNotFound if the ID does not resolve.
	FindSupplierByID(ctx context.Context, id int64) (*Supplier, error)

	FindAllSuppliers(ctx context.Context) ([]Supplier, error)

	CreateSupplier(ctx context.Context, name string) (*Supplier, error)

	UpdateSupplier(ctx context.Context, id int64, name string) (*Supplier, error)

	// DeleteSupplierByID returns ErrSupplierInUse when the supplier still
	// has recorded purchases.
	DeleteSupplierByID(ctx context.Context, id int64) error
}

// PurchaseStore is an interface for purchase record storage.
//
// Every mutating operation pairs the record write with the matching stock
// delta inside a single transaction: if either side fails, neither is
// applied. The new stock value after the paired delta is returned alongside
// the record.
type PurchaseStore interface {
	// FindPurchaseByID returns ErrPurchaseNotFound if the ID does not resolve.
	FindPurchaseByID(ctx context.Context, id int64) (*Purchase, error)

	FindAllPurchases(ctx context.Context, offset, limit int32) ([]Purchase, error)

	// CreatePurchase inserts the record and increases the medicine's stock
	// by the purchased quantity.
	CreatePurchase(ctx context.Context, p *Purchase) (*Purchase, int32, error)

	// UpdatePurchase rewrites the record and applies the net quantity delta
	// (new - old) to the medicine's stock. The old quantity is read under
	// the same lock as the delta and returned so callers can report the
	// exact change that was applied.
	UpdatePurchase(ctx context.Context, p *Purchase) (updated *Purchase, oldQuantity, newStock int32, err error)

	// DeletePurchaseByID removes the record and reverses its stock effect.
	// The reversal can fail with ErrInsufficientStock if stock has since
	// dropped below the purchased quantity; the record is then kept.
	DeletePurchaseByID(ctx context.Context, id int64) (*Purchase, int32, error)
}

// SaleStore is an interface for sale record storage. The transactional
// pairing contract is the same as PurchaseStore's, with the sign flipped.
type SaleStore interface {
	// FindSaleByID returns ErrSaleNotFound if the ID does not resolve.
	FindSaleByID(ctx context.Context, id int64) (*Sale, error)

	FindAllSales(ctx context.Context, offset, limit int32) ([]Sale, error)

	// CreateSale validates and decreases the medicine's stock by the sold
	// quantity before the record is committed. ErrInsufficientStock rejects
	// the whole operation.
	CreateSale(ctx context.Context, s *Sale) (*Sale, int32, error)

	// UpdateSale rewrites the record and applies -(new - old) to the stock,
	// validated against the current value. The old quantity is read under
	// the same lock as the delta.
	UpdateSale(ctx context.Context, s *Sale) (updated *Sale, oldQuantity, newStock int32, err error)

	// DeleteSaleByID removes the record and restocks the sold quantity.
	DeleteSaleByID(ctx context.Context, id int64) (*Sale, int32, error)
}

// ReportStore aggregates committed records for reporting.
type ReportStore interface {
	SalesSummary(ctx context.Context, from, to time.Time) ([]DailySales, error)
	Dashboard(ctx context.Context, lowStockThreshold int32) (*Dashboard, error)
}

// Store is the full storage surface of the application.
type Store interface {
	MedicineStore
	SupplierStore
	PurchaseStore
	SaleStore
	ReportStore
}
