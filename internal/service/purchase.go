package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/kibranpharma/pharmastock/internal/ledger"
	"github.com/kibranpharma/pharmastock/internal/store"
	"github.com/kibranpharma/pharmastock/pkg/messaging"
	"github.com/kibranpharma/pharmastock/pkg/messaging/events"
)

// PurchaseService defines the methods for recording purchases.
//
// Every mutation is paired with a stock delta on the purchased medicine:
// creating a purchase restocks it, deleting a purchase reverses the restock,
// and editing the quantity applies the net delta. The pairing is atomic; a
// failed stock step rejects the whole operation.
type PurchaseService interface {
	// FindByID retrieves a single purchase by its unique identifier.
	// Returns ErrPurchaseNotFound if no purchase exists with the given ID.
	FindByID(ctx context.Context, id int64) (*PurchaseDto, error)

	// FindAll returns all purchases, newest first.
	FindAll(ctx context.Context, offset, limit int32) ([]PurchaseDto, error)

	// Create records a new purchase and increases the medicine's stock.
	Create(ctx context.Context, purchase PurchaseCreateDto) (*PurchaseDto, error)

	// Update rewrites a purchase record, applying the quantity change to
	// the medicine's stock as a net delta.
	Update(ctx context.Context, id int64, purchase PurchaseCreateDto) (*PurchaseDto, error)

	// DeleteByID removes a purchase, reversing its stock effect. Returns
	// ErrInsufficientStock if the reversal would drive stock negative.
	DeleteByID(ctx context.Context, id int64) error
}

// Purchases implements PurchaseService.
type Purchases struct {
	repository store.PurchaseStore
	ledger     *ledger.Ledger
	publisher  messaging.Publisher
	logger     *slog.Logger
}

// NewPurchases creates a new instance of PurchaseService.
func NewPurchases(repo store.PurchaseStore, l *ledger.Ledger, publisher messaging.Publisher, logger *slog.Logger) *Purchases {
	return &Purchases{
		repository: repo,
		ledger:     l,
		publisher:  publisher,
		logger:     logger.With("component", "purchases"),
	}
}

// PurchaseCreateDto represents the data transfer object for recording a purchase.
type PurchaseCreateDto struct {
	MedicineID    int64  `json:"medicine_id"    validate:"required,min=1"`
	SupplierID    int64  `json:"supplier_id"    validate:"required,min=1"`
	Quantity      int32  `json:"quantity"       validate:"required,min=1"`
	PurchasePrice int64  `json:"purchase_price" validate:"min=0"`
	PurchaseDate  string `json:"purchase_date"  validate:"required,datetime=2006-01-02"`
}

// PurchaseDto represents the data transfer object for a purchase.
// NewStock carries the medicine's stock after the paired delta; it is only
// set on mutating responses.
type PurchaseDto struct {
	ID            int64  `json:"id"`
	MedicineID    int64  `json:"medicine_id"`
	SupplierID    int64  `json:"supplier_id"`
	Quantity      int32  `json:"quantity"`
	PurchasePrice int64  `json:"purchase_price"`
	TotalCost     int64  `json:"total_cost"`
	PurchaseDate  string `json:"purchase_date"`
	CreatedAt     string `json:"created_at"`
	NewStock      *int32 `json:"new_stock,omitempty"`
}

func (s *Purchases) FindByID(ctx context.Context, id int64) (*PurchaseDto, error) {
	purchase, err := s.repository.FindPurchaseByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchase by ID %d: %w", id, err)
	}
	return toPurchaseDto(purchase, nil), nil
}

func (s *Purchases) FindAll(ctx context.Context, offset, limit int32) ([]PurchaseDto, error) {
	purchases, err := s.repository.FindAllPurchases(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchases: %w", err)
	}
	purchaseDtos := make([]PurchaseDto, len(purchases))

	for i, item := range purchases {
		purchaseDtos[i] = *toPurchaseDto(&item, nil)
	}

	return purchaseDtos, nil
}

func (s *Purchases) Create(ctx context.Context, purchase PurchaseCreateDto) (*PurchaseDto, error) {
	date, err := time.Parse(DateFormat, purchase.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase date %q: %w", purchase.PurchaseDate, err)
	}

	created, newStock, err := s.repository.CreatePurchase(ctx, &store.Purchase{
		MedicineID:    purchase.MedicineID,
		SupplierID:    purchase.SupplierID,
		Quantity:      purchase.Quantity,
		PurchasePrice: purchase.PurchasePrice,
		TotalCost:     int64(purchase.Quantity) * purchase.PurchasePrice,
		PurchaseDate:  date,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	s.ledger.Announce(ctx, created.MedicineID, created.Quantity, newStock,
		ledger.ReasonPurchase, strconv.FormatInt(created.ID, 10))
	s.publishRecorded(ctx, created)

	return toPurchaseDto(created, &newStock), nil
}

func (s *Purchases) Update(ctx context.Context, id int64, purchase PurchaseCreateDto) (*PurchaseDto, error) {
	date, err := time.Parse(DateFormat, purchase.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase date %q: %w", purchase.PurchaseDate, err)
	}

	updated, oldQuantity, newStock, err := s.repository.UpdatePurchase(ctx, &store.Purchase{
		ID:            id,
		SupplierID:    purchase.SupplierID,
		Quantity:      purchase.Quantity,
		PurchasePrice: purchase.PurchasePrice,
		TotalCost:     int64(purchase.Quantity) * purchase.PurchasePrice,
		PurchaseDate:  date,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update purchase with ID %d: %w", id, err)
	}

	// oldQuantity was read under the same lock as the stock delta, so the
	// announced delta matches what was actually applied.
	if delta := updated.Quantity - oldQuantity; delta != 0 {
		s.ledger.Announce(ctx, updated.MedicineID, delta, newStock,
			ledger.ReasonPurchase, strconv.FormatInt(updated.ID, 10))
	}

	return toPurchaseDto(updated, &newStock), nil
}

func (s *Purchases) DeleteByID(ctx context.Context, id int64) error {
	deleted, newStock, err := s.repository.DeletePurchaseByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete purchase with ID %d: %w", id, err)
	}

	s.ledger.Announce(ctx, deleted.MedicineID, -deleted.Quantity, newStock,
		ledger.ReasonPurchaseReversal, strconv.FormatInt(deleted.ID, 10))
	return nil
}

// publishRecorded emits a PurchaseRecordedEvent. Best effort; the purchase
// has already committed.
func (s *Purchases) publishRecorded(ctx context.Context, p *store.Purchase) {
	event := events.PurchaseRecordedEvent{
		PurchaseID: p.ID,
		MedicineID: p.MedicineID,
		SupplierID: p.SupplierID,
		Quantity:   p.Quantity,
		TotalCost:  p.TotalCost,
		CreatedAt:  p.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish PurchaseRecordedEvent", "purchase_id", p.ID, "error", err)
	}
}

// toPurchaseDto converts a store.Purchase to a PurchaseDto.
func toPurchaseDto(p *store.Purchase, newStock *int32) *PurchaseDto {
	return &PurchaseDto{
		ID:            p.ID,
		MedicineID:    p.MedicineID,
		SupplierID:    p.SupplierID,
		Quantity:      p.Quantity,
		PurchasePrice: p.PurchasePrice,
		TotalCost:     p.TotalCost,
		PurchaseDate:  p.PurchaseDate.Format(DateFormat),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		NewStock:      newStock,
	}
}
