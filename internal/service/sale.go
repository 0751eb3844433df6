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

// SaleService defines the methods for recording sales.
//
// A sale's stock decrease is validated before the sale record is persisted:
// if the medicine does not hold enough stock, the whole creation is rejected
// and nothing is written. Deleting a sale restocks the sold quantity, and
// editing the quantity applies the net delta under the same validation.
type SaleService interface {
	// FindByID retrieves a single sale by its unique identifier.
	// Returns ErrSaleNotFound if no sale exists with the given ID.
	FindByID(ctx context.Context, id int64) (*SaleDto, error)

	// FindAll returns all sales, newest first.
	FindAll(ctx context.Context, offset, limit int32) ([]SaleDto, error)

	// Create records a new sale and decreases the medicine's stock.
	// Returns ErrInsufficientStock when the medicine cannot cover it.
	Create(ctx context.Context, sale SaleCreateDto) (*SaleDto, error)

	// Update rewrites a sale record, applying the quantity change to the
	// medicine's stock as a net delta.
	Update(ctx context.Context, id int64, sale SaleCreateDto) (*SaleDto, error)

	// DeleteByID removes a sale and restocks the sold quantity.
	DeleteByID(ctx context.Context, id int64) error
}

// Sales implements SaleService.
type Sales struct {
	repository store.SaleStore
	ledger     *ledger.Ledger
	publisher  messaging.Publisher
	logger     *slog.Logger
}

// NewSales creates a new instance of SaleService.
func NewSales(repo store.SaleStore, l *ledger.Ledger, publisher messaging.Publisher, logger *slog.Logger) *Sales {
	return &Sales{
		repository: repo,
		ledger:     l,
		publisher:  publisher,
		logger:     logger.With("component", "sales"),
	}
}

// SaleCreateDto represents the data transfer object for recording a sale.
type SaleCreateDto struct {
	MedicineID   int64  `json:"medicine_id"   validate:"required,min=1"`
	Quantity     int32  `json:"quantity"      validate:"required,min=1"`
	SellingPrice int64  `json:"selling_price" validate:"min=0"`
	CustomerName string `json:"customer_name" validate:"max=100"`
	SaleDate     string `json:"sale_date"     validate:"required,datetime=2006-01-02"`
}

// SaleDto represents the data transfer object for a sale.
// NewStock carries the medicine's stock after the paired delta; it is only
// set on mutating responses.
type SaleDto struct {
	ID           int64  `json:"id"`
	MedicineID   int64  `json:"medicine_id"`
	Quantity     int32  `json:"quantity"`
	SellingPrice int64  `json:"selling_price"`
	TotalAmount  int64  `json:"total_amount"`
	CustomerName string `json:"customer_name"`
	SaleDate     string `json:"sale_date"`
	CreatedAt    string `json:"created_at"`
	NewStock     *int32 `json:"new_stock,omitempty"`
}

func (s *Sales) FindByID(ctx context.Context, id int64) (*SaleDto, error) {
	sale, err := s.repository.FindSaleByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sale by ID %d: %w", id, err)
	}
	return toSaleDto(sale, nil), nil
}

func (s *Sales) FindAll(ctx context.Context, offset, limit int32) ([]SaleDto, error) {
	sales, err := s.repository.FindAllSales(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales: %w", err)
	}
	saleDtos := make([]SaleDto, len(sales))

	for i, item := range sales {
		saleDtos[i] = *toSaleDto(&item, nil)
	}

	return saleDtos, nil
}

func (s *Sales) Create(ctx context.Context, sale SaleCreateDto) (*SaleDto, error) {
	date, err := time.Parse(DateFormat, sale.SaleDate)
	if err != nil {
		return nil, fmt.Errorf("invalid sale date %q: %w", sale.SaleDate, err)
	}

	created, newStock, err := s.repository.CreateSale(ctx, &store.Sale{
		MedicineID:   sale.MedicineID,
		Quantity:     sale.Quantity,
		SellingPrice: sale.SellingPrice,
		TotalAmount:  int64(sale.Quantity) * sale.SellingPrice,
		CustomerName: sale.CustomerName,
		SaleDate:     date,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	s.ledger.Announce(ctx, created.MedicineID, -created.Quantity, newStock,
		ledger.ReasonSale, strconv.FormatInt(created.ID, 10))
	s.publishRecorded(ctx, created)

	return toSaleDto(created, &newStock), nil
}

func (s *Sales) Update(ctx context.Context, id int64, sale SaleCreateDto) (*SaleDto, error) {
	date, err := time.Parse(DateFormat, sale.SaleDate)
	if err != nil {
		return nil, fmt.Errorf("invalid sale date %q: %w", sale.SaleDate, err)
	}

	updated, oldQuantity, newStock, err := s.repository.UpdateSale(ctx, &store.Sale{
		ID:           id,
		Quantity:     sale.Quantity,
		SellingPrice: sale.SellingPrice,
		TotalAmount:  int64(sale.Quantity) * sale.SellingPrice,
		CustomerName: sale.CustomerName,
		SaleDate:     date,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update sale with ID %d: %w", id, err)
	}

	// oldQuantity was read under the same lock as the stock delta, so the
	// announced delta matches what was actually applied.
	if delta := updated.Quantity - oldQuantity; delta != 0 {
		s.ledger.Announce(ctx, updated.MedicineID, -delta, newStock,
			ledger.ReasonSale, strconv.FormatInt(updated.ID, 10))
	}

	return toSaleDto(updated, &newStock), nil
}

func (s *Sales) DeleteByID(ctx context.Context, id int64) error {
	deleted, newStock, err := s.repository.DeleteSaleByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete sale with ID %d: %w", id, err)
	}

	s.ledger.Announce(ctx, deleted.MedicineID, deleted.Quantity, newStock,
		ledger.ReasonSaleReversal, strconv.FormatInt(deleted.ID, 10))
	return nil
}

// publishRecorded emits a SaleRecordedEvent. Best effort; the sale has
// already committed.
func (s *Sales) publishRecorded(ctx context.Context, sale *store.Sale) {
	event := events.SaleRecordedEvent{
		SaleID:      sale.ID,
		MedicineID:  sale.MedicineID,
		Quantity:    sale.Quantity,
		TotalAmount: sale.TotalAmount,
		CreatedAt:   sale.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish SaleRecordedEvent", "sale_id", sale.ID, "error", err)
	}
}

// toSaleDto converts a store.Sale to a SaleDto.
func toSaleDto(s *store.Sale, newStock *int32) *SaleDto {
	return &SaleDto{
		ID:           s.ID,
		MedicineID:   s.MedicineID,
		Quantity:     s.Quantity,
		SellingPrice: s.SellingPrice,
		TotalAmount:  s.TotalAmount,
		CustomerName: s.CustomerName,
		SaleDate:     s.SaleDate.Format(DateFormat),
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		NewStock:     newStock,
	}
}
