package events

import (
	"encoding/json"
	"time"

	"github.com/kibranpharma/pharmastock/pkg/messaging"
)

// StockAdjustedEvent is emitted after every committed stock mutation,
// whatever the originating operation was.
type StockAdjustedEvent struct {
	MedicineID  int64     `json:"medicine_id"`
	Delta       int32     `json:"delta"`
	NewStock    int32     `json:"new_stock"`
	Reason      string    `json:"reason"`
	ReferenceID string    `json:"reference_id,omitempty"`
	AdjustedAt  time.Time `json:"adjusted_at"`
}

func (e StockAdjustedEvent) Subject() string {
	return messaging.StockAdjustedSubject
}

func (e StockAdjustedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// PurchaseRecordedEvent is emitted after a purchase has been committed
// together with its stock increase.
type PurchaseRecordedEvent struct {
	PurchaseID int64     `json:"purchase_id"`
	MedicineID int64     `json:"medicine_id"`
	SupplierID int64     `json:"supplier_id"`
	Quantity   int32     `json:"quantity"`
	TotalCost  int64     `json:"total_cost"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e PurchaseRecordedEvent) Subject() string {
	return messaging.PurchaseRecordedSubject
}

func (e PurchaseRecordedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// SaleRecordedEvent is emitted after a sale has been committed together
// with its stock decrease.
type SaleRecordedEvent struct {
	SaleID      int64     `json:"sale_id"`
	MedicineID  int64     `json:"medicine_id"`
	Quantity    int32     `json:"quantity"`
	TotalAmount int64     `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e SaleRecordedEvent) Subject() string {
	return messaging.SaleRecordedSubject
}

func (e SaleRecordedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
