// Package ledger is the single authority for mutating a medicine's stock.
// Every inventory-affecting operation flows through a stock delta: purchases
// and sale reversals increase it, sales and purchase reversals decrease it,
// and no delta may drive stock below zero.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	perrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/kibranpharma/pharmastock/internal/store"
	"github.com/kibranpharma/pharmastock/pkg/messaging"
	"github.com/kibranpharma/pharmastock/pkg/messaging/events"
)

// Reason classifies a stock adjustment by the lifecycle event that caused it.
type Reason string

const (
	ReasonPurchase         Reason = "purchase"
	ReasonSale             Reason = "sale"
	ReasonPurchaseReversal Reason = "purchase-reversal"
	ReasonSaleReversal     Reason = "sale-reversal"
	// Manual adjustments outside the purchase/sale lifecycle.
	ReasonCorrection Reason = "correction"
	ReasonWriteOff   Reason = "write-off"
)

// ParseReason validates the wire representation of a Reason.
func ParseReason(s string) (Reason, error) {
	switch Reason(s) {
	case ReasonPurchase, ReasonSale, ReasonPurchaseReversal, ReasonSaleReversal, ReasonCorrection, ReasonWriteOff:
		return Reason(s), nil
	}
	return "", fmt.Errorf("%q: %w", s, perrors.ErrUnknownReason)
}

// Ledger applies stock deltas through the store's atomic adjustment path and
// announces committed adjustments to interested consumers.
type Ledger struct {
	medicines store.MedicineStore
	publisher messaging.Publisher
	logger    *slog.Logger
}

// NewLedger creates a Ledger backed by the given medicine store.
func NewLedger(medicines store.MedicineStore, publisher messaging.Publisher, logger *slog.Logger) *Ledger {
	return &Ledger{
		medicines: medicines,
		publisher: publisher,
		logger:    logger.With("component", "ledger"),
	}
}

// ApplyDelta adjusts the medicine's stock by delta and returns the new value.
// A positive delta increases stock and can only fail when the medicine does
// not exist; a negative delta is validated against the current stock and
// fails with ErrInsufficientStock if it would go negative, leaving the stock
// untouched. A write invalidated by a racing writer is retried once before
// ErrConcurrentModification is surfaced.
func (l *Ledger) ApplyDelta(ctx context.Context, medicineID int64, delta int32, reason Reason, referenceID string) (int32, error) {
	newStock, err := l.medicines.AdjustStock(ctx, medicineID, delta)
	if errors.Is(err, perrors.ErrConcurrentModification) {
		l.logger.WarnContext(ctx, "Stock adjustment raced with another writer, retrying",
			"medicine_id", medicineID, "delta", delta)
		newStock, err = l.medicines.AdjustStock(ctx, medicineID, delta)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust stock for medicine %d: %w", medicineID, err)
	}

	l.Announce(ctx, medicineID, delta, newStock, reason, referenceID)
	return newStock, nil
}

// Announce publishes a StockAdjustedEvent for a committed adjustment.
// Publishing is best effort: a failure is logged, never propagated, because
// the stock mutation has already committed.
func (l *Ledger) Announce(ctx context.Context, medicineID int64, delta, newStock int32, reason Reason, referenceID string) {
	event := events.StockAdjustedEvent{
		MedicineID:  medicineID,
		Delta:       delta,
		NewStock:    newStock,
		Reason:      string(reason),
		ReferenceID: referenceID,
		AdjustedAt:  time.Now().UTC(),
	}
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.logger.ErrorContext(ctx, "Failed to publish StockAdjustedEvent",
			"medicine_id", medicineID, "reason", reason, "error", err)
	}
}
