package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const purchaseColumns = `id, medicine_id, supplier_id, quantity, purchase_price,
	total_cost, purchase_date, created_at`

func scanPurchase(row pgx.Row) (*Purchase, error) {
	var pr Purchase
	err := row.Scan(&pr.ID, &pr.MedicineID, &pr.SupplierID, &pr.Quantity,
		&pr.PurchasePrice, &pr.TotalCost, &pr.PurchaseDate, &pr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// FindPurchaseByID retrieves a purchase by its unique identifier.
// Returns ErrPurchaseNotFound if no purchase exists with the given ID.
func (p *PgStore) FindPurchaseByID(ctx context.Context, id int64) (*Purchase, error) {
	pr, err := scanPurchase(p.db.QueryRow(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to find purchase by ID: %w", err)
	}
	return pr, nil
}

// FindAllPurchases retrieves all purchases with pagination support, newest first.
func (p *PgStore) FindAllPurchases(ctx context.Context, offset, limit int32) ([]Purchase, error) {
	rows, err := p.db.Query(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		ORDER BY purchase_date DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find all purchases: %w", err)
	}
	defer rows.Close()

	purchases := make([]Purchase, 0, limit)
	for rows.Next() {
		pr, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase row: %w", err)
		}
		purchases = append(purchases, *pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchase rows: %w", err)
	}
	return purchases, nil
}

// CreatePurchase inserts the purchase record and increases the medicine's
// stock by the purchased quantity in the same transaction.
func (p *PgStore) CreatePurchase(ctx context.Context, purchase *Purchase) (*Purchase, int32, error) {
	var created *Purchase
	var newStock int32

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		newStock, err = applyStockDelta(ctx, tx, purchase.MedicineID, purchase.Quantity)
		if err != nil {
			return err
		}
		created, err = scanPurchase(tx.QueryRow(ctx, `
			INSERT INTO purchases (medicine_id, supplier_id, quantity, purchase_price,
				total_cost, purchase_date)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+purchaseColumns+`
		`, purchase.MedicineID, purchase.SupplierID, purchase.Quantity,
			purchase.PurchasePrice, purchase.TotalCost, purchase.PurchaseDate))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return perrors.ErrSupplierNotFound
			}
			return fmt.Errorf("failed to create purchase: %w", err)
		}
		return nil
	})

	if txErr != nil {
		return nil, 0, txErr
	}
	return created, newStock, nil
}

// UpdatePurchase rewrites the record and applies the net quantity delta
// (new - old) to the medicine's stock in the same transaction. The old
// quantity is read under the row lock and returned alongside the record.
func (p *PgStore) UpdatePurchase(ctx context.Context, purchase *Purchase) (*Purchase, int32, int32, error) {
	var updated *Purchase
	var oldQuantity, newStock int32

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var medicineID int64
		err := tx.QueryRow(ctx, `
			SELECT medicine_id, quantity
			FROM purchases
			WHERE id = $1
			FOR UPDATE
		`, purchase.ID).Scan(&medicineID, &oldQuantity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return perrors.ErrPurchaseNotFound
			}
			return fmt.Errorf("failed to lock purchase for update: %w", err)
		}

		newStock, err = applyStockDelta(ctx, tx, medicineID, purchase.Quantity-oldQuantity)
		if err != nil {
			return err
		}

		updated, err = scanPurchase(tx.QueryRow(ctx, `
			UPDATE purchases
			SET supplier_id = $2, quantity = $3, purchase_price = $4,
				total_cost = $5, purchase_date = $6
			WHERE id = $1
			RETURNING `+purchaseColumns+`
		`, purchase.ID, purchase.SupplierID, purchase.Quantity,
			purchase.PurchasePrice, purchase.TotalCost, purchase.PurchaseDate))
		if err != nil {
			return fmt.Errorf("failed to update purchase: %w", err)
		}
		return nil
	})

	if txErr != nil {
		return nil, 0, 0, txErr
	}
	return updated, oldQuantity, newStock, nil
}

// DeletePurchaseByID removes the record and reverses its stock effect in the
// same transaction. The reversal fails with ErrInsufficientStock when stock
// already dropped below the purchased quantity through subsequent sales; the
// record is then kept.
func (p *PgStore) DeletePurchaseByID(ctx context.Context, id int64) (*Purchase, int32, error) {
	var deleted *Purchase
	var newStock int32

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		deleted, err = scanPurchase(tx.QueryRow(ctx, `
			SELECT `+purchaseColumns+`
			FROM purchases
			WHERE id = $1
			FOR UPDATE
		`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return perrors.ErrPurchaseNotFound
			}
			return fmt.Errorf("failed to lock purchase for delete: %w", err)
		}

		newStock, err = applyStockDelta(ctx, tx, deleted.MedicineID, -deleted.Quantity)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete purchase by ID: %w", err)
		}
		return nil
	})

	if txErr != nil {
		return nil, 0, txErr
	}
	return deleted, newStock, nil
}
