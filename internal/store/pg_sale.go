package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/jackc/pgx/v5"
)

const saleColumns = `id, medicine_id, quantity, selling_price, total_amount,
	customer_name, sale_date, created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.MedicineID, &s.Quantity, &s.SellingPrice,
		&s.TotalAmount, &s.CustomerName, &s.SaleDate, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSaleByID retrieves a sale by its unique identifier.
// Returns ErrSaleNotFound if no sale exists with the given ID.
func (p *PgStore) FindSaleByID(ctx context.Context, id int64) (*Sale, error) {
	s, err := scanSale(p.db.QueryRow(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale by ID: %w", err)
	}
	return s, nil
}

// FindAllSales retrieves all sales with pagination support, newest first.
func (p *PgStore) FindAllSales(ctx context.Context, offset, limit int32) ([]Sale, error) {
	rows, err := p.db.Query(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		ORDER BY sale_date DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find all sales: %w", err)
	}
	defer rows.Close()

	sales := make([]Sale, 0, limit)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale row: %w", err)
		}
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sale rows: %w", err)
	}
	return sales, nil
}

// CreateSale decreases the medicine's stock by the sold quantity and inserts
// the sale record in the same transaction. The stock check happens before
// the record write; an insufficient stock rejects the whole operation.
func (p *PgStore) CreateSale(ctx context.Context, sale *Sale) (*Sale, int32, error) {
	var created *Sale
	var newStock int32

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		newStock, err = applyStockDelta(ctx, tx, sale.MedicineID, -sale.Quantity)
		if err != nil {
			return err
		}
		created, err = scanSale(tx.QueryRow(ctx, `
			INSERT INTO sales (medicine_id, quantity, selling_price, total_amount,
				customer_name, sale_date)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+saleColumns+`
		`, sale.MedicineID, sale.Quantity, sale.SellingPrice, sale.TotalAmount,
			sale.CustomerName, sale.SaleDate))
		if err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}
		return nil
	})

	if txErr != nil {
		return nil, 0, txErr
	}
	return created, newStock, nil
}

// UpdateSale rewrites the record and applies -(new - old) to the medicine's
// stock in the same transaction, validated against the current value. The
// old quantity is read under the row lock and returned alongside the record.
func (p *PgStore) UpdateSale(ctx context.Context, sale *Sale) (*Sale, int32, int32, error) {
	var updated *Sale
	var oldQuantity, newStock int32

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var medicineID int64
		err := tx.QueryRow(ctx, `
			SELECT medicine_id, quantity
			FROM sales
			WHERE id = $1
			FOR UPDATE
		`, sale.ID).Scan(&medicineID, &oldQuantity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return perrors.ErrSaleNotFound
			}
			return fmt.Errorf("failed to lock sale for update: %w", err)
		}

		newStock, err = applyStockDelta(ctx, tx, medicineID, -(sale.Quantity - oldQuantity))
		if err != nil {
			return err
		}

		updated, err = scanSale(tx.QueryRow(ctx, `
			UPDATE sales
			SET quantity = $2, selling_price = $3, total_amount = $4,
				customer_name = $5, sale_date = $6
			WHERE id = $1
			RETURNING `+saleColumns+`
		`, sale.ID, sale.Quantity, sale.SellingPrice, sale.TotalAmount,
			sale.CustomerName, sale.SaleDate))
		if err != nil {
			return fmt.Errorf("failed to update sale: %w", err)
		}
		return nil
	})

	if txErr != nil {
		return nil, 0, 0, txErr
	}
	return updated, oldQuantity, newStock, nil
}

// DeleteSaleByID removes the record and restocks the sold quantity in the
// same transaction. The restock cannot fail the insufficiency check.
func (p *PgStore) DeleteSaleByID(ctx context.Context, id int64) (*Sale, int32, error) {
	var deleted *Sale
	var newStock int32

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		deleted, err = scanSale(tx.QueryRow(ctx, `
			SELECT `+saleColumns+`
			FROM sales
			WHERE id = $1
			FOR UPDATE
		`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return perrors.ErrSaleNotFound
			}
			return fmt.Errorf("failed to lock sale for delete: %w", err)
		}

		newStock, err = applyStockDelta(ctx, tx, deleted.MedicineID, deleted.Quantity)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete sale by ID: %w", err)
		}
		return nil
	})

	if txErr != nil {
		return nil, 0, txErr
	}
	return deleted, newStock, nil
}
