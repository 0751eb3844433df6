package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const medicineColumns = `id, name, category, dosage_form, batch_number, manufacturer,
	expiry_date, unit, buying_price, selling_price, country, stock, version,
	created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.DosageForm, &m.BatchNumber,
		&m.Manufacturer, &m.ExpiryDate, &m.Unit, &m.BuyingPrice, &m.SellingPrice,
		&m.Country, &m.Stock, &m.Version, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByID retrieves a medicine by its unique identifier.
// Returns ErrMedicineNotFound if no medicine exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*Medicine, error) {
	m, err := scanMedicine(p.db.QueryRow(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrMedicineNotFound
		}
		return nil, fmt.Errorf("failed to find medicine by ID: %w", err)
	}
	return m, nil
}

// FindAll retrieves all medicines with pagination support.
// It returns a slice of medicines, which may be empty if none exist.
func (p *PgStore) FindAll(ctx context.Context, offset, limit int32) ([]Medicine, error) {
	rows, err := p.db.Query(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find all medicines: %w", err)
	}
	defer rows.Close()

	medicines := make([]Medicine, 0, limit)
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine row: %w", err)
		}
		medicines = append(medicines, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate medicine rows: %w", err)
	}
	return medicines, nil
}

// Create adds a new medicine to the catalog.
func (p *PgStore) Create(ctx context.Context, m *Medicine) (*Medicine, error) {
	created, err := scanMedicine(p.db.QueryRow(ctx, `
		INSERT INTO medicines (name, category, dosage_form, batch_number, manufacturer,
			expiry_date, unit, buying_price, selling_price, country, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+medicineColumns+`
	`, m.Name, m.Category, m.DosageForm, m.BatchNumber, m.Manufacturer,
		m.ExpiryDate, m.Unit, m.BuyingPrice, m.SellingPrice, m.Country, m.Stock))
	if err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}
	return created, nil
}

// Update modifies a medicine's catalog attributes using optimistic locking
// on the version column. The stock column is deliberately absent from the
// SET list; AdjustStock is the only stock writer.
func (p *PgStore) Update(ctx context.Context, m *Medicine) (*Medicine, error) {
	updated, err := scanMedicine(p.db.QueryRow(ctx, `
		UPDATE medicines
		SET name = $3, category = $4, dosage_form = $5, batch_number = $6,
			manufacturer = $7, expiry_date = $8, unit = $9, buying_price = $10,
			selling_price = $11, country = $12, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+medicineColumns+`
	`, m.ID, m.Version, m.Name, m.Category, m.DosageForm, m.BatchNumber,
		m.Manufacturer, m.ExpiryDate, m.Unit, m.BuyingPrice, m.SellingPrice, m.Country))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, p.versionConflict(ctx, m.ID)
		}
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}
	return updated, nil
}

// DeleteByID removes a medicine by its ID and version. A medicine with
// purchase or sale records is protected by foreign keys and yields
// ErrMedicineInUse.
func (p *PgStore) DeleteByID(ctx context.Context, id int64, version int32) error {
	tag, err := p.db.Exec(ctx, `
		DELETE FROM medicines
		WHERE id = $1 AND version = $2
	`, id, version)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503 = foreign_key_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return perrors.ErrMedicineInUse
		}
		return fmt.Errorf("failed to delete medicine by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return p.versionConflict(ctx, id)
	}
	return nil
}

// AdjustStock applies a signed delta to the medicine's stock in its own
// transaction and returns the new value.
func (p *PgStore) AdjustStock(ctx context.Context, id int64, delta int32) (int32, error) {
	var newStock int32
	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		newStock, err = applyStockDelta(ctx, tx, id, delta)
		return err
	})
	if txErr != nil {
		return 0, txErr
	}
	return newStock, nil
}

// versionConflict distinguishes a missing medicine from a stale version.
func (p *PgStore) versionConflict(ctx context.Context, id int64) error {
	var exists bool
	err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM medicines WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check medicine existence: %w", err)
	}
	if !exists {
		return perrors.ErrMedicineNotFound
	}
	return perrors.ErrConcurrentModification
}
