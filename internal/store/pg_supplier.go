package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FindSupplierByID retrieves a supplier by its unique identifier.
// Returns ErrSupplierNotFound if no supplier exists with the given ID.
func (p *PgStore) FindSupplierByID(ctx context.Context, id int64) (*Supplier, error) {
	var s Supplier
	err := p.db.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to find supplier by ID: %w", err)
	}
	return &s, nil
}

// FindAllSuppliers retrieves all suppliers ordered by name.
func (p *PgStore) FindAllSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, name, created_at
		FROM suppliers
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to find all suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]Supplier, 0, 16)
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier row: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate supplier rows: %w", err)
	}
	return suppliers, nil
}

// CreateSupplier adds a new supplier.
func (p *PgStore) CreateSupplier(ctx context.Context, name string) (*Supplier, error) {
	var s Supplier
	err := p.db.QueryRow(ctx, `
		INSERT INTO suppliers (name)
		VALUES ($1)
		RETURNING id, name, created_at
	`, name).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return &s, nil
}

// UpdateSupplier renames an existing supplier.
func (p *PgStore) UpdateSupplier(ctx context.Context, id int64, name string) (*Supplier, error) {
	var s Supplier
	err := p.db.QueryRow(ctx, `
		UPDATE suppliers
		SET name = $2
		WHERE id = $1
		RETURNING id, name, created_at
	`, id, name).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return &s, nil
}

// DeleteSupplierByID removes a supplier. A supplier that still has recorded
// purchases is protected by a foreign key and yields ErrSupplierInUse.
func (p *PgStore) DeleteSupplierByID(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, `
		DELETE FROM suppliers
		WHERE id = $1
	`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503 = foreign_key_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return perrors.ErrSupplierInUse
		}
		return fmt.Errorf("failed to delete supplier by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return perrors.ErrSupplierNotFound
	}
	return nil
}
