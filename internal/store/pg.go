package store

import (
	"context"
	"errors"

	perrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
	}
}

var _ Store = (*PgStore)(nil)

func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return perrors.ErrTransactionBegin
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return perrors.ErrTransactionRollback
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return perrors.ErrTransactionCommit
	}

	return nil
}

// applyStockDelta is the single write path for a medicine's stock. It locks
// the medicine row, validates the candidate value and writes it, all inside
// the caller's transaction so the delta commits or rolls back together with
// the record mutation that caused it.
func applyStockDelta(ctx context.Context, tx pgx.Tx, medicineID int64, delta int32) (int32, error) {
	var stock int32
	err := tx.QueryRow(ctx, `
		SELECT stock
		FROM medicines
		WHERE id = $1
		FOR UPDATE
	`, medicineID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, perrors.ErrMedicineNotFound
		}
		return 0, err
	}

	candidate := stock + delta
	if candidate < 0 {
		return 0, perrors.ErrInsufficientStock
	}

	_, err = tx.Exec(ctx, `
		UPDATE medicines
		SET stock = $2, version = version + 1, updated_at = now()
		WHERE id = $1
	`, medicineID, candidate)
	if err != nil {
		return 0, err
	}
	return candidate, nil
}
