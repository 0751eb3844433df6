package store

import (
	"context"
	"fmt"
	"time"
)

// SalesSummary aggregates committed sales per calendar day in [from, to].
func (p *PgStore) SalesSummary(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	rows, err := p.db.Query(ctx, `
		SELECT sale_date, COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE sale_date >= $1 AND sale_date <= $2
		GROUP BY sale_date
		ORDER BY sale_date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales summary: %w", err)
	}
	defer rows.Close()

	summary := make([]DailySales, 0, 31)
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.Transactions, &d.UnitsSold, &d.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan sales summary row: %w", err)
		}
		summary = append(summary, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales summary rows: %w", err)
	}
	return summary, nil
}

// Dashboard returns the landing page snapshot: entity counts, medicines at
// or below the low-stock threshold and today's sales totals.
func (p *PgStore) Dashboard(ctx context.Context, lowStockThreshold int32) (*Dashboard, error) {
	var d Dashboard

	err := p.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM medicines),
			(SELECT COUNT(*) FROM suppliers)
	`).Scan(&d.MedicineCount, &d.SupplierCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard counts: %w", err)
	}

	rows, err := p.db.Query(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE stock <= $1
		ORDER BY stock, name
	`, lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock medicines: %w", err)
	}
	defer rows.Close()

	d.LowStock = make([]Medicine, 0, 16)
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan low stock row: %w", err)
		}
		d.LowStock = append(d.LowStock, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate low stock rows: %w", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	err = p.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE sale_date = $1
	`, today).Scan(&d.TodaySales.Transactions, &d.TodaySales.UnitsSold, &d.TodaySales.Revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to query today's sales: %w", err)
	}
	d.TodaySales.Day = today

	return &d, nil
}
