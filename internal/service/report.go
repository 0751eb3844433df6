package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kibranpharma/pharmastock/internal/cache"
	"github.com/kibranpharma/pharmastock/internal/store"
)

// ReportService aggregates committed records for the summary and dashboard
// views. Results are cached with a short TTL; a cache failure falls back to
// the store.
type ReportService interface {
	SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummaryDto, error)
	Dashboard(ctx context.Context) (*DashboardDto, error)
}

// Reports implements ReportService.
type Reports struct {
	repository        store.ReportStore
	cache             cache.ReportCache
	cacheTTL          time.Duration
	lowStockThreshold int32
	logger            *slog.Logger
}

// NewReports creates a new instance of ReportService.
func NewReports(repo store.ReportStore, c cache.ReportCache, cacheTTL time.Duration, lowStockThreshold int32, logger *slog.Logger) *Reports {
	return &Reports{
		repository:        repo,
		cache:             c,
		cacheTTL:          cacheTTL,
		lowStockThreshold: lowStockThreshold,
		logger:            logger.With("component", "reports"),
	}
}

// DailySalesDto is one calendar day in a sales summary.
type DailySalesDto struct {
	Day          string `json:"day"`
	Transactions int64  `json:"transactions"`
	UnitsSold    int64  `json:"units_sold"`
	Revenue      int64  `json:"revenue"`
}

// SalesSummaryDto is the response for the sales summary report.
type SalesSummaryDto struct {
	From         string          `json:"from"`
	To           string          `json:"to"`
	Days         []DailySalesDto `json:"days"`
	TotalRevenue int64           `json:"total_revenue"`
}

// DashboardDto is the response for the dashboard snapshot.
type DashboardDto struct {
	MedicineCount int64         `json:"medicine_count"`
	SupplierCount int64         `json:"supplier_count"`
	LowStock      []MedicineDto `json:"low_stock"`
	TodaySales    DailySalesDto `json:"today_sales"`
}

func (s *Reports) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummaryDto, error) {
	key := fmt.Sprintf("reports:sales-summary:%s:%s", from.Format(DateFormat), to.Format(DateFormat))
	if cached, ok, err := s.cache.GetSummary(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "Sales summary cache read failed", "error", err)
	} else if ok {
		return toSalesSummaryDto(from, to, cached), nil
	}

	summary, err := s.repository.SalesSummary(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build sales summary: %w", err)
	}

	if err := s.cache.SetSummary(ctx, key, summary, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Sales summary cache write failed", "error", err)
	}
	return toSalesSummaryDto(from, to, summary), nil
}

func (s *Reports) Dashboard(ctx context.Context) (*DashboardDto, error) {
	const key = "reports:dashboard"
	if cached, ok, err := s.cache.GetDashboard(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "Dashboard cache read failed", "error", err)
	} else if ok {
		return toDashboardDto(cached), nil
	}

	dashboard, err := s.repository.Dashboard(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	if err := s.cache.SetDashboard(ctx, key, dashboard, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Dashboard cache write failed", "error", err)
	}
	return toDashboardDto(dashboard), nil
}

func toDailySalesDto(d store.DailySales) DailySalesDto {
	return DailySalesDto{
		Day:          d.Day.Format(DateFormat),
		Transactions: d.Transactions,
		UnitsSold:    d.UnitsSold,
		Revenue:      d.Revenue,
	}
}

func toSalesSummaryDto(from, to time.Time, days []store.DailySales) *SalesSummaryDto {
	dto := &SalesSummaryDto{
		From: from.Format(DateFormat),
		To:   to.Format(DateFormat),
		Days: make([]DailySalesDto, len(days)),
	}
	for i, d := range days {
		dto.Days[i] = toDailySalesDto(d)
		dto.TotalRevenue += d.Revenue
	}
	return dto
}

func toDashboardDto(d *store.Dashboard) *DashboardDto {
	dto := &DashboardDto{
		MedicineCount: d.MedicineCount,
		SupplierCount: d.SupplierCount,
		LowStock:      make([]MedicineDto, len(d.LowStock)),
		TodaySales:    toDailySalesDto(d.TodaySales),
	}
	for i, m := range d.LowStock {
		dto.LowStock[i] = *toMedicineDto(&m)
	}
	return dto
}
