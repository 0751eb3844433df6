package cache

import (
	"context"
	"time"

	"github.com/kibranpharma/pharmastock/internal/store"
)

type ReportCache interface {
	GetSummary(ctx context.Context, key string) ([]store.DailySales, bool, error)
	SetSummary(ctx context.Context, key string, value []store.DailySales, ttl time.Duration) error
	GetDashboard(ctx context.Context, key string) (*store.Dashboard, bool, error)
	SetDashboard(ctx context.Context, key string, value *store.Dashboard, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) GetSummary(_ context.Context, _ string) ([]store.DailySales, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) SetSummary(_ context.Context, _ string, _ []store.DailySales, _ time.Duration) error {
	return nil
}

func (NoopReportCache) GetDashboard(_ context.Context, _ string) (*store.Dashboard, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) SetDashboard(_ context.Context, _ string, _ *store.Dashboard, _ time.Duration) error {
	return nil
}
