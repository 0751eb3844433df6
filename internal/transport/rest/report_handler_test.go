package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kibranpharma/pharmastock/internal/service"
	"github.com/stretchr/testify/assert"
)

// mockReportService is a mock implementation of the ReportService interface
type mockReportService struct {
	summary   *service.SalesSummaryDto
	dashboard *service.DashboardDto
	error     error
}

func (m *mockReportService) SalesSummary(_ context.Context, _, _ time.Time) (*service.SalesSummaryDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.summary, nil
}

func (m *mockReportService) Dashboard(_ context.Context) (*service.DashboardDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.dashboard, nil
}

func Test_ReportHandler_SalesSummary(t *testing.T) {
	summary := &service.SalesSummaryDto{
		From: "2026-08-01", To: "2026-08-02",
		Days:         []service.DailySalesDto{{Day: "2026-08-01", Transactions: 2, UnitsSold: 3, Revenue: 2400}},
		TotalRevenue: 2400,
	}

	testCases := []struct {
		name         string
		query        string
		expectedCode int
	}{
		{name: "Success", query: "?from=2026-08-01&to=2026-08-02", expectedCode: http.StatusOK},
		{name: "Error - missing from", query: "?to=2026-08-02", expectedCode: http.StatusBadRequest},
		{name: "Error - missing to", query: "?from=2026-08-01", expectedCode: http.StatusBadRequest},
		{name: "Error - malformed date", query: "?from=01/08/2026&to=2026-08-02", expectedCode: http.StatusBadRequest},
		{name: "Error - inverted range", query: "?from=2026-08-02&to=2026-08-01", expectedCode: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			api := NewReportHandler(&mockReportService{summary: summary}, testLogger())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales-summary"+tc.query, nil)
			rr := httptest.NewRecorder()

			// when
			api.SalesSummary(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusOK {
				assert.JSONEq(t, toJSON(t, summary), rr.Body.String())
			}
		})
	}
}

func Test_ReportHandler_Dashboard(t *testing.T) {
	dashboard := &service.DashboardDto{
		MedicineCount: 12,
		SupplierCount: 3,
		LowStock:      []service.MedicineDto{},
		TodaySales:    service.DailySalesDto{Day: "2026-08-30"},
	}

	t.Run("Success", func(t *testing.T) {
		api := NewReportHandler(&mockReportService{dashboard: dashboard}, testLogger())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/dashboard", nil)
		rr := httptest.NewRecorder()

		api.Dashboard(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, toJSON(t, dashboard), rr.Body.String())
	})

	t.Run("Error - service failure", func(t *testing.T) {
		api := NewReportHandler(&mockReportService{error: assert.AnError}, testLogger())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/dashboard", nil)
		rr := httptest.NewRecorder()

		api.Dashboard(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
