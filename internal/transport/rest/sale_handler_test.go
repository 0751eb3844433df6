package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pherrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/kibranpharma/pharmastock/internal/service"
	"github.com/stretchr/testify/assert"
)

// mockSaleService is a mock implementation of the SaleService interface
type mockSaleService struct {
	sale  *service.SaleDto
	sales []service.SaleDto
	error error
}

func (m *mockSaleService) FindByID(_ context.Context, _ int64) (*service.SaleDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.sale, nil
}

func (m *mockSaleService) FindAll(_ context.Context, _, _ int32) ([]service.SaleDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.sales, nil
}

func (m *mockSaleService) Create(_ context.Context, _ service.SaleCreateDto) (*service.SaleDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.sale, nil
}

func (m *mockSaleService) Update(_ context.Context, _ int64, _ service.SaleCreateDto) (*service.SaleDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.sale, nil
}

func (m *mockSaleService) DeleteByID(_ context.Context, _ int64) error {
	return m.error
}

func Test_SaleHandler_Create(t *testing.T) {
	newStock := int32(6)
	validBody := `{"medicine_id": 1, "quantity": 4, "selling_price": 800, "customer_name": "Walk-in", "sale_date": "2026-08-01"}`

	testCases := []struct {
		name         string
		mockService  mockSaleService
		body         string
		expectedCode int
	}{
		{
			name: "Success - sale recorded",
			mockService: mockSaleService{sale: &service.SaleDto{
				ID: 20, MedicineID: 1, Quantity: 4, SellingPrice: 800, TotalAmount: 3200,
				SaleDate: "2026-08-01", NewStock: &newStock,
			}},
			body:         validBody,
			expectedCode: http.StatusCreated,
		},
		{
			name:         "Error - insufficient stock",
			mockService:  mockSaleService{error: pherrors.ErrInsufficientStock},
			body:         validBody,
			expectedCode: http.StatusConflict,
		},
		{
			name:         "Error - medicine not found",
			mockService:  mockSaleService{error: pherrors.ErrMedicineNotFound},
			body:         validBody,
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Error - zero quantity fails validation",
			body:         `{"medicine_id": 1, "quantity": 0, "sale_date": "2026-08-01"}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Error - bad date format fails validation",
			body:         `{"medicine_id": 1, "quantity": 4, "sale_date": "01/08/2026"}`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			api := NewSaleHandler(&tc.mockService, testLogger())
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			// when
			api.Create(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}

	t.Run("Success - response carries new stock", func(t *testing.T) {
		api := NewSaleHandler(&mockSaleService{sale: &service.SaleDto{ID: 20, NewStock: &newStock}}, testLogger())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(validBody))
		rr := httptest.NewRecorder()

		api.Create(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Contains(t, rr.Body.String(), `"new_stock":6`)
	})
}

func Test_SaleHandler_Delete(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  mockSaleService
		saleID       string
		expectedCode int
	}{
		{name: "Success - sale deleted", saleID: "20", expectedCode: http.StatusNoContent},
		{name: "Error - sale not found", mockService: mockSaleService{error: pherrors.ErrSaleNotFound}, saleID: "20", expectedCode: http.StatusNotFound},
		{name: "Error - invalid id", saleID: "x", expectedCode: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := NewSaleHandler(&tc.mockService, testLogger())
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/sales/"+tc.saleID, nil)
			req.SetPathValue("id", tc.saleID)
			rr := httptest.NewRecorder()

			api.Delete(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}
