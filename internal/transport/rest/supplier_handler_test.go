package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pherrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/kibranpharma/pharmastock/internal/service"
	"github.com/stretchr/testify/assert"
)

// mockSupplierService is a mock implementation of the SupplierService interface
type mockSupplierService struct {
	supplier  *service.SupplierDto
	suppliers []service.SupplierDto
	error     error
}

func (m *mockSupplierService) FindByID(_ context.Context, _ int64) (*service.SupplierDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.supplier, nil
}

func (m *mockSupplierService) FindAll(_ context.Context) ([]service.SupplierDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.suppliers, nil
}

func (m *mockSupplierService) Create(_ context.Context, _ service.SupplierCreateDto) (*service.SupplierDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.supplier, nil
}

func (m *mockSupplierService) Update(_ context.Context, _ int64, _ service.SupplierCreateDto) (*service.SupplierDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.supplier, nil
}

func (m *mockSupplierService) DeleteByID(_ context.Context, _ int64) error {
	return m.error
}

func Test_SupplierHandler_Delete(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  mockSupplierService
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - supplier deleted",
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "Error - supplier not found",
			mockService:  mockSupplierService{error: pherrors.ErrSupplierNotFound},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Error - supplier still referenced",
			mockService:  mockSupplierService{error: pherrors.ErrSupplierInUse},
			expectedCode: http.StatusConflict,
			expectedBody: toJSON(t, ErrorResponse{Error: "Supplier with ID 2 is referenced by purchases"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			api := NewSupplierHandler(&tc.mockService, testLogger())
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/suppliers/2", nil)
			req.SetPathValue("id", "2")
			rr := httptest.NewRecorder()

			// when
			api.Delete(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}
