package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	pherrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/kibranpharma/pharmastock/internal/ledger"
	"github.com/kibranpharma/pharmastock/internal/service"
	"github.com/kibranpharma/pharmastock/internal/store"
	"github.com/kibranpharma/pharmastock/pkg/messaging"
	"github.com/kibranpharma/pharmastock/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMedicineService is a mock implementation of the MedicineService interface
type mockMedicineService struct {
	medicine  *service.MedicineDto
	medicines []service.MedicineDto
	error     error
}

func (m *mockMedicineService) FindByID(_ context.Context, _ int64) (*service.MedicineDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.medicine, nil
}

func (m *mockMedicineService) FindAll(_ context.Context, _, _ int32) ([]service.MedicineDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.medicines, nil
}

func (m *mockMedicineService) Create(_ context.Context, _ service.MedicineCreateDto) (*service.MedicineDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.medicine, nil
}

func (m *mockMedicineService) Update(_ context.Context, _ int64, _ service.MedicineUpdateDto) (*service.MedicineDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.medicine, nil
}

func (m *mockMedicineService) DeleteByID(_ context.Context, _ int64, _ int32) error {
	return m.error
}

func (m *mockMedicineService) Options(_ context.Context) *service.DropdownOptionsDto {
	return &service.DropdownOptionsDto{Categories: []string{"Analgesic"}}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// toJSON is a helper function to convert a struct to JSON string
func toJSON(t *testing.T, v interface{}) string {
	t.Helper()
	bytes, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal to JSON: %v", err)
	}
	return string(bytes)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// capturingPublisher records every published event.
type capturingPublisher struct {
	events []messaging.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e messaging.Event) error {
	p.events = append(p.events, e)
	return nil
}

// newSeededLedger builds a ledger over an in-memory store holding one
// medicine with the given stock, returning the ledger and the medicine ID.
func newSeededLedger(t *testing.T, stock int32) (*ledger.Ledger, int64) {
	t.Helper()
	s := store.NewMemoryStore()
	m, err := s.Create(context.Background(), &store.Medicine{Name: "Paracetamol", Stock: stock})
	require.NoError(t, err)
	return ledger.NewLedger(s, messaging.NoopPublisher{}, testLogger()), m.ID
}

func Test_MedicineHandler_FindByID(t *testing.T) {
	dto := &service.MedicineDto{
		ID: 1, Name: "Paracetamol", Category: "Analgesic", DosageForm: "Tablet",
		BatchNumber: "B-1001", Manufacturer: "Acme Pharma", ExpiryDate: "2027-01-01",
		Unit: "Box", BuyingPrice: 500, SellingPrice: 800, Country: "Ethiopia",
		Stock: 10, Version: 1,
	}

	testCases := []struct {
		name         string
		mockService  mockMedicineService
		medicineID   string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - medicine found",
			mockService:  mockMedicineService{medicine: dto},
			medicineID:   "1",
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, dto),
		},
		{
			name:         "Error - invalid id",
			medicineID:   "abc",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid ID: abc"}),
		},
		{
			name:         "Error - medicine not found",
			mockService:  mockMedicineService{error: pherrors.ErrMedicineNotFound},
			medicineID:   "1",
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Medicine with ID 1 not found"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			api := NewMedicineHandler(&tc.mockService, nil, testLogger())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/medicines/"+tc.medicineID, nil)
			req.SetPathValue("id", tc.medicineID)
			rr := httptest.NewRecorder()

			// when
			api.FindByID(rr, req)

			// then
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_MedicineHandler_Create(t *testing.T) {
	validBody := `{
		"name": "Paracetamol", "category": "Analgesic", "dosage_form": "Tablet",
		"batch_number": "B-1001", "manufacturer": "Acme Pharma", "expiry_date": "2027-01-01",
		"unit": "Box", "buying_price": 500, "selling_price": 800,
		"country": "Ethiopia", "stock": 10
	}`

	t.Run("Success - medicine created", func(t *testing.T) {
		api := NewMedicineHandler(&mockMedicineService{medicine: &service.MedicineDto{ID: 1, Name: "Paracetamol"}}, nil, testLogger())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/medicines", strings.NewReader(validBody))
		rr := httptest.NewRecorder()

		api.Create(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("Error - missing required fields", func(t *testing.T) {
		api := NewMedicineHandler(&mockMedicineService{}, nil, testLogger())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/medicines", strings.NewReader(`{"name": "Paracetamol"}`))
		rr := httptest.NewRecorder()

		api.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "validation_errors")
	})

	t.Run("Error - malformed body", func(t *testing.T) {
		api := NewMedicineHandler(&mockMedicineService{}, nil, testLogger())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/medicines", strings.NewReader("{not json"))
		rr := httptest.NewRecorder()

		api.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_MedicineHandler_Update(t *testing.T) {
	body := `{
		"name": "Paracetamol", "category": "Analgesic", "dosage_form": "Tablet",
		"batch_number": "B-1001", "manufacturer": "Acme Pharma", "expiry_date": "2027-01-01",
		"unit": "Box", "buying_price": 500, "selling_price": 800,
		"country": "Ethiopia", "version": 1
	}`

	testCases := []struct {
		name         string
		mockService  mockMedicineService
		expectedCode int
	}{
		{
			name:         "Success - medicine updated",
			mockService:  mockMedicineService{medicine: &service.MedicineDto{ID: 1, Version: 2}},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Error - stale version",
			mockService:  mockMedicineService{error: pherrors.ErrConcurrentModification},
			expectedCode: http.StatusConflict,
		},
		{
			name:         "Error - medicine not found",
			mockService:  mockMedicineService{error: pherrors.ErrMedicineNotFound},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := NewMedicineHandler(&tc.mockService, nil, testLogger())
			req := httptest.NewRequest(http.MethodPut, "/api/v1/medicines/1", strings.NewReader(body))
			req.SetPathValue("id", "1")
			rr := httptest.NewRecorder()

			api.Update(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}

func Test_MedicineHandler_AdjustStock(t *testing.T) {
	testCases := []struct {
		name         string
		stock        int32
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - positive delta",
			stock:        10,
			body:         `{"delta": 5, "reason": "correction"}`,
			expectedCode: http.StatusOK,
			expectedBody: `{"new_stock": 15}`,
		},
		{
			name:         "Success - negative delta within stock",
			stock:        10,
			body:         `{"delta": -10, "reason": "write-off"}`,
			expectedCode: http.StatusOK,
			expectedBody: `{"new_stock": 0}`,
		},
		{
			name:         "Error - delta below zero",
			stock:        3,
			body:         `{"delta": -4, "reason": "write-off"}`,
			expectedCode: http.StatusConflict,
		},
		{
			name:         "Error - unknown reason",
			stock:        10,
			body:         `{"delta": 1, "reason": "shrinkage"}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Error - missing reason",
			stock:        10,
			body:         `{"delta": 1}`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			l, medicineID := newSeededLedger(t, tc.stock)
			api := NewMedicineHandler(&mockMedicineService{}, l, testLogger())
			req := httptest.NewRequest(http.MethodPost, "/api/v1/medicines/1/stock-adjustments", strings.NewReader(tc.body))
			req.SetPathValue("id", strconv.FormatInt(medicineID, 10))
			rr := httptest.NewRecorder()

			// when
			api.AdjustStock(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}

	t.Run("Error - unknown medicine", func(t *testing.T) {
		l, _ := newSeededLedger(t, 10)
		api := NewMedicineHandler(&mockMedicineService{}, l, testLogger())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/medicines/99/stock-adjustments", strings.NewReader(`{"delta": 1, "reason": "correction"}`))
		req.SetPathValue("id", "99")
		rr := httptest.NewRecorder()

		api.AdjustStock(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("reference id is carried through to the published event", func(t *testing.T) {
		publisher := &capturingPublisher{}
		s := store.NewMemoryStore()
		m, err := s.Create(context.Background(), &store.Medicine{Name: "Paracetamol", Stock: 10})
		require.NoError(t, err)
		l := ledger.NewLedger(s, publisher, testLogger())
		api := NewMedicineHandler(&mockMedicineService{}, l, testLogger())

		body := `{"delta": -5, "reason": "write-off", "reference_id": "stocktake-2026-08"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/medicines/1/stock-adjustments", strings.NewReader(body))
		req.SetPathValue("id", strconv.FormatInt(m.ID, 10))
		rr := httptest.NewRecorder()

		api.AdjustStock(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, publisher.events, 1)
		adjusted, ok := publisher.events[0].(events.StockAdjustedEvent)
		require.True(t, ok)
		assert.Equal(t, "stocktake-2026-08", adjusted.ReferenceID)
		assert.Equal(t, int32(-5), adjusted.Delta)
	})

	t.Run("omitted reference id falls back to the medicine id", func(t *testing.T) {
		publisher := &capturingPublisher{}
		s := store.NewMemoryStore()
		m, err := s.Create(context.Background(), &store.Medicine{Name: "Paracetamol", Stock: 10})
		require.NoError(t, err)
		l := ledger.NewLedger(s, publisher, testLogger())
		api := NewMedicineHandler(&mockMedicineService{}, l, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/medicines/1/stock-adjustments", strings.NewReader(`{"delta": 2, "reason": "correction"}`))
		req.SetPathValue("id", strconv.FormatInt(m.ID, 10))
		rr := httptest.NewRecorder()

		api.AdjustStock(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, publisher.events, 1)
		adjusted, ok := publisher.events[0].(events.StockAdjustedEvent)
		require.True(t, ok)
		assert.Equal(t, strconv.FormatInt(m.ID, 10), adjusted.ReferenceID)
	})
}

func Test_MedicineHandler_Delete(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  mockMedicineService
		version      string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - medicine deleted",
			mockService:  mockMedicineService{},
			version:      "1",
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "Error - medicine not found",
			mockService:  mockMedicineService{error: pherrors.ErrMedicineNotFound},
			version:      "1",
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Error - stale version",
			mockService:  mockMedicineService{error: pherrors.ErrConcurrentModification},
			version:      "1",
			expectedCode: http.StatusConflict,
		},
		{
			name:         "Error - medicine referenced by records",
			mockService:  mockMedicineService{error: pherrors.ErrMedicineInUse},
			version:      "1",
			expectedCode: http.StatusConflict,
			expectedBody: toJSON(t, ErrorResponse{Error: "Medicine with ID 1 is referenced by purchases or sales"}),
		},
		{
			name:         "Error - missing version",
			mockService:  mockMedicineService{},
			version:      "",
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			api := NewMedicineHandler(&tc.mockService, nil, testLogger())
			target := "/api/v1/medicines/1"
			if tc.version != "" {
				target += "?version=" + tc.version
			}
			req := httptest.NewRequest(http.MethodDelete, target, nil)
			req.SetPathValue("id", "1")
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
