package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aarogya/billing-backend/internal/api/handlers"
	"github.com/aarogya/billing-backend/internal/application/services"
	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	apperrors "github.com/aarogya/billing-backend/pkg/errors"
)

type MockBillService struct {
	mock.Mock
}

func (m *MockBillService) CreateBill(ctx context.Context, bill *entities.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillService) GetBill(ctx context.Context, id string) (*entities.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bill), args.Error(1)
}

func (m *MockBillService) GetBillByNumber(ctx context.Context, billNumber string) (*entities.Bill, error) {
	args := m.Called(ctx, billNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bill), args.Error(1)
}

func (m *MockBillService) ListBills(ctx context.Context, filter repositories.BillFilter) ([]*entities.Bill, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bill), args.Error(1)
}

func (m *MockBillService) UpdateBill(ctx context.Context, id string, apply func(*entities.Bill) error, updatedBy string) (*entities.Bill, error) {
	args := m.Called(ctx, id, apply, updatedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bill), args.Error(1)
}

func (m *MockBillService) RecordPayment(ctx context.Context, billID string, payment services.PaymentInput) (*entities.Bill, error) {
	args := m.Called(ctx, billID, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bill), args.Error(1)
}

func (m *MockBillService) CancelBill(ctx context.Context, billID, remarks, cancelledBy string) (*entities.Bill, error) {
	args := m.Called(ctx, billID, remarks, cancelledBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bill), args.Error(1)
}

func dec(value string) decimal.Decimal {
	d, _ := decimal.NewFromString(value)
	return d
}

func TestBillHandler_CreateBill(t *testing.T) {
	t.Run("creates a bill", func(t *testing.T) {
		mockService := new(MockBillService)
		handler := handlers.NewBillHandler(mockService)

		mockService.On("CreateBill", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				bill := args.Get(1).(*entities.Bill)
				bill.ID = "bill-1"
				bill.BillNumber = "BILL-20260829-XYZABC"
				bill.Status = entities.BillStatusPartial
			}).
			Return(nil)

		body := map[string]interface{}{
			"patient_id": "patient-1",
			"items": []map[string]interface{}{
				{"name": "Consultation", "category": "OPD", "price": "1000", "quantity": 1},
			},
			"discount":   map[string]interface{}{"type": "percent", "value": "10"},
			"payment":    map[string]interface{}{"method": "cash", "paid": "500"},
			"created_by": "reception",
		}
		payload, _ := json.Marshal(body)

		req := httptest.NewRequest(http.MethodPost, "/api/bills", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		handler.CreateBill(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response entities.Bill
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "BILL-20260829-XYZABC", response.BillNumber)
		assert.Equal(t, entities.BillStatusPartial, response.Status)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects a payload without items", func(t *testing.T) {
		mockService := new(MockBillService)
		handler := handlers.NewBillHandler(mockService)

		payload := []byte(`{"patient_id":"patient-1","items":[]}`)
		req := httptest.NewRequest(http.MethodPost, "/api/bills", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		handler.CreateBill(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateBill", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		mockService := new(MockBillService)
		handler := handlers.NewBillHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/api/bills", bytes.NewReader([]byte(`{`)))
		rec := httptest.NewRecorder()
		handler.CreateBill(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBillHandler_GetBill(t *testing.T) {
	t.Run("returns the bill", func(t *testing.T) {
		mockService := new(MockBillService)
		handler := handlers.NewBillHandler(mockService)

		mockService.On("GetBill", mock.Anything, "bill-1").Return(&entities.Bill{
			ID:         "bill-1",
			BillNumber: "BILL-20260829-XYZABC",
			Status:     entities.BillStatusPaid,
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/bills/bill-1", nil)
		req.SetPathValue("id", "bill-1")
		rec := httptest.NewRecorder()
		handler.GetBill(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response entities.Bill
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "bill-1", response.ID)
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		mockService := new(MockBillService)
		handler := handlers.NewBillHandler(mockService)

		mockService.On("GetBill", mock.Anything, "missing").
			Return(nil, apperrors.NewNotFoundError("bill with id missing not found"))

		req := httptest.NewRequest(http.MethodGet, "/api/bills/missing", nil)
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()
		handler.GetBill(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBillHandler_RecordPayment(t *testing.T) {
	t.Run("records a payment", func(t *testing.T) {
		mockService := new(MockBillService)
		handler := handlers.NewBillHandler(mockService)

		expected := services.PaymentInput{
			Amount:    dec("400"),
			Method:    entities.PaymentMethodUPI,
			CreatedBy: "reception",
		}
		mockService.On("RecordPayment", mock.Anything, "bill-1", mock.MatchedBy(func(payment services.PaymentInput) bool {
			return payment.Amount.Equal(expected.Amount) &&
				payment.Method == expected.Method &&
				payment.CreatedBy == expected.CreatedBy
		})).Return(&entities.Bill{ID: "bill-1", Status: entities.BillStatusPaid}, nil)

		payload := []byte(`{"amount":"400","method":"upi","created_by":"reception"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/bills/bill-1/payments", bytes.NewReader(payload))
		req.SetPathValue("id", "bill-1")
		rec := httptest.NewRecorder()
		handler.RecordPayment(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response entities.Bill
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, entities.BillStatusPaid, response.Status)
		mockService.AssertExpectations(t)
	})

	t.Run("maps state conflicts to 409", func(t *testing.T) {
		mockService := new(MockBillService)
		handler := handlers.NewBillHandler(mockService)

		mockService.On("RecordPayment", mock.Anything, "bill-1", mock.Anything).
			Return(nil, apperrors.NewConflictError("bill is cancelled and cannot take payments"))

		payload := []byte(`{"amount":"100"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/bills/bill-1/payments", bytes.NewReader(payload))
		req.SetPathValue("id", "bill-1")
		rec := httptest.NewRecorder()
		handler.RecordPayment(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("rejects an invalid payment method", func(t *testing.T) {
		mockService := new(MockBillService)
		handler := handlers.NewBillHandler(mockService)

		payload := []byte(`{"amount":"100","method":"barter"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/bills/bill-1/payments", bytes.NewReader(payload))
		req.SetPathValue("id", "bill-1")
		rec := httptest.NewRecorder()
		handler.RecordPayment(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBillHandler_CancelBill(t *testing.T) {
	mockService := new(MockBillService)
	handler := handlers.NewBillHandler(mockService)

	mockService.On("CancelBill", mock.Anything, "bill-1", "duplicate entry", "admin").
		Return(&entities.Bill{ID: "bill-1", Status: entities.BillStatusCancelled}, nil)

	payload := []byte(`{"remarks":"duplicate entry","cancelled_by":"admin"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/bills/bill-1/cancel", bytes.NewReader(payload))
	req.SetPathValue("id", "bill-1")
	rec := httptest.NewRecorder()
	handler.CancelBill(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response entities.Bill
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, entities.BillStatusCancelled, response.Status)
}

func TestBillHandler_ListBills(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		mockService := new(MockBillService)
		handler := handlers.NewBillHandler(mockService)

		mockService.On("ListBills", mock.Anything, mock.MatchedBy(func(filter repositories.BillFilter) bool {
			return filter.PatientID == "patient-1" &&
				filter.Status == entities.BillStatusPartial &&
				filter.From != nil && filter.To != nil &&
				filter.Limit == 10
		})).Return([]*entities.Bill{{ID: "bill-1"}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/bills?patient_id=patient-1&status=partial&from=2026-08-01&to=2026-08-29&limit=10", nil)
		rec := httptest.NewRecorder()
		handler.ListBills(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response struct {
			Bills []*entities.Bill `json:"bills"`
			Count int              `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Count)
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		mockService := new(MockBillService)
		handler := handlers.NewBillHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/api/bills?from=29-08-2026", nil)
		rec := httptest.NewRecorder()
		handler.ListBills(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "ListBills", mock.Anything, mock.Anything)
	})
}
