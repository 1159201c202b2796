package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aarogya/billing-backend/internal/application/services"
	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	apperrors "github.com/aarogya/billing-backend/pkg/errors"
)

// Mocks

type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) Create(ctx context.Context, bill *entities.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) GetByID(ctx context.Context, id string) (*entities.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bill), args.Error(1)
}

func (m *MockBillRepository) GetByNumber(ctx context.Context, billNumber string) (*entities.Bill, error) {
	args := m.Called(ctx, billNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bill), args.Error(1)
}

func (m *MockBillRepository) Update(ctx context.Context, bill *entities.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) List(ctx context.Context, filter repositories.BillFilter) ([]*entities.Bill, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bill), args.Error(1)
}

type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) Create(ctx context.Context, receipt *entities.Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockReceiptRepository) GetByNumber(ctx context.Context, receiptNumber string) (*entities.Receipt, error) {
	args := m.Called(ctx, receiptNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) ListByBill(ctx context.Context, billID string) ([]*entities.Receipt, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) List(ctx context.Context, filter repositories.ReceiptFilter) ([]*entities.Receipt, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entities.Receipt), args.Int(1), args.Error(2)
}

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(ctx context.Context, patient *entities.Patient) error {
	return nil
}

func (m *MockPatientRepository) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Patient), args.Error(1)
}

func (m *MockPatientRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Patient), args.Error(1)
}

func (m *MockPatientRepository) Update(ctx context.Context, patient *entities.Patient) error {
	return nil
}

func (m *MockPatientRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *MockPatientRepository) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	return nil, nil
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *entities.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*entities.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Product), args.Error(1)
}

func (m *MockProductRepository) GetByCode(ctx context.Context, code string) (*entities.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Product, error) {
	return nil, nil
}

func (m *MockProductRepository) Update(ctx context.Context, product *entities.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) List(ctx context.Context, filter repositories.ProductFilter) ([]*entities.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Product), args.Error(1)
}

func (m *MockProductRepository) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.BillEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.BillEvent, error) {
	return nil, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return nil
}

func (m *MockEventBus) Close() error {
	return nil
}

// Helpers

func d(value string) decimal.Decimal {
	dec, _ := decimal.NewFromString(value)
	return dec
}

func newBillingService(billRepo *MockBillRepository, receiptRepo *MockReceiptRepository, patientRepo *MockPatientRepository, productRepo *MockProductRepository, eventBus *MockEventBus) *services.BillingService {
	return services.NewBillingService(billRepo, receiptRepo, patientRepo, productRepo, eventBus)
}

// Tests

func TestBillingService_CreateBill(t *testing.T) {
	t.Run("computes totals and appends a creation receipt", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		receiptRepo := new(MockReceiptRepository)
		patientRepo := new(MockPatientRepository)
		productRepo := new(MockProductRepository)
		eventBus := new(MockEventBus)
		service := newBillingService(billRepo, receiptRepo, patientRepo, productRepo, eventBus)

		patientRepo.On("GetByID", mock.Anything, "patient-1").
			Return(&entities.Patient{ID: "patient-1", Name: "Asha Verma"}, nil)
		billRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		var receipt *entities.Receipt
		receiptRepo.On("Create", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { receipt = args.Get(1).(*entities.Receipt) }).
			Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		bill := &entities.Bill{
			PatientID: "patient-1",
			Items: []entities.BillingItem{
				{Name: "Consultation", Category: "OPD", Price: d("1000"), Quantity: 1},
			},
			Discount:  entities.Discount{Type: entities.DiscountTypePercent, Value: d("10")},
			Payment:   entities.Payment{Method: entities.PaymentMethodCash, Paid: d("500")},
			CreatedBy: "reception",
		}

		err := service.CreateBill(context.Background(), bill)

		require.NoError(t, err)
		assert.NotEmpty(t, bill.ID)
		assert.NotEmpty(t, bill.BillNumber)
		assert.True(t, bill.Totals.Subtotal.Equal(d("1000")))
		assert.True(t, bill.Totals.GrandTotal.Equal(d("900")))
		assert.True(t, bill.Totals.DueAmount.Equal(d("400")))
		assert.Equal(t, entities.BillStatusPartial, bill.Status)

		require.NotNil(t, receipt)
		assert.Equal(t, entities.ReceiptTypeCreation, receipt.Type)
		assert.True(t, receipt.Amount.Equal(d("500")))
		assert.Equal(t, entities.BillStatusPartial, receipt.NewStatus)
		assert.NotEmpty(t, receipt.BillingSnapshot)
	})

	t.Run("rejects a bill with no items", func(t *testing.T) {
		service := newBillingService(new(MockBillRepository), new(MockReceiptRepository), new(MockPatientRepository), new(MockProductRepository), new(MockEventBus))

		err := service.CreateBill(context.Background(), &entities.Bill{PatientID: "patient-1"})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	})

	t.Run("rejects an unknown patient", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		patientRepo := new(MockPatientRepository)
		service := newBillingService(billRepo, new(MockReceiptRepository), patientRepo, new(MockProductRepository), new(MockEventBus))

		patientRepo.On("GetByID", mock.Anything, "ghost").
			Return(nil, apperrors.NewNotFoundError("patient with id ghost not found"))

		bill := &entities.Bill{
			PatientID: "ghost",
			Items:     []entities.BillingItem{{Name: "Consultation", Price: d("500"), Quantity: 1}},
		}

		err := service.CreateBill(context.Background(), bill)

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
		billRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("enriches items from the catalog by code", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		receiptRepo := new(MockReceiptRepository)
		patientRepo := new(MockPatientRepository)
		productRepo := new(MockProductRepository)
		eventBus := new(MockEventBus)
		service := newBillingService(billRepo, receiptRepo, patientRepo, productRepo, eventBus)

		patientRepo.On("GetByID", mock.Anything, "patient-1").
			Return(&entities.Patient{ID: "patient-1"}, nil)
		productRepo.On("GetByCode", mock.Anything, "XR-001").
			Return(&entities.Product{
				ID: "prod-1", Name: "Chest X-Ray", Code: "XR-001",
				Category: "Radiology", Price: d("200"), Tax: d("10"),
			}, nil)
		billRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		receiptRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		bill := &entities.Bill{
			PatientID: "patient-1",
			Items:     []entities.BillingItem{{Code: "XR-001", Quantity: 2}},
		}

		err := service.CreateBill(context.Background(), bill)

		require.NoError(t, err)
		assert.Equal(t, "Chest X-Ray", bill.Items[0].Name)
		assert.Equal(t, "Radiology", bill.Items[0].Category)
		// 200*2 + 10*2
		assert.True(t, bill.Items[0].Total.Equal(d("420")))
	})
}

func TestBillingService_RecordPayment(t *testing.T) {
	t.Run("settling the balance moves the bill to paid", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		receiptRepo := new(MockReceiptRepository)
		eventBus := new(MockEventBus)
		service := newBillingService(billRepo, receiptRepo, new(MockPatientRepository), new(MockProductRepository), eventBus)

		bill := &entities.Bill{
			ID:         "bill-1",
			BillNumber: "BILL-2026-0001",
			Items:      []entities.BillingItem{{Name: "Consultation", Price: d("1000"), Quantity: 1, Total: d("1000")}},
			Discount:   entities.Discount{Type: entities.DiscountTypePercent, Value: d("10")},
			Payment:    entities.Payment{Method: entities.PaymentMethodCash, Paid: d("500")},
			Status:     entities.BillStatusPartial,
		}
		billRepo.On("GetByID", mock.Anything, "bill-1").Return(bill, nil)
		billRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		var receipt *entities.Receipt
		receiptRepo.On("Create", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { receipt = args.Get(1).(*entities.Receipt) }).
			Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		updated, err := service.RecordPayment(context.Background(), "bill-1", services.PaymentInput{
			Amount:    d("400"),
			Method:    entities.PaymentMethodUPI,
			CreatedBy: "reception",
		})

		require.NoError(t, err)
		assert.Equal(t, entities.BillStatusPaid, updated.Status)
		assert.True(t, updated.Payment.Paid.Equal(d("900")))
		assert.True(t, updated.Totals.DueAmount.IsZero())

		require.NotNil(t, receipt)
		assert.Equal(t, entities.ReceiptTypePayment, receipt.Type)
		assert.True(t, receipt.Amount.Equal(d("400")))
		assert.Equal(t, entities.BillStatusPartial, receipt.PreviousStatus)
		assert.Equal(t, entities.BillStatusPaid, receipt.NewStatus)
	})

	t.Run("rejects payments against a terminal bill", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		service := newBillingService(billRepo, new(MockReceiptRepository), new(MockPatientRepository), new(MockProductRepository), new(MockEventBus))

		billRepo.On("GetByID", mock.Anything, "bill-1").Return(&entities.Bill{
			ID:     "bill-1",
			Status: entities.BillStatusCancelled,
		}, nil)

		_, err := service.RecordPayment(context.Background(), "bill-1", services.PaymentInput{Amount: d("100")})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		service := newBillingService(new(MockBillRepository), new(MockReceiptRepository), new(MockPatientRepository), new(MockProductRepository), new(MockEventBus))

		_, err := service.RecordPayment(context.Background(), "bill-1", services.PaymentInput{Amount: d("0")})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	})
}

func TestBillingService_CancelBill(t *testing.T) {
	t.Run("cancels an open bill and records the audit receipt", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		receiptRepo := new(MockReceiptRepository)
		eventBus := new(MockEventBus)
		service := newBillingService(billRepo, receiptRepo, new(MockPatientRepository), new(MockProductRepository), eventBus)

		bill := &entities.Bill{
			ID:         "bill-1",
			BillNumber: "BILL-2026-0001",
			Payment:    entities.Payment{Method: entities.PaymentMethodCash, Paid: d("300")},
			Status:     entities.BillStatusActive,
		}
		billRepo.On("GetByID", mock.Anything, "bill-1").Return(bill, nil)
		billRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		var receipt *entities.Receipt
		receiptRepo.On("Create", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { receipt = args.Get(1).(*entities.Receipt) }).
			Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		updated, err := service.CancelBill(context.Background(), "bill-1", "duplicate entry", "admin")

		require.NoError(t, err)
		assert.Equal(t, entities.BillStatusCancelled, updated.Status)

		require.NotNil(t, receipt)
		assert.Equal(t, entities.ReceiptTypeCancellation, receipt.Type)
		assert.Equal(t, entities.BillStatusActive, receipt.PreviousStatus)
		assert.True(t, receipt.Amount.Equal(d("300")))
		assert.Equal(t, "duplicate entry", receipt.Remarks)
	})

	t.Run("rejects cancelling a paid bill", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		service := newBillingService(billRepo, new(MockReceiptRepository), new(MockPatientRepository), new(MockProductRepository), new(MockEventBus))

		billRepo.On("GetByID", mock.Anything, "bill-1").Return(&entities.Bill{
			ID:     "bill-1",
			Status: entities.BillStatusPaid,
		}, nil)

		_, err := service.CancelBill(context.Background(), "bill-1", "", "admin")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	})
}

func TestBillingService_UpdateBill(t *testing.T) {
	t.Run("recomputes totals and cuts a modification receipt", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		receiptRepo := new(MockReceiptRepository)
		eventBus := new(MockEventBus)
		service := newBillingService(billRepo, receiptRepo, new(MockPatientRepository), new(MockProductRepository), eventBus)

		bill := &entities.Bill{
			ID:         "bill-1",
			BillNumber: "BILL-2026-0001",
			Items:      []entities.BillingItem{{ID: "item-1", Name: "Consultation", Price: d("500"), Quantity: 1, Total: d("500")}},
			Status:     entities.BillStatusActive,
		}
		billRepo.On("GetByID", mock.Anything, "bill-1").Return(bill, nil)
		billRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		receiptRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		updated, err := service.UpdateBill(context.Background(), "bill-1", func(b *entities.Bill) error {
			b.Items = append(b.Items, entities.BillingItem{Name: "Dressing", Price: d("150"), Quantity: 2})
			return nil
		}, "reception")

		require.NoError(t, err)
		assert.True(t, updated.Totals.Subtotal.Equal(d("800")))
		receiptRepo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects modifying a cancelled bill", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		service := newBillingService(billRepo, new(MockReceiptRepository), new(MockPatientRepository), new(MockProductRepository), new(MockEventBus))

		billRepo.On("GetByID", mock.Anything, "bill-1").Return(&entities.Bill{
			ID:     "bill-1",
			Status: entities.BillStatusCancelled,
		}, nil)

		_, err := service.UpdateBill(context.Background(), "bill-1", func(b *entities.Bill) error { return nil }, "reception")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	})
}
