package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aarogya/billing-backend/internal/application/loaders"
	"github.com/aarogya/billing-backend/internal/application/services"
	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
)

// fakeCache is an in-memory CacheProvider. The report cache refresh runs in
// a goroutine, so the store is guarded for use with require.Eventually.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.store[key]; ok {
		return data, nil
	}
	return nil, context.Canceled
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.store {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.store, key)
		}
	}
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok, nil
}

func (c *fakeCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

func reportBills() []*entities.Bill {
	return []*entities.Bill{
		{
			BillNumber: "BILL-20260810-AAAAAA",
			PatientID:  "patient-1",
			Date:       time.Date(2026, 8, 10, 10, 0, 0, 0, time.UTC),
			Status:     entities.BillStatusPaid,
			Items: []entities.BillingItem{
				{Name: "Consultation", Category: "OPD", Price: d("500"), Quantity: 1},
				{Name: "Chest X-Ray", Category: "Radiology", Price: d("200"), Quantity: 2, Tax: d("20")},
			},
			Payment: entities.Payment{Method: entities.PaymentMethodCash, Paid: d("920")},
			Totals:  entities.Totals{GrandTotal: d("920")},
		},
		{
			BillNumber: "BILL-20260811-BBBBBB",
			PatientID:  "patient-2",
			Date:       time.Date(2026, 8, 11, 12, 0, 0, 0, time.UTC),
			Status:     entities.BillStatusPartial,
			Items: []entities.BillingItem{
				{Name: "Consultation", Category: "OPD", Price: d("500"), Quantity: 1},
			},
			Payment: entities.Payment{Method: entities.PaymentMethodUPI, Paid: d("200")},
			Totals:  entities.Totals{GrandTotal: d("500"), DueAmount: d("300")},
		},
	}
}

func TestReportService_CategoryRevenue(t *testing.T) {
	t.Run("aggregates revenue per category", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		billRepo.On("List", mock.Anything, mock.Anything).Return(reportBills(), nil)
		service := services.NewReportService(billRepo, nil, nil, nil)

		entries, err := service.CategoryRevenue(context.Background(), services.ReportQuery{})

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "OPD", entries[0].Category)
		assert.True(t, entries[0].Revenue.Equal(d("1000")))
		assert.Equal(t, 2, entries[0].Count)
		assert.Equal(t, 1, entries[0].UniqueServices)
		assert.Equal(t, "Radiology", entries[1].Category)
		assert.True(t, entries[1].Revenue.Equal(d("420")))
	})

	t.Run("serves repeat queries from the cache", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		billRepo.On("List", mock.Anything, mock.Anything).Return(reportBills(), nil).Once()
		cache := newFakeCache()
		service := services.NewReportService(billRepo, nil, cache, nil)

		first, err := service.CategoryRevenue(context.Background(), services.ReportQuery{})
		require.NoError(t, err)

		require.Eventually(t, func() bool { return cache.size() == 1 },
			time.Second, 10*time.Millisecond, "report never reached the cache")

		second, err := service.CategoryRevenue(context.Background(), services.ReportQuery{})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		billRepo.AssertNumberOfCalls(t, "List", 1)
	})

	t.Run("different queries use different cache entries", func(t *testing.T) {
		billRepo := new(MockBillRepository)
		billRepo.On("List", mock.Anything, mock.Anything).Return(reportBills(), nil)
		cache := newFakeCache()
		service := services.NewReportService(billRepo, nil, cache, nil)

		_, err := service.CategoryRevenue(context.Background(), services.ReportQuery{})
		require.NoError(t, err)

		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		_, err = service.CategoryRevenue(context.Background(), services.ReportQuery{From: &from})
		require.NoError(t, err)

		require.Eventually(t, func() bool { return cache.size() == 2 },
			time.Second, 10*time.Millisecond)
		billRepo.AssertNumberOfCalls(t, "List", 2)
	})
}

func TestReportService_PaymentMethods(t *testing.T) {
	billRepo := new(MockBillRepository)
	billRepo.On("List", mock.Anything, mock.Anything).Return(reportBills(), nil)
	service := services.NewReportService(billRepo, nil, nil, nil)

	entries, err := service.PaymentMethods(context.Background(), services.ReportQuery{})

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cash", entries[0].Method)
	assert.True(t, entries[0].Amount.Equal(d("920")))
	assert.Equal(t, "upi", entries[1].Method)
	assert.True(t, entries[1].Amount.Equal(d("500")))
}

func TestReportService_Collections(t *testing.T) {
	billRepo := new(MockBillRepository)
	billRepo.On("List", mock.Anything, mock.Anything).Return(reportBills(), nil)
	service := services.NewReportService(billRepo, nil, nil, nil)

	summary, err := service.Collections(context.Background(), services.ReportQuery{Refund: d("100")})

	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.TotalTransactions)
	assert.True(t, summary.Refund.Equal(d("100")))
	assert.True(t, summary.GrandTotal.Equal(d("1020")))
}

func TestReportService_Dues(t *testing.T) {
	billRepo := new(MockBillRepository)
	billRepo.On("List", mock.Anything, mock.Anything).Return(reportBills(), nil)

	patientRepo := new(MockPatientRepository)
	patientRepo.On("GetByIDs", mock.Anything, mock.Anything).
		Return([]*entities.Patient{{ID: "patient-2", Name: "Asha Verma"}}, nil)
	batchLoaders := loaders.NewLoaders(patientRepo, new(MockProductRepository))

	service := services.NewReportService(billRepo, batchLoaders, nil, nil)

	rows, err := service.Dues(context.Background(), services.ReportQuery{})

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BILL-20260810-AAAAAA", rows[0].BillNumber)
	assert.Equal(t, "N/A", rows[0].PatientName)
	assert.True(t, rows[0].Due.IsZero())
	assert.Equal(t, "BILL-20260811-BBBBBB", rows[1].BillNumber)
	assert.Equal(t, "Asha Verma", rows[1].PatientName)
	assert.True(t, rows[1].Due.Equal(d("300")))
}

func TestReportService_LoadBillsAppliesRemarksFilter(t *testing.T) {
	bills := reportBills()
	bills[0].Remarks = "insurance settlement"

	billRepo := new(MockBillRepository)
	billRepo.On("List", mock.Anything, mock.Anything).Return(bills, nil)
	service := services.NewReportService(billRepo, nil, nil, nil)

	entries, err := service.PaymentMethods(context.Background(), services.ReportQuery{Remarks: "insurance"})

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cash", entries[0].Method)

	captured := billRepo.Calls[0].Arguments.Get(1).(repositories.BillFilter)
	assert.Nil(t, captured.From)
	assert.Nil(t, captured.To)
}
