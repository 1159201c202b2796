package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/aarogya/billing-backend/internal/billing"
	"github.com/aarogya/billing-backend/internal/domain/entities"
)

func paidBill(method entities.PaymentMethod, status entities.BillStatus, grand, paid string) *entities.Bill {
	return &entities.Bill{
		Status:  status,
		Payment: entities.Payment{Method: method, Paid: d(paid)},
		Totals: entities.Totals{
			GrandTotal: d(grand),
			DueAmount:  d(grand).Sub(d(paid)),
		},
	}
}

func TestCollections_SplitsSettledAndOpen(t *testing.T) {
	bills := []*entities.Bill{
		paidBill(entities.PaymentMethodCash, entities.BillStatusPaid, "1000", "1000"),
		paidBill(entities.PaymentMethodCash, entities.BillStatusPartial, "800", "300"),
		paidBill(entities.PaymentMethodUPI, entities.BillStatusPending, "500", "100"),
	}

	summary := billing.Collections(bills, decimal.Zero)

	assert.True(t, summary.AmountCollected["cash"].Equal(d("1000")))
	assert.True(t, summary.DuesCollected["cash"].Equal(d("300")))
	assert.True(t, summary.DuesCollected["upi"].Equal(d("100")))
	assert.True(t, summary.TotalAmount["cash"].Equal(d("1300")))
	assert.True(t, summary.TotalAmount["upi"].Equal(d("100")))
	assert.Equal(t, 3, summary.TotalTransactions)
	assert.True(t, summary.GrandTotal.Equal(d("1400")))
}

func TestCollections_RefundReducesGrandTotal(t *testing.T) {
	bills := []*entities.Bill{
		paidBill(entities.PaymentMethodCard, entities.BillStatusPaid, "2000", "2000"),
	}

	summary := billing.Collections(bills, d("250"))

	assert.True(t, summary.GrandTotal.Equal(d("1750")), "grand total %s", summary.GrandTotal)
}

func TestCollections_SkipsCancelledBills(t *testing.T) {
	bills := []*entities.Bill{
		paidBill(entities.PaymentMethodCash, entities.BillStatusCancelled, "900", "900"),
	}

	summary := billing.Collections(bills, decimal.Zero)

	assert.Empty(t, summary.AmountCollected)
	assert.Empty(t, summary.DuesCollected)
	assert.Equal(t, 0, summary.TotalTransactions)
	assert.True(t, summary.GrandTotal.IsZero())
}

func TestDuesReport(t *testing.T) {
	bills := []*entities.Bill{
		paidBill(entities.PaymentMethodCash, entities.BillStatusPartial, "1000", "600"),
		paidBill(entities.PaymentMethodCard, entities.BillStatusPaid, "500", "700"),
		paidBill(entities.PaymentMethodUPI, entities.BillStatusCancelled, "300", "0"),
	}
	bills[0].BillNumber = "B-001"
	bills[1].BillNumber = "B-002"

	rows := billing.DuesReport(bills)

	assert.Len(t, rows, 2, "cancelled bills excluded")

	assert.Equal(t, "B-001", rows[0].BillNumber)
	assert.True(t, rows[0].Due.Equal(d("400")))
	assert.True(t, rows[0].Excess.IsZero())

	assert.Equal(t, "B-002", rows[1].BillNumber)
	assert.True(t, rows[1].Due.IsZero())
	assert.True(t, rows[1].Excess.Equal(d("200")))
}
