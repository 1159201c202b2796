package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/aarogya/billing-backend/internal/billing"
	"github.com/aarogya/billing-backend/internal/domain/entities"
)

func billWithItems(date time.Time, items ...entities.BillingItem) *entities.Bill {
	return &entities.Bill{Date: date, Items: items}
}

func TestCategoryRevenue_SingleItem(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	bills := []*entities.Bill{
		billWithItems(now, entities.BillingItem{
			Category: "Radiology", Name: "CT Scan",
			Price: d("200"), Quantity: 2, Tax: d("20"), Total: d("420"),
		}),
	}

	entries := billing.CategoryRevenue(bills, now)

	assert.Len(t, entries, 1)
	assert.Equal(t, "Radiology", entries[0].Category)
	assert.True(t, entries[0].Revenue.Equal(d("420")), "revenue %s", entries[0].Revenue)
	assert.Equal(t, 1, entries[0].Count)
	assert.Equal(t, 1, entries[0].UniqueServices)
}

func TestCategoryRevenue_MissingCategoryDefaultsToOther(t *testing.T) {
	now := time.Now()
	bills := []*entities.Bill{
		billWithItems(now, entities.BillingItem{Name: "Misc", Price: d("100"), Quantity: 1, Total: d("100")}),
	}

	entries := billing.CategoryRevenue(bills, now)

	assert.Len(t, entries, 1)
	assert.Equal(t, "Other", entries[0].Category)
}

func TestCategoryRevenue_TotalMatchesSumOfLineTotals(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	bills := []*entities.Bill{
		billWithItems(now,
			entities.BillingItem{Category: "Radiology", Name: "MRI", Price: d("5000"), Quantity: 1, Tax: d("250"), Total: d("5250")},
			entities.BillingItem{Category: "Pathology", Name: "CBC", Price: d("350"), Quantity: 2, Total: d("700")},
		),
		billWithItems(now,
			entities.BillingItem{Category: "Radiology", Name: "X-Ray", Price: d("400"), Quantity: 1, Total: d("400")},
		),
	}

	entries := billing.CategoryRevenue(bills, now)

	var aggregated, direct decimal.Decimal
	for _, e := range entries {
		aggregated = aggregated.Add(e.Revenue)
	}
	for _, b := range bills {
		for _, item := range b.Items {
			direct = direct.Add(item.LineTotal())
		}
	}

	assert.True(t, aggregated.Equal(direct), "aggregated %s direct %s", aggregated, direct)
}

func TestCategoryRevenue_SortedDescending(t *testing.T) {
	now := time.Now()
	bills := []*entities.Bill{
		billWithItems(now,
			entities.BillingItem{Category: "Pharmacy", Name: "Drugs", Price: d("100"), Quantity: 1, Total: d("100")},
			entities.BillingItem{Category: "Radiology", Name: "MRI", Price: d("5000"), Quantity: 1, Total: d("5000")},
			entities.BillingItem{Category: "Pathology", Name: "LFT", Price: d("800"), Quantity: 1, Total: d("800")},
		),
	}

	entries := billing.CategoryRevenue(bills, now)

	assert.Equal(t, "Radiology", entries[0].Category)
	assert.Equal(t, "Pathology", entries[1].Category)
	assert.Equal(t, "Pharmacy", entries[2].Category)
}

func TestCategoryRevenue_GrowthAgainstPreviousMonth(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	february := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)

	bills := []*entities.Bill{
		// 200 in February, 500 overall.
		billWithItems(february, entities.BillingItem{Category: "Radiology", Name: "X-Ray", Price: d("200"), Quantity: 1, Total: d("200")}),
		billWithItems(now, entities.BillingItem{Category: "Radiology", Name: "CT Scan", Price: d("300"), Quantity: 1, Total: d("300")}),
		// No prior-month data for Pathology.
		billWithItems(now, entities.BillingItem{Category: "Pathology", Name: "CBC", Price: d("400"), Quantity: 1, Total: d("400")}),
	}

	entries := billing.CategoryRevenue(bills, now)

	byCategory := map[string]billing.CategoryRevenueEntry{}
	for _, e := range entries {
		byCategory[e.Category] = e
	}

	// (500-200)/200*100 = 150
	assert.InDelta(t, 150.0, byCategory["Radiology"].GrowthPercent, 0.001)
	assert.Equal(t, billing.NoPriorDataGrowth, byCategory["Pathology"].GrowthPercent)
}

func TestCategoryRevenue_JanuaryLooksAtPreviousDecember(t *testing.T) {
	now := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)
	december := time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC)

	bills := []*entities.Bill{
		billWithItems(december, entities.BillingItem{Category: "Radiology", Name: "X-Ray", Price: d("100"), Quantity: 1, Total: d("100")}),
		billWithItems(now, entities.BillingItem{Category: "Radiology", Name: "X-Ray", Price: d("100"), Quantity: 1, Total: d("100")}),
	}

	entries := billing.CategoryRevenue(bills, now)

	// (200-100)/100*100 = 100, from real prior data rather than the sentinel.
	assert.InDelta(t, 100.0, entries[0].GrowthPercent, 0.001)
}

func TestCategoryRevenue_Idempotent(t *testing.T) {
	now := time.Now()
	bills := []*entities.Bill{
		billWithItems(now,
			entities.BillingItem{Category: "Radiology", Name: "MRI", Price: d("5000"), Quantity: 1, Total: d("5000")},
			entities.BillingItem{Category: "Pharmacy", Name: "Drugs", Price: d("150"), Quantity: 2, Total: d("300")},
		),
	}

	first := billing.CategoryRevenue(bills, now)
	second := billing.CategoryRevenue(bills, now)

	assert.Equal(t, first, second)
}

func TestPaymentMethodDistribution(t *testing.T) {
	bills := []*entities.Bill{
		{Payment: entities.Payment{Method: entities.PaymentMethodCash}, Totals: entities.Totals{GrandTotal: d("600")}},
		{Payment: entities.Payment{Method: entities.PaymentMethodCash}, Totals: entities.Totals{GrandTotal: d("150")}},
		{Payment: entities.Payment{Method: entities.PaymentMethodUPI}, Totals: entities.Totals{GrandTotal: d("250")}},
	}

	entries := billing.PaymentMethodDistribution(bills)

	assert.Len(t, entries, 2)
	assert.Equal(t, "cash", entries[0].Method)
	assert.True(t, entries[0].Amount.Equal(d("750")))
	assert.Equal(t, 2, entries[0].Count)
	assert.InDelta(t, 75.0, entries[0].Percentage, 0.001)
	assert.Equal(t, "upi", entries[1].Method)
	assert.InDelta(t, 25.0, entries[1].Percentage, 0.001)
}

func TestPaymentMethodDistribution_PercentagesSumToHundred(t *testing.T) {
	bills := []*entities.Bill{
		{Payment: entities.Payment{Method: entities.PaymentMethodCash}, Totals: entities.Totals{GrandTotal: d("100")}},
		{Payment: entities.Payment{Method: entities.PaymentMethodCard}, Totals: entities.Totals{GrandTotal: d("100")}},
		{Payment: entities.Payment{Method: entities.PaymentMethodUPI}, Totals: entities.Totals{GrandTotal: d("100")}},
	}

	entries := billing.PaymentMethodDistribution(bills)

	var sum float64
	for _, e := range entries {
		sum += e.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.2)
}

func TestPaymentMethodDistribution_MissingMethodGroupsAsOther(t *testing.T) {
	bills := []*entities.Bill{
		{Totals: entities.Totals{GrandTotal: d("500")}},
	}

	entries := billing.PaymentMethodDistribution(bills)

	assert.Len(t, entries, 1)
	assert.Equal(t, "Other", entries[0].Method)
	assert.InDelta(t, 100.0, entries[0].Percentage, 0.001)
}

func TestPaymentMethodDistribution_EmptyInput(t *testing.T) {
	assert.Empty(t, billing.PaymentMethodDistribution(nil))
}
