package billing

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/domain/entities"
)

// NoPriorDataGrowth is the sentinel growth percentage reported for a category
// with no revenue in the previous month.
const NoPriorDataGrowth = 100.0

// CategoryRevenueEntry is the revenue aggregate for one service category
type CategoryRevenueEntry struct {
	Category       string          `json:"category"`
	Revenue        decimal.Decimal `json:"revenue"`
	Count          int             `json:"count"`
	UniqueServices int             `json:"unique_services"`
	GrowthPercent  float64         `json:"growth_percent"`
}

// CategoryRevenue flattens billing items across all bills and aggregates
// revenue (line total), line-item count, and distinct service names per
// category. Growth compares against bills dated in the calendar month before
// now; categories with no prior revenue report NoPriorDataGrowth. Output is
// sorted by revenue descending; ties keep first-insertion order.
func CategoryRevenue(bills []*entities.Bill, now time.Time) []CategoryRevenueEntry {
	type bucket struct {
		entry    CategoryRevenueEntry
		services map[string]struct{}
		previous decimal.Decimal
	}

	buckets := map[string]*bucket{}
	order := []string{}

	prevYear, prevMonth := previousMonth(now)

	for _, bill := range bills {
		inPrevMonth := bill.Date.Year() == prevYear && bill.Date.Month() == prevMonth
		for _, item := range bill.Items {
			category := item.CategoryOrDefault()
			b, ok := buckets[category]
			if !ok {
				b = &bucket{
					entry:    CategoryRevenueEntry{Category: category},
					services: map[string]struct{}{},
				}
				buckets[category] = b
				order = append(order, category)
			}

			b.entry.Revenue = b.entry.Revenue.Add(item.LineTotal())
			b.entry.Count++
			if item.Name != "" {
				b.services[item.Name] = struct{}{}
			}
			if inPrevMonth {
				b.previous = b.previous.Add(item.LineTotal())
			}
		}
	}

	entries := make([]CategoryRevenueEntry, 0, len(order))
	for _, category := range order {
		b := buckets[category]
		b.entry.UniqueServices = len(b.services)
		b.entry.GrowthPercent = growthPercent(b.entry.Revenue, b.previous)
		entries = append(entries, b.entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Revenue.GreaterThan(entries[j].Revenue)
	})

	return entries
}

func growthPercent(current, previous decimal.Decimal) float64 {
	if previous.IsZero() || previous.IsNegative() {
		return NoPriorDataGrowth
	}
	growth := current.Sub(previous).Div(previous).Mul(oneHundred)
	return growth.InexactFloat64()
}

func previousMonth(now time.Time) (int, time.Month) {
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	return prev.Year(), prev.Month()
}

// PaymentMethodEntry is the revenue aggregate for one payment method
type PaymentMethodEntry struct {
	Method     string          `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// PaymentMethodDistribution groups bill grand totals by payment method
// (default "Other"), with each method's share of the overall amount rounded
// to one decimal place. Output is sorted by amount descending.
func PaymentMethodDistribution(bills []*entities.Bill) []PaymentMethodEntry {
	buckets := map[string]*PaymentMethodEntry{}
	order := []string{}
	var total decimal.Decimal

	for _, bill := range bills {
		method := string(bill.Payment.Method)
		if method == "" {
			method = entities.CategoryOther
		}

		e, ok := buckets[method]
		if !ok {
			e = &PaymentMethodEntry{Method: method}
			buckets[method] = e
			order = append(order, method)
		}

		e.Amount = e.Amount.Add(bill.Totals.GrandTotal)
		e.Count++
		total = total.Add(bill.Totals.GrandTotal)
	}

	entries := make([]PaymentMethodEntry, 0, len(order))
	for _, method := range order {
		e := buckets[method]
		if total.IsPositive() {
			share := e.Amount.Div(total).Mul(oneHundred).InexactFloat64()
			e.Percentage = math.Round(share*10) / 10
		}
		entries = append(entries, *e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Amount.GreaterThan(entries[j].Amount)
	})

	return entries
}
