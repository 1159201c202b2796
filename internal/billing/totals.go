// Package billing implements the billing aggregation engine: per-bill totals
// and cross-bill report aggregates. Every function is pure and synchronous
// over its input slice, so results can be memoized by callers.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/domain/entities"
)

var oneHundred = decimal.NewFromInt(100)

// DiscountAmount resolves a discount against a subtotal: percent-of-subtotal
// for percent discounts, the flat value otherwise.
func DiscountAmount(subtotal decimal.Decimal, discount entities.Discount) decimal.Decimal {
	if discount.Type == entities.DiscountTypePercent {
		return subtotal.Mul(discount.Value).Div(oneHundred)
	}
	return discount.Value
}

// ComputeTotals derives a bill's totals from its items, discount, and the
// amount paid so far:
//
//	subtotal   = sum of item line totals (price*quantity + tax)
//	totalTax   = sum of item taxes (informational, already inside subtotal)
//	grandTotal = subtotal - discountAmount
//	dueAmount  = grandTotal - paid (negative means overpayment)
func ComputeTotals(items []entities.BillingItem, discount entities.Discount, paid decimal.Decimal) entities.Totals {
	var subtotal, totalTax decimal.Decimal
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		totalTax = totalTax.Add(item.Tax)
	}

	grandTotal := subtotal.Sub(DiscountAmount(subtotal, discount))

	return entities.Totals{
		Subtotal:   subtotal,
		TotalTax:   totalTax,
		GrandTotal: grandTotal,
		DueAmount:  grandTotal.Sub(paid),
	}
}

// Due returns the outstanding amount on a bill, floored at zero
func Due(totals entities.Totals) decimal.Decimal {
	if totals.DueAmount.IsNegative() {
		return decimal.Zero
	}
	return totals.DueAmount
}

// Excess returns the overpaid amount on a bill, floored at zero
func Excess(totals entities.Totals, paid decimal.Decimal) decimal.Decimal {
	excess := paid.Sub(totals.GrandTotal)
	if excess.IsNegative() {
		return decimal.Zero
	}
	return excess
}
