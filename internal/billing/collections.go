package billing

import (
	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/domain/entities"
)

// CollectionSummary aggregates collected money per payment method. Amounts
// from fully settled bills land in AmountCollected; amounts collected against
// still-open bills (partial/pending/active) land in DuesCollected.
type CollectionSummary struct {
	AmountCollected   map[string]decimal.Decimal `json:"amount_collected"`
	DuesCollected     map[string]decimal.Decimal `json:"dues_collected"`
	TotalAmount       map[string]decimal.Decimal `json:"total_amount"`
	TotalTransactions int                        `json:"total_transactions"`
	Refund            decimal.Decimal            `json:"refund"`
	GrandTotal        decimal.Decimal            `json:"grand_total"`
}

// Collections builds the collection summary over the given bills. Cancelled
// bills are excluded; grand total is the sum of per-method totals minus refund.
func Collections(bills []*entities.Bill, refund decimal.Decimal) CollectionSummary {
	summary := CollectionSummary{
		AmountCollected: map[string]decimal.Decimal{},
		DuesCollected:   map[string]decimal.Decimal{},
		TotalAmount:     map[string]decimal.Decimal{},
		Refund:          refund,
	}

	for _, bill := range bills {
		if bill.Status == entities.BillStatusCancelled {
			continue
		}

		method := string(bill.Payment.Method)
		if method == "" {
			method = entities.CategoryOther
		}

		paid := bill.Payment.Paid
		switch {
		case bill.Status == entities.BillStatusPaid:
			summary.AmountCollected[method] = summary.AmountCollected[method].Add(paid)
		case bill.Status.IsOpen():
			summary.DuesCollected[method] = summary.DuesCollected[method].Add(paid)
		}
		summary.TotalTransactions++
	}

	for method, amount := range summary.AmountCollected {
		summary.TotalAmount[method] = summary.TotalAmount[method].Add(amount)
	}
	for method, amount := range summary.DuesCollected {
		summary.TotalAmount[method] = summary.TotalAmount[method].Add(amount)
	}
	for _, amount := range summary.TotalAmount {
		summary.GrandTotal = summary.GrandTotal.Add(amount)
	}
	summary.GrandTotal = summary.GrandTotal.Sub(refund)

	return summary
}

// DuesRow is one bill's row in the dues report. Due and Excess are computed
// independently; a bill with a positive due has zero excess and vice versa.
type DuesRow struct {
	BillNumber  string          `json:"bill_number"`
	PatientID   string          `json:"patient_id"`
	PatientName string          `json:"patient_name,omitempty"`
	Status      string          `json:"status"`
	BillAmount  decimal.Decimal `json:"bill_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Due         decimal.Decimal `json:"due"`
	Excess      decimal.Decimal `json:"excess"`
}

// DuesReport builds a per-bill dues/excess row for every non-cancelled bill.
// PatientName is left for the caller to resolve.
func DuesReport(bills []*entities.Bill) []DuesRow {
	rows := make([]DuesRow, 0, len(bills))
	for _, bill := range bills {
		if bill.Status == entities.BillStatusCancelled {
			continue
		}
		rows = append(rows, DuesRow{
			BillNumber: bill.BillNumber,
			PatientID:  bill.PatientID,
			Status:     string(bill.Status),
			BillAmount: bill.Totals.GrandTotal,
			PaidAmount: bill.Payment.Paid,
			Due:        Due(bill.Totals),
			Excess:     Excess(bill.Totals, bill.Payment.Paid),
		})
	}
	return rows
}
