package entities

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptType represents the kind of bill mutation a receipt records
type ReceiptType string

const (
	ReceiptTypeCreation     ReceiptType = "creation"
	ReceiptTypePayment      ReceiptType = "payment"
	ReceiptTypeModification ReceiptType = "modification"
	ReceiptTypeCancellation ReceiptType = "cancellation"
)

// Receipt is an immutable audit record of a state transition on a bill.
// Receipts are created once per mutating action and never updated or deleted.
type Receipt struct {
	ID             string          `json:"id" db:"id"`
	ReceiptNumber  string          `json:"receipt_number" db:"receipt_number"`
	BillID         string          `json:"bill_id" db:"bill_id"`
	BillNumber     string          `json:"bill_number" db:"bill_number"`
	Type           ReceiptType     `json:"type" db:"receipt_type"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	PreviousStatus BillStatus      `json:"previous_status" db:"previous_status"`
	NewStatus      BillStatus      `json:"new_status" db:"new_status"`
	// BillingSnapshot freezes the bill's items and totals as they were at the
	// moment this receipt was cut.
	BillingSnapshot json.RawMessage `json:"billing_snapshot,omitempty" db:"billing_snapshot"`
	Remarks         string          `json:"remarks" db:"remarks"`
	CreatedBy       string          `json:"created_by" db:"created_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// BillingSnapshotPayload is the JSON shape stored in Receipt.BillingSnapshot
type BillingSnapshotPayload struct {
	Items  []BillingItem `json:"items"`
	Totals Totals        `json:"totals"`
}

// NewBillingSnapshot serializes the bill's current items and totals
func NewBillingSnapshot(bill *Bill) (json.RawMessage, error) {
	return json.Marshal(BillingSnapshotPayload{
		Items:  bill.Items,
		Totals: bill.Totals,
	})
}
