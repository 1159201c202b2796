package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillStatus represents the lifecycle state of a bill
type BillStatus string

const (
	BillStatusPending   BillStatus = "pending"
	BillStatusActive    BillStatus = "active"
	BillStatusPartial   BillStatus = "partial"
	BillStatusPaid      BillStatus = "paid"
	BillStatusCancelled BillStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed from s
func (s BillStatus) IsTerminal() bool {
	return s == BillStatusPaid || s == BillStatusCancelled
}

// IsOpen reports whether the bill still carries an outstanding balance state
func (s BillStatus) IsOpen() bool {
	return s == BillStatusPending || s == BillStatusActive || s == BillStatusPartial
}

// CanTransitionTo reports whether the transition s -> next is allowed.
// Allowed transitions: pending/active -> partial|paid|cancelled, partial -> paid.
func (s BillStatus) CanTransitionTo(next BillStatus) bool {
	switch s {
	case BillStatusPending, BillStatusActive:
		return next == BillStatusPartial || next == BillStatusPaid || next == BillStatusCancelled
	case BillStatusPartial:
		return next == BillStatusPaid
	default:
		return false
	}
}

// DiscountType distinguishes percent-of-subtotal from flat-amount discounts
type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeAmount  DiscountType = "amount"
)

// PaymentMethod is the settlement channel recorded on a bill
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// CategoryOther is the bucket for billing items without a category
const CategoryOther = "Other"

// Discount is the discount applied to a bill's subtotal
type Discount struct {
	Type  DiscountType    `json:"type" db:"discount_type"`
	Value decimal.Decimal `json:"value" db:"discount_value"`
}

// Payment records how much has been settled against a bill and through which channel
type Payment struct {
	Method PaymentMethod   `json:"method" db:"payment_method"`
	Paid   decimal.Decimal `json:"paid" db:"paid_amount"`
}

// Totals are the computed monetary totals of a bill
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
	TotalTax   decimal.Decimal `json:"total_tax" db:"total_tax"`
	GrandTotal decimal.Decimal `json:"grand_total" db:"grand_total"`
	// DueAmount may be negative, meaning the payer has overpaid (excess).
	DueAmount decimal.Decimal `json:"due_amount" db:"due_amount"`
}

// BillingItem is one line of a bill. Total carries price*quantity + tax
// (additive tax); TotalTax on the bill is informational and is not added
// again into the grand total.
type BillingItem struct {
	ID       string          `json:"id" db:"id"`
	BillID   string          `json:"bill_id" db:"bill_id"`
	Name     string          `json:"name" db:"name"`
	Code     string          `json:"code" db:"code"`
	Category string          `json:"category" db:"category"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Quantity int             `json:"quantity" db:"quantity"`
	Tax      decimal.Decimal `json:"tax" db:"tax"`
	Total    decimal.Decimal `json:"total" db:"total"`
}

// LineTotal returns the item total, recomputing price*quantity + tax when the
// stored total is zero. Unset numeric fields behave as 0.
func (i BillingItem) LineTotal() decimal.Decimal {
	if !i.Total.IsZero() {
		return i.Total
	}
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity))).Add(i.Tax)
}

// CategoryOrDefault returns the item category, defaulting to "Other"
func (i BillingItem) CategoryOrDefault() string {
	if i.Category == "" {
		return CategoryOther
	}
	return i.Category
}

// Bill is a billing record for a patient encounter. Bills are never physically
// deleted; cancellations are status transitions with an audit receipt.
type Bill struct {
	ID         string        `json:"id" db:"id"`
	BillNumber string        `json:"bill_number" db:"bill_number"`
	PatientID  string        `json:"patient_id" db:"patient_id"`
	DoctorName string        `json:"doctor_name" db:"doctor_name"`
	Date       time.Time     `json:"date" db:"bill_date"`
	Items      []BillingItem `json:"items" db:"-"`
	Discount   Discount      `json:"discount" db:"-"`
	Payment    Payment       `json:"payment" db:"-"`
	Totals     Totals        `json:"totals" db:"-"`
	Status     BillStatus    `json:"status" db:"status"`
	Remarks    string        `json:"remarks" db:"remarks"`
	CreatedBy  string        `json:"created_by" db:"created_by"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}
