package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/billing"
	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/providers"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	apperrors "github.com/aarogya/billing-backend/pkg/errors"
)

// BillingService handles the bill lifecycle. Every mutation recomputes the
// bill's totals, appends exactly one audit receipt, and publishes a bill
// event for cache invalidation.
type BillingService struct {
	billRepo    repositories.BillRepository
	receiptRepo repositories.ReceiptRepository
	patientRepo repositories.PatientRepository
	productRepo repositories.ProductRepository
	eventBus    providers.EventBus
}

// NewBillingService creates a new billing service
func NewBillingService(
	billRepo repositories.BillRepository,
	receiptRepo repositories.ReceiptRepository,
	patientRepo repositories.PatientRepository,
	productRepo repositories.ProductRepository,
	eventBus providers.EventBus,
) *BillingService {
	return &BillingService{
		billRepo:    billRepo,
		receiptRepo: receiptRepo,
		patientRepo: patientRepo,
		productRepo: productRepo,
		eventBus:    eventBus,
	}
}

// PaymentInput describes a payment recorded against a bill
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    entities.PaymentMethod
	Remarks   string
	CreatedBy string
}

// CreateBill validates and persists a new bill. Items referencing a catalog
// code with no price are enriched from the product catalog. The whole
// submission succeeds or fails as a unit.
func (s *BillingService) CreateBill(ctx context.Context, bill *entities.Bill) error {
	if len(bill.Items) == 0 {
		return apperrors.NewValidationError("a bill needs at least one item")
	}

	if _, err := s.patientRepo.GetByID(ctx, bill.PatientID); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Type == apperrors.ErrorTypeNotFound {
			return apperrors.NewValidationError(fmt.Sprintf("patient %s does not exist", bill.PatientID))
		}
		return err
	}

	if err := s.enrichItems(ctx, bill); err != nil {
		return err
	}
	if err := validateBillInput(bill); err != nil {
		return err
	}

	now := time.Now()
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.BillNumber == "" {
		bill.BillNumber = entities.NewBillNumber(now)
	}
	if bill.Date.IsZero() {
		bill.Date = now
	}
	for i := range bill.Items {
		if bill.Items[i].ID == "" {
			bill.Items[i].ID = uuid.New().String()
		}
		bill.Items[i].BillID = bill.ID
		bill.Items[i].Total = bill.Items[i].LineTotal()
	}

	bill.Totals = billing.ComputeTotals(bill.Items, bill.Discount, bill.Payment.Paid)
	bill.Status = statusForPayment(bill.Totals, bill.Payment.Paid)
	bill.CreatedAt = now
	bill.UpdatedAt = now

	if err := s.billRepo.Create(ctx, bill); err != nil {
		return err
	}

	if err := s.appendReceipt(ctx, bill, entities.ReceiptTypeCreation, "", bill.Payment.Paid, bill.Remarks, bill.CreatedBy); err != nil {
		return err
	}

	s.publish(bill, entities.BillEventTypeCreated, nil)
	return nil
}

// GetBill retrieves a bill by ID
func (s *BillingService) GetBill(ctx context.Context, id string) (*entities.Bill, error) {
	return s.billRepo.GetByID(ctx, id)
}

// GetBillByNumber retrieves a bill by bill number
func (s *BillingService) GetBillByNumber(ctx context.Context, billNumber string) (*entities.Bill, error) {
	return s.billRepo.GetByNumber(ctx, billNumber)
}

// ListBills retrieves bills matching the filter
func (s *BillingService) ListBills(ctx context.Context, filter repositories.BillFilter) ([]*entities.Bill, error) {
	return s.billRepo.List(ctx, filter)
}

// UpdateBill modifies an open bill's details (items, discount, doctor,
// remarks), recomputes totals, and cuts a modification receipt. Terminal
// bills reject modification.
func (s *BillingService) UpdateBill(ctx context.Context, id string, apply func(*entities.Bill) error, updatedBy string) (*entities.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if bill.Status.IsTerminal() {
		return nil, apperrors.NewConflictError(fmt.Sprintf("bill %s is %s and cannot be modified", bill.BillNumber, bill.Status))
	}

	previousStatus := bill.Status
	if err := apply(bill); err != nil {
		return nil, err
	}
	if len(bill.Items) == 0 {
		return nil, apperrors.NewValidationError("a bill needs at least one item")
	}
	if err := validateBillInput(bill); err != nil {
		return nil, err
	}

	for i := range bill.Items {
		if bill.Items[i].ID == "" {
			bill.Items[i].ID = uuid.New().String()
		}
		bill.Items[i].BillID = bill.ID
		bill.Items[i].Total = bill.Items[i].LineTotal()
	}

	bill.Totals = billing.ComputeTotals(bill.Items, bill.Discount, bill.Payment.Paid)
	next := statusForPayment(bill.Totals, bill.Payment.Paid)
	if next == entities.BillStatusActive && previousStatus == entities.BillStatusPending {
		next = previousStatus
	}
	if next != previousStatus {
		if !previousStatus.CanTransitionTo(next) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("bill %s cannot move from %s to %s", bill.BillNumber, previousStatus, next))
		}
		bill.Status = next
	}

	if err := s.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}

	if err := s.appendReceipt(ctx, bill, entities.ReceiptTypeModification, previousStatus, bill.Totals.GrandTotal, bill.Remarks, updatedBy); err != nil {
		return nil, err
	}

	s.publish(bill, entities.BillEventTypeModified, map[string]interface{}{
		"grand_total": bill.Totals.GrandTotal,
		"status":      bill.Status,
	})
	return bill, nil
}

// RecordPayment applies a payment to a bill and moves it to partial or paid
func (s *BillingService) RecordPayment(ctx context.Context, billID string, payment PaymentInput) (*entities.Bill, error) {
	if !payment.Amount.IsPositive() {
		return nil, apperrors.NewValidationError("payment amount must be positive")
	}

	bill, err := s.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}

	if bill.Status.IsTerminal() {
		return nil, apperrors.NewConflictError(fmt.Sprintf("bill %s is %s and cannot take payments", bill.BillNumber, bill.Status))
	}

	previousStatus := bill.Status
	bill.Payment.Paid = bill.Payment.Paid.Add(payment.Amount)
	if payment.Method != "" {
		bill.Payment.Method = payment.Method
	}
	bill.Totals = billing.ComputeTotals(bill.Items, bill.Discount, bill.Payment.Paid)

	next := statusForPayment(bill.Totals, bill.Payment.Paid)
	if next != previousStatus && !previousStatus.CanTransitionTo(next) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("bill %s cannot move from %s to %s", bill.BillNumber, previousStatus, next))
	}
	bill.Status = next

	if err := s.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}

	if err := s.appendReceipt(ctx, bill, entities.ReceiptTypePayment, previousStatus, payment.Amount, payment.Remarks, payment.CreatedBy); err != nil {
		return nil, err
	}

	s.publish(bill, entities.BillEventTypePayment, map[string]interface{}{
		"paid_amount": bill.Payment.Paid,
		"status":      bill.Status,
	})
	return bill, nil
}

// CancelBill moves a bill to cancelled. The bill row stays; the cancellation
// receipt records the amount held at the time.
func (s *BillingService) CancelBill(ctx context.Context, billID, remarks, cancelledBy string) (*entities.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}

	if !bill.Status.CanTransitionTo(entities.BillStatusCancelled) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("bill %s is %s and cannot be cancelled", bill.BillNumber, bill.Status))
	}

	previousStatus := bill.Status
	bill.Status = entities.BillStatusCancelled
	if remarks != "" {
		bill.Remarks = remarks
	}

	if err := s.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}

	if err := s.appendReceipt(ctx, bill, entities.ReceiptTypeCancellation, previousStatus, bill.Payment.Paid, remarks, cancelledBy); err != nil {
		return nil, err
	}

	s.publish(bill, entities.BillEventTypeCancelled, map[string]interface{}{"status": bill.Status})
	return bill, nil
}

// enrichItems fills price, tax, category, and name for items that reference a
// catalog code without carrying a price of their own
func (s *BillingService) enrichItems(ctx context.Context, bill *entities.Bill) error {
	for i := range bill.Items {
		item := &bill.Items[i]
		if item.Code == "" || !item.Price.IsZero() {
			continue
		}

		product, err := s.productRepo.GetByCode(ctx, item.Code)
		if err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Type == apperrors.ErrorTypeNotFound {
				return apperrors.NewValidationError(fmt.Sprintf("unknown catalog code %s", item.Code))
			}
			return err
		}

		item.Price = product.Price
		item.Tax = product.Tax.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if item.Name == "" {
			item.Name = product.Name
		}
		if item.Category == "" {
			item.Category = product.Category
		}
	}
	return nil
}

func (s *BillingService) appendReceipt(ctx context.Context, bill *entities.Bill, receiptType entities.ReceiptType, previousStatus entities.BillStatus, amount decimal.Decimal, remarks, createdBy string) error {
	snapshot, err := entities.NewBillingSnapshot(bill)
	if err != nil {
		return apperrors.NewInternalError("failed to snapshot bill", err)
	}

	now := time.Now()
	receipt := &entities.Receipt{
		ID:              uuid.New().String(),
		ReceiptNumber:   entities.NewReceiptNumber(now),
		BillID:          bill.ID,
		BillNumber:      bill.BillNumber,
		Type:            receiptType,
		Amount:          amount,
		PreviousStatus:  previousStatus,
		NewStatus:       bill.Status,
		BillingSnapshot: snapshot,
		Remarks:         remarks,
		CreatedBy:       createdBy,
		CreatedAt:       now,
	}

	return s.receiptRepo.Create(ctx, receipt)
}

// publish sends the bill event without failing the request; listeners only
// drive cache invalidation
func (s *BillingService) publish(bill *entities.Bill, eventType entities.BillEventType, changed map[string]interface{}) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewBillEvent(bill.ID, bill.BillNumber, eventType, changed)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.eventBus.Publish(ctx, providers.EventChannelBillUpdates, event); err != nil {
		log.Warn().Err(err).Str("bill_id", bill.ID).Str("event_type", string(eventType)).
			Msg("failed to publish bill event")
	}
}

func validateBillInput(bill *entities.Bill) error {
	for _, item := range bill.Items {
		if item.Quantity <= 0 {
			return apperrors.NewValidationError(fmt.Sprintf("item %q needs a positive quantity", item.Name))
		}
		if item.Price.IsNegative() || item.Tax.IsNegative() {
			return apperrors.NewValidationError(fmt.Sprintf("item %q has a negative amount", item.Name))
		}
	}
	if bill.Discount.Value.IsNegative() {
		return apperrors.NewValidationError("discount cannot be negative")
	}
	if bill.Discount.Type == entities.DiscountTypePercent && bill.Discount.Value.GreaterThan(decimal.NewFromInt(100)) {
		return apperrors.NewValidationError("percent discount cannot exceed 100")
	}
	if bill.Payment.Paid.IsNegative() {
		return apperrors.NewValidationError("paid amount cannot be negative")
	}
	return nil
}

// statusForPayment derives the lifecycle state implied by the amount paid
func statusForPayment(totals entities.Totals, paid decimal.Decimal) entities.BillStatus {
	switch {
	case !totals.DueAmount.IsPositive():
		return entities.BillStatusPaid
	case paid.IsPositive():
		return entities.BillStatusPartial
	default:
		return entities.BillStatusActive
	}
}
