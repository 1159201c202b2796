package repositories

import (
	"context"
	"time"

	"github.com/aarogya/billing-backend/internal/domain/entities"
)

// ReceiptRepository defines the interface for receipt data operations.
// Receipts are append-only; there are no update or delete operations.
type ReceiptRepository interface {
	// Create appends a new receipt
	Create(ctx context.Context, receipt *entities.Receipt) error

	// GetByNumber retrieves a receipt by receipt number
	GetByNumber(ctx context.Context, receiptNumber string) (*entities.Receipt, error)

	// ListByBill retrieves all receipts for a bill, oldest first
	ListByBill(ctx context.Context, billID string) ([]*entities.Receipt, error)

	// List retrieves receipts matching the filter, newest first
	List(ctx context.Context, filter ReceiptFilter) ([]*entities.Receipt, int, error)
}

// ReceiptFilter defines filters for listing receipts
type ReceiptFilter struct {
	Type       entities.ReceiptType
	BillNumber string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
}
