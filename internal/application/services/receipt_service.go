package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	"github.com/aarogya/billing-backend/internal/export"
	"github.com/aarogya/billing-backend/pkg/config"
)

// ReceiptService reads the append-only receipts register: filtered listings,
// aggregate stats, and CSV/PDF rendering.
type ReceiptService struct {
	receiptRepo repositories.ReceiptRepository
	hospital    config.HospitalConfig
}

// NewReceiptService creates a new receipt service
func NewReceiptService(receiptRepo repositories.ReceiptRepository, hospital config.HospitalConfig) *ReceiptService {
	return &ReceiptService{
		receiptRepo: receiptRepo,
		hospital:    hospital,
	}
}

// ReceiptPage is a paginated receipt listing
type ReceiptPage struct {
	Receipts []*entities.Receipt `json:"receipts"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	Limit    int                 `json:"limit"`
}

// ReceiptStats aggregates the register over a filter window
type ReceiptStats struct {
	TotalReceipts int                        `json:"total_receipts"`
	TotalAmount   decimal.Decimal            `json:"total_amount"`
	CountByType   map[string]int             `json:"count_by_type"`
	AmountByType  map[string]decimal.Decimal `json:"amount_by_type"`
}

// List retrieves receipts matching the filter, newest first
func (s *ReceiptService) List(ctx context.Context, filter repositories.ReceiptFilter) (*ReceiptPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	receipts, total, err := s.receiptRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ReceiptPage{
		Receipts: receipts,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}, nil
}

// ListByBill retrieves the full audit trail of a bill, oldest first
func (s *ReceiptService) ListByBill(ctx context.Context, billID string) ([]*entities.Receipt, error) {
	return s.receiptRepo.ListByBill(ctx, billID)
}

// GetByNumber retrieves a single receipt
func (s *ReceiptService) GetByNumber(ctx context.Context, receiptNumber string) (*entities.Receipt, error) {
	return s.receiptRepo.GetByNumber(ctx, receiptNumber)
}

// Stats aggregates count and amount per receipt type over the filter window
func (s *ReceiptService) Stats(ctx context.Context, filter repositories.ReceiptFilter) (*ReceiptStats, error) {
	filter.Page = 0
	filter.Limit = 0

	receipts, total, err := s.receiptRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &ReceiptStats{
		TotalReceipts: total,
		CountByType:   map[string]int{},
		AmountByType:  map[string]decimal.Decimal{},
	}
	for _, receipt := range receipts {
		receiptType := string(receipt.Type)
		stats.CountByType[receiptType]++
		stats.AmountByType[receiptType] = stats.AmountByType[receiptType].Add(receipt.Amount)
		stats.TotalAmount = stats.TotalAmount.Add(receipt.Amount)
	}

	return stats, nil
}

// ExportCSV renders the filtered register as CSV
func (s *ReceiptService) ExportCSV(ctx context.Context, filter repositories.ReceiptFilter) ([]byte, error) {
	filter.Page = 0
	filter.Limit = 0

	receipts, _, err := s.receiptRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return export.ReceiptsCSV(receipts)
}

// RenderPDF renders a single receipt as a printable PDF
func (s *ReceiptService) RenderPDF(ctx context.Context, receiptNumber string) ([]byte, error) {
	receipt, err := s.receiptRepo.GetByNumber(ctx, receiptNumber)
	if err != nil {
		return nil, err
	}

	return export.ReceiptPDF(receipt, s.hospital)
}
