package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aarogya/billing-backend/internal/application/services"
	"github.com/aarogya/billing-backend/internal/billing"
	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
)

var (
	errInvalidStartDate = errors.New("invalid start_date format (use YYYY-MM-DD)")
	errInvalidEndDate   = errors.New("invalid end_date format (use YYYY-MM-DD)")
)

// ReceiptService defines the receipt audit trail operations used by the handler
type ReceiptService interface {
	List(ctx context.Context, filter repositories.ReceiptFilter) (*services.ReceiptPage, error)
	ListByBill(ctx context.Context, billID string) ([]*entities.Receipt, error)
	GetByNumber(ctx context.Context, receiptNumber string) (*entities.Receipt, error)
	Stats(ctx context.Context, filter repositories.ReceiptFilter) (*services.ReceiptStats, error)
	ExportCSV(ctx context.Context, filter repositories.ReceiptFilter) ([]byte, error)
	RenderPDF(ctx context.Context, receiptNumber string) ([]byte, error)
}

// ReceiptHandler handles receipt-related HTTP requests. Receipts are
// append-only, so the surface is read and export only.
type ReceiptHandler struct {
	service ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(service ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{
		service: service,
	}
}

// ListReceipts handles GET /api/receipts
func (h *ReceiptHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	filter, err := receiptFilterFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// GetReceipt handles GET /api/receipts/{receiptNumber}
func (h *ReceiptHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	receiptNumber := r.PathValue("receiptNumber")
	if receiptNumber == "" {
		respondWithError(w, http.StatusBadRequest, "receipt number is required")
		return
	}

	receipt, err := h.service.GetByNumber(r.Context(), receiptNumber)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, receipt)
}

// ListBillReceipts handles GET /api/bills/{id}/receipts
func (h *ReceiptHandler) ListBillReceipts(w http.ResponseWriter, r *http.Request) {
	billID := r.PathValue("id")
	if billID == "" {
		respondWithError(w, http.StatusBadRequest, "bill ID is required")
		return
	}

	receipts, err := h.service.ListByBill(r.Context(), billID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
	})
}

// GetReceiptStats handles GET /api/receipts/stats
func (h *ReceiptHandler) GetReceiptStats(w http.ResponseWriter, r *http.Request) {
	filter, err := receiptFilterFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.service.Stats(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// ExportReceiptsCSV handles GET /api/receipts/export/csv
func (h *ReceiptHandler) ExportReceiptsCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := receiptFilterFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.service.ExportCSV(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="receipts.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetReceiptPDF handles GET /api/receipts/{receiptNumber}/pdf
func (h *ReceiptHandler) GetReceiptPDF(w http.ResponseWriter, r *http.Request) {
	receiptNumber := r.PathValue("receiptNumber")
	if receiptNumber == "" {
		respondWithError(w, http.StatusBadRequest, "receipt number is required")
		return
	}

	data, err := h.service.RenderPDF(r.Context(), receiptNumber)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+receiptNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func receiptFilterFromQuery(r *http.Request) (repositories.ReceiptFilter, error) {
	filter := repositories.ReceiptFilter{
		Type:       entities.ReceiptType(r.URL.Query().Get("type")),
		BillNumber: r.URL.Query().Get("bill_number"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 50),
	}

	if value := r.URL.Query().Get("start_date"); value != "" {
		parsed, err := time.Parse(dateLayout, value)
		if err != nil {
			return filter, errInvalidStartDate
		}
		start := billing.DayStart(parsed)
		filter.StartDate = &start
	}
	if value := r.URL.Query().Get("end_date"); value != "" {
		parsed, err := time.Parse(dateLayout, value)
		if err != nil {
			return filter, errInvalidEndDate
		}
		end := billing.DayEnd(parsed)
		filter.EndDate = &end
	}

	return filter, nil
}
