package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/application/services"
	"github.com/aarogya/billing-backend/internal/billing"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	errInvalidFromDate = errors.New("invalid from date format (use YYYY-MM-DD)")
	errInvalidToDate   = errors.New("invalid to date format (use YYYY-MM-DD)")
	errInvalidRefund   = errors.New("refund must be a non-negative amount")
)

// ReportService defines the reporting operations used by the handler
type ReportService interface {
	CategoryRevenue(ctx context.Context, q services.ReportQuery) ([]billing.CategoryRevenueEntry, error)
	PaymentMethods(ctx context.Context, q services.ReportQuery) ([]billing.PaymentMethodEntry, error)
	Collections(ctx context.Context, q services.ReportQuery) (*billing.CollectionSummary, error)
	Dues(ctx context.Context, q services.ReportQuery) ([]billing.DuesRow, error)
	CollectionsXLSX(ctx context.Context, q services.ReportQuery) ([]byte, error)
	DuesXLSX(ctx context.Context, q services.ReportQuery) ([]byte, error)
}

// ReportHandler handles reporting and export HTTP requests
type ReportHandler struct {
	service ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{
		service: service,
	}
}

// GetCategoryRevenue handles GET /api/reports/category-revenue
func (h *ReportHandler) GetCategoryRevenue(w http.ResponseWriter, r *http.Request) {
	query, err := reportQueryFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.service.CategoryRevenue(r.Context(), query)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"categories": entries,
		"count":      len(entries),
	})
}

// GetPaymentMethods handles GET /api/reports/payment-methods
func (h *ReportHandler) GetPaymentMethods(w http.ResponseWriter, r *http.Request) {
	query, err := reportQueryFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.service.PaymentMethods(r.Context(), query)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"methods": entries,
		"count":   len(entries),
	})
}

// GetCollections handles GET /api/reports/collections
func (h *ReportHandler) GetCollections(w http.ResponseWriter, r *http.Request) {
	query, err := reportQueryFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.Collections(r.Context(), query)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetDues handles GET /api/reports/dues
func (h *ReportHandler) GetDues(w http.ResponseWriter, r *http.Request) {
	query, err := reportQueryFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.service.Dues(r.Context(), query)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"dues":  rows,
		"count": len(rows),
	})
}

// ExportCollections handles GET /api/reports/collections/export/xlsx
func (h *ReportHandler) ExportCollections(w http.ResponseWriter, r *http.Request) {
	query, err := reportQueryFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.service.CollectionsXLSX(r.Context(), query)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	writeXLSX(w, "collections.xlsx", data)
}

// ExportDues handles GET /api/reports/dues/export/xlsx
func (h *ReportHandler) ExportDues(w http.ResponseWriter, r *http.Request) {
	query, err := reportQueryFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.service.DuesXLSX(r.Context(), query)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	writeXLSX(w, "dues.xlsx", data)
}

func reportQueryFromRequest(r *http.Request) (services.ReportQuery, error) {
	query := services.ReportQuery{
		Status:  r.URL.Query().Get("status"),
		Remarks: r.URL.Query().Get("remarks"),
	}

	if value := r.URL.Query().Get("from"); value != "" {
		parsed, err := time.Parse(dateLayout, value)
		if err != nil {
			return query, errInvalidFromDate
		}
		query.From = &parsed
	}
	if value := r.URL.Query().Get("to"); value != "" {
		parsed, err := time.Parse(dateLayout, value)
		if err != nil {
			return query, errInvalidToDate
		}
		query.To = &parsed
	}
	if value := r.URL.Query().Get("refund"); value != "" {
		refund, err := decimal.NewFromString(value)
		if err != nil || refund.IsNegative() {
			return query, errInvalidRefund
		}
		query.Refund = refund
	}

	return query, nil
}

func writeXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
