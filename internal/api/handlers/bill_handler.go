package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/application/services"
	"github.com/aarogya/billing-backend/internal/billing"
	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	apperrors "github.com/aarogya/billing-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

// BillService defines the bill lifecycle operations used by the handler
type BillService interface {
	CreateBill(ctx context.Context, bill *entities.Bill) error
	GetBill(ctx context.Context, id string) (*entities.Bill, error)
	GetBillByNumber(ctx context.Context, billNumber string) (*entities.Bill, error)
	ListBills(ctx context.Context, filter repositories.BillFilter) ([]*entities.Bill, error)
	UpdateBill(ctx context.Context, id string, apply func(*entities.Bill) error, updatedBy string) (*entities.Bill, error)
	RecordPayment(ctx context.Context, billID string, payment services.PaymentInput) (*entities.Bill, error)
	CancelBill(ctx context.Context, billID, remarks, cancelledBy string) (*entities.Bill, error)
}

// BillHandler handles bill-related HTTP requests
type BillHandler struct {
	service BillService
}

// NewBillHandler creates a new bill handler
func NewBillHandler(service BillService) *BillHandler {
	return &BillHandler{
		service: service,
	}
}

type billItemRequest struct {
	Name     string          `json:"name"`
	Code     string          `json:"code"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
	Tax      decimal.Decimal `json:"tax"`
}

type discountRequest struct {
	Type  string          `json:"type" validate:"omitempty,oneof=percent amount"`
	Value decimal.Decimal `json:"value"`
}

type paymentRequest struct {
	Method string          `json:"method" validate:"omitempty,oneof=cash card upi bank_transfer"`
	Paid   decimal.Decimal `json:"paid"`
}

type createBillRequest struct {
	PatientID  string            `json:"patient_id" validate:"required"`
	DoctorName string            `json:"doctor_name"`
	Date       *time.Time        `json:"date"`
	Items      []billItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount   discountRequest   `json:"discount"`
	Payment    paymentRequest    `json:"payment"`
	Remarks    string            `json:"remarks"`
	CreatedBy  string            `json:"created_by"`
}

type updateBillRequest struct {
	DoctorName *string           `json:"doctor_name"`
	Items      []billItemRequest `json:"items" validate:"omitempty,min=1,dive"`
	Discount   *discountRequest  `json:"discount"`
	Remarks    *string           `json:"remarks"`
	UpdatedBy  string            `json:"updated_by"`
}

type recordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Method    string          `json:"method" validate:"omitempty,oneof=cash card upi bank_transfer"`
	Remarks   string          `json:"remarks"`
	CreatedBy string          `json:"created_by"`
}

type cancelBillRequest struct {
	Remarks     string `json:"remarks"`
	CancelledBy string `json:"cancelled_by"`
}

// CreateBill handles POST /api/bills
func (h *BillHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var payload createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill := &entities.Bill{
		PatientID:  payload.PatientID,
		DoctorName: payload.DoctorName,
		Items:      toBillingItems(payload.Items),
		Discount:   toDiscount(payload.Discount),
		Payment: entities.Payment{
			Method: entities.PaymentMethod(payload.Payment.Method),
			Paid:   payload.Payment.Paid,
		},
		Remarks:   payload.Remarks,
		CreatedBy: payload.CreatedBy,
	}
	if payload.Date != nil {
		bill.Date = *payload.Date
	}

	if err := h.service.CreateBill(r.Context(), bill); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, bill)
}

// GetBill handles GET /api/bills/{id}
func (h *BillHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	billID := r.PathValue("id")
	if billID == "" {
		respondWithError(w, http.StatusBadRequest, "bill ID is required")
		return
	}

	bill, err := h.service.GetBill(r.Context(), billID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, bill)
}

// GetBillByNumber handles GET /api/bills/number/{billNumber}
func (h *BillHandler) GetBillByNumber(w http.ResponseWriter, r *http.Request) {
	billNumber := r.PathValue("billNumber")
	if billNumber == "" {
		respondWithError(w, http.StatusBadRequest, "bill number is required")
		return
	}

	bill, err := h.service.GetBillByNumber(r.Context(), billNumber)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, bill)
}

// ListBills handles GET /api/bills
func (h *BillHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	filter := repositories.BillFilter{
		PatientID: r.URL.Query().Get("patient_id"),
		Status:    entities.BillStatus(r.URL.Query().Get("status")),
		Limit:     queryInt(r, "limit", 50),
		Offset:    queryInt(r, "offset", 0),
	}

	from, to, err := queryDateRange(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.From = from
	filter.To = to

	bills, err := h.service.ListBills(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bills": bills,
		"count": len(bills),
	})
}

// UpdateBill handles PATCH /api/bills/{id}
func (h *BillHandler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	billID := r.PathValue("id")
	if billID == "" {
		respondWithError(w, http.StatusBadRequest, "bill ID is required")
		return
	}

	var payload updateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill, err := h.service.UpdateBill(r.Context(), billID, func(bill *entities.Bill) error {
		if payload.DoctorName != nil {
			bill.DoctorName = *payload.DoctorName
		}
		if payload.Items != nil {
			bill.Items = toBillingItems(payload.Items)
		}
		if payload.Discount != nil {
			bill.Discount = toDiscount(*payload.Discount)
		}
		if payload.Remarks != nil {
			bill.Remarks = *payload.Remarks
		}
		return nil
	}, payload.UpdatedBy)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, bill)
}

// RecordPayment handles POST /api/bills/{id}/payments
func (h *BillHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	billID := r.PathValue("id")
	if billID == "" {
		respondWithError(w, http.StatusBadRequest, "bill ID is required")
		return
	}

	var payload recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill, err := h.service.RecordPayment(r.Context(), billID, services.PaymentInput{
		Amount:    payload.Amount,
		Method:    entities.PaymentMethod(payload.Method),
		Remarks:   payload.Remarks,
		CreatedBy: payload.CreatedBy,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, bill)
}

// CancelBill handles POST /api/bills/{id}/cancel
func (h *BillHandler) CancelBill(w http.ResponseWriter, r *http.Request) {
	billID := r.PathValue("id")
	if billID == "" {
		respondWithError(w, http.StatusBadRequest, "bill ID is required")
		return
	}

	var payload cancelBillRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	bill, err := h.service.CancelBill(r.Context(), billID, payload.Remarks, payload.CancelledBy)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, bill)
}

func toBillingItems(items []billItemRequest) []entities.BillingItem {
	result := make([]entities.BillingItem, 0, len(items))
	for _, item := range items {
		result = append(result, entities.BillingItem{
			Name:     item.Name,
			Code:     item.Code,
			Category: item.Category,
			Price:    item.Price,
			Quantity: item.Quantity,
			Tax:      item.Tax,
		})
	}
	return result
}

func toDiscount(discount discountRequest) entities.Discount {
	discountType := entities.DiscountType(discount.Type)
	if discountType == "" {
		discountType = entities.DiscountTypeAmount
	}
	return entities.Discount{
		Type:  discountType,
		Value: discount.Value,
	}
}

// queryDateRange parses the from/to query parameters as inclusive day bounds
func queryDateRange(r *http.Request) (*time.Time, *time.Time, error) {
	var from, to *time.Time

	if value := r.URL.Query().Get("from"); value != "" {
		parsed, err := time.Parse(dateLayout, value)
		if err != nil {
			return nil, nil, errInvalidFromDate
		}
		start := billing.DayStart(parsed)
		from = &start
	}
	if value := r.URL.Query().Get("to"); value != "" {
		parsed, err := time.Parse(dateLayout, value)
		if err != nil {
			return nil, nil, errInvalidToDate
		}
		end := billing.DayEnd(parsed)
		to = &end
	}

	return from, to, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps typed application errors to HTTP status codes
func respondWithAppError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		if appErr.Type == apperrors.ErrorTypeInternal {
			respondWithError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		respondWithError(w, appErr.HTTPStatus(), appErr.Message)
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
