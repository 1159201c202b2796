package routes

import (
	"net/http"

	"github.com/aarogya/billing-backend/internal/api/handlers"
	"github.com/aarogya/billing-backend/internal/api/middleware"
	"github.com/aarogya/billing-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	billHandler    *handlers.BillHandler
	receiptHandler *handlers.ReceiptHandler
	patientHandler *handlers.PatientHandler
	productHandler *handlers.ProductHandler
	reportHandler  *handlers.ReportHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	billHandler *handlers.BillHandler,
	receiptHandler *handlers.ReceiptHandler,
	patientHandler *handlers.PatientHandler,
	productHandler *handlers.ProductHandler,
	reportHandler *handlers.ReportHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		billHandler:     billHandler,
		receiptHandler:  receiptHandler,
		patientHandler:  patientHandler,
		productHandler:  productHandler,
		reportHandler:   reportHandler,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Bill endpoints
	r.mux.HandleFunc("POST /api/bills", r.billHandler.CreateBill)
	r.mux.HandleFunc("GET /api/bills", r.billHandler.ListBills)
	r.mux.HandleFunc("GET /api/bills/number/{billNumber}", r.billHandler.GetBillByNumber)
	r.mux.HandleFunc("GET /api/bills/{id}", r.billHandler.GetBill)
	r.mux.HandleFunc("PATCH /api/bills/{id}", r.billHandler.UpdateBill)
	r.mux.HandleFunc("POST /api/bills/{id}/payments", r.billHandler.RecordPayment)
	r.mux.HandleFunc("POST /api/bills/{id}/cancel", r.billHandler.CancelBill)
	r.mux.HandleFunc("GET /api/bills/{id}/receipts", r.receiptHandler.ListBillReceipts)

	// Receipt endpoints (read and export only; receipts are append-only)
	r.mux.HandleFunc("GET /api/receipts", r.receiptHandler.ListReceipts)
	r.mux.HandleFunc("GET /api/receipts/stats", r.receiptHandler.GetReceiptStats)
	r.mux.HandleFunc("GET /api/receipts/export/csv", r.receiptHandler.ExportReceiptsCSV)
	r.mux.HandleFunc("GET /api/receipts/{receiptNumber}", r.receiptHandler.GetReceipt)
	r.mux.HandleFunc("GET /api/receipts/{receiptNumber}/pdf", r.receiptHandler.GetReceiptPDF)

	// Patient endpoints
	r.mux.HandleFunc("POST /api/patients", r.patientHandler.CreatePatient)
	r.mux.HandleFunc("GET /api/patients", r.patientHandler.ListPatients)
	r.mux.HandleFunc("GET /api/patients/{id}", r.patientHandler.GetPatient)
	r.mux.HandleFunc("PUT /api/patients/{id}", r.patientHandler.UpdatePatient)
	r.mux.HandleFunc("DELETE /api/patients/{id}", r.patientHandler.DeletePatient)

	// Product catalog endpoints
	r.mux.HandleFunc("POST /api/products", r.productHandler.CreateProduct)
	r.mux.HandleFunc("GET /api/products", r.productHandler.ListProducts)
	r.mux.HandleFunc("GET /api/products/search", r.productHandler.SearchProducts)
	r.mux.HandleFunc("POST /api/products/reindex", r.productHandler.ReindexProducts)
	r.mux.HandleFunc("GET /api/products/{id}", r.productHandler.GetProduct)
	r.mux.HandleFunc("PUT /api/products/{id}", r.productHandler.UpdateProduct)
	r.mux.HandleFunc("DELETE /api/products/{id}", r.productHandler.DeleteProduct)
	r.mux.HandleFunc("GET /api/categories", r.productHandler.ListCategories)

	// Report endpoints
	r.mux.HandleFunc("GET /api/reports/category-revenue", r.reportHandler.GetCategoryRevenue)
	r.mux.HandleFunc("GET /api/reports/payment-methods", r.reportHandler.GetPaymentMethods)
	r.mux.HandleFunc("GET /api/reports/collections", r.reportHandler.GetCollections)
	r.mux.HandleFunc("GET /api/reports/collections/export/xlsx", r.reportHandler.ExportCollections)
	r.mux.HandleFunc("GET /api/reports/dues", r.reportHandler.GetDues)
	r.mux.HandleFunc("GET /api/reports/dues/export/xlsx", r.reportHandler.ExportDues)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
