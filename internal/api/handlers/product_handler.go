package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
)

// CatalogService defines the product catalog operations used by the handler
type CatalogService interface {
	CreateProduct(ctx context.Context, product *entities.Product) error
	GetProduct(ctx context.Context, id string) (*entities.Product, error)
	UpdateProduct(ctx context.Context, product *entities.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, filter repositories.ProductFilter) ([]*entities.Product, error)
	Categories(ctx context.Context) ([]string, error)
	SearchProducts(ctx context.Context, params repositories.ProductSearchParams) ([]*entities.Product, error)
	ReindexAll(ctx context.Context) (int, error)
}

// ProductHandler handles product catalog HTTP requests
type ProductHandler struct {
	service CatalogService
}

// NewProductHandler creates a new product handler
func NewProductHandler(service CatalogService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

type productRequest struct {
	Name     string          `json:"name" validate:"required"`
	Code     string          `json:"code" validate:"required"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Tax      decimal.Decimal `json:"tax"`
	IsActive *bool           `json:"is_active"`
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload productRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := &entities.Product{
		Name:     payload.Name,
		Code:     payload.Code,
		Category: payload.Category,
		Price:    payload.Price,
		Tax:      payload.Tax,
	}

	if err := h.service.CreateProduct(r.Context(), product); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, product)
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		respondWithError(w, http.StatusBadRequest, "product ID is required")
		return
	}

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    queryInt(r, "limit", 50),
		Offset:   queryInt(r, "offset", 0),
	}
	if value := r.URL.Query().Get("active"); value != "" {
		active := value == "true"
		filter.IsActive = &active
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// SearchProducts handles GET /api/products/search
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	params := repositories.ProductSearchParams{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		Limit:    queryInt(r, "limit", 20),
		Offset:   queryInt(r, "offset", 0),
	}

	products, err := h.service.SearchProducts(r.Context(), params)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// UpdateProduct handles PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		respondWithError(w, http.StatusBadRequest, "product ID is required")
		return
	}

	var payload productRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	product.Name = payload.Name
	product.Code = payload.Code
	product.Category = payload.Category
	product.Price = payload.Price
	product.Tax = payload.Tax
	if payload.IsActive != nil {
		product.IsActive = *payload.IsActive
	}

	if err := h.service.UpdateProduct(r.Context(), product); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		respondWithError(w, http.StatusBadRequest, "product ID is required")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), productID); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /api/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// ReindexProducts handles POST /api/products/reindex
func (h *ProductHandler) ReindexProducts(w http.ResponseWriter, r *http.Request) {
	indexed, err := h.service.ReindexAll(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"indexed": indexed,
	})
}
