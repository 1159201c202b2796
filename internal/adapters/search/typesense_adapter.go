package search

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	tsclient "github.com/aarogya/billing-backend/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements catalog search using Typesense. The index
// carries enough fields to render a billing item picker; the database stays
// the source of truth for prices at bill time.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.ProductSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the products collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index upserts a product document
func (a *TypesenseAdapter) Index(ctx context.Context, product *entities.Product) error {
	price, _ := product.Price.Float64()
	tax, _ := product.Tax.Float64()

	document := map[string]interface{}{
		"id":         product.ID,
		"code":       product.Code,
		"name":       product.Name,
		"category":   product.CategoryOrDefault(),
		"price":      price,
		"tax":        tax,
		"is_active":  product.IsActive,
		"created_at": product.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(tsclient.ProductsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index product: %w", err)
	}

	return nil
}

// Delete removes a product from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.ProductsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete product from index: %w", err)
	}
	return nil
}

// Search searches products by free-text query over name and code
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.ProductSearchParams) ([]*entities.Product, error) {
	filterBy := "is_active:=true"
	if params.Category != "" {
		filterBy = fmt.Sprintf("%s && category:=%s", filterBy, params.Category)
	}

	query := params.Query
	if query == "" {
		query = "*"
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("name,code"),
		FilterBy: pointer.String(filterBy),
		Page:     pointer.Int(params.Offset/limit + 1),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.ProductsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	products := []*entities.Product{}
	if result.Hits == nil {
		return products, nil
	}

	for _, hit := range *result.Hits {
		doc := *hit.Document

		product := &entities.Product{}
		if val, ok := doc["id"].(string); ok {
			product.ID = val
		}
		if val, ok := doc["code"].(string); ok {
			product.Code = val
		}
		if val, ok := doc["name"].(string); ok {
			product.Name = val
		}
		if val, ok := doc["category"].(string); ok {
			product.Category = val
		}
		if val, ok := doc["price"].(float64); ok {
			product.Price = decimal.NewFromFloat(val)
		}
		if val, ok := doc["tax"].(float64); ok {
			product.Tax = decimal.NewFromFloat(val)
		}
		if val, ok := doc["is_active"].(bool); ok {
			product.IsActive = val
		}
		if val, ok := doc["created_at"].(float64); ok {
			product.CreatedAt = time.Unix(int64(val), 0)
		}

		products = append(products, product)
	}

	return products, nil
}
