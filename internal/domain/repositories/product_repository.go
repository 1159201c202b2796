package repositories

import (
	"context"

	"github.com/aarogya/billing-backend/internal/domain/entities"
)

// ProductRepository defines the interface for product catalog operations
type ProductRepository interface {
	// Create creates a new product
	Create(ctx context.Context, product *entities.Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id string) (*entities.Product, error)

	// GetByCode retrieves a product by code
	GetByCode(ctx context.Context, code string) (*entities.Product, error)

	// GetByIDs retrieves multiple products by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Product, error)

	// Update updates a product
	Update(ctx context.Context, product *entities.Product) error

	// Delete deactivates a product (soft delete)
	Delete(ctx context.Context, id string) error

	// List retrieves products with filters
	List(ctx context.Context, filter ProductFilter) ([]*entities.Product, error)

	// Categories returns the distinct categories of active products
	Categories(ctx context.Context) ([]string, error)
}

// ProductFilter defines filters for listing products
type ProductFilter struct {
	Category string
	IsActive *bool
	Limit    int
	Offset   int
}

// ProductSearchRepository defines full-text catalog search
type ProductSearchRepository interface {
	// InitSchema ensures the search collection exists
	InitSchema(ctx context.Context) error

	// Index indexes a product document
	Index(ctx context.Context, product *entities.Product) error

	// Delete removes a product from the index
	Delete(ctx context.Context, id string) error

	// Search searches products by free-text query
	Search(ctx context.Context, params ProductSearchParams) ([]*entities.Product, error)
}

// ProductSearchParams defines parameters for catalog search
type ProductSearchParams struct {
	Query    string
	Category string
	Limit    int
	Offset   int
}
