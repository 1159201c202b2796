package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	apperrors "github.com/aarogya/billing-backend/pkg/errors"
)

// CatalogService manages the billable service catalog and keeps the search
// index in step with the database. Index writes are best effort; the
// database is the source of truth.
type CatalogService struct {
	productRepo repositories.ProductRepository
	searchRepo  repositories.ProductSearchRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(productRepo repositories.ProductRepository, searchRepo repositories.ProductSearchRepository) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		searchRepo:  searchRepo,
	}
}

// CreateProduct validates and persists a catalog entry, then indexes it
func (s *CatalogService) CreateProduct(ctx context.Context, product *entities.Product) error {
	if product.Name == "" {
		return apperrors.NewValidationError("product name is required")
	}
	if product.Code == "" {
		return apperrors.NewValidationError("product code is required")
	}
	if product.Price.IsNegative() || product.Tax.IsNegative() {
		return apperrors.NewValidationError("price and tax cannot be negative")
	}

	if existing, err := s.productRepo.GetByCode(ctx, product.Code); err == nil && existing != nil {
		return apperrors.NewConflictError("a product with code " + product.Code + " already exists")
	}

	now := time.Now()
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.IsActive = true
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.productRepo.Create(ctx, product); err != nil {
		return err
	}

	s.index(product)
	return nil
}

// GetProduct retrieves a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*entities.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// UpdateProduct updates a catalog entry and reindexes it
func (s *CatalogService) UpdateProduct(ctx context.Context, product *entities.Product) error {
	if product.Price.IsNegative() || product.Tax.IsNegative() {
		return apperrors.NewValidationError("price and tax cannot be negative")
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return err
	}

	s.index(product)
	return nil
}

// DeleteProduct deactivates a catalog entry and drops it from the index
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.searchRepo != nil {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.searchRepo.Delete(bgCtx, id); err != nil {
				log.Warn().Err(err).Str("id", id).Msg("failed to remove product from search index")
			}
		}()
	}
	return nil
}

// ListProducts retrieves products with filters
func (s *CatalogService) ListProducts(ctx context.Context, filter repositories.ProductFilter) ([]*entities.Product, error) {
	return s.productRepo.List(ctx, filter)
}

// Categories returns the distinct categories of active products
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories(ctx)
}

// SearchProducts runs a free-text catalog search, falling back to a database
// listing when no search backend is configured
func (s *CatalogService) SearchProducts(ctx context.Context, params repositories.ProductSearchParams) ([]*entities.Product, error) {
	if s.searchRepo == nil {
		active := true
		return s.productRepo.List(ctx, repositories.ProductFilter{
			Category: params.Category,
			IsActive: &active,
			Limit:    params.Limit,
			Offset:   params.Offset,
		})
	}
	return s.searchRepo.Search(ctx, params)
}

// ReindexAll rebuilds the search index from the database
func (s *CatalogService) ReindexAll(ctx context.Context) (int, error) {
	if s.searchRepo == nil {
		return 0, apperrors.NewInternalError("no search backend configured", nil)
	}

	products, err := s.productRepo.List(ctx, repositories.ProductFilter{})
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, product := range products {
		if err := s.searchRepo.Index(ctx, product); err != nil {
			log.Warn().Err(err).Str("id", product.ID).Msg("failed to index product")
			continue
		}
		indexed++
	}
	return indexed, nil
}

func (s *CatalogService) index(product *entities.Product) {
	if s.searchRepo == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.searchRepo.Index(bgCtx, product); err != nil {
			log.Warn().Err(err).Str("id", product.ID).Msg("failed to index product")
		}
	}()
}
