package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/providers"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
)

// Cache TTLs (in seconds)
const (
	productByIDTTL      = 300 // 5 minutes for single product
	productListTTL      = 180 // 3 minutes for lists
	productCategoryTTL  = 600 // 10 minutes for the category list
	productCachePrefix  = "product:"
	productListPrefix   = "products:list:"
	productCategoryKey  = "products:categories"
)

// CachedProductAdapter wraps a ProductRepository with read-through caching.
// The catalog is read on every bill creation, so single-product and list
// lookups are cached; writes invalidate.
type CachedProductAdapter struct {
	adapter repositories.ProductRepository
	cache   providers.CacheProvider
}

// NewCachedProductAdapter creates a new cached product adapter
func NewCachedProductAdapter(adapter repositories.ProductRepository, cache providers.CacheProvider) repositories.ProductRepository {
	return &CachedProductAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

func productCacheKey(id string) string {
	return productCachePrefix + id
}

func productListCacheKey(filter repositories.ProductFilter) string {
	active := "any"
	if filter.IsActive != nil {
		active = fmt.Sprintf("%t", *filter.IsActive)
	}
	return fmt.Sprintf("%s%s:%s:%d:%d", productListPrefix, filter.Category, active, filter.Limit, filter.Offset)
}

// GetByID retrieves a product by ID with caching
func (a *CachedProductAdapter) GetByID(ctx context.Context, id string) (*entities.Product, error) {
	cacheKey := productCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var product entities.Product
		if err := json.Unmarshal(cached, &product); err == nil {
			return &product, nil
		}
		log.Warn().Err(err).Str("id", id).Msg("failed to unmarshal cached product")
	}

	product, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(product); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, productByIDTTL); err != nil {
				log.Warn().Err(err).Str("id", id).Msg("failed to cache product")
			}
		}
	}()

	return product, nil
}

// GetByCode retrieves a product by code, uncached
func (a *CachedProductAdapter) GetByCode(ctx context.Context, code string) (*entities.Product, error) {
	return a.adapter.GetByCode(ctx, code)
}

// GetByIDs retrieves multiple products by IDs, serving cached entries and
// fetching only the misses
func (a *CachedProductAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Product, error) {
	if len(ids) == 0 {
		return []*entities.Product{}, nil
	}

	var cachedProducts []*entities.Product
	missingIDs := make([]string, 0)

	for _, id := range ids {
		data, err := a.cache.Get(ctx, productCacheKey(id))
		if err == nil {
			var product entities.Product
			if err := json.Unmarshal(data, &product); err == nil {
				cachedProducts = append(cachedProducts, &product)
				continue
			}
		}
		missingIDs = append(missingIDs, id)
	}

	if len(missingIDs) == 0 {
		return cachedProducts, nil
	}

	dbProducts, err := a.adapter.GetByIDs(ctx, missingIDs)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		for _, product := range dbProducts {
			if data, err := json.Marshal(product); err == nil {
				if err := a.cache.Set(bgCtx, productCacheKey(product.ID), data, productByIDTTL); err != nil {
					log.Warn().Err(err).Str("id", product.ID).Msg("failed to cache product")
				}
			}
		}
	}()

	return append(cachedProducts, dbProducts...), nil
}

// List retrieves products with caching
func (a *CachedProductAdapter) List(ctx context.Context, filter repositories.ProductFilter) ([]*entities.Product, error) {
	cacheKey := productListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var products []*entities.Product
		if err := json.Unmarshal(cached, &products); err == nil {
			return products, nil
		}
		log.Warn().Err(err).Msg("failed to unmarshal cached product list")
	}

	products, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(products); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, productListTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache product list")
			}
		}
	}()

	return products, nil
}

// Categories returns the distinct categories of active products with caching
func (a *CachedProductAdapter) Categories(ctx context.Context) ([]string, error) {
	if cached, err := a.cache.Get(ctx, productCategoryKey); err == nil {
		var categories []string
		if err := json.Unmarshal(cached, &categories); err == nil {
			return categories, nil
		}
	}

	categories, err := a.adapter.Categories(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(categories); err == nil {
			if err := a.cache.Set(bgCtx, productCategoryKey, data, productCategoryTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache product categories")
			}
		}
	}()

	return categories, nil
}

// Create creates a product and invalidates list caches
func (a *CachedProductAdapter) Create(ctx context.Context, product *entities.Product) error {
	if err := a.adapter.Create(ctx, product); err != nil {
		return err
	}

	a.invalidateLists()
	return nil
}

// Update updates a product and invalidates its caches
func (a *CachedProductAdapter) Update(ctx context.Context, product *entities.Product) error {
	if err := a.adapter.Update(ctx, product); err != nil {
		return err
	}

	a.invalidateProduct(product.ID)
	return nil
}

// Delete deactivates a product and invalidates its caches
func (a *CachedProductAdapter) Delete(ctx context.Context, id string) error {
	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}

	a.invalidateProduct(id)
	return nil
}

func (a *CachedProductAdapter) invalidateProduct(id string) {
	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, productCacheKey(id)); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("failed to invalidate product cache")
		}
	}()
	a.invalidateLists()
}

func (a *CachedProductAdapter) invalidateLists() {
	go func() {
		bgCtx := context.Background()
		if err := a.cache.DeleteByPrefix(bgCtx, productListPrefix); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate product list cache")
		}
		if err := a.cache.Delete(bgCtx, productCategoryKey); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate product category cache")
		}
	}()
}
