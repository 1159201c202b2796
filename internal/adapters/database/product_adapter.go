package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	"github.com/aarogya/billing-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/aarogya/billing-backend/pkg/errors"
)

var productColumns = []interface{}{
	"id", "name", "code", "category", "price", "tax",
	"is_active", "created_at", "updated_at",
}

// ProductAdapter implements the ProductRepository interface
type ProductAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProductAdapter creates a new product adapter
func NewProductAdapter(client *postgres.Client) repositories.ProductRepository {
	return &ProductAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new product
func (a *ProductAdapter) Create(ctx context.Context, product *entities.Product) error {
	record := goqu.Record{
		"id":         product.ID,
		"name":       product.Name,
		"code":       product.Code,
		"category":   sql.NullString{String: product.Category, Valid: product.Category != ""},
		"price":      product.Price,
		"tax":        product.Tax,
		"is_active":  product.IsActive,
		"created_at": product.CreatedAt,
		"updated_at": product.UpdatedAt,
	}

	query, args, err := a.db.Insert("products").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create product", err)
	}

	return nil
}

// GetByID retrieves a product by ID
func (a *ProductAdapter) GetByID(ctx context.Context, id string) (*entities.Product, error) {
	return a.getByField(ctx, "id", id)
}

// GetByCode retrieves a product by code
func (a *ProductAdapter) GetByCode(ctx context.Context, code string) (*entities.Product, error) {
	return a.getByField(ctx, "code", code)
}

// GetByIDs retrieves multiple products by their IDs
func (a *ProductAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Product, error) {
	if len(ids) == 0 {
		return []*entities.Product{}, nil
	}

	query, args, err := a.db.Select(productColumns...).From("products").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryProducts(ctx, query, args)
}

// Update updates a product
func (a *ProductAdapter) Update(ctx context.Context, product *entities.Product) error {
	product.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":       product.Name,
		"code":       product.Code,
		"category":   sql.NullString{String: product.Category, Valid: product.Category != ""},
		"price":      product.Price,
		"tax":        product.Tax,
		"is_active":  product.IsActive,
		"updated_at": product.UpdatedAt,
	}

	query, args, err := a.db.Update("products").
		Set(record).
		Where(goqu.Ex{"id": product.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update product", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("product with id %s not found", product.ID))
	}

	return nil
}

// Delete deactivates a product (soft delete)
func (a *ProductAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Update("products").
		Set(goqu.Record{"is_active": false, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete product", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("product with id %s not found", id))
	}

	return nil
}

// List retrieves products with filters
func (a *ProductAdapter) List(ctx context.Context, filter repositories.ProductFilter) ([]*entities.Product, error) {
	ds := a.db.Select(productColumns...).From("products")

	if filter.Category != "" {
		ds = ds.Where(goqu.Ex{"category": filter.Category})
	}

	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}

	ds = ds.Order(goqu.I("name").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryProducts(ctx, query, args)
}

// Categories returns the distinct categories of active products
func (a *ProductAdapter) Categories(ctx context.Context) ([]string, error) {
	query, args, err := a.db.Select(goqu.DISTINCT("category")).From("products").
		Where(goqu.Ex{"is_active": true}, goqu.C("category").IsNotNull()).
		Order(goqu.I("category").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build categories query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list categories", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, apperrors.NewInternalError("failed to scan category", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating categories", err)
	}

	return categories, nil
}

func (a *ProductAdapter) getByField(ctx context.Context, field, value string) (*entities.Product, error) {
	query, args, err := a.db.Select(productColumns...).From("products").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	product := &entities.Product{}
	var category sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&product.ID,
		&product.Name,
		&product.Code,
		&category,
		&product.Price,
		&product.Tax,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get product", err)
	}

	product.Category = category.String

	return product, nil
}

func (a *ProductAdapter) queryProducts(ctx context.Context, query string, args []interface{}) ([]*entities.Product, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list products", err)
	}
	defer rows.Close()

	var products []*entities.Product
	for rows.Next() {
		product := &entities.Product{}
		var category sql.NullString

		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Code,
			&category,
			&product.Price,
			&product.Tax,
			&product.IsActive,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan product", err)
		}

		product.Category = category.String
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating products", err)
	}

	return products, nil
}
