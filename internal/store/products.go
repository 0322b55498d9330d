package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name, slug, description, category, image_urls, variants, unit_cost_minor, in_stock, created_at, updated_at`

const (
	createProductSQL = `INSERT INTO products (name, slug, description, category, image_urls, variants, unit_cost_minor, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + productColumns

	updateProductSQL = `UPDATE products SET
			name = $2, slug = $3, description = $4, category = $5,
			image_urls = $6, variants = $7, unit_cost_minor = $8, in_stock = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	getProductByIDSQL   = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductBySlugSQL = `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR category = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	countProductsSQL = `SELECT count(*) FROM products WHERE ($1 = '' OR category = $1)`

	listProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
)

// CreateProductParams carries the inputs for CreateProduct and UpdateProduct.
type CreateProductParams struct {
	Name          string
	Slug          string
	Description   string
	Category      string
	ImageURLs     []string
	Variants      []ProductVariant
	UnitCostMinor *int64
	InStock       bool
}

// CreateProduct inserts a catalog row.
func (q *Queries) CreateProduct(ctx context.Context, p CreateProductParams) (Product, error) {
	rows, err := q.db.Query(ctx, createProductSQL,
		p.Name, p.Slug, p.Description, p.Category, p.ImageURLs, p.Variants, p.UnitCostMinor, p.InStock)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return collectProduct(rows, "create product")
}

// UpdateProduct replaces a catalog row.
func (q *Queries) UpdateProduct(ctx context.Context, id uuid.UUID, p CreateProductParams) (Product, error) {
	rows, err := q.db.Query(ctx, updateProductSQL,
		id, p.Name, p.Slug, p.Description, p.Category, p.ImageURLs, p.Variants, p.UnitCostMinor, p.InStock)
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return collectProduct(rows, "update product")
}

// DeleteProduct removes a catalog row.
func (q *Queries) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProductByID fetches one product.
func (q *Queries) GetProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	rows, err := q.db.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return collectProduct(rows, "get product")
}

// GetProductBySlug fetches one product by its URL slug.
func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	rows, err := q.db.Query(ctx, getProductBySlugSQL, slug)
	if err != nil {
		return Product{}, fmt.Errorf("get product by slug: %w", err)
	}
	return collectProduct(rows, "get product by slug")
}

// ListProducts returns a page of products, optionally filtered by category.
func (q *Queries) ListProducts(ctx context.Context, category string, limit, offset int) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProductsSQL, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// CountProducts returns the total number of products matching the filter.
func (q *Queries) CountProducts(ctx context.Context, category string) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, countProductsSQL, category).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// ListProductsByIDs fetches the products whose IDs appear in the slice.
func (q *Queries) ListProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := q.db.Query(ctx, listProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("list products by ids: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("list products by ids: %w", err)
	}
	return products, nil
}

func collectProduct(rows pgx.Rows, op string) (Product, error) {
	product, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

func scanProduct(row pgx.CollectableRow) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category,
		&p.ImageURLs, &p.Variants, &p.UnitCostMinor, &p.InStock,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
