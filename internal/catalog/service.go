package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/meadowline/backend-dairy/internal/common"
	"github.com/meadowline/backend-dairy/internal/pricing"
	"github.com/meadowline/backend-dairy/internal/store"
)

const (
	pricingCatalogKey = "catalog:pricing"
	listGenerationKey = "catalog:list:generation"
)

type queryProvider interface {
	ListProducts(ctx context.Context, category string, limit, offset int) ([]store.Product, error)
	CountProducts(ctx context.Context, category string) (int64, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (store.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (store.Product, error)
	CreateProduct(ctx context.Context, p store.CreateProductParams) (store.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, p store.CreateProductParams) (store.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries      queryProvider
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a catalog Service.
func NewService(cfg ServiceConfig) *Service {
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	max := cfg.MaxLimit
	if max <= 0 {
		max = 100
	}
	return &Service{queries: cfg.Queries, cache: cfg.Cache, defaultLimit: limit, maxLimit: max}
}

// VariantView describes one purchasable size of a product.
type VariantView struct {
	Size       string `json:"size"`
	PriceMinor int64  `json:"priceMinor"`
}

// ProductView is the public product payload.
type ProductView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category"`
	Images      []string      `json:"images"`
	Variants    []VariantView `json:"variants"`
	InStock     bool          `json:"inStock"`
}

// ListResult bundles a page of products with pagination metadata.
type ListResult struct {
	Items []ProductView
	Total int64
	Page  int
	Limit int
}

// ListProducts returns a page of products, optionally filtered by category.
func (s *Service) ListProducts(ctx context.Context, category string, page, limit int) (ListResult, error) {
	if s == nil || s.queries == nil {
		return ListResult{}, errors.New("catalog service not configured")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	category = strings.TrimSpace(category)

	cacheKey := fmt.Sprintf("catalog:list:%s:%s:%d:%d", s.cache.Generation(ctx, listGenerationKey), category, page, limit)
	var cached ListResult
	if ok, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
		return cached, nil
	}

	offset := common.Pagination{Page: page, PerPage: limit}.Offset()
	rows, err := s.queries.ListProducts(ctx, category, limit, offset)
	if err != nil {
		return ListResult{}, fmt.Errorf("list products: %w", err)
	}
	total, err := s.queries.CountProducts(ctx, category)
	if err != nil {
		return ListResult{}, fmt.Errorf("count products: %w", err)
	}
	result := ListResult{Items: toViews(rows), Total: total, Page: page, Limit: limit}
	_ = s.cache.SetJSON(ctx, cacheKey, result)
	return result, nil
}

// GetProduct returns the public payload for one product by slug.
func (s *Service) GetProduct(ctx context.Context, slug string) (ProductView, error) {
	if s == nil || s.queries == nil {
		return ProductView{}, errors.New("catalog service not configured")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductView{}, common.NewAppError("BAD_REQUEST", "slug is required", http.StatusBadRequest, nil)
	}
	cacheKey := "catalog:product:" + slug
	var cached ProductView
	if ok, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	row, err := s.queries.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ProductView{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return ProductView{}, fmt.Errorf("get product: %w", err)
	}
	view := toView(row)
	_ = s.cache.SetJSON(ctx, cacheKey, view)
	return view, nil
}

// PricingCatalog assembles the catalog form the pricing engine consumes.
// The whole table is small enough to load and cache as one unit.
func (s *Service) PricingCatalog(ctx context.Context) (pricing.Catalog, error) {
	if s == nil || s.queries == nil {
		return nil, errors.New("catalog service not configured")
	}
	var cached pricing.Catalog
	if ok, err := s.cache.GetJSON(ctx, pricingCatalogKey, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.queries.ListProducts(ctx, "", s.maxLimit*10, 0)
	if err != nil {
		return nil, fmt.Errorf("load pricing catalog: %w", err)
	}
	catalog := make(pricing.Catalog, len(rows))
	for _, row := range rows {
		variants := make([]pricing.Variant, 0, len(row.Variants))
		for _, v := range row.Variants {
			variants = append(variants, pricing.Variant{Size: v.Size, Price: v.PriceMinor})
		}
		id := row.ID.String()
		catalog[id] = pricing.Product{ID: id, Variants: variants}
	}
	_ = s.cache.SetJSON(ctx, pricingCatalogKey, catalog)
	return catalog, nil
}

// UnitCost returns the stored unit cost for a product, if any.
func (s *Service) UnitCost(ctx context.Context, id uuid.UUID) (*int64, error) {
	if s == nil || s.queries == nil {
		return nil, errors.New("catalog service not configured")
	}
	row, err := s.queries.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return nil, err
	}
	return row.UnitCostMinor, nil
}

// Create inserts a product and invalidates derived caches.
func (s *Service) Create(ctx context.Context, p store.CreateProductParams) (store.Product, error) {
	if s == nil || s.queries == nil {
		return store.Product{}, errors.New("catalog service not configured")
	}
	if err := validateProduct(&p); err != nil {
		return store.Product{}, err
	}
	row, err := s.queries.CreateProduct(ctx, p)
	if err != nil {
		return store.Product{}, err
	}
	_ = s.cache.Invalidate(ctx, pricingCatalogKey)
	_ = s.cache.Bump(ctx, listGenerationKey)
	return row, nil
}

// Update replaces a product and invalidates derived caches.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p store.CreateProductParams) (store.Product, error) {
	if s == nil || s.queries == nil {
		return store.Product{}, errors.New("catalog service not configured")
	}
	if err := validateProduct(&p); err != nil {
		return store.Product{}, err
	}
	row, err := s.queries.UpdateProduct(ctx, id, p)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return store.Product{}, err
	}
	_ = s.cache.Invalidate(ctx, pricingCatalogKey, "catalog:product:"+row.Slug)
	_ = s.cache.Bump(ctx, listGenerationKey)
	return row, nil
}

// Delete removes a product and invalidates derived caches.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.queries == nil {
		return errors.New("catalog service not configured")
	}
	slug := ""
	if row, err := s.queries.GetProductByID(ctx, id); err == nil {
		slug = row.Slug
	}
	if err := s.queries.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return err
	}
	keys := []string{pricingCatalogKey}
	if slug != "" {
		keys = append(keys, "catalog:product:"+slug)
	}
	_ = s.cache.Invalidate(ctx, keys...)
	_ = s.cache.Bump(ctx, listGenerationKey)
	return nil
}

func validateProduct(p *store.CreateProductParams) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Slug = strings.TrimSpace(strings.ToLower(p.Slug))
	if p.Name == "" {
		return common.NewAppError("BAD_REQUEST", "name is required", http.StatusBadRequest, nil)
	}
	if p.Slug == "" {
		return common.NewAppError("BAD_REQUEST", "slug is required", http.StatusBadRequest, nil)
	}
	if len(p.Variants) == 0 {
		return common.NewAppError("BAD_REQUEST", "at least one variant is required", http.StatusBadRequest, nil)
	}
	seen := make(map[string]struct{}, len(p.Variants))
	for _, v := range p.Variants {
		if strings.TrimSpace(v.Size) == "" {
			return common.NewAppError("BAD_REQUEST", "variant size is required", http.StatusBadRequest, nil)
		}
		if v.PriceMinor < 0 {
			return common.NewAppError("BAD_REQUEST", "variant price must not be negative", http.StatusBadRequest, nil)
		}
		if _, dup := seen[v.Size]; dup {
			return common.NewAppError("BAD_REQUEST", "duplicate variant size", http.StatusBadRequest, nil)
		}
		seen[v.Size] = struct{}{}
	}
	return nil
}

func toView(row store.Product) ProductView {
	variants := make([]VariantView, 0, len(row.Variants))
	for _, v := range row.Variants {
		variants = append(variants, VariantView{Size: v.Size, PriceMinor: v.PriceMinor})
	}
	images := row.ImageURLs
	if images == nil {
		images = []string{}
	}
	return ProductView{
		ID:          row.ID.String(),
		Name:        row.Name,
		Slug:        row.Slug,
		Description: row.Description,
		Category:    row.Category,
		Images:      images,
		Variants:    variants,
		InStock:     row.InStock,
	}
}

func toViews(rows []store.Product) []ProductView {
	views := make([]ProductView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toView(row))
	}
	return views
}
