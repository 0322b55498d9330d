package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meadowline/backend-dairy/internal/catalog"
	"github.com/meadowline/backend-dairy/internal/store"
)

type fakeQueries struct {
	products []store.Product
}

func (f *fakeQueries) ListProducts(ctx context.Context, category string, limit, offset int) ([]store.Product, error) {
	out := make([]store.Product, 0, len(f.products))
	for _, p := range f.products {
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeQueries) CountProducts(ctx context.Context, category string) (int64, error) {
	var count int64
	for _, p := range f.products {
		if category == "" || p.Category == category {
			count++
		}
	}
	return count, nil
}

func (f *fakeQueries) GetProductByID(ctx context.Context, id uuid.UUID) (store.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return store.Product{}, store.ErrNotFound
}

func (f *fakeQueries) GetProductBySlug(ctx context.Context, slug string) (store.Product, error) {
	for _, p := range f.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return store.Product{}, store.ErrNotFound
}

func (f *fakeQueries) CreateProduct(ctx context.Context, p store.CreateProductParams) (store.Product, error) {
	row := store.Product{
		ID: uuid.New(), Name: p.Name, Slug: p.Slug, Description: p.Description,
		Category: p.Category, ImageURLs: p.ImageURLs, Variants: p.Variants,
		UnitCostMinor: p.UnitCostMinor, InStock: p.InStock,
	}
	f.products = append(f.products, row)
	return row, nil
}

func (f *fakeQueries) UpdateProduct(ctx context.Context, id uuid.UUID, p store.CreateProductParams) (store.Product, error) {
	for i, existing := range f.products {
		if existing.ID == id {
			f.products[i].Name = p.Name
			f.products[i].Slug = p.Slug
			f.products[i].Variants = p.Variants
			return f.products[i], nil
		}
	}
	return store.Product{}, store.ErrNotFound
}

func (f *fakeQueries) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	for i, existing := range f.products {
		if existing.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type productsResponse struct {
	Data       []catalog.ProductView `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

func seedQueries() *fakeQueries {
	return &fakeQueries{products: []store.Product{
		{
			ID: uuid.New(), Name: "Fresh Cow Milk", Slug: "fresh-cow-milk", Category: "milk",
			Variants: []store.ProductVariant{{Size: "500ml", PriceMinor: 3000}, {Size: "1L", PriceMinor: 5500}},
			InStock:  true,
		},
		{
			ID: uuid.New(), Name: "Farm Ghee", Slug: "farm-ghee", Category: "ghee",
			Variants: []store.ProductVariant{{Size: "250g", PriceMinor: 25000}},
			InStock:  true,
		},
	}}
}

func TestCatalogHandlers(t *testing.T) {
	svc := catalog.NewService(catalog.ServiceConfig{Queries: seedQueries(), DefaultLimit: 20, MaxLimit: 100})
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: svc})

	t.Run("products list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products?limit=1", nil)
		rec := httptest.NewRecorder()
		handler.Products(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "2", rec.Header().Get("X-Total-Count"))

		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "Fresh Cow Milk", resp.Data[0].Name)
		require.Equal(t, int64(3000), resp.Data[0].Variants[0].PriceMinor)
		require.Equal(t, 2, resp.Pagination.TotalItems)
	})

	t.Run("category filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products?category=ghee", nil)
		rec := httptest.NewRecorder()
		handler.Products(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "farm-ghee", resp.Data[0].Slug)
	})

	t.Run("product detail", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/fresh-cow-milk", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("slug", "fresh-cow-milk")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		handler.ProductDetail(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data catalog.ProductView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Fresh Cow Milk", resp.Data.Name)
		require.Len(t, resp.Data.Variants, 2)
	})

	t.Run("product detail missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/unknown", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("slug", "unknown")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		handler.ProductDetail(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPricingCatalog(t *testing.T) {
	queries := seedQueries()
	svc := catalog.NewService(catalog.ServiceConfig{Queries: queries, DefaultLimit: 20, MaxLimit: 100})

	cat, err := svc.PricingCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, cat, 2)
	id := queries.products[0].ID.String()
	price, ok := cat[id].VariantPrice("1L")
	require.True(t, ok)
	require.Equal(t, int64(5500), price)
}
