package catalog_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meadowline/backend-dairy/internal/catalog"
	"github.com/meadowline/backend-dairy/internal/common"
	"github.com/meadowline/backend-dairy/internal/store"
)

func newCachedService(t *testing.T) (*catalog.Service, *fakeQueries) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	queries := &fakeQueries{}
	svc := catalog.NewService(catalog.ServiceConfig{
		Queries: queries,
		Cache:   catalog.NewCache(client, time.Hour),
	})
	return svc, queries
}

func seedCached(t *testing.T, queries *fakeQueries, name, slug string) store.Product {
	t.Helper()
	row, err := queries.CreateProduct(context.Background(), store.CreateProductParams{
		Name: name, Slug: slug, Category: "milk",
		Variants: []store.ProductVariant{{Size: "1L", PriceMinor: 6500}},
		InStock:  true,
	})
	require.NoError(t, err)
	return row
}

func TestListCacheRetiredOnWrite(t *testing.T) {
	svc, queries := newCachedService(t)
	ctx := context.Background()
	seedCached(t, queries, "Fresh Cow Milk", "fresh-cow-milk")

	first, err := svc.ListProducts(ctx, "", 1, 20)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)

	_, err = svc.Create(ctx, store.CreateProductParams{
		Name: "Buffalo Milk", Slug: "buffalo-milk", Category: "milk",
		Variants: []store.ProductVariant{{Size: "1L", PriceMinor: 7500}},
		InStock:  true,
	})
	require.NoError(t, err)

	second, err := svc.ListProducts(ctx, "", 1, 20)
	require.NoError(t, err)
	require.Len(t, second.Items, 2, "list page must not be served from the pre-write cache")
}

func TestDetailCacheRetiredOnDelete(t *testing.T) {
	svc, queries := newCachedService(t)
	ctx := context.Background()
	row := seedCached(t, queries, "Desi Ghee", "desi-ghee")

	view, err := svc.GetProduct(ctx, "desi-ghee")
	require.NoError(t, err)
	require.Equal(t, "Desi Ghee", view.Name)

	require.NoError(t, svc.Delete(ctx, row.ID))

	_, err = svc.GetProduct(ctx, "desi-ghee")
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}
