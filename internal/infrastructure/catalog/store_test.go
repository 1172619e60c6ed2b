package catalog

import (
	"context"
	"testing"

	"github.com/rjgems/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	seed, err := SeedProducts()
	require.NoError(t, err)
	require.NoError(t, s.Upsert(context.Background(), seed))
	return s
}

func newTestMemory(t *testing.T) *MemoryStore {
	t.Helper()
	seed, err := SeedProducts()
	require.NoError(t, err)
	return NewMemoryStore(seed)
}

func TestSeedProducts(t *testing.T) {
	items, err := SeedProducts()
	require.NoError(t, err)
	require.NotEmpty(t, items)

	seen := map[string]bool{}
	for _, item := range items {
		assert.NotEmpty(t, item.ID)
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true

		_, ok := domain.ParseCategory(string(item.Category))
		assert.True(t, ok, "item %s has category %q", item.ID, item.Category)
		assert.GreaterOrEqual(t, item.Price, 0.0)
	}
}

func TestStores_List(t *testing.T) {
	tests := []struct {
		name    string
		filter  domain.ProductFilter
		wantIDs []string
	}{
		{name: "no filter returns everything in seed order", filter: domain.ProductFilter{}, wantIDs: []string{"1", "2", "3", "4", "5", "6"}},
		{name: "category", filter: domain.ProductFilter{Category: domain.CategoryRings}, wantIDs: []string{"1", "5"}},
		{name: "featured", filter: domain.ProductFilter{Featured: true}, wantIDs: []string{"1", "2", "5"}},
		{name: "price range", filter: domain.ProductFilter{MinPrice: 800, MaxPrice: 1600}, wantIDs: []string{"2", "4"}},
		{name: "search matches description case-insensitively", filter: domain.ProductFilter{Search: "PEARL"}, wantIDs: []string{"2"}},
		{name: "search matches specifications", filter: domain.ProductFilter{Search: "platinum"}, wantIDs: []string{"3"}},
		{name: "search ignores specification keys", filter: domain.ProductFilter{Search: "material"}, wantIDs: []string{}},
		{name: "search key name only matches text", filter: domain.ProductFilter{Search: "stone"}, wantIDs: []string{"3"}},
		{name: "search spans specification values", filter: domain.ProductFilter{Search: "diamond weight"}, wantIDs: []string{"3", "4"}},
		{name: "limit", filter: domain.ProductFilter{Limit: 2}, wantIDs: []string{"1", "2"}},
		{name: "combined filters", filter: domain.ProductFilter{Category: domain.CategoryNecklaces, MaxPrice: 1000}, wantIDs: []string{"6"}},
		{name: "no match", filter: domain.ProductFilter{Search: "tiara"}, wantIDs: []string{}},
	}

	stores := map[string]func(*testing.T) domain.CatalogRepository{
		"sqlite": func(t *testing.T) domain.CatalogRepository { return openTestSQLite(t) },
		"memory": func(t *testing.T) domain.CatalogRepository { return newTestMemory(t) },
	}

	for storeName, open := range stores {
		for _, tt := range tests {
			t.Run(storeName+"/"+tt.name, func(t *testing.T) {
				store := open(t)

				items, err := store.List(context.Background(), tt.filter)
				require.NoError(t, err)

				ids := make([]string, 0, len(items))
				for _, item := range items {
					ids = append(ids, item.ID)
				}
				assert.Equal(t, tt.wantIDs, ids)
			})
		}
	}
}

func TestSQLiteStore_GetRoundTripsFields(t *testing.T) {
	s := openTestSQLite(t)

	item, err := s.Get(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, "Diamond Solitaire Engagement Ring", item.Name)
	assert.Equal(t, domain.CategoryRings, item.Category)
	assert.Equal(t, 2999.0, item.Price)
	assert.Equal(t, "18k White Gold", item.Spec("material"))
	assert.Len(t, item.Images, 2)
	assert.True(t, item.Featured)
	assert.True(t, item.InStock)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestStores_GetNotFound(t *testing.T) {
	_, err := openTestSQLite(t).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = newTestMemory(t).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestStores_UpdateDescription(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]domain.CatalogRepository{
		"sqlite": openTestSQLite(t),
		"memory": newTestMemory(t),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.UpdateDescription(ctx, "4", "Fresh copy"))

			item, err := store.Get(ctx, "4")
			require.NoError(t, err)
			assert.Equal(t, "Fresh copy", item.Description)

			err = store.UpdateDescription(ctx, "missing", "x")
			assert.ErrorIs(t, err, domain.ErrProductNotFound)
		})
	}
}

func TestSQLiteStore_UpsertRejectsUnknownCategory(t *testing.T) {
	s := openTestSQLite(t)

	err := s.Upsert(context.Background(), []domain.CatalogItem{{ID: "99", Name: "Crown", Category: "tiaras", Price: 10}})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestSQLiteStore_UpsertIsIdempotent(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	seed, err := SeedProducts()
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, seed))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(seed), n)
}

func TestSQLiteStore_MigrationsSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(dir)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := newTestMemory(t)
	ctx := context.Background()

	item, err := s.Get(ctx, "1")
	require.NoError(t, err)
	item.Specifications["material"] = "Tin"
	item.Images[0] = "mutated"

	again, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "18k White Gold", again.Spec("material"))
	assert.NotEqual(t, "mutated", again.Images[0])
}
