package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rjgems/backend/internal/domain"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(time.Minute)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value interface{}
		ttl   time.Duration
	}{
		{
			name:  "store and retrieve string",
			key:   "products:rings",
			value: "cached",
			ttl:   time.Minute,
		},
		{
			name: "store and retrieve catalog item",
			key:  "product:1",
			value: domain.CatalogItem{
				ID:       "1",
				Name:     "Diamond Solitaire Engagement Ring",
				Category: domain.CategoryRings,
				Price:    2999,
			},
			ttl: time.Minute,
		},
		{
			name:  "store with short TTL",
			key:   "expires-soon",
			value: "gone",
			ttl:   time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cache.Set(ctx, tt.key, tt.value, tt.ttl); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			if tt.ttl < 10*time.Millisecond {
				time.Sleep(10 * time.Millisecond)
				if _, err := cache.Get(ctx, tt.key); !errors.Is(err, domain.ErrCacheMiss) {
					t.Errorf("Expected cache miss after expiration, got error = %v", err)
				}
				return
			}

			got, err := cache.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got == nil {
				t.Fatal("Get() = nil, want value")
			}
		})
	}
}

func TestMemoryCache_StructsComeBackAsMaps(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	item := domain.CatalogItem{ID: "7", Name: "Pearl Studs", Category: domain.CategoryEarrings, Price: 349}
	if err := cache.Set(ctx, "product:7", item, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := cache.Get(ctx, "product:7")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	m, ok := got.(map[string]interface{})
	if !ok {
		t.Fatalf("Get() type = %T, want map[string]interface{}", got)
	}
	if m["_id"] != "7" {
		t.Errorf("_id = %v, want 7", m["_id"])
	}
	if m["price"] != float64(349) {
		t.Errorf("price = %v, want 349", m["price"])
	}
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Get(context.Background(), "non-existent-key")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "delete-test", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cache.Delete(ctx, "delete-test"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := cache.Get(ctx, "delete-test"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() after delete error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"products:a", "products:b", "product:1"} {
		if err := cache.Set(ctx, key, key, time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	if err := cache.DeletePrefix(ctx, "products:"); err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}

	if size := cache.Size(); size != 1 {
		t.Errorf("Size() = %d, want 1", size)
	}
	if _, err := cache.Get(ctx, "product:1"); err != nil {
		t.Errorf("Get(product:1) error = %v, want nil", err)
	}
}

func TestMemoryCache_Exists(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "exists-test")
	if err != nil || exists {
		t.Errorf("Exists() = %v, %v; want false, nil", exists, err)
	}

	if err := cache.Set(ctx, "exists-test", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	exists, err = cache.Exists(ctx, "exists-test")
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v; want true, nil", exists, err)
	}

	if err := cache.Set(ctx, "short-ttl", "value", time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	exists, err = cache.Exists(ctx, "short-ttl")
	if err != nil || exists {
		t.Errorf("Exists() = %v, %v; want false, nil after expiration", exists, err)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := cache.Set(ctx, string(rune('a'+i)), i, time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if size := cache.Size(); size != 5 {
		t.Fatalf("Size() = %d, want 5 before clear", size)
	}

	cache.Clear()

	if size := cache.Size(); size != 0 {
		t.Errorf("Size() = %d, want 0 after clear", size)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := string(rune('a' + id))
			if err := cache.Set(ctx, key, id, time.Minute); err != nil {
				t.Errorf("Concurrent Set() error = %v", err)
			}
			if _, err := cache.Get(ctx, key); err != nil {
				t.Errorf("Concurrent Get() error = %v", err)
			}
		}(i)
	}
	wg.Wait()
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	cache := NewMemoryCache(time.Millisecond)
	if err := cache.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestNewRedisCache_InvalidURLScheme(t *testing.T) {
	_, err := NewRedisCache("not-a-redis-url")
	if err == nil {
		t.Fatal("NewRedisCache() error = nil, want parse error")
	}
}
