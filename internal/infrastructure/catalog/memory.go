package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rjgems/backend/internal/domain"
)

// MemoryStore is an in-process catalog, used when no database is configured
// and in tests. Filtering matches SQLiteStore.
type MemoryStore struct {
	mu    sync.RWMutex
	items []domain.CatalogItem
}

// NewMemoryStore creates a store holding a copy of items
func NewMemoryStore(items []domain.CatalogItem) *MemoryStore {
	s := &MemoryStore{}
	s.items = make([]domain.CatalogItem, 0, len(items))
	for _, item := range items {
		s.items = append(s.items, copyItem(item))
	}
	return s
}

// List returns products matching filter, newest first
func (s *MemoryStore) List(ctx context.Context, filter domain.ProductFilter) ([]domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []domain.CatalogItem{}
	for _, item := range s.items {
		if matchesFilter(item, filter) {
			matched = append(matched, copyItem(item))
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if limit := filter.EffectiveLimit(); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Get returns a single product by id
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			found := copyItem(item)
			return &found, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

// UpdateDescription replaces a product's description
func (s *MemoryStore) UpdateDescription(ctx context.Context, id, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Description = description
			s.items[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func matchesFilter(item domain.CatalogItem, filter domain.ProductFilter) bool {
	if filter.Category != "" && item.Category != filter.Category {
		return false
	}
	if filter.Featured && !item.Featured {
		return false
	}
	if filter.MinPrice > 0 && item.Price < filter.MinPrice {
		return false
	}
	if filter.MaxPrice > 0 && item.Price > filter.MaxPrice {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		if strings.Contains(strings.ToLower(item.Name), term) ||
			strings.Contains(strings.ToLower(item.Description), term) {
			return true
		}
		for _, v := range item.Specifications {
			if strings.Contains(strings.ToLower(v), term) {
				return true
			}
		}
		return false
	}
	return true
}

// copyItem detaches the maps and slices so callers can't mutate the store
func copyItem(item domain.CatalogItem) domain.CatalogItem {
	if item.Specifications != nil {
		specs := make(map[string]string, len(item.Specifications))
		for k, v := range item.Specifications {
			specs[k] = v
		}
		item.Specifications = specs
	}
	if item.Images != nil {
		item.Images = append([]string(nil), item.Images...)
	}
	return item
}
