package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rjgems/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyPrefix      = "catalog:"
	maxProductLimit     = 100
	similarProductLimit = 4
	defaultSnapshotSize = 50
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL     time.Duration
	SnapshotSize int
}

// CatalogService reads the product catalog through a cache and keeps
// AI-generated descriptions in sync with the store.
type CatalogService struct {
	catalog      domain.CatalogRepository
	cache        domain.CacheRepository
	interpreter  *Interpreter
	matcher      *MatchingService
	cacheTTL     time.Duration
	snapshotSize int
	logger       *zap.Logger
	regenerate   singleflight.Group
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(
	catalog domain.CatalogRepository,
	cache domain.CacheRepository,
	interpreter *Interpreter,
	config CatalogServiceConfig,
	logger *zap.Logger,
) *CatalogService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	snapshotSize := config.SnapshotSize
	if snapshotSize <= 0 {
		snapshotSize = defaultSnapshotSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CatalogService{
		catalog:      catalog,
		cache:        cache,
		interpreter:  interpreter,
		matcher:      NewMatchingService(),
		cacheTTL:     cacheTTL,
		snapshotSize: snapshotSize,
		logger:       logger,
	}
}

// ListProducts returns products matching filter.
// Flow: validate -> check cache -> query store -> cache -> return
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.CatalogItem, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	key := listCacheKey(filter)

	var cached []domain.CatalogItem
	if s.getFromCache(ctx, key, &cached) {
		return cached, nil
	}

	items, err := s.catalog.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.setInCache(ctx, key, items)
	return items, nil
}

// GetProduct returns a single product
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.CatalogItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}

	key := cacheKeyPrefix + "item:" + id

	var cached domain.CatalogItem
	if s.getFromCache(ctx, key, &cached) {
		return &cached, nil
	}

	item, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.setInCache(ctx, key, item)
	return item, nil
}

// Snapshot returns the bounded first page of the catalog handed to the interpreter
func (s *CatalogService) Snapshot(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.ListProducts(ctx, domain.ProductFilter{Limit: s.snapshotSize})
}

// SimilarProducts returns up to four other products from the same category,
// most alike first.
func (s *CatalogService) SimilarProducts(ctx context.Context, id string) ([]domain.CatalogItem, error) {
	item, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SimilarTo(ctx, *item)
}

// SimilarTo is SimilarProducts for an item the caller already loaded
func (s *CatalogService) SimilarTo(ctx context.Context, item domain.CatalogItem) ([]domain.CatalogItem, error) {
	sameCategory, err := s.ListProducts(ctx, domain.ProductFilter{Category: item.Category, Limit: maxProductLimit})
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.CatalogItem, 0, len(sameCategory))
	for _, c := range sameCategory {
		if c.ID != item.ID {
			candidates = append(candidates, c)
		}
	}

	ranked := s.matcher.RankSimilar(item, candidates)
	if len(ranked) > similarProductLimit {
		ranked = ranked[:similarProductLimit]
	}
	return ranked, nil
}

// RegenerateDescription writes a fresh AI description for a product and
// stores it. When the model is unavailable the product comes back with
// placeholder copy and the stored description is left alone. Concurrent
// calls for the same product share one generation.
func (s *CatalogService) RegenerateDescription(ctx context.Context, id string) (*domain.CatalogItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}

	v, err, shared := s.regenerate.Do(id, func() (interface{}, error) {
		item, err := s.catalog.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		description, ok := s.interpreter.describeStored(ctx, *item)
		item.Description = description
		if !ok {
			s.logger.Warn("description not regenerated, keeping stored copy", zap.String("product_id", id))
			return item, nil
		}

		if err := s.catalog.UpdateDescription(ctx, id, description); err != nil {
			return nil, err
		}

		s.invalidate(ctx)
		return item, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		s.logger.Debug("description regeneration coalesced", zap.String("product_id", id))
	}

	updated := *v.(*domain.CatalogItem)
	return &updated, nil
}

// invalidate drops every cached catalog read
func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, cacheKeyPrefix); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

// normalizeFilter validates a filter and clamps its limit
func normalizeFilter(filter domain.ProductFilter) (domain.ProductFilter, error) {
	if filter.Category != "" {
		c, ok := domain.ParseCategory(string(filter.Category))
		if !ok {
			return filter, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidRequest, filter.Category)
		}
		filter.Category = c
	}
	if filter.MinPrice < 0 || filter.MaxPrice < 0 {
		return filter, fmt.Errorf("%w: prices must not be negative", domain.ErrInvalidRequest)
	}
	if filter.MaxPrice > 0 && filter.MinPrice > filter.MaxPrice {
		return filter, fmt.Errorf("%w: minPrice is greater than maxPrice", domain.ErrInvalidRequest)
	}
	if filter.Limit < 0 {
		return filter, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidRequest)
	}
	if filter.Limit > maxProductLimit {
		filter.Limit = maxProductLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return filter, nil
}

// listCacheKey creates a normalized cache key from a filter.
// Format: "catalog:list:{category}:{featured}:{min}:{max}:{search}:{limit}"
func listCacheKey(filter domain.ProductFilter) string {
	return fmt.Sprintf("%slist:%s:%t:%s:%s:%s:%d",
		cacheKeyPrefix,
		filter.Category,
		filter.Featured,
		strconv.FormatFloat(filter.MinPrice, 'f', -1, 64),
		strconv.FormatFloat(filter.MaxPrice, 'f', -1, 64),
		normalizeForCacheKey(filter.Search),
		filter.EffectiveLimit(),
	)
}

// normalizeForCacheKey normalizes a string for use as cache key component.
// Searches are case-insensitive, so case and spacing are folded.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = multiSpacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// getFromCache decodes a cached value into dst. Cached values come back
// as generic JSON shapes, so they are re-encoded into the concrete type.
func (s *CatalogService) getFromCache(ctx context.Context, key string, dst interface{}) bool {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Debug("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// setInCache stores a value; failures are logged, never returned
func (s *CatalogService) setInCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
