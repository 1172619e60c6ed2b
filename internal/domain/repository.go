package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// CatalogRepository is the product store (sqlite or in-memory)
type CatalogRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]CatalogItem, error)
	Get(ctx context.Context, id string) (*CatalogItem, error)
	UpdateDescription(ctx context.Context, id, description string) error
}

// TextGenerator is the gateway to a generative text endpoint.
// Implementations make exactly one upstream call per Generate and wrap
// every failure in ErrGateway.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}
