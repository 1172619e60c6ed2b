package domain

import "errors"

var (
	// ErrGateway is returned when the generative text endpoint fails
	// (transport error, non-2xx status, timeout, missing candidates)
	ErrGateway = errors.New("text generation gateway failed")

	// ErrParse is returned when the model answered but its output has no usable structure
	ErrParse = errors.New("unable to parse model output")

	// ErrConfig is returned when required configuration is missing or invalid
	ErrConfig = errors.New("invalid configuration")

	// ErrProductNotFound is returned when a product cannot be found in the catalog
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrCatalogUnavailable is returned when the catalog store cannot be queried
	ErrCatalogUnavailable = errors.New("catalog store unavailable")
)
