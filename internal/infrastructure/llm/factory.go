package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rjgems/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Provider names accepted by NewTextGenerator
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Options configures the generator returned by NewTextGenerator
type Options struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	CallsPerMin int  // 0 disables the limiter
	RetryOnce   bool // retry a failed call once before giving up
}

// NewTextGenerator builds the configured provider and wraps it with the rate limiter
// and, when enabled, a single retry.
func NewTextGenerator(ctx context.Context, opts Options, logger *zap.Logger) (domain.TextGenerator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: LLM API key is required", domain.ErrConfig)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}

	var (
		gen domain.TextGenerator
		err error
	)
	switch opts.Provider {
	case ProviderGemini, "":
		gen, err = NewGeminiClient(ctx, opts.APIKey, opts.Model, opts.BaseURL, opts.Timeout)
	case ProviderOpenAI:
		gen, err = NewOpenAIClient(opts.APIKey, opts.Model, opts.BaseURL, opts.Timeout)
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", domain.ErrConfig, opts.Provider)
	}
	if err != nil {
		return nil, err
	}

	gen = decorate(gen, opts, logger)

	logger.Info("llm gateway ready",
		zap.String("provider", providerName(opts.Provider)),
		zap.Bool("retry_once", opts.RetryOnce),
		zap.Int("calls_per_min", opts.CallsPerMin),
	)
	return gen, nil
}

// decorate wraps gen with the limiter and then the retry, so every attempt,
// retries included, waits for its own token.
func decorate(gen domain.TextGenerator, opts Options, logger *zap.Logger) domain.TextGenerator {
	if opts.CallsPerMin > 0 {
		limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.CallsPerMin)), opts.CallsPerMin)
		gen = WithRateLimit(gen, limiter)
	}
	if opts.RetryOnce {
		gen = WithRetry(gen, logger)
	}
	return gen
}

func providerName(p string) string {
	if p == "" {
		return ProviderGemini
	}
	return p
}
