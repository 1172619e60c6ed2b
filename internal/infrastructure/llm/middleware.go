package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rjgems/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// GeneratorFunc adapts a plain function to domain.TextGenerator
type GeneratorFunc func(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// WithRateLimit blocks each call until limiter allows it. A call whose
// context ends while waiting fails with ErrRateLimited.
func WithRateLimit(next domain.TextGenerator, limiter *rate.Limiter) domain.TextGenerator {
	return GeneratorFunc(func(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
		if err := limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %w: %v", domain.ErrGateway, domain.ErrRateLimited, err)
		}
		return next.Generate(ctx, prompt, opts)
	})
}

const retryBaseDelay = 250 * time.Millisecond

// WithRetry retries a failed gateway call once after a short jittered pause.
// Calls refused by the rate limiter are not retried.
func WithRetry(next domain.TextGenerator, logger *zap.Logger) domain.TextGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return GeneratorFunc(func(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
		text, err := next.Generate(ctx, prompt, opts)
		if err == nil || !errors.Is(err, domain.ErrGateway) || errors.Is(err, domain.ErrRateLimited) || ctx.Err() != nil {
			return text, err
		}

		delay := retryBaseDelay + rand.N(retryBaseDelay)
		logger.Debug("retrying llm call", zap.Duration("delay", delay), zap.Error(err))

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", err
		case <-timer.C:
		}

		return next.Generate(ctx, prompt, opts)
	})
}
