package service

import (
	"context"
	"errors"
	"time"

	"deadlock-tracker/internal/api"
	"deadlock-tracker/internal/constants"
	"deadlock-tracker/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// Retrier is the caller-side retry policy for upstream fetches: at most
// MaxFetchAttempts attempts including the first, with exponential backoff.
// 404s, validation failures and context errors are returned immediately.
type Retrier struct {
	attempts uint64
	base     time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewRetrier(m *metrics.Metrics, logger zerolog.Logger) *Retrier {
	return &Retrier{
		attempts: constants.MaxFetchAttempts,
		base:     constants.RetryBaseDelay,
		metrics:  m,
		logger:   logger,
	}
}

func (r *Retrier) backoff() retry.Backoff {
	b := retry.NewExponential(r.base)
	b = retry.WithJitterPercent(10, b)
	return retry.WithMaxRetries(r.attempts-1, b)
}

func retryable(err error) bool {
	switch {
	case api.IsNotFound(err), api.IsValidation(err):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// Fetch runs fn under the retry policy. endpoint labels logs and metrics.
func Fetch[T any](ctx context.Context, r *Retrier, endpoint string, fn func(context.Context) (T, error)) (T, error) {
	var (
		result  T
		attempt int
	)
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			r.metrics.IncRetry(endpoint)
		}
		v, err := fn(ctx)
		if err == nil {
			result = v
			return nil
		}
		if !retryable(err) {
			return err
		}
		r.logger.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Msg("upstream fetch attempt failed")
		return retry.RetryableError(err)
	})
	return result, err
}
