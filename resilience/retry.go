package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	// Zero or one disables retries.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=0"`
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64 `yaml:"backoff_factor" mapstructure:"backoff_factor" validate:"min=0"`
	// Jitter adds randomness to backoff (0.0 to 1.0).
	Jitter float64 `yaml:"jitter" mapstructure:"jitter" validate:"min=0,max=1"`
}

// ApplyDefaults sets default values for unset fields. Retries stay off
// unless MaxAttempts is set above one.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 50 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 2 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
}

// RetryOption adjusts a single Retry call.
type RetryOption func(*retryOptions)

type retryOptions struct {
	retryIf func(error) bool
	onRetry func(attempt int, err error, backoff time.Duration)
}

// RetryIf limits retries to errors for which pred returns true.
// Without it every error except context cancellation is retried.
func RetryIf(pred func(error) bool) RetryOption {
	return func(o *retryOptions) { o.retryIf = pred }
}

// OnRetry is called before each wait.
func OnRetry(fn func(attempt int, err error, backoff time.Duration)) RetryOption {
	return func(o *retryOptions) { o.onRetry = fn }
}

// Retry calls fn until it succeeds, returns a non-retryable error, or
// cfg.MaxAttempts is reached. The last error is returned unchanged.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error), opts ...RetryOption) (T, error) {
	var zero T
	cfg.ApplyDefaults()
	o := retryOptions{retryIf: func(err error) bool { return !isContextErr(err) }}
	for _, opt := range opts {
		opt(&o)
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxAttempts || !o.retryIf(err) {
			return zero, err
		}

		backoff := calculateBackoff(attempt, cfg)
		if o.onRetry != nil {
			o.onRetry(attempt, err, backoff)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// calculateBackoff returns initial * factor^(attempt-1), jittered and capped.
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * cfg.Jitter
	}
	if d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	if d < 0 {
		d = float64(cfg.InitialBackoff)
	}
	return time.Duration(d)
}
