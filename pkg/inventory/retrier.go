package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds the retry loop around transient inventory failures.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first. Zero means a
	// single attempt.
	MaxRetries uint64
	// InitialInterval seeds the exponential backoff. Zero picks a default.
	InitialInterval time.Duration
}

// Retrier wraps a Client and retries ErrUnavailable with exponential backoff
// and jitter. Conflict and not-found errors are decisive and pass through on
// the first occurrence. The wrapped adjustment keeps its token across
// attempts, so a server that applied a timed-out attempt can drop duplicates.
type Retrier struct {
	next Client
	cfg  RetryConfig
}

// NewRetrier wraps next with the given retry policy.
func NewRetrier(next Client, cfg RetryConfig) *Retrier {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	return &Retrier{next: next, cfg: cfg}
}

// GetProduct retries transient failures of the wrapped GetProduct.
func (r *Retrier) GetProduct(ctx context.Context, productID string) (Product, error) {
	var p Product
	err := backoff.Retry(func() error {
		var err error
		p, err = r.next.GetProduct(ctx, productID)
		return permanentUnlessUnavailable(err)
	}, r.policy(ctx))
	return p, err
}

// AdjustStock retries transient failures of the wrapped AdjustStock, reusing
// the same adjustment (and token) on every attempt.
func (r *Retrier) AdjustStock(ctx context.Context, adj Adjustment) error {
	return backoff.Retry(func() error {
		return permanentUnlessUnavailable(r.next.AdjustStock(ctx, adj))
	}, r.policy(ctx))
}

func (r *Retrier) policy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	return backoff.WithContext(backoff.WithMaxRetries(b, r.cfg.MaxRetries), ctx)
}

func permanentUnlessUnavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return backoff.Permanent(err)
}
