// Package embedding wraps an embedding provider with the pipeline-facing
// contract: empty-input short-circuit and bounded exponential-backoff retry.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
	"github.com/Arthursca/multi-agent-medico/internal/metrics"
)

// Policy is an explicit retry policy: attempt budget, backoff schedule and
// a retryable-error predicate, unit-testable apart from any network call.
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
	Retryable      func(error) bool
}

// DefaultPolicy matches the ingestion contract: 3 attempts total,
// exponential backoff from 1s capped at 60s, 30s per attempt.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		MaxDelay:       60 * time.Second,
		AttemptTimeout: 30 * time.Second,
		Retryable:      DefaultRetryable,
	}
}

// DefaultRetryable treats every failure as transient except a
// misconfigured provider and caller cancellation. A per-attempt timeout
// is transient: the next attempt gets a fresh deadline.
func DefaultRetryable(err error) bool {
	return !errors.Is(err, domain.ErrProviderNotImplemented) &&
		!errors.Is(err, context.Canceled)
}

// Delay returns the backoff before the given attempt (1-based retry count).
func (p Policy) Delay(retry int) time.Duration {
	d := p.BaseDelay << (retry - 1)
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

// Client is the Embedder handed to the pipeline and the ingestion driver.
type Client struct {
	inner  domain.Embedder
	policy Policy
	logger *zap.Logger
}

// New wraps inner with the retry policy.
func New(inner domain.Embedder, policy Policy, logger *zap.Logger) *Client {
	return &Client{inner: inner, policy: policy, logger: logger}
}

// Embed returns the vector for text. Empty input returns a nil vector
// immediately, with no provider call. Transient failures are retried per
// the policy; the last error is surfaced once the budget is spent.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		c.logger.Warn("Empty text received for embedding; returning empty vector")
		return nil, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			metrics.EmbeddingRetriesTotal.WithLabelValues("openai").Inc()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.policy.Delay(attempt - 1)):
			}
		}

		vec, err := c.embedOnce(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if !c.policy.Retryable(err) {
			return nil, err
		}
		c.logger.Warn("Embedding attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.policy.MaxAttempts),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", c.policy.MaxAttempts, lastErr)
}

func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	if c.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.AttemptTimeout)
		defer cancel()
	}
	return c.inner.Embed(ctx, text)
}
