package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// MinBackoff is the lower bound of the randomized backoff.
	MinBackoff time.Duration

	// MaxBackoff is the upper bound of the randomized backoff (inclusive).
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration: 3 attempts with
// a backoff drawn uniformly from [20s, 40s].
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		MinBackoff:  20 * time.Second,
		MaxBackoff:  40 * time.Second,
	}
}

// Validate checks the configuration bounds.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1 (got %d)", c.MaxAttempts)
	}
	if c.MinBackoff < 0 {
		return fmt.Errorf("min_backoff must be >= 0 (got %s)", c.MinBackoff)
	}
	if c.MaxBackoff < c.MinBackoff {
		return fmt.Errorf("max_backoff must be >= min_backoff (got %s < %s)", c.MaxBackoff, c.MinBackoff)
	}
	return nil
}

// Backoff draws a delay uniformly from [MinBackoff, MaxBackoff].
func (c RetryConfig) Backoff() time.Duration {
	span := int64(c.MaxBackoff - c.MinBackoff)
	if span <= 0 {
		return c.MinBackoff
	}
	return c.MinBackoff + time.Duration(rand.Int64N(span+1))
}

// RetryExecutionTimeExceeded reports whether err is a transaction cancelled
// for exceeding the server's execution time. It is the retry predicate used
// for page fetches.
func RetryExecutionTimeExceeded(err error) bool {
	errorClass := errorClassOf(err)
	log.Debug().Str("error_class", string(errorClass)).Msg("Checking error for retry candidacy")
	if shouldRetry(errorClass) {
		log.Debug().Err(err).Msg("Execution time exceeded - retrying in a few seconds")
		return true
	}
	return false
}

// retryWithBackoff executes fn until it succeeds, fails with an error
// retryable rejects, or config.MaxAttempts is reached.
// It respects context cancellation between attempts.
func retryWithBackoff(ctx context.Context, config RetryConfig, fn func(attempt int) error, retryable func(error) bool) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		// Execute the function
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				log.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		errorClass := string(errorClassOf(err))

		// Terminal errors propagate unchanged
		if !retryable(err) {
			return lastErr
		}

		// If this was the last attempt, don't wait
		if attempt >= config.MaxAttempts {
			break
		}

		// Record retry metrics
		snRetriesTotal.WithLabelValues(errorClass).Inc()

		backoff := config.Backoff()
		snRetryBackoffSeconds.WithLabelValues(errorClass).Observe(backoff.Seconds())

		log.Warn().
			Err(err).
			Str("error_class", errorClass).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		// Wait with context cancellation support
		select {
		case <-ctx.Done():
			log.Warn().
				Str("error_class", errorClass).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-time.After(backoff):
			// Continue to next attempt
		}
	}

	// All retries exhausted
	errorClass := string(errorClassOf(lastErr))
	snRetryExhaustedTotal.WithLabelValues(errorClass).Inc()
	log.Error().
		Err(lastErr).
		Str("error_class", errorClass).
		Int("max_attempts", config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, config.MaxAttempts, lastErr)
}
