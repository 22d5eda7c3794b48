// Package retry runs fallible operations under an explicit fixed-delay policy.
package retry

import (
	"context"
	"errors"
	"time"

	"marketmaker-bot/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Policy describes how one call site retries. The zero Retryable retries nothing.
type Policy struct {
	Name        string
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
	Log         *zap.Logger
}

// HTTP is used for brokerage and market-data calls.
func HTTP(name string, log *zap.Logger) Policy {
	return Policy{Name: name, MaxAttempts: 3, Delay: time.Second, Retryable: IsNetwork, Log: log}
}

// OrderPlacement retries harder than HTTP.
func OrderPlacement(name string, log *zap.Logger) Policy {
	return Policy{Name: name, MaxAttempts: 10, Delay: time.Second, Retryable: IsNetwork, Log: log}
}

// QuoteTable retries only while the quote table is not yet populated.
func QuoteTable(name string, log *zap.Logger) Policy {
	return Policy{Name: name, MaxAttempts: 3, Delay: 5 * time.Second, Retryable: IsDataUnavailable, Log: log}
}

func IsNetwork(err error) bool {
	var re *domain.RemoteError
	var te *domain.TransportError
	return errors.As(err, &re) || errors.As(err, &te)
}

func IsDataUnavailable(err error) bool {
	return errors.Is(err, domain.ErrDataUnavailable)
}

// Do executes op until it succeeds, fails with a non-retryable error or the
// attempt budget is spent. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("op", p.Name))
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if maxAttempts > 1 {
		// WithMaxRetries(b, 0) means unlimited, so the single-attempt case stays on StopBackOff.
		b = backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(maxAttempts-1))
	}

	var (
		out     T
		attempt int
	)
	operation := func() error {
		attempt++
		v, err := op(ctx)
		if err != nil {
			if p.Retryable == nil || !p.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = v
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("retry.attempt_failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		if attempt >= maxAttempts && (p.Retryable != nil && p.Retryable(err)) {
			log.Error("retry.exhausted", zap.Int("attempts", attempt), zap.Error(err))
		}
		var zero T
		return zero, err
	}
	return out, nil
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, op func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
