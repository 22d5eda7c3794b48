package application

import "context"

// Lease keeps two refresher instances from working the same account at once.
type Lease interface {
	// TryAcquire returns true if the caller holds the lease after the call,
	// either freshly acquired or renewed.
	TryAcquire(ctx context.Context, owner string) (bool, error)
}

// NoopLease is always held; used when no lease backend is configured.
type NoopLease struct{}

func (NoopLease) TryAcquire(context.Context, string) (bool, error) { return true, nil }
