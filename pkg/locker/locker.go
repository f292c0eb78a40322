// Package locker provides distributed locking for serializing writes
// across sessions and service instances.
package locker

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned by WithLock when the lock is held elsewhere.
var ErrNotAcquired = errors.New("lock not acquired")

// DistributedLocker provides distributed lock capabilities across multiple instances.
// Implementations must be safe for concurrent use.
type DistributedLocker interface {
	// Acquire attempts to acquire the lock for key.
	// Returns true if the lock was acquired, false if another owner holds it.
	// The lock expires after ttl if not released.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release releases the lock identified by key.
	// Safe to call when this instance does not own the lock (no-op).
	Release(ctx context.Context, key string) error
}

// Lease is one successful acquisition of a lock. Releasing it frees the lock
// only while this acquisition still holds it.
type Lease interface {
	Release(ctx context.Context) error
}

// LeaseLocker is implemented by lockers that hand out a Lease per acquisition,
// so a holder whose ttl lapsed cannot free the lock of the next holder.
type LeaseLocker interface {
	// AcquireLease returns a nil Lease (no error) when another owner holds key.
	AcquireLease(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// WithLock runs fn while holding the lock for key.
// It returns ErrNotAcquired without running fn when the lock is held elsewhere.
// A failed release is reported only when fn itself succeeded.
func WithLock(ctx context.Context, l DistributedLocker, key string, ttl time.Duration, fn func(ctx context.Context) error) (err error) {
	release, err := acquire(ctx, l, key, ttl)
	if err != nil {
		return err
	}

	defer func() {
		// release with a fresh context so a canceled request still frees the lock
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if releaseErr := release(releaseCtx); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()

	return fn(ctx)
}

func acquire(ctx context.Context, l DistributedLocker, key string, ttl time.Duration) (func(context.Context) error, error) {
	if ll, ok := l.(LeaseLocker); ok {
		lease, err := ll.AcquireLease(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if lease == nil {
			return nil, ErrNotAcquired
		}
		return lease.Release, nil
	}

	acquired, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrNotAcquired
	}
	return func(ctx context.Context) error { return l.Release(ctx, key) }, nil
}
