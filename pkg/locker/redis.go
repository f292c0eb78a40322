package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options tunes how hard Acquire tries before reporting contention.
type Options struct {
	// Tries is the number of acquisition attempts. 1 makes Acquire non-blocking.
	Tries int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
}

// DefaultOptions returns non-blocking acquisition.
func DefaultOptions() Options {
	return Options{Tries: 1, RetryDelay: 50 * time.Millisecond}
}

// RedisLocker implements DistributedLocker with redsync (Redlock over go-redis).
type RedisLocker struct {
	rs      *redsync.Redsync
	logger  *zap.Logger
	opts    Options
	mutexes map[string]*redsync.Mutex
	mu      sync.Mutex
}

var (
	_ DistributedLocker = (*RedisLocker)(nil)
	_ LeaseLocker       = (*RedisLocker)(nil)
)

// NewRedisLocker creates a new Redis-based distributed locker.
func NewRedisLocker(client *redis.Client, logger *zap.Logger, opts Options) *RedisLocker {
	if opts.Tries < 1 {
		opts.Tries = 1
	}
	pool := goredis.NewPool(client)

	return &RedisLocker{
		rs:      redsync.New(pool),
		logger:  logger,
		opts:    opts,
		mutexes: make(map[string]*redsync.Mutex),
	}
}

// Acquire tries to take the lock for key, expiring after ttl.
// Returns false (no error) when another holder keeps it for all configured tries.
// A later Release(key) frees the most recent acquisition of key by this locker;
// use AcquireLease or WithLock when holders may overlap after a ttl lapse.
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	mutex, err := r.lock(ctx, key, ttl)
	if err != nil || mutex == nil {
		return false, err
	}

	r.mu.Lock()
	r.mutexes[key] = mutex
	r.mu.Unlock()

	return true, nil
}

// Release releases the lock if this instance owns it. Releasing a lock
// it does not own is a no-op.
func (r *RedisLocker) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	mutex, exists := r.mutexes[key]
	if exists {
		delete(r.mutexes, key)
	}
	r.mu.Unlock()

	if !exists {
		return nil
	}

	return r.unlock(ctx, key, mutex)
}

// AcquireLease takes the lock for key and returns a Lease bound to this
// acquisition's mutex. Returns a nil Lease when the lock is held elsewhere.
func (r *RedisLocker) AcquireLease(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	mutex, err := r.lock(ctx, key, ttl)
	if err != nil || mutex == nil {
		return nil, err
	}

	return &redisLease{locker: r, key: key, mutex: mutex}, nil
}

// lock returns a held mutex, or nil when another owner keeps the lock.
func (r *RedisLocker) lock(ctx context.Context, key string, ttl time.Duration) (*redsync.Mutex, error) {
	mutex := r.rs.NewMutex(
		key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(r.opts.Tries),
		redsync.WithRetryDelay(r.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if isContention(err) {
			r.logger.Debug("lock held by another owner",
				zap.String("key", key),
				zap.Int("tries", r.opts.Tries),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	r.logger.Debug("lock acquired",
		zap.String("key", key),
		zap.Duration("ttl", ttl),
	)

	return mutex, nil
}

// unlock frees mutex. redsync only deletes the key while it still carries this
// mutex's value, so a lapsed holder never frees the next holder's lock.
func (r *RedisLocker) unlock(ctx context.Context, key string, mutex *redsync.Mutex) error {
	ok, err := mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	if !ok {
		r.logger.Warn("lock expired before release", zap.String("key", key))
	}

	return nil
}

type redisLease struct {
	locker *RedisLocker
	key    string
	mutex  *redsync.Mutex
	once   sync.Once
	err    error
}

// Release frees this acquisition. Calling it more than once is a no-op.
func (l *redisLease) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.err = l.locker.unlock(ctx, l.key, l.mutex)
	})
	return l.err
}

// isContention reports whether err means the lock is held elsewhere.
func isContention(err error) bool {
	if errors.Is(err, redsync.ErrFailed) {
		return true
	}
	var taken *redsync.ErrTaken
	return errors.As(err, &taken)
}
