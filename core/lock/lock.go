package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const retryDelay = 500 * time.Millisecond

// Service hands out distributed leases backed by the shared KV server.
// A holder is guaranteed exclusivity for the lease duration; if the holder
// dies without releasing, the lease expires on its own.
type Service struct {
	rs     *redsync.Redsync
	client redis.UniversalClient
	prefix string
}

// New creates a lock service. Lock keys live under prefix+"lock:".
func New(client redis.UniversalClient, prefix string) *Service {
	return &Service{
		rs:     redsync.New(goredis.NewPool(client)),
		client: client,
		prefix: prefix,
	}
}

// Lease is a held lock. Release is idempotent and only ever removes the
// lease identified by this holder's fencing token.
type Lease struct {
	mutex *redsync.Mutex

	mu       sync.Mutex
	released bool
}

// Acquire blocks up to wait for mutual exclusion on key. On success the
// returned lease is exclusive for the lease duration. When the wait budget
// elapses without the lock becoming free, ErrNotAcquired is returned.
func (s *Service) Acquire(ctx context.Context, key string, lease, wait time.Duration) (*Lease, error) {
	tries := int(wait/retryDelay) + 1

	mutex := s.rs.NewMutex(
		s.prefix+"lock:"+key,
		redsync.WithExpiry(lease),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(retryDelay),
		redsync.WithGenValueFunc(func() (string, error) {
			return uuid.NewString(), nil
		}),
	)

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if err := mutex.LockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrFailed) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrNotAcquired
		}
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) {
			return nil, ErrNotAcquired
		}
		return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
	}

	return &Lease{mutex: mutex}, nil
}

// Token returns the fencing value that identifies this holder.
func (l *Lease) Token() string {
	return l.mutex.Value()
}

// Release gives the lease back. Safe to call more than once; a lease that
// already expired is not an error.
func (l *Lease) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return nil
	}
	l.released = true

	if _, err := l.mutex.UnlockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrLockAlreadyExpired) {
			return nil
		}
		return fmt.Errorf("lock: release %s: %w", l.mutex.Name(), err)
	}
	return nil
}

// SetFlag sets an advisory flag key with a TTL. Used as the fail-safe
// blocker after an issuance error: while it exists, renewal for the domain
// is not attempted.
func (s *Service) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+"lock:"+key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("lock: set flag %s: %w", key, err)
	}
	return nil
}

// HasFlag reports whether the advisory flag is currently set.
func (s *Service) HasFlag(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+"lock:"+key).Result()
	if err != nil {
		return false, fmt.Errorf("lock: check flag %s: %w", key, err)
	}
	return n > 0, nil
}
