// Package lock provides per-partition mutual exclusion for schedule mutations.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stemsi/cohortsched-backend/internal/config"
)

// ErrLocked is returned when another mutation already holds the partition lease.
var ErrLocked = errors.New("partition is locked")

// Lease is a held lock. Release is safe to call more than once.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive leases on cohort partitions.
type Locker interface {
	Acquire(ctx context.Context, partition string) (Lease, error)
}

// releaseScript deletes the key only while it still carries our token, so an expired
// lease never releases a lock that has since been taken by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry forward only while the key still carries our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX leases. A held lease is renewed every
// third of its ttl until released, so ttl only bounds how long a crashed holder keeps
// the partition.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLocker creates a locker whose leases expire after ttl if never released.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, partition string) (Lease, error) {
	key := config.CacheKey.PartitionLockKey(partition)
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, partition)
	}
	lease := &redisLease{rdb: l.rdb, key: key, token: token, stop: make(chan struct{})}
	if every := l.ttl / 3; every > 0 {
		go renew(lease.stop, every, func() (bool, error) {
			ctx, cancel := context.WithTimeout(context.Background(), every)
			defer cancel()
			return lease.extend(ctx, l.ttl)
		})
	}
	return lease, nil
}

// renew calls extend every period until stop is closed or extend reports the lease is
// no longer ours. Errors are retried on the next tick.
func renew(stop <-chan struct{}, every time.Duration, extend func() (bool, error)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			held, err := extend()
			if err == nil && !held {
				return
			}
		}
	}
}

type redisLease struct {
	rdb   *redis.Client
	key   string
	token string
	stop  chan struct{}
	once  sync.Once
}

func (l *redisLease) extend(ctx context.Context, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.rdb, []string{l.key}, l.token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("extend lease %s: %w", l.key, err)
	}
	return n == 1, nil
}

func (l *redisLease) Release(ctx context.Context) error {
	released := true
	l.once.Do(func() {
		released = false
		close(l.stop)
	})
	if released {
		return nil
	}
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lease %s: %w", l.key, err)
	}
	return nil
}

// Nop never blocks. Used by CLIs and tests that run without Redis.
type Nop struct{}

func (Nop) Acquire(context.Context, string) (Lease, error) { return nopLease{}, nil }

type nopLease struct{}

func (nopLease) Release(context.Context) error { return nil }
