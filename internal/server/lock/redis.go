package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tenantkeeper/internal/common"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "tenantkeeper:lock:"
	defaultRedisTTL    = 30 * time.Second
	defaultRedisWait   = 10 * time.Second
	defaultRedisPeriod = 50 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// redisClient is the part of *redis.Client the locker needs.
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLocker coordinates several processes through a shared Redis. The lock
// is a key set with NX and a TTL; the TTL bounds how long a dead holder can
// block others.
type RedisLocker struct {
	client redisClient
	ttl    time.Duration
	wait   time.Duration
	period time.Duration
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithTTL sets the lock expiry.
func WithTTL(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.ttl = d
		}
	}
}

// WithWait sets how long WithLock retries before common.ErrLockTimeout.
func WithWait(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.wait = d
		}
	}
}

// WithRetryPeriod sets the pause between acquisition attempts.
func WithRetryPeriod(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.period = d
		}
	}
}

// NewRedisLocker wraps an existing client.
func NewRedisLocker(client redisClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client: client,
		ttl:    defaultRedisTTL,
		wait:   defaultRedisWait,
		period: defaultRedisPeriod,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// NewRedisClient opens a client for addr.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token, err := common.MakeRandHexString(16)
	if err != nil {
		return fmt.Errorf("lock token: %w", err)
	}

	rkey := redisKeyPrefix + key
	if err := l.acquire(ctx, rkey, token); err != nil {
		return err
	}
	defer l.release(rkey, token)

	return fn(ctx)
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return common.ErrLockTimeout
		}

		t := time.NewTimer(l.period)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	// the caller's context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// a failed release is reclaimed by the TTL
	_ = l.client.Eval(ctx, releaseScript, []string{key}, token).Err()
}
