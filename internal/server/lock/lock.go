// Package lock serializes work per key (a username) so that concurrent
// provisioning of the same account cannot both take the new-account branch.
package lock

import (
	"context"
	"hash/fnv"
)

// Locker runs fn while holding the lock for key. The lock is released when fn
// returns, whatever its result. If the lock cannot be obtained fn is not
// called.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Nop performs no serialization.
type Nop struct{}

func (Nop) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// LockID maps key to a stable 64-bit identifier for PostgreSQL advisory locks.
func LockID(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}
