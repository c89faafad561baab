package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/tenantkeeper/internal/common"
	"golang.org/x/sync/semaphore"
)

// LocalLocker serializes callers inside one process. Each key gets a
// weight-one semaphore that is dropped once nobody holds or waits on it.
type LocalLocker struct {
	wait time.Duration

	mu   sync.Mutex
	keys map[string]*localEntry
}

type localEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// NewLocalLocker returns a LocalLocker. A positive wait bounds how long
// WithLock blocks before failing with common.ErrLockTimeout.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{wait: wait, keys: make(map[string]*localEntry)}
}

func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	e := l.ref(key)
	defer l.unref(key)

	if err := l.acquire(ctx, e.sem); err != nil {
		return err
	}
	defer e.sem.Release(1)

	return fn(ctx)
}

func (l *LocalLocker) acquire(ctx context.Context, sem *semaphore.Weighted) error {
	if l.wait <= 0 {
		return sem.Acquire(ctx, 1)
	}

	wctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	err := sem.Acquire(wctx, 1)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return common.ErrLockTimeout
	}
	return err
}

func (l *LocalLocker) ref(key string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.keys[key]
	if !ok {
		e = &localEntry{sem: semaphore.NewWeighted(1)}
		l.keys[key] = e
	}
	e.refs++
	return e
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.keys[key]
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}

// size reports how many keys are tracked.
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
