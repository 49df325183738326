// Package lock serializes work that contends for the same key, either in
// process or across replicas through Redis.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned when a key stays held for longer than the
// locker's wait budget.
var ErrTimeout = errors.New("lock wait timed out")

// Release frees a held key. Calling it more than once is a no-op.
type Release func()

// Locker grants exclusive ownership of a key until the returned Release runs.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is a Locker local to one process. Entries are dropped once no
// caller holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
	wait  time.Duration
}

// NewKeyedMutex returns a KeyedMutex whose Acquire gives up after wait.
// A zero wait blocks until the context ends.
func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock), wait: wait}
}

func (m *KeyedMutex) Acquire(ctx context.Context, key string) (Release, error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	waitCtx, cancel := withWait(ctx, m.wait)
	defer cancel()

	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.ch
				m.unref(key, l)
			})
		}, nil
	case <-waitCtx.Done():
		m.unref(key, l)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrTimeout
	}
}

func (m *KeyedMutex) unref(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

func withWait(ctx context.Context, wait time.Duration) (context.Context, context.CancelFunc) {
	if wait <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, wait)
}
