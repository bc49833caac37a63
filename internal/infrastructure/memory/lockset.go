package memory

import (
	"context"
	"sync"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// LockSet hands out one exclusive lock per key. Entries are dropped when no
// goroutine holds or waits for them.
type LockSet struct {
	mu    sync.Mutex
	locks map[domain.LockKey]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLockSet() *LockSet {
	return &LockSet{locks: make(map[domain.LockKey]*keyLock)}
}

// Acquire takes every key in domain.SortKeys order. On a cancelled context it
// releases whatever it already took and returns the context error.
func (l *LockSet) Acquire(ctx context.Context, keys []domain.LockKey) (func(), error) {
	sorted := domain.SortKeys(keys)
	held := make([]domain.LockKey, 0, len(sorted))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}

	for _, key := range sorted {
		kl := l.ref(key)
		select {
		case kl.ch <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			l.unref(key)
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func (l *LockSet) ref(key domain.LockKey) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *LockSet) unref(key domain.LockKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl := l.locks[key]
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *LockSet) unlock(key domain.LockKey) {
	l.mu.Lock()
	kl := l.locks[key]
	l.mu.Unlock()
	<-kl.ch
	l.unref(key)
}

// Len is the number of keys currently held or awaited.
func (l *LockSet) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
