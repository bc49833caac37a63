package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockSetExclusive(t *testing.T) {
	l := NewLockSet()
	keys := []domain.LockKey{domain.AccountKey("a")}

	release, err := l.Acquire(context.Background(), keys)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := l.Acquire(context.Background(), keys)
		if err == nil {
			close(acquired)
			r()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while the key was held")
	case <-time.After(50 * time.Millisecond):
	}
	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never succeeded")
	}
}

func TestLockSetCancelReleasesPartialAcquire(t *testing.T) {
	l := NewLockSet()
	held, err := l.Acquire(context.Background(), []domain.LockKey{"b"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, []domain.LockKey{"a", "b"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// "a" was taken and must have been released again.
	r, err := l.Acquire(context.Background(), []domain.LockKey{"a"})
	require.NoError(t, err)
	r()
	held()
	assert.Zero(t, l.Len())
}

// Opposite declaration orders cannot deadlock because keys are sorted.
func TestLockSetNoDeadlockOnOppositeOrder(t *testing.T) {
	l := NewLockSet()
	ab := []domain.LockKey{"a", "b"}
	ba := []domain.LockKey{"b", "a"}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		for _, keys := range [][]domain.LockKey{ab, ba} {
			go func(keys []domain.LockKey) {
				defer wg.Done()
				r, err := l.Acquire(context.Background(), keys)
				if err == nil {
					r()
				}
			}(keys)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lock acquisition deadlocked")
	}
	assert.Zero(t, l.Len())
}
