package domain

import (
	"context"
	"slices"
)

// LockKey names one serialisation domain: an account, an escrow or an order.
type LockKey string

func AccountKey(account string) LockKey { return LockKey("account:" + account) }
func EscrowKey(escrowID string) LockKey { return LockKey("escrow:" + escrowID) }
func OrderKey(orderID string) LockKey   { return LockKey("order:" + orderID) }

// SortKeys returns the distinct keys in the global acquisition order.
func SortKeys(keys []LockKey) []LockKey {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// TxManager runs fn as one unit of work. All keys are held for the duration of fn
// and acquired in SortKeys order. Writes made through repositories with the ctx
// passed to fn become visible together when fn returns nil and are discarded otherwise.
// A nested call joins the outer unit of work and may only name keys it already holds.
// Callbacks registered with AfterCommit run after the commit, before the keys are released.
type TxManager interface {
	WithinTx(ctx context.Context, keys []LockKey, fn func(ctx context.Context) error) error
}

type commitHooksKey struct{}

type commitHooks struct {
	fns []func()
}

// WithCommitHooks prepares ctx to collect AfterCommit callbacks for one unit of
// work. The TxManager calls run after a successful commit and before it releases
// the unit's keys.
func WithCommitHooks(ctx context.Context) (context.Context, func()) {
	h := &commitHooks{}
	run := func() {
		for _, fn := range h.fns {
			fn()
		}
	}
	return context.WithValue(ctx, commitHooksKey{}, h), run
}

// AfterCommit schedules fn to run once the enclosing unit of work commits, while
// its keys are still held. It is dropped if the unit of work fails. Without an
// enclosing unit of work it reports false and fn is not scheduled.
func AfterCommit(ctx context.Context, fn func()) bool {
	h, ok := ctx.Value(commitHooksKey{}).(*commitHooks)
	if !ok {
		return false
	}
	h.fns = append(h.fns, fn)
	return true
}
