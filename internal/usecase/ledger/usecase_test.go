package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/clock"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var treasury = domain.Caller{ID: "vault", Role: domain.RoleTreasury}

func newLedger(t *testing.T) (*DefaultLedgerUsecase, *metrics.EscrowMetrics) {
	t.Helper()
	store := memory.NewStore()
	m := metrics.NewEscrowMetrics(prometheus.NewRegistry())
	clk := clock.NewFixed(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	return NewDefaultLedgerUsecase(store, store, clk, m), m
}

func balance(t *testing.T, uc *DefaultLedgerUsecase, account, token string) domain.Balance {
	t.Helper()
	b, err := uc.GetBalance(context.Background(), account, token)
	require.NoError(t, err)
	return b
}

func TestLedgerReserveReleaseCycle(t *testing.T) {
	uc, _ := newLedger(t)
	ctx := context.Background()

	require.NoError(t, uc.Deposit(ctx, "alice", "eth", 100))
	require.NoError(t, uc.Reserve(ctx, "alice", "ETH", 60))
	b := balance(t, uc, "alice", "ETH")
	assert.Equal(t, int64(40), b.Available)
	assert.Equal(t, int64(60), b.Frozen)

	require.NoError(t, uc.Release(ctx, "alice", "ETH", 60))
	b = balance(t, uc, "alice", "ETH")
	assert.Equal(t, int64(100), b.Available)
	assert.Zero(t, b.Frozen)
}

func TestLedgerReserveInsufficientFunds(t *testing.T) {
	uc, _ := newLedger(t)
	ctx := context.Background()
	require.NoError(t, uc.Deposit(ctx, "alice", "ETH", 10))

	err := uc.Reserve(ctx, "alice", "ETH", 11)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, int64(10), balance(t, uc, "alice", "ETH").Available)
}

func TestLedgerReleaseBeyondFrozenIsInvariantViolation(t *testing.T) {
	uc, m := newLedger(t)
	ctx := context.Background()
	require.NoError(t, uc.Deposit(ctx, "alice", "ETH", 10))
	require.NoError(t, uc.Reserve(ctx, "alice", "ETH", 5))

	err := uc.Release(ctx, "alice", "ETH", 6)
	assert.ErrorIs(t, err, domain.ErrLedgerInvariant)

	b := balance(t, uc, "alice", "ETH")
	assert.Equal(t, int64(5), b.Frozen, "frozen must never be clamped")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerInvariantViolationsTotal.WithLabelValues("release", "ETH")))
}

func TestLedgerTransferFrozenToAvailable(t *testing.T) {
	uc, _ := newLedger(t)
	ctx := context.Background()
	require.NoError(t, uc.Deposit(ctx, "alice", "ETH", 10))
	require.NoError(t, uc.Reserve(ctx, "alice", "ETH", 10))

	require.NoError(t, uc.TransferFrozenToAvailable(ctx, "alice", "bob", "ETH", 10))
	alice := balance(t, uc, "alice", "ETH")
	assert.Zero(t, alice.Available)
	assert.Zero(t, alice.Frozen)
	assert.Equal(t, int64(10), balance(t, uc, "bob", "ETH").Available)

	err := uc.TransferFrozenToAvailable(ctx, "alice", "bob", "ETH", 1)
	assert.ErrorIs(t, err, domain.ErrLedgerInvariant)
	assert.Equal(t, int64(10), balance(t, uc, "bob", "ETH").Available, "failed transfer must not credit")

	assert.ErrorIs(t, uc.TransferFrozenToAvailable(ctx, "bob", "bob", "ETH", 1), domain.ErrInvalidInput)
}

func TestLedgerWithdrawOnlyAvailable(t *testing.T) {
	uc, _ := newLedger(t)
	ctx := context.Background()
	require.NoError(t, uc.Deposit(ctx, "alice", "ETH", 10))
	require.NoError(t, uc.Reserve(ctx, "alice", "ETH", 8))

	assert.ErrorIs(t, uc.Withdraw(ctx, "alice", "ETH", 3), domain.ErrInsufficientFunds)
	require.NoError(t, uc.Withdraw(ctx, "alice", "ETH", 2))
	assert.Zero(t, balance(t, uc, "alice", "ETH").Available)
}

func TestLedgerRejectsBadInput(t *testing.T) {
	uc, _ := newLedger(t)
	ctx := context.Background()

	assert.ErrorIs(t, uc.Deposit(ctx, "", "ETH", 1), domain.ErrInvalidInput)
	assert.ErrorIs(t, uc.Deposit(ctx, "alice", " ", 1), domain.ErrInvalidInput)
	assert.ErrorIs(t, uc.Deposit(ctx, "alice", "ETH", 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, uc.Reserve(ctx, "alice", "ETH", -1), domain.ErrInvalidInput)
}

func TestLedgerTreasuryRails(t *testing.T) {
	uc, m := newLedger(t)
	ctx := context.Background()
	user := domain.Caller{ID: "alice", Role: domain.RoleUser}

	_, err := uc.TreasuryDeposit(ctx, user, "alice", "ETH", 5)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	b, err := uc.TreasuryDeposit(ctx, treasury, "alice", "ETH", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.Available)

	b, err = uc.TreasuryWithdraw(ctx, treasury, "alice", "ETH", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), b.Available)

	_, err = uc.TreasuryWithdraw(ctx, treasury, "alice", "ETH", 4)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.ExternalFlowTotal.WithLabelValues("in", "ETH")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExternalFlowTotal.WithLabelValues("out", "ETH")))
}

func TestLedgerConcurrentReservesNeverOverdraw(t *testing.T) {
	uc, _ := newLedger(t)
	ctx := context.Background()
	require.NoError(t, uc.Deposit(ctx, "alice", "ETH", 100))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := uc.Reserve(ctx, "alice", "ETH", 7); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	b := balance(t, uc, "alice", "ETH")
	assert.Equal(t, 14, ok)
	assert.Equal(t, int64(98), b.Frozen)
	assert.Equal(t, int64(2), b.Available)
}
