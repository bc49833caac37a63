package background

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/clock"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/tokens"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/escrow"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/ledger"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/order"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

// lockedEscrows builds an escrow usecase holding n locked escrows and one that
// was only opened.
func lockedEscrows(t *testing.T, n int) escrow.EscrowUsecase {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clk := clock.NewStepping(t0, time.Second)
	registry := tokens.Default()

	ledgerUC := ledger.NewDefaultLedgerUsecase(store, store, clk, nil)
	orderUC := order.NewDefaultOrderUsecase(store, store, store, registry, clk, nil)
	escrowUC, err := escrow.NewDefaultEscrowUsecase(store, store, store, ledgerUC, orderUC, registry, nil, clk, nil)
	require.NoError(t, err)

	maker := domain.Caller{ID: "maker", Role: domain.RoleUser}
	taker := domain.Caller{ID: "taker", Role: domain.RoleUser}
	require.NoError(t, ledgerUC.Deposit(ctx, maker.ID, "TUSDT", int64(n)))
	for i := 0; i <= n; i++ {
		o, err := orderUC.CreateOrder(ctx, maker, domain.OrderTerms{TokenToSell: "TUSDT", TokenToBuy: "ETH", AmountToSell: 1, AmountToBuy: 1})
		require.NoError(t, err)
		e, err := escrowUC.OpenEscrow(ctx, taker, o.ID)
		require.NoError(t, err)
		if i < n {
			_, err = escrowUC.LockEscrow(ctx, maker, e.ID, domain.Funding{})
			require.NoError(t, err)
		}
	}
	return escrowUC
}

func TestCheckStuckEscrows(t *testing.T) {
	escrowUC := lockedEscrows(t, 3)
	m := metrics.NewEscrowMetrics(prometheus.NewRegistry())

	fresh := NewBackgroundTasks(escrowUC, clock.NewFixed(t0.Add(time.Hour)), m, time.Minute, 24*time.Hour)
	counts, err := fresh.CheckStuckEscrows(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts[domain.EscrowLocked])

	later := NewBackgroundTasks(escrowUC, clock.NewFixed(t0.Add(48*time.Hour)), m, time.Minute, 24*time.Hour)
	counts, err = later.CheckStuckEscrows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.EscrowLocked])
	assert.Zero(t, counts[domain.EscrowDisputed])
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StuckEscrows.WithLabelValues("LOCKED")))
}

func TestRunStopsWithContext(t *testing.T) {
	bt := NewBackgroundTasks(lockedEscrows(t, 1), clock.NewFixed(t0.Add(48*time.Hour)), nil, time.Millisecond, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, bt.Run(ctx))
}
