package escrow

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/clock"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/events"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/tokens"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/ledger"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/order"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var (
	maker     = domain.Caller{ID: "maker", Role: domain.RoleUser}
	taker     = domain.Caller{ID: "taker", Role: domain.RoleUser}
	outsider  = domain.Caller{ID: "outsider", Role: domain.RoleUser}
	authority = domain.Caller{ID: "arbiter", Role: domain.RoleDisputeAuthority}
	treasury  = domain.Caller{ID: "vault", Role: domain.RoleTreasury}
)

// 100 TUSDT for 0.03 ETH in minor units.
const (
	sellAmount = 100_000_000
	buyAmount  = 30_000_000
)

var scenarioTerms = domain.OrderTerms{TokenToSell: "TUSDT", TokenToBuy: "ETH", AmountToSell: sellAmount, AmountToBuy: buyAmount}

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

type harness struct {
	t       testingT
	ctx     context.Context
	store   *memory.Store
	ledger  *ledger.DefaultLedgerUsecase
	orders  *order.DefaultOrderUsecase
	escrows *DefaultEscrowUsecase
	events  *events.Recorder
	metrics *metrics.EscrowMetrics
	clock   *clock.Stepping
}

func newHarness(t testingT) *harness {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewStepping(time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC), time.Second)
	m := metrics.NewEscrowMetrics(prometheus.NewRegistry())
	registry := tokens.Default()
	recorder := &events.Recorder{}

	ledgerUC := ledger.NewDefaultLedgerUsecase(store, store, clk, m)
	orderUC := order.NewDefaultOrderUsecase(store, store, store, registry, clk, m)
	escrowUC, err := NewDefaultEscrowUsecase(store, store, store, ledgerUC, orderUC, registry,
		events.NewDispatcher(0, m, recorder), clk, m)
	require.NoError(t, err)

	return &harness{
		t: t, ctx: context.Background(), store: store,
		ledger: ledgerUC, orders: orderUC, escrows: escrowUC,
		events: recorder, metrics: m, clock: clk,
	}
}

func (h *harness) fund(account, token string, amount int64) {
	h.t.Helper()
	_, err := h.ledger.TreasuryDeposit(h.ctx, treasury, account, token, amount)
	require.NoError(h.t, err)
}

func (h *harness) balance(account, token string) domain.Balance {
	h.t.Helper()
	b, err := h.ledger.GetBalance(h.ctx, account, token)
	require.NoError(h.t, err)
	return b
}

// snapshot captures both parties' balances in both scenario tokens.
func (h *harness) snapshot() map[string]domain.Balance {
	h.t.Helper()
	out := make(map[string]domain.Balance, 4)
	for _, account := range []string{maker.ID, taker.ID} {
		for _, token := range []string{"TUSDT", "ETH"} {
			out[account+"/"+token] = zeroed(h.balance(account, token))
		}
	}
	return out
}

func (h *harness) order(terms domain.OrderTerms) *domain.Order {
	h.t.Helper()
	o, err := h.orders.CreateOrder(h.ctx, maker, terms)
	require.NoError(h.t, err)
	return o
}

func (h *harness) open(o *domain.Order) *domain.Escrow {
	h.t.Helper()
	e, err := h.escrows.OpenEscrow(h.ctx, taker, o.ID)
	require.NoError(h.t, err)
	return e
}

// locked funds both parties, posts the scenario order, opens and locks it.
func (h *harness) locked() *domain.Escrow {
	h.t.Helper()
	h.fund(maker.ID, "TUSDT", sellAmount)
	h.fund(taker.ID, "ETH", buyAmount)
	e := h.open(h.order(scenarioTerms))
	e, err := h.escrows.LockEscrow(h.ctx, maker, e.ID, domain.Funding{})
	require.NoError(h.t, err)
	return e
}

func (h *harness) orderOf(e *domain.Escrow) *domain.Order {
	h.t.Helper()
	o, err := h.orders.GetOrderByID(h.ctx, e.OrderID)
	require.NoError(h.t, err)
	return o
}

func (h *harness) escrow(id string) *domain.Escrow {
	h.t.Helper()
	e, err := h.store.GetEscrowByID(h.ctx, id)
	require.NoError(h.t, err)
	return e
}

func (h *harness) eventTypes() []domain.EscrowStatus {
	var out []domain.EscrowStatus
	for _, ev := range h.events.Events() {
		out = append(out, ev.Type)
	}
	return out
}
