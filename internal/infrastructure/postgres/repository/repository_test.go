package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	auditlog "github.com/LavaJover/shvark-escrow-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const migrationsPath = "../../../../migrations"

// openTestDB migrates a fresh schema in the database named by
// ESCROW_TEST_DATABASE_URL and drops it when the test ends.
func openTestDB(t *testing.T) (*gorm.DB, *postgres.TxManager) {
	t.Helper()
	dsn := os.Getenv("ESCROW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ESCROW_TEST_DATABASE_URL is not set")
	}

	admin, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	name := fmt.Sprintf("escrow_test_%d", time.Now().UnixNano())
	require.NoError(t, admin.Exec("CREATE SCHEMA "+pq.QuoteIdentifier(name)).Error)

	db, err := gorm.Open(pgdriver.Open(withSearchPath(dsn, name)), &gorm.Config{TranslateError: true, Logger: logger.Discard})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		admin.Exec("DROP SCHEMA " + pq.QuoteIdentifier(name) + " CASCADE")
		if sqlDB, err := admin.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, migrate.RunMigrations(db, migrationsPath))
	return db, postgres.NewTxManager(db)
}

// withSearchPath adds search_path to a URL or key/value DSN.
func withSearchPath(dsn, schema string) string {
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + schema
}

var t0 = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

func testOrder(maker string, at time.Time) *domain.Order {
	return &domain.Order{
		ID:           uuid.NewString(),
		Maker:        maker,
		TokenToSell:  "TUSDT",
		TokenToBuy:   "ETH",
		AmountToSell: 100_000_000,
		AmountToBuy:  30_000_000,
		Status:       domain.OrderPending,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

func TestOrderAndEscrowRoundTrip(t *testing.T) {
	db, txm := openTestDB(t)
	ctx := context.Background()
	orders, escrows := NewDefaultOrderRepository(db), NewDefaultEscrowRepository(db)

	o := testOrder("maker", t0)
	e, err := domain.NewEscrow("esc0000000000001", o, "taker", t0)
	require.NoError(t, err)

	// Writes outside a unit of work are refused.
	assert.Error(t, orders.CreateOrder(ctx, o))

	require.NoError(t, txm.WithinTx(ctx, []domain.LockKey{domain.OrderKey(o.ID), domain.EscrowKey(e.ID)}, func(ctx context.Context) error {
		if err := orders.CreateOrder(ctx, o); err != nil {
			return err
		}
		if err := o.AttachEscrow(e.ID, t0); err != nil {
			return err
		}
		if err := orders.UpdateOrder(ctx, o); err != nil {
			return err
		}
		return escrows.CreateEscrow(ctx, e)
	}))

	got, err := orders.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.EscrowID)
	assert.True(t, t0.Equal(got.CreatedAt))

	byOrder, err := escrows.GetEscrowByOrderID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, byOrder.ID)
	assert.Equal(t, domain.EscrowCreated, byOrder.Status)

	// A second escrow on the same order is a conflict.
	dup, err := domain.NewEscrow("esc0000000000002", o, "other", t0)
	require.NoError(t, err)
	err = txm.WithinTx(ctx, []domain.LockKey{domain.EscrowKey(dup.ID)}, func(ctx context.Context) error {
		return escrows.CreateEscrow(ctx, dup)
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = escrows.GetEscrowByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMalformedOrderIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	// The uuid check runs before any query, so no database is needed.
	orders, escrows := NewDefaultOrderRepository(nil), NewDefaultEscrowRepository(nil)

	for _, id := range []string{"abc", "", "1234", "not-a-uuid-at-all-0000000000000000"} {
		_, err := orders.GetOrderByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "order %q", id)

		_, err = escrows.GetEscrowByOrderID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "escrow by order %q", id)
	}
}

func TestUnknownOrderIDIsNotFound(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	_, err := NewDefaultOrderRepository(db).GetOrderByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = NewDefaultOrderRepository(db).GetOrderByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = NewDefaultEscrowRepository(db).GetEscrowByOrderID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEscrowUpdateAndListing(t *testing.T) {
	db, txm := openTestDB(t)
	ctx := context.Background()
	orders, escrows := NewDefaultOrderRepository(db), NewDefaultEscrowRepository(db)

	var ids []string
	for i := 0; i < 3; i++ {
		at := t0.Add(time.Duration(i) * time.Minute)
		o := testOrder("maker", at)
		e, err := domain.NewEscrow(fmt.Sprintf("esc%013d", i), o, "taker", at)
		require.NoError(t, err)
		require.NoError(t, txm.WithinTx(ctx, []domain.LockKey{domain.OrderKey(o.ID), domain.EscrowKey(e.ID)}, func(ctx context.Context) error {
			if err := orders.CreateOrder(ctx, o); err != nil {
				return err
			}
			return escrows.CreateEscrow(ctx, e)
		}))
		ids = append(ids, e.ID)
	}

	locked, err := escrows.GetEscrowByID(ctx, ids[0])
	require.NoError(t, err)
	require.NoError(t, locked.Apply(domain.ActionLock, domain.Caller{ID: "maker", Role: domain.RoleUser}, t0.Add(time.Hour)))
	require.NoError(t, txm.WithinTx(ctx, []domain.LockKey{domain.EscrowKey(locked.ID)}, func(ctx context.Context) error {
		return escrows.UpdateEscrow(ctx, locked)
	}))

	page, err := escrows.ListEscrows(ctx, domain.EscrowFilter{Maker: "maker"}, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	cursor := page[1].Cursor()
	rest, err := escrows.ListEscrows(ctx, domain.EscrowFilter{Maker: "maker"}, &cursor, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, ids[0], rest[0].ID)

	stale, err := escrows.ListEscrows(ctx, domain.EscrowFilter{Status: domain.EscrowLocked, StaleBefore: t0.Add(2 * time.Hour)}, nil, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, ids[0], stale[0].ID)
}

func TestBalanceUpsert(t *testing.T) {
	db, txm := openTestDB(t)
	ctx := context.Background()
	balances := NewDefaultBalanceRepository(db)

	zero, err := balances.GetBalance(ctx, "alice", "ETH")
	require.NoError(t, err)
	assert.Zero(t, zero.Total())

	save := func(b domain.Balance) error {
		return txm.WithinTx(ctx, []domain.LockKey{domain.AccountKey(b.Account)}, func(ctx context.Context) error {
			return balances.SaveBalance(ctx, b)
		})
	}
	require.NoError(t, save(domain.Balance{Account: "alice", Token: "ETH", Available: 10, UpdatedAt: t0}))
	require.NoError(t, save(domain.Balance{Account: "alice", Token: "ETH", Available: 4, Frozen: 6, UpdatedAt: t0}))
	require.NoError(t, save(domain.Balance{Account: "alice", Token: "TUSDT", Available: 1, UpdatedAt: t0}))
	assert.ErrorIs(t, save(domain.Balance{Account: "alice", Token: "ETH", Frozen: -1, UpdatedAt: t0}), domain.ErrLedgerInvariant)

	got, err := balances.ListBalances(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ETH", got[0].Token)
	assert.Equal(t, int64(4), got[0].Available)
	assert.Equal(t, int64(6), got[0].Frozen)
}

func TestAuditTrailIgnoresRedelivery(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()
	audit := auditlog.NewPGEscrowEventLogger(db)

	ev := domain.EscrowEvent{
		ID:         uuid.NewString(),
		EscrowID:   "esc0000000000001",
		OrderID:    uuid.NewString(),
		Type:       domain.EscrowLocked,
		Action:     domain.ActionLock,
		Actor:      "maker",
		Maker:      "maker",
		Taker:      "taker",
		OccurredAt: t0,
	}
	require.NoError(t, audit.Publish(ctx, ev))
	require.NoError(t, audit.Publish(ctx, ev))

	var n int64
	require.NoError(t, db.Model(&auditlog.EscrowTransitionLog{}).Where("escrow_id = ?", ev.EscrowID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
