package postgres

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/memory"
	"gorm.io/gorm"
)

type txKey struct{}

type txState struct {
	db   *gorm.DB
	held map[domain.LockKey]struct{}
}

func txFromContext(ctx context.Context) *txState {
	tx, _ := ctx.Value(txKey{}).(*txState)
	return tx
}

// TxManager runs units of work as database transactions. Keys are taken as
// transaction-scoped advisory locks in domain.SortKeys order. Within the process
// the same keys are also held in a LockSet until after-commit callbacks have run,
// since advisory locks end with the transaction.
type TxManager struct {
	db    *gorm.DB
	local *memory.LockSet
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db, local: memory.NewLockSet()}
}

func (m *TxManager) WithinTx(ctx context.Context, keys []domain.LockKey, fn func(ctx context.Context) error) error {
	if st := txFromContext(ctx); st != nil {
		for _, k := range keys {
			if _, ok := st.held[k]; !ok {
				return fmt.Errorf("postgres: key %s not held by the enclosing transaction", k)
			}
		}
		return fn(ctx)
	}

	release, err := m.local.Acquire(ctx, keys)
	if err != nil {
		return err
	}
	defer release()

	ctx, runHooks := domain.WithCommitHooks(ctx)
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := &txState{db: tx, held: make(map[domain.LockKey]struct{}, len(keys))}
		for _, k := range domain.SortKeys(keys) {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", string(k)).Error; err != nil {
				return fmt.Errorf("acquire %s: %w", k, err)
			}
			st.held[k] = struct{}{}
		}
		return fn(context.WithValue(ctx, txKey{}, st))
	})
	if err != nil {
		return err
	}
	runHooks()
	return nil
}

// Conn returns the transaction bound to ctx, or db when there is none.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if st := txFromContext(ctx); st != nil {
		return st.db
	}
	return db.WithContext(ctx)
}

// Writable returns the transaction bound to ctx if it holds key.
func Writable(ctx context.Context, key domain.LockKey) (*gorm.DB, error) {
	st := txFromContext(ctx)
	if st == nil {
		return nil, fmt.Errorf("postgres: write to %s outside a transaction", key)
	}
	if _, ok := st.held[key]; !ok {
		return nil, fmt.Errorf("postgres: write to %s without holding its key", key)
	}
	return st.db, nil
}
