// Package memory is the single-process storage backend. Each unit of work holds
// its declared keys, stages writes in an overlay and publishes the overlay under
// one mutex, so readers see either none or all of a unit's writes.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

type balanceKey struct {
	account string
	token   string
}

type Store struct {
	mu            sync.RWMutex
	orders        map[string]domain.Order
	escrows       map[string]domain.Escrow
	escrowByOrder map[string]string
	balances      map[balanceKey]domain.Balance

	locks *LockSet
}

func NewStore() *Store {
	return &Store{
		orders:        make(map[string]domain.Order),
		escrows:       make(map[string]domain.Escrow),
		escrowByOrder: make(map[string]string),
		balances:      make(map[balanceKey]domain.Balance),
		locks:         NewLockSet(),
	}
}

type txKey struct{}

type txState struct {
	held     map[domain.LockKey]struct{}
	orders   map[string]domain.Order
	escrows  map[string]domain.Escrow
	balances map[balanceKey]domain.Balance
}

func txFromContext(ctx context.Context) *txState {
	tx, _ := ctx.Value(txKey{}).(*txState)
	return tx
}

func (s *Store) WithinTx(ctx context.Context, keys []domain.LockKey, fn func(ctx context.Context) error) error {
	if tx := txFromContext(ctx); tx != nil {
		for _, k := range keys {
			if _, ok := tx.held[k]; !ok {
				return fmt.Errorf("memory: key %s not held by the enclosing unit of work", k)
			}
		}
		return fn(ctx)
	}

	release, err := s.locks.Acquire(ctx, keys)
	if err != nil {
		return err
	}
	defer release()

	tx := &txState{
		held:     make(map[domain.LockKey]struct{}, len(keys)),
		orders:   make(map[string]domain.Order),
		escrows:  make(map[string]domain.Escrow),
		balances: make(map[balanceKey]domain.Balance),
	}
	for _, k := range keys {
		tx.held[k] = struct{}{}
	}

	ctx, runHooks := domain.WithCommitHooks(ctx)
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	s.commit(tx)
	runHooks()
	return nil
}

func (s *Store) commit(tx *txState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, o := range tx.orders {
		s.orders[id] = o
	}
	for id, e := range tx.escrows {
		s.escrows[id] = e
		s.escrowByOrder[e.OrderID] = id
	}
	for k, b := range tx.balances {
		s.balances[k] = b
	}
}

// writable returns the unit of work for ctx if it holds key.
func writable(ctx context.Context, key domain.LockKey) (*txState, error) {
	tx := txFromContext(ctx)
	if tx == nil {
		return nil, fmt.Errorf("memory: write to %s outside a unit of work", key)
	}
	if _, ok := tx.held[key]; !ok {
		return nil, fmt.Errorf("memory: write to %s without holding its key", key)
	}
	return tx, nil
}

// Orders

func (s *Store) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := writable(ctx, domain.OrderKey(order.ID))
	if err != nil {
		return err
	}
	if _, err := s.GetOrderByID(ctx, order.ID); err == nil {
		return fmt.Errorf("memory: order %s already exists", order.ID)
	}
	tx.orders[order.ID] = *order
	return nil
}

func (s *Store) UpdateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := writable(ctx, domain.OrderKey(order.ID))
	if err != nil {
		return err
	}
	if _, err := s.GetOrderByID(ctx, order.ID); err != nil {
		return err
	}
	tx.orders[order.ID] = *order
	return nil
}

func (s *Store) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if tx := txFromContext(ctx); tx != nil {
		if o, ok := tx.orders[orderID]; ok {
			return &o, nil
		}
	}
	s.mu.RLock()
	o, ok := s.orders[orderID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, filter domain.OrderFilter, after *domain.Cursor, limit int) ([]*domain.Order, error) {
	s.mu.RLock()
	merged := make(map[string]domain.Order, len(s.orders))
	for id, o := range s.orders {
		merged[id] = o
	}
	s.mu.RUnlock()
	if tx := txFromContext(ctx); tx != nil {
		for id, o := range tx.orders {
			merged[id] = o
		}
	}

	var out []*domain.Order
	for _, o := range merged {
		if !filter.Match(o) || (after != nil && !after.Admits(o.CreatedAt, o.ID)) {
			continue
		}
		o := o
		out = append(out, &o)
	}
	return page(out, limit, func(o *domain.Order) domain.Cursor { return o.Cursor() }), nil
}

// Escrows

func (s *Store) CreateEscrow(ctx context.Context, escrow *domain.Escrow) error {
	tx, err := writable(ctx, domain.EscrowKey(escrow.ID))
	if err != nil {
		return err
	}
	if existing, err := s.GetEscrowByOrderID(ctx, escrow.OrderID); err == nil {
		return &domain.TransitionError{
			Entity: "order", ID: escrow.OrderID, From: string(domain.OrderPending),
			Action: "open escrow", Reason: "escrow " + existing.ID + " already open",
		}
	}
	tx.escrows[escrow.ID] = *escrow
	return nil
}

func (s *Store) UpdateEscrow(ctx context.Context, escrow *domain.Escrow) error {
	tx, err := writable(ctx, domain.EscrowKey(escrow.ID))
	if err != nil {
		return err
	}
	if _, err := s.GetEscrowByID(ctx, escrow.ID); err != nil {
		return err
	}
	tx.escrows[escrow.ID] = *escrow
	return nil
}

func (s *Store) GetEscrowByID(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	if tx := txFromContext(ctx); tx != nil {
		if e, ok := tx.escrows[escrowID]; ok {
			return &e, nil
		}
	}
	s.mu.RLock()
	e, ok := s.escrows[escrowID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("escrow %s: %w", escrowID, domain.ErrNotFound)
	}
	return &e, nil
}

func (s *Store) GetEscrowByOrderID(ctx context.Context, orderID string) (*domain.Escrow, error) {
	if tx := txFromContext(ctx); tx != nil {
		for _, e := range tx.escrows {
			if e.OrderID == orderID {
				return &e, nil
			}
		}
	}
	s.mu.RLock()
	id, ok := s.escrowByOrder[orderID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("escrow for order %s: %w", orderID, domain.ErrNotFound)
	}
	return s.GetEscrowByID(ctx, id)
}

func (s *Store) ListEscrows(ctx context.Context, filter domain.EscrowFilter, after *domain.Cursor, limit int) ([]*domain.Escrow, error) {
	s.mu.RLock()
	merged := make(map[string]domain.Escrow, len(s.escrows))
	for id, e := range s.escrows {
		merged[id] = e
	}
	s.mu.RUnlock()
	if tx := txFromContext(ctx); tx != nil {
		for id, e := range tx.escrows {
			merged[id] = e
		}
	}

	var out []*domain.Escrow
	for _, e := range merged {
		if !filter.Match(e) || (after != nil && !after.Admits(e.CreatedAt, e.ID)) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	return page(out, limit, func(e *domain.Escrow) domain.Cursor { return e.Cursor() }), nil
}

// Balances

func (s *Store) GetBalance(ctx context.Context, account, token string) (domain.Balance, error) {
	k := balanceKey{account: account, token: token}
	if tx := txFromContext(ctx); tx != nil {
		if b, ok := tx.balances[k]; ok {
			return b, nil
		}
	}
	s.mu.RLock()
	b, ok := s.balances[k]
	s.mu.RUnlock()
	if !ok {
		return domain.Balance{Account: account, Token: token}, nil
	}
	return b, nil
}

func (s *Store) ListBalances(ctx context.Context, account string) ([]domain.Balance, error) {
	merged := make(map[balanceKey]domain.Balance)
	s.mu.RLock()
	for k, b := range s.balances {
		if k.account == account {
			merged[k] = b
		}
	}
	s.mu.RUnlock()
	if tx := txFromContext(ctx); tx != nil {
		for k, b := range tx.balances {
			if k.account == account {
				merged[k] = b
			}
		}
	}
	out := make([]domain.Balance, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b domain.Balance) int { return strings.Compare(a.Token, b.Token) })
	return out, nil
}

func (s *Store) SaveBalance(ctx context.Context, balance domain.Balance) error {
	tx, err := writable(ctx, domain.AccountKey(balance.Account))
	if err != nil {
		return err
	}
	if balance.Available < 0 || balance.Frozen < 0 {
		return &domain.InvariantError{Op: "save", Account: balance.Account, Token: balance.Token, Frozen: balance.Frozen, Amount: balance.Available}
	}
	tx.balances[balanceKey{account: balance.Account, token: balance.Token}] = balance
	return nil
}

// page sorts rows createdAt desc, id desc and cuts them to limit. A limit <= 0 keeps all rows.
func page[T any](rows []T, limit int, cursor func(T) domain.Cursor) []T {
	slices.SortFunc(rows, func(a, b T) int {
		ca, cb := cursor(a), cursor(b)
		if c := cb.CreatedAt.Compare(ca.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(cb.ID, ca.ID)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
