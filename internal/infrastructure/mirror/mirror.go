// Package mirror keeps a read-only copy of escrow state derived solely from the
// event stream, for consumers that must not touch the settlement database.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/dgraph-io/badger/v4"
)

const (
	escrowPrefix = "escrow/"
	makerPrefix  = "maker/"
	takerPrefix  = "taker/"
)

// Record is the mirrored view of one escrow.
type Record struct {
	EscrowID     string              `json:"escrow_id"`
	OrderID      string              `json:"order_id"`
	Status       domain.EscrowStatus `json:"status"`
	Maker        string              `json:"maker"`
	Taker        string              `json:"taker"`
	TokenToSell  string              `json:"token_to_sell"`
	TokenToBuy   string              `json:"token_to_buy"`
	AmountToSell int64               `json:"amount_to_sell"`
	AmountToBuy  int64               `json:"amount_to_buy"`
	LastEventID  string              `json:"last_event_id"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type Mirror struct {
	db *badger.DB
}

// Open opens the mirror at path. An empty path keeps everything in memory.
func Open(path string) (*Mirror, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open mirror: %w", err)
	}
	return &Mirror{db: db}, nil
}

func (m *Mirror) Close() error {
	return m.db.Close()
}

func (m *Mirror) Name() string { return "mirror" }

func (m *Mirror) Publish(_ context.Context, event domain.EscrowEvent) error {
	_, err := m.Apply(event)
	return err
}

// Apply folds one event into the mirror. Statuses only move forward, so a
// duplicate or out-of-date event is ignored and reported as not applied.
func (m *Mirror) Apply(event domain.EscrowEvent) (bool, error) {
	if event.EscrowID == "" || !event.Type.Valid() {
		return false, fmt.Errorf("%w: malformed escrow event %q", domain.ErrInvalidInput, event.ID)
	}
	applied := false
	err := m.db.Update(func(txn *badger.Txn) error {
		key := []byte(escrowPrefix + event.EscrowID)
		current, err := getRecord(txn, key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		case event.Type.Rank() <= current.Status.Rank():
			return nil
		}

		rec := Record{
			EscrowID:     event.EscrowID,
			OrderID:      event.OrderID,
			Status:       event.Type,
			Maker:        event.Maker,
			Taker:        event.Taker,
			TokenToSell:  event.TokenToSell,
			TokenToBuy:   event.TokenToBuy,
			AmountToSell: event.AmountToSell,
			AmountToBuy:  event.AmountToBuy,
			LastEventID:  event.ID,
			UpdatedAt:    event.OccurredAt,
		}
		v, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := txn.Set(key, v); err != nil {
			return err
		}
		if err := txn.Set([]byte(partyPrefix(makerPrefix, rec.Maker)+rec.EscrowID), nil); err != nil {
			return err
		}
		if err := txn.Set([]byte(partyPrefix(takerPrefix, rec.Taker)+rec.EscrowID), nil); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (m *Mirror) Get(escrowID string) (Record, error) {
	var rec Record
	err := m.db.View(func(txn *badger.Txn) error {
		r, err := getRecord(txn, []byte(escrowPrefix+escrowID))
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, fmt.Errorf("mirrored escrow %s: %w", escrowID, domain.ErrNotFound)
	}
	return rec, err
}

func (m *Mirror) ListByMaker(maker string) ([]Record, error) {
	return m.listIndex(partyPrefix(makerPrefix, maker))
}

func (m *Mirror) ListByTaker(taker string) ([]Record, error) {
	return m.listIndex(partyPrefix(takerPrefix, taker))
}

// partyPrefix length-prefixes the account so that no account's index range
// contains another's, whatever characters the ids use.
func partyPrefix(prefix, account string) string {
	return prefix + strconv.Itoa(len(account)) + ":" + account + "/"
}

func (m *Mirror) listIndex(prefix string) ([]Record, error) {
	var out []Record
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			escrowID := string(it.Item().Key()[len(p):])
			rec, err := getRecord(txn, []byte(escrowPrefix+escrowID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				slog.Warn("mirror index points at no escrow", "key", string(it.Item().Key()))
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// Consume applies decoded messages until the channel closes or ctx is done.
// Undecodable messages are logged and skipped.
func (m *Mirror) Consume(ctx context.Context, msgs <-chan domain.Message, decode func(domain.Message) (domain.EscrowEvent, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			event, err := decode(msg)
			if err != nil {
				slog.Warn("skipping undecodable escrow event", "key", string(msg.Key), "error", err)
				continue
			}
			applied, err := m.Apply(event)
			if err != nil {
				return fmt.Errorf("apply event %s: %w", event.ID, err)
			}
			slog.Debug("mirror event", "event_id", event.ID, "escrow_id", event.EscrowID, "type", event.Type, "applied", applied)
		}
	}
}

// RunGC collects the value log periodically until ctx is done.
func (m *Mirror) RunGC(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				slog.Error("mirror garbage collection failed", "error", err)
			}
		}
	}
}

func getRecord(txn *badger.Txn, key []byte) (Record, error) {
	var rec Record
	item, err := txn.Get(key)
	if err != nil {
		return rec, err
	}
	err = item.Value(func(v []byte) error {
		return json.Unmarshal(v, &rec)
	})
	return rec, err
}
