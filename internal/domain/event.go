package domain

import (
	"context"
	"time"
)

// EscrowEvent is emitted once per committed escrow transition.
type EscrowEvent struct {
	ID           string       `json:"event_id"`
	EscrowID     string       `json:"escrow_id"`
	OrderID      string       `json:"order_id"`
	Type         EscrowStatus `json:"type"`
	Action       EscrowAction `json:"action"`
	Actor        string       `json:"actor"`
	Maker        string       `json:"maker"`
	Taker        string       `json:"taker"`
	TokenToSell  string       `json:"token_to_sell"`
	TokenToBuy   string       `json:"token_to_buy"`
	AmountToSell int64        `json:"amount_to_sell"`
	AmountToBuy  int64        `json:"amount_to_buy"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

func NewEscrowEvent(id string, e *Escrow, action EscrowAction, actor string) EscrowEvent {
	return EscrowEvent{
		ID:           id,
		EscrowID:     e.ID,
		OrderID:      e.OrderID,
		Type:         e.Status,
		Action:       action,
		Actor:        actor,
		Maker:        e.Maker,
		Taker:        e.Taker,
		TokenToSell:  e.TokenToSell,
		TokenToBuy:   e.TokenToBuy,
		AmountToSell: e.AmountToSell,
		AmountToBuy:  e.AmountToBuy,
		OccurredAt:   e.UpdatedAt,
	}
}

// EventSink receives committed events. A sink error never undoes the transition.
type EventSink interface {
	Name() string
	Publish(ctx context.Context, event EscrowEvent) error
}
