package domain

import (
	"context"
	"time"
)

type EscrowStatus string

const (
	EscrowCreated   EscrowStatus = "CREATED"
	EscrowLocked    EscrowStatus = "LOCKED"
	EscrowCompleted EscrowStatus = "COMPLETED"
	EscrowRefunded  EscrowStatus = "REFUNDED"
	EscrowDisputed  EscrowStatus = "DISPUTED"
)

func (s EscrowStatus) Terminal() bool {
	return s == EscrowCompleted || s == EscrowRefunded
}

func (s EscrowStatus) Valid() bool {
	switch s {
	case EscrowCreated, EscrowLocked, EscrowCompleted, EscrowRefunded, EscrowDisputed:
		return true
	}
	return false
}

// Rank orders statuses along the lifecycle. Every path through the machine visits
// statuses in strictly increasing rank.
func (s EscrowStatus) Rank() int {
	switch s {
	case EscrowCreated:
		return 1
	case EscrowLocked:
		return 2
	case EscrowDisputed:
		return 3
	case EscrowCompleted, EscrowRefunded:
		return 4
	}
	return 0
}

type EscrowAction string

const (
	ActionOpen     EscrowAction = "open"
	ActionLock     EscrowAction = "lock"
	ActionComplete EscrowAction = "complete"
	ActionDispute  EscrowAction = "dispute"
	ActionRefund   EscrowAction = "refund"
)

// Escrow binds one taker to one order and tracks custody of both legs.
type Escrow struct {
	ID           string
	OrderID      string
	Maker        string
	Taker        string
	TokenToSell  string
	TokenToBuy   string
	AmountToSell int64
	AmountToBuy  int64
	Status       EscrowStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// CompletedAt is set when the escrow reaches Completed or Refunded.
	CompletedAt *time.Time
}

// NewEscrow opens an escrow for taker on the order's terms.
func NewEscrow(id string, order *Order, taker string, at time.Time) (*Escrow, error) {
	if taker == "" {
		return nil, invalidInput("taker is required")
	}
	if taker == order.Maker {
		return nil, invalidInput("maker %s cannot take own order %s", taker, order.ID)
	}
	return &Escrow{
		ID:           id,
		OrderID:      order.ID,
		Maker:        order.Maker,
		Taker:        taker,
		TokenToSell:  order.TokenToSell,
		TokenToBuy:   order.TokenToBuy,
		AmountToSell: order.AmountToSell,
		AmountToBuy:  order.AmountToBuy,
		Status:       EscrowCreated,
		CreatedAt:    at,
		UpdatedAt:    at,
	}, nil
}

type escrowTransition struct {
	from  EscrowStatus
	to    EscrowStatus
	allow func(e *Escrow, c Caller) bool
}

var escrowTransitions = map[EscrowAction]escrowTransition{
	ActionLock: {
		from: EscrowCreated, to: EscrowLocked,
		allow: func(e *Escrow, c Caller) bool { return c.Can(CapTrade) && c.ID == e.Maker },
	},
	ActionComplete: {
		from: EscrowLocked, to: EscrowCompleted,
		allow: func(e *Escrow, c Caller) bool { return c.Can(CapTrade) && c.ID == e.Taker },
	},
	ActionDispute: {
		from: EscrowLocked, to: EscrowDisputed,
		allow: func(e *Escrow, c Caller) bool { return c.Can(CapTrade) && e.Party(c.ID) },
	},
	ActionRefund: {
		from: EscrowDisputed, to: EscrowRefunded,
		allow: func(e *Escrow, c Caller) bool { return c.Can(CapRefund) && !e.Party(c.ID) },
	},
}

// Party reports whether account is the maker or the taker.
func (e *Escrow) Party(account string) bool {
	return account != "" && (account == e.Maker || account == e.Taker)
}

// Authorize checks the caller against the action regardless of the current status.
func (e *Escrow) Authorize(action EscrowAction, caller Caller) error {
	t, ok := escrowTransitions[action]
	if !ok {
		return invalidInput("unknown escrow action %q", action)
	}
	if !t.allow(e, caller) {
		return &AuthError{Caller: caller, Action: string(action), Resource: "escrow " + e.ID}
	}
	return nil
}

// Next returns the status the action leads to from the current one.
func (e *Escrow) Next(action EscrowAction) (EscrowStatus, error) {
	t, ok := escrowTransitions[action]
	if !ok {
		return "", invalidInput("unknown escrow action %q", action)
	}
	if e.Status != t.from {
		return "", &TransitionError{Entity: "escrow", ID: e.ID, From: string(e.Status), Action: string(action)}
	}
	return t.to, nil
}

// Apply authorizes the caller, checks the status and moves the escrow forward.
// The escrow is left untouched on error.
func (e *Escrow) Apply(action EscrowAction, caller Caller, at time.Time) error {
	if err := e.Authorize(action, caller); err != nil {
		return err
	}
	next, err := e.Next(action)
	if err != nil {
		return err
	}
	e.Status = next
	e.UpdatedAt = at
	if next.Terminal() {
		closed := at
		e.CompletedAt = &closed
	}
	return nil
}

func (e Escrow) Cursor() Cursor {
	return Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
}

// EscrowFilter narrows escrow listings. Zero fields match everything.
type EscrowFilter struct {
	Maker  string
	Taker  string
	Status EscrowStatus
	// StaleBefore keeps escrows whose last transition happened before the instant.
	StaleBefore time.Time
}

func (f EscrowFilter) Match(e Escrow) bool {
	if f.Maker != "" && e.Maker != f.Maker {
		return false
	}
	if f.Taker != "" && e.Taker != f.Taker {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if !f.StaleBefore.IsZero() && !e.UpdatedAt.Before(f.StaleBefore) {
		return false
	}
	return true
}

type EscrowRepository interface {
	CreateEscrow(ctx context.Context, escrow *Escrow) error
	UpdateEscrow(ctx context.Context, escrow *Escrow) error
	GetEscrowByID(ctx context.Context, escrowID string) (*Escrow, error)
	GetEscrowByOrderID(ctx context.Context, orderID string) (*Escrow, error)
	ListEscrows(ctx context.Context, filter EscrowFilter, after *Cursor, limit int) ([]*Escrow, error)
}
