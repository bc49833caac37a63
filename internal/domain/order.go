package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Order is a maker's standing offer to swap AmountToSell of TokenToSell for
// AmountToBuy of TokenToBuy. Terms never change after creation.
type Order struct {
	ID           string
	Maker        string
	TokenToSell  string
	TokenToBuy   string
	AmountToSell int64
	AmountToBuy  int64
	Status       OrderStatus
	// EscrowID is set once a taker opens an escrow; the order is no longer open after that.
	EscrowID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open reports whether a taker may still open an escrow on the order.
func (o *Order) Open() bool {
	return o.Status == OrderPending && o.EscrowID == ""
}

// AttachEscrow binds the order to its single escrow.
func (o *Order) AttachEscrow(escrowID string, at time.Time) error {
	if !o.Open() {
		reason := ""
		if o.EscrowID != "" {
			reason = "escrow " + o.EscrowID + " already open"
		}
		return &TransitionError{Entity: "order", ID: o.ID, From: string(o.Status), Action: "open escrow", Reason: reason}
	}
	o.EscrowID = escrowID
	o.UpdatedAt = at
	return nil
}

// MarkCompleted moves a pending order to completed. It is a no-op on a terminal order
// and reports whether anything changed.
func (o *Order) MarkCompleted(at time.Time) bool {
	return o.finish(OrderCompleted, at)
}

// MarkCancelled moves a pending order to cancelled. It is a no-op on a terminal order.
func (o *Order) MarkCancelled(at time.Time) bool {
	return o.finish(OrderCancelled, at)
}

func (o *Order) finish(status OrderStatus, at time.Time) bool {
	if o.Status.Terminal() {
		return false
	}
	o.Status = status
	o.UpdatedAt = at
	return true
}

// Cursor returns the keyset position of the order in createdAt desc listings.
func (o Order) Cursor() Cursor {
	return Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
}

// OrderTerms are the inputs accepted by order creation.
type OrderTerms struct {
	TokenToSell  string
	TokenToBuy   string
	AmountToSell int64
	AmountToBuy  int64
}

// Normalize upper-cases token symbols and validates the terms against a registry.
// A nil registry accepts any non-empty symbol.
func (t OrderTerms) Normalize(tokens TokenRegistry) (OrderTerms, error) {
	t.TokenToSell = NormalizeToken(t.TokenToSell)
	t.TokenToBuy = NormalizeToken(t.TokenToBuy)
	switch {
	case t.TokenToSell == "" || t.TokenToBuy == "":
		return t, invalidInput("both tokens are required")
	case t.TokenToSell == t.TokenToBuy:
		return t, invalidInput("cannot swap %s for itself", t.TokenToSell)
	case t.AmountToSell <= 0:
		return t, invalidInput("amount to sell must be positive, got %d", t.AmountToSell)
	case t.AmountToBuy <= 0:
		return t, invalidInput("amount to buy must be positive, got %d", t.AmountToBuy)
	}
	if tokens != nil {
		for _, sym := range []string{t.TokenToSell, t.TokenToBuy} {
			if !tokens.Known(sym) {
				return t, invalidInput("unknown token %s", sym)
			}
		}
	}
	return t, nil
}

func NormalizeToken(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
