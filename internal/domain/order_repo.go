package domain

import "context"

// OrderFilter narrows order listings. Zero fields match everything.
type OrderFilter struct {
	Maker  string
	Status OrderStatus
	// OnlyOpen keeps pending orders that have no escrow yet.
	OnlyOpen bool
}

func (f OrderFilter) Match(o Order) bool {
	if f.Maker != "" && o.Maker != f.Maker {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.OnlyOpen && !o.Open() {
		return false
	}
	return true
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	UpdateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, orderID string) (*Order, error)
	// ListOrders returns up to limit orders strictly after the cursor, createdAt desc.
	ListOrders(ctx context.Context, filter OrderFilter, after *Cursor, limit int) ([]*Order, error)
}
