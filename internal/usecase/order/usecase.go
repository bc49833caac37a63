package order

import (
	"context"
	"iter"

	"github.com/LavaJover/shvark-escrow-service/internal/clock"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
)

type OrderUsecase interface {
	CreateOrder(ctx context.Context, caller domain.Caller, terms domain.OrderTerms) (*domain.Order, error)
	CancelOrder(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error)

	// Used by the settlement coordinator inside its unit of work.
	MarkCompleted(ctx context.Context, orderID string) (*domain.Order, error)
	MarkCancelled(ctx context.Context, orderID string) (*domain.Order, error)

	GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
	ListPendingOrders(ctx context.Context, after *domain.Cursor) iter.Seq2[*domain.Order, error]
	ListOrdersByMaker(ctx context.Context, maker string, after *domain.Cursor) iter.Seq2[*domain.Order, error]
}

type DefaultOrderUsecase struct {
	OrderRepo  domain.OrderRepository
	EscrowRepo domain.EscrowRepository
	TxManager  domain.TxManager
	Tokens     domain.TokenRegistry
	Clock      clock.Clock
	Metrics    *metrics.EscrowMetrics
	PageSize   int
	newID      func() string
}

func NewDefaultOrderUsecase(
	orderRepo domain.OrderRepository,
	escrowRepo domain.EscrowRepository,
	txManager domain.TxManager,
	tokens domain.TokenRegistry,
	clk clock.Clock,
	escrowMetrics *metrics.EscrowMetrics,
) *DefaultOrderUsecase {
	return &DefaultOrderUsecase{
		OrderRepo:  orderRepo,
		EscrowRepo: escrowRepo,
		TxManager:  txManager,
		Tokens:     tokens,
		Clock:      clk,
		Metrics:    escrowMetrics,
		newID:      newOrderID,
	}
}
