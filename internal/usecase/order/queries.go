package order

import (
	"context"
	"iter"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/pagination"
)

func (uc *DefaultOrderUsecase) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return uc.OrderRepo.GetOrderByID(ctx, orderID)
}

// ListPendingOrders yields orders a taker can still accept, newest first.
func (uc *DefaultOrderUsecase) ListPendingOrders(ctx context.Context, after *domain.Cursor) iter.Seq2[*domain.Order, error] {
	return uc.list(ctx, domain.OrderFilter{Status: domain.OrderPending, OnlyOpen: true}, after)
}

func (uc *DefaultOrderUsecase) ListOrdersByMaker(ctx context.Context, maker string, after *domain.Cursor) iter.Seq2[*domain.Order, error] {
	return uc.list(ctx, domain.OrderFilter{Maker: maker}, after)
}

func (uc *DefaultOrderUsecase) list(ctx context.Context, filter domain.OrderFilter, after *domain.Cursor) iter.Seq2[*domain.Order, error] {
	return pagination.Seq(ctx, uc.PageSize, after,
		func(ctx context.Context, after *domain.Cursor, limit int) ([]*domain.Order, error) {
			return uc.OrderRepo.ListOrders(ctx, filter, after, limit)
		},
		func(o *domain.Order) domain.Cursor { return o.Cursor() },
	)
}
