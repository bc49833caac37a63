package order

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// CancelOrder withdraws a maker's order. Once an escrow on it is locked the order
// can only be unwound through a dispute.
func (uc *DefaultOrderUsecase) CancelOrder(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error) {
	var result *domain.Order
	err := uc.TxManager.WithinTx(ctx, []domain.LockKey{domain.OrderKey(orderID)}, func(ctx context.Context) error {
		order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		result = order

		if !caller.Can(domain.CapTrade) || caller.ID != order.Maker {
			return &domain.AuthError{Caller: caller, Action: "cancel", Resource: "order " + order.ID}
		}
		if order.Status != domain.OrderPending {
			return &domain.TransitionError{Entity: "order", ID: order.ID, From: string(order.Status), Action: "cancel"}
		}
		if order.EscrowID != "" {
			escrow, err := uc.EscrowRepo.GetEscrowByID(ctx, order.EscrowID)
			if err != nil {
				return err
			}
			if escrow.Status != domain.EscrowCreated {
				return &domain.TransitionError{
					Entity: "order", ID: order.ID, From: string(order.Status), Action: "cancel",
					Reason: "escrow " + escrow.ID + " is " + string(escrow.Status),
				}
			}
		}

		next := *order
		next.MarkCancelled(uc.Clock.Now())
		if err := uc.OrderRepo.UpdateOrder(ctx, &next); err != nil {
			return err
		}
		result = &next
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("order cancel rejected", "order_id", orderID, "caller", caller.ID, "error", err)
		}
		return result, err
	}

	if uc.Metrics != nil {
		uc.Metrics.RecordOrderCancelled("maker")
	}
	slog.Info("order cancelled", "order_id", orderID, "maker", caller.ID)
	return result, nil
}

func (uc *DefaultOrderUsecase) MarkCompleted(ctx context.Context, orderID string) (*domain.Order, error) {
	return uc.finish(ctx, orderID, (*domain.Order).MarkCompleted)
}

func (uc *DefaultOrderUsecase) MarkCancelled(ctx context.Context, orderID string) (*domain.Order, error) {
	return uc.finish(ctx, orderID, (*domain.Order).MarkCancelled)
}

// finish applies a terminal mark. Terminal orders are returned unchanged.
func (uc *DefaultOrderUsecase) finish(ctx context.Context, orderID string, mark func(*domain.Order, time.Time) bool) (*domain.Order, error) {
	var result *domain.Order
	err := uc.TxManager.WithinTx(ctx, []domain.LockKey{domain.OrderKey(orderID)}, func(ctx context.Context) error {
		order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		result = order
		next := *order
		if !mark(&next, uc.Clock.Now()) {
			return nil
		}
		if err := uc.OrderRepo.UpdateOrder(ctx, &next); err != nil {
			return err
		}
		result = &next
		return nil
	})
	return result, err
}
