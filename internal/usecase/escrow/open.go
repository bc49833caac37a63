package escrow

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// OpenEscrow binds the caller as taker of a pending order. The escrow starts in
// Created and holds no funds.
func (uc *DefaultEscrowUsecase) OpenEscrow(ctx context.Context, caller domain.Caller, orderID string) (*domain.Escrow, error) {
	op := &EscrowOperation{Action: domain.ActionOpen, Caller: caller}
	if err := caller.Require(domain.CapTrade); err != nil {
		uc.recordRejection(op, err)
		return nil, err
	}

	escrowID := uc.newEscrowID()
	op.EscrowID = escrowID
	keys := []domain.LockKey{domain.OrderKey(orderID), domain.EscrowKey(escrowID)}

	var (
		escrow  *domain.Escrow
		emitted bool
	)
	outer := ctx
	err := uc.TxManager.WithinTx(ctx, keys, func(ctx context.Context) error {
		order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		now := uc.Clock.Now()
		created, err := domain.NewEscrow(escrowID, order, caller.ID, now)
		if err != nil {
			return err
		}
		next := *order
		if err := next.AttachEscrow(escrowID, now); err != nil {
			return err
		}
		if err := uc.EscrowRepo.CreateEscrow(ctx, created); err != nil {
			return err
		}
		if err := uc.OrderRepo.UpdateOrder(ctx, &next); err != nil {
			return err
		}
		escrow = created
		domain.AfterCommit(ctx, func() {
			uc.emit(outer, created, domain.ActionOpen, caller.ID)
			emitted = true
		})
		return nil
	})
	if err != nil {
		uc.recordRejection(op, err)
		return nil, err
	}

	slog.Info("escrow opened", "escrow_id", escrow.ID, "order_id", orderID, "maker", escrow.Maker, "taker", escrow.Taker)
	if !emitted {
		uc.emit(ctx, escrow, domain.ActionOpen, caller.ID)
	}
	if uc.Metrics != nil {
		uc.Metrics.RecordTransition(string(domain.ActionOpen), string(escrow.Status))
	}
	return escrow, nil
}
