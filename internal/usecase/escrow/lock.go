package escrow

import (
	"context"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// LockEscrow moves the maker's sell amount into frozen custody.
func (uc *DefaultEscrowUsecase) LockEscrow(ctx context.Context, caller domain.Caller, escrowID string, funding domain.Funding) (*domain.Escrow, error) {
	escrow, err := uc.EscrowRepo.GetEscrowByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}

	op := &EscrowOperation{
		EscrowID: escrow.ID,
		Action:   domain.ActionLock,
		Caller:   caller,
		Keys: []domain.LockKey{
			domain.EscrowKey(escrow.ID),
			domain.OrderKey(escrow.OrderID),
			domain.AccountKey(escrow.Maker),
		},
		Funding:   &FundingCheck{Funding: funding, Token: escrow.TokenToSell, Required: escrow.AmountToSell},
		Guard:     uc.requireOrderPending,
		LedgerOps: fundsIn(escrow.Maker, escrow.TokenToSell, escrow.AmountToSell, funding),
		CreatedAt: uc.Clock.Now(),
	}
	return uc.ProcessEscrowOperation(ctx, op)
}

// requireOrderPending rejects a lock on an order the maker has since cancelled.
func (uc *DefaultEscrowUsecase) requireOrderPending(ctx context.Context, escrow *domain.Escrow) error {
	order, err := uc.OrderRepo.GetOrderByID(ctx, escrow.OrderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderPending || order.EscrowID != escrow.ID {
		return &domain.TransitionError{
			Entity: "escrow", ID: escrow.ID, From: string(domain.EscrowCreated), Action: string(domain.ActionLock),
			Reason: "order " + order.ID + " is " + string(order.Status),
		}
	}
	return nil
}
