package escrow

import (
	"context"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// CompleteEscrow settles both legs atomically: the taker's buy amount is reserved,
// then each frozen leg is credited to the counterparty and the order completes.
// If the taker cannot fund the leg nothing changes and the escrow stays Locked.
func (uc *DefaultEscrowUsecase) CompleteEscrow(ctx context.Context, caller domain.Caller, escrowID string, funding domain.Funding) (*domain.Escrow, error) {
	escrow, err := uc.EscrowRepo.GetEscrowByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}

	ledgerOps := fundsIn(escrow.Taker, escrow.TokenToBuy, escrow.AmountToBuy, funding)
	ledgerOps = append(ledgerOps,
		LedgerOperation{Type: LedgerTransfer, Account: escrow.Maker, To: escrow.Taker, Token: escrow.TokenToSell, Amount: escrow.AmountToSell},
		LedgerOperation{Type: LedgerTransfer, Account: escrow.Taker, To: escrow.Maker, Token: escrow.TokenToBuy, Amount: escrow.AmountToBuy},
	)

	op := &EscrowOperation{
		EscrowID: escrow.ID,
		Action:   domain.ActionComplete,
		Caller:   caller,
		Keys: []domain.LockKey{
			domain.EscrowKey(escrow.ID),
			domain.OrderKey(escrow.OrderID),
			domain.AccountKey(escrow.Maker),
			domain.AccountKey(escrow.Taker),
		},
		Funding:   &FundingCheck{Funding: funding, Token: escrow.TokenToBuy, Required: escrow.AmountToBuy},
		LedgerOps: ledgerOps,
		OrderOp: func(ctx context.Context, e *domain.Escrow) error {
			return uc.finishOrder(ctx, e, domain.OrderCompleted)
		},
		CreatedAt: uc.Clock.Now(),
	}
	return uc.ProcessEscrowOperation(ctx, op)
}

// finishOrder moves the escrow's order to want. The order must still be pending;
// anything else means custody and order state diverged.
func (uc *DefaultEscrowUsecase) finishOrder(ctx context.Context, escrow *domain.Escrow, want domain.OrderStatus) error {
	current, err := uc.OrderRepo.GetOrderByID(ctx, escrow.OrderID)
	if err != nil {
		return err
	}
	if current.Status != domain.OrderPending {
		return &domain.TransitionError{
			Entity: "order", ID: current.ID, From: string(current.Status), Action: "finish as " + string(want),
		}
	}

	var finished *domain.Order
	switch want {
	case domain.OrderCompleted:
		finished, err = uc.OrderUsecase.MarkCompleted(ctx, escrow.OrderID)
	default:
		finished, err = uc.OrderUsecase.MarkCancelled(ctx, escrow.OrderID)
	}
	if err != nil {
		return err
	}
	if finished.Status != want {
		return &domain.TransitionError{Entity: "order", ID: finished.ID, From: string(finished.Status), Action: "finish as " + string(want)}
	}
	return nil
}
