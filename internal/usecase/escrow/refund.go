package escrow

import (
	"context"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// RefundEscrow returns the maker's locked funds and cancels the order. Only the
// dispute authority may call it, and only on a disputed escrow it is not party to.
func (uc *DefaultEscrowUsecase) RefundEscrow(ctx context.Context, caller domain.Caller, escrowID string) (*domain.Escrow, error) {
	escrow, err := uc.EscrowRepo.GetEscrowByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	// Authority is checked before state.
	if err := escrow.Authorize(domain.ActionRefund, caller); err != nil {
		uc.recordRejection(&EscrowOperation{EscrowID: escrowID, Action: domain.ActionRefund, Caller: caller}, err)
		return escrow, err
	}

	op := &EscrowOperation{
		EscrowID: escrow.ID,
		Action:   domain.ActionRefund,
		Caller:   caller,
		Keys: []domain.LockKey{
			domain.EscrowKey(escrow.ID),
			domain.OrderKey(escrow.OrderID),
			domain.AccountKey(escrow.Maker),
		},
		LedgerOps: []LedgerOperation{
			{Type: LedgerRelease, Account: escrow.Maker, Token: escrow.TokenToSell, Amount: escrow.AmountToSell},
		},
		OrderOp: func(ctx context.Context, e *domain.Escrow) error {
			return uc.finishOrder(ctx, e, domain.OrderCancelled)
		},
		CreatedAt: uc.Clock.Now(),
	}
	return uc.ProcessEscrowOperation(ctx, op)
}
