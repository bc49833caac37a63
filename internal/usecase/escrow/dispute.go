package escrow

import (
	"context"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// DisputeEscrow freezes a locked escrow pending a decision by the dispute authority.
// Funds stay where lock put them.
func (uc *DefaultEscrowUsecase) DisputeEscrow(ctx context.Context, caller domain.Caller, escrowID string) (*domain.Escrow, error) {
	op := &EscrowOperation{
		EscrowID:  escrowID,
		Action:    domain.ActionDispute,
		Caller:    caller,
		Keys:      []domain.LockKey{domain.EscrowKey(escrowID)},
		CreatedAt: uc.Clock.Now(),
	}
	return uc.ProcessEscrowOperation(ctx, op)
}
