package escrow

import (
	"context"
	"iter"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/pagination"
)

// GetEscrow is visible to the two parties and to privileged roles.
func (uc *DefaultEscrowUsecase) GetEscrow(ctx context.Context, caller domain.Caller, escrowID string) (*domain.Escrow, error) {
	escrow, err := uc.EscrowRepo.GetEscrowByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	if !escrow.Party(caller.ID) && !caller.Can(domain.CapListAllEscrows) {
		return nil, &domain.AuthError{Caller: caller, Action: "view", Resource: "escrow " + escrowID}
	}
	return escrow, nil
}

func (uc *DefaultEscrowUsecase) ListMakerEscrows(ctx context.Context, maker string, after *domain.Cursor) iter.Seq2[*domain.Escrow, error] {
	return uc.list(ctx, domain.EscrowFilter{Maker: maker}, after)
}

func (uc *DefaultEscrowUsecase) ListTakerEscrows(ctx context.Context, taker string, after *domain.Cursor) iter.Seq2[*domain.Escrow, error] {
	return uc.list(ctx, domain.EscrowFilter{Taker: taker}, after)
}

func (uc *DefaultEscrowUsecase) ListAllEscrows(ctx context.Context, caller domain.Caller, filter domain.EscrowFilter, after *domain.Cursor) (iter.Seq2[*domain.Escrow, error], error) {
	if err := caller.Require(domain.CapListAllEscrows); err != nil {
		return nil, err
	}
	return uc.list(ctx, filter, after), nil
}

// ListStaleEscrows yields escrows in status whose last transition is older than before.
func (uc *DefaultEscrowUsecase) ListStaleEscrows(ctx context.Context, status domain.EscrowStatus, before time.Time) iter.Seq2[*domain.Escrow, error] {
	return uc.list(ctx, domain.EscrowFilter{Status: status, StaleBefore: before}, nil)
}

func (uc *DefaultEscrowUsecase) list(ctx context.Context, filter domain.EscrowFilter, after *domain.Cursor) iter.Seq2[*domain.Escrow, error] {
	return pagination.Seq(ctx, uc.PageSize, after,
		func(ctx context.Context, after *domain.Cursor, limit int) ([]*domain.Escrow, error) {
			return uc.EscrowRepo.ListEscrows(ctx, filter, after, limit)
		},
		func(e *domain.Escrow) domain.Cursor { return e.Cursor() },
	)
}
