package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

////////////////////// Settlement coordinator //////////////////////////

// EscrowOperation describes one escrow transition and every side effect that must
// commit with it.
type EscrowOperation struct {
	EscrowID string
	Action   domain.EscrowAction
	Caller   domain.Caller
	// Keys are every lock key the operation touches.
	Keys []domain.LockKey
	// Funding, when set, is checked after the status check and before any ledger op.
	Funding *FundingCheck
	// Guard runs after the escrow accepted the transition, before ledger ops.
	Guard     func(ctx context.Context, escrow *domain.Escrow) error
	LedgerOps []LedgerOperation
	OrderOp   func(ctx context.Context, escrow *domain.Escrow) error
	CreatedAt time.Time
}

type FundingCheck struct {
	Funding  domain.Funding
	Token    string
	Required int64
}

type LedgerOpType string

const (
	LedgerDeposit  LedgerOpType = "deposit"
	LedgerReserve  LedgerOpType = "reserve"
	LedgerRelease  LedgerOpType = "release"
	LedgerTransfer LedgerOpType = "transfer"
)

type LedgerOperation struct {
	Type    LedgerOpType
	Account string
	// To is the receiving account of a transfer.
	To     string
	Token  string
	Amount int64
}

// ProcessEscrowOperation is the single entry point for every transition after open.
func (uc *DefaultEscrowUsecase) ProcessEscrowOperation(ctx context.Context, op *EscrowOperation) (*domain.Escrow, error) {
	// 1. Critical: status, ledger and order change in one unit of work.
	escrow, from, err := uc.processCriticalOperations(ctx, op)
	if err != nil {
		uc.recordRejection(op, err)
		return escrow, err
	}

	// 2. Non-critical: logs and metrics. The event was dispatched at commit, before
	// the keys were released. Failures here never undo the transition.
	uc.scheduleNonCriticalOperations(op, from, escrow)
	return escrow, nil
}

func (uc *DefaultEscrowUsecase) processCriticalOperations(ctx context.Context, op *EscrowOperation) (*domain.Escrow, domain.EscrowStatus, error) {
	var (
		result  *domain.Escrow
		from    domain.EscrowStatus
		emitted bool
	)
	outer := ctx
	err := uc.TxManager.WithinTx(ctx, op.Keys, func(ctx context.Context) error {
		current, err := uc.EscrowRepo.GetEscrowByID(ctx, op.EscrowID)
		if err != nil {
			return err
		}
		result, from = current, current.Status

		next := *current
		if err := next.Apply(op.Action, op.Caller, op.CreatedAt); err != nil {
			return err
		}
		if op.Funding != nil {
			if err := op.Funding.Funding.Validate(op.Funding.Token, op.Funding.Required, uc.Tokens); err != nil {
				return err
			}
		}
		if op.Guard != nil {
			if err := op.Guard(ctx, &next); err != nil {
				return err
			}
		}
		for _, lop := range op.LedgerOps {
			if err := uc.processLedgerOperation(ctx, lop); err != nil {
				return err
			}
		}
		if op.OrderOp != nil {
			if err := op.OrderOp(ctx, &next); err != nil {
				return err
			}
		}
		if err := uc.EscrowRepo.UpdateEscrow(ctx, &next); err != nil {
			return err
		}
		result = &next
		committed := result
		domain.AfterCommit(ctx, func() {
			uc.emit(outer, committed, op.Action, op.Caller.ID)
			emitted = true
		})
		return nil
	})
	if err == nil && !emitted {
		uc.emit(outer, result, op.Action, op.Caller.ID)
	}
	return result, from, err
}

func (uc *DefaultEscrowUsecase) processLedgerOperation(ctx context.Context, lop LedgerOperation) error {
	var err error
	switch lop.Type {
	case LedgerDeposit:
		err = uc.Ledger.Deposit(ctx, lop.Account, lop.Token, lop.Amount)
	case LedgerReserve:
		err = uc.Ledger.Reserve(ctx, lop.Account, lop.Token, lop.Amount)
	case LedgerRelease:
		err = uc.Ledger.Release(ctx, lop.Account, lop.Token, lop.Amount)
	case LedgerTransfer:
		err = uc.Ledger.TransferFrozenToAvailable(ctx, lop.Account, lop.To, lop.Token, lop.Amount)
	default:
		return fmt.Errorf("unknown ledger operation: %s", lop.Type)
	}
	if err != nil {
		return fmt.Errorf("%s %d %s for %s: %w", lop.Type, lop.Amount, lop.Token, lop.Account, err)
	}
	return nil
}

func (uc *DefaultEscrowUsecase) scheduleNonCriticalOperations(op *EscrowOperation, from domain.EscrowStatus, escrow *domain.Escrow) {
	slog.Info("escrow transition",
		"escrow_id", escrow.ID,
		"order_id", escrow.OrderID,
		"action", op.Action,
		"from", from,
		"to", escrow.Status,
		"actor", op.Caller.ID,
	)
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordTransition(string(op.Action), string(escrow.Status))
	lifetime := escrow.UpdatedAt.Sub(escrow.CreatedAt).Seconds()
	switch escrow.Status {
	case domain.EscrowCompleted:
		uc.Metrics.RecordSettlement(escrow.TokenToSell, escrow.AmountToSell, escrow.TokenToBuy, escrow.AmountToBuy, lifetime)
	case domain.EscrowRefunded:
		uc.Metrics.RecordRefund(escrow.TokenToSell, escrow.AmountToSell, lifetime)
		uc.Metrics.RecordOrderCancelled("refund")
	}
}

func (uc *DefaultEscrowUsecase) emit(ctx context.Context, escrow *domain.Escrow, action domain.EscrowAction, actor string) {
	if uc.Events == nil {
		return
	}
	uc.Events.Dispatch(context.WithoutCancel(ctx), domain.NewEscrowEvent(uc.newEventID(), escrow, action, actor))
}

func (uc *DefaultEscrowUsecase) recordRejection(op *EscrowOperation, err error) {
	reason := domain.Reason(err)
	if uc.Metrics != nil {
		uc.Metrics.RecordRejection(string(op.Action), reason)
	}
	if errors.Is(err, domain.ErrLedgerInvariant) {
		slog.Error("escrow operation aborted by ledger invariant",
			"escrow_id", op.EscrowID, "action", op.Action, "caller", op.Caller.ID, "error", err)
		return
	}
	slog.Warn("escrow operation rejected",
		"escrow_id", op.EscrowID, "action", op.Action, "caller", op.Caller.ID, "reason", reason, "error", err)
}

// fundsIn brings amount of token under escrow control for account: an attached
// value is credited first, then the amount is reserved.
func fundsIn(account, token string, amount int64, funding domain.Funding) []LedgerOperation {
	ops := make([]LedgerOperation, 0, 2)
	if funding.Attached > 0 {
		ops = append(ops, LedgerOperation{Type: LedgerDeposit, Account: account, Token: token, Amount: funding.Attached})
	}
	return append(ops, LedgerOperation{Type: LedgerReserve, Account: account, Token: token, Amount: amount})
}
