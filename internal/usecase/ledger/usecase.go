package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-escrow-service/internal/clock"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
)

// LedgerUsecase is the balance ledger. Every mutation runs in a unit of work
// holding the involved account keys; called inside an outer unit of work it joins it.
type LedgerUsecase interface {
	Reserve(ctx context.Context, account, token string, amount int64) error
	Release(ctx context.Context, account, token string, amount int64) error
	TransferFrozenToAvailable(ctx context.Context, from, to, token string, amount int64) error
	Deposit(ctx context.Context, account, token string, amount int64) error
	Withdraw(ctx context.Context, account, token string, amount int64) error

	// Funding rails, restricted to callers allowed to move money in or out.
	TreasuryDeposit(ctx context.Context, caller domain.Caller, account, token string, amount int64) (domain.Balance, error)
	TreasuryWithdraw(ctx context.Context, caller domain.Caller, account, token string, amount int64) (domain.Balance, error)

	GetBalance(ctx context.Context, account, token string) (domain.Balance, error)
	ListBalances(ctx context.Context, account string) ([]domain.Balance, error)
}

type DefaultLedgerUsecase struct {
	balanceRepo domain.BalanceRepository
	txManager   domain.TxManager
	clock       clock.Clock
	Metrics     *metrics.EscrowMetrics
}

func NewDefaultLedgerUsecase(
	balanceRepo domain.BalanceRepository,
	txManager domain.TxManager,
	clk clock.Clock,
	escrowMetrics *metrics.EscrowMetrics,
) *DefaultLedgerUsecase {
	return &DefaultLedgerUsecase{
		balanceRepo: balanceRepo,
		txManager:   txManager,
		clock:       clk,
		Metrics:     escrowMetrics,
	}
}

func (uc *DefaultLedgerUsecase) Reserve(ctx context.Context, account, token string, amount int64) error {
	_, err := uc.mutate(ctx, "reserve", account, token, func(b domain.Balance) (domain.Balance, error) {
		return b.Reserve(amount)
	})
	return err
}

func (uc *DefaultLedgerUsecase) Release(ctx context.Context, account, token string, amount int64) error {
	_, err := uc.mutate(ctx, "release", account, token, func(b domain.Balance) (domain.Balance, error) {
		return b.Release(amount)
	})
	return err
}

func (uc *DefaultLedgerUsecase) Deposit(ctx context.Context, account, token string, amount int64) error {
	_, err := uc.mutate(ctx, "deposit", account, token, func(b domain.Balance) (domain.Balance, error) {
		return b.Credit(amount)
	})
	return err
}

func (uc *DefaultLedgerUsecase) Withdraw(ctx context.Context, account, token string, amount int64) error {
	_, err := uc.mutate(ctx, "withdraw", account, token, func(b domain.Balance) (domain.Balance, error) {
		return b.Withdraw(amount)
	})
	return err
}

// TransferFrozenToAvailable debits from.frozen and credits to.available in one step.
func (uc *DefaultLedgerUsecase) TransferFrozenToAvailable(ctx context.Context, from, to, token string, amount int64) error {
	token = domain.NormalizeToken(token)
	if err := validAccount(from); err != nil {
		return err
	}
	if err := validAccount(to); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: transfer from %s to itself", domain.ErrInvalidInput, from)
	}

	keys := []domain.LockKey{domain.AccountKey(from), domain.AccountKey(to)}
	err := uc.txManager.WithinTx(ctx, keys, func(ctx context.Context) error {
		src, err := uc.balanceRepo.GetBalance(ctx, from, token)
		if err != nil {
			return err
		}
		dst, err := uc.balanceRepo.GetBalance(ctx, to, token)
		if err != nil {
			return err
		}
		if src, err = src.DebitFrozen(amount); err != nil {
			return err
		}
		if dst, err = dst.Credit(amount); err != nil {
			return err
		}
		now := uc.clock.Now()
		src.UpdatedAt, dst.UpdatedAt = now, now
		if err := uc.balanceRepo.SaveBalance(ctx, src); err != nil {
			return err
		}
		return uc.balanceRepo.SaveBalance(ctx, dst)
	})
	if err != nil {
		uc.observeFailure("transfer", from, token, err)
	}
	return err
}

func (uc *DefaultLedgerUsecase) TreasuryDeposit(ctx context.Context, caller domain.Caller, account, token string, amount int64) (domain.Balance, error) {
	if err := caller.Require(domain.CapFundAccounts); err != nil {
		return domain.Balance{}, err
	}
	b, err := uc.mutate(ctx, "deposit", account, token, func(b domain.Balance) (domain.Balance, error) {
		return b.Credit(amount)
	})
	if err != nil {
		return b, err
	}
	if uc.Metrics != nil {
		uc.Metrics.RecordExternalFlow("in", b.Token, amount)
	}
	slog.Info("deposit credited", "account", account, "token", b.Token, "amount", amount, "operator", caller.ID)
	return b, nil
}

func (uc *DefaultLedgerUsecase) TreasuryWithdraw(ctx context.Context, caller domain.Caller, account, token string, amount int64) (domain.Balance, error) {
	if err := caller.Require(domain.CapFundAccounts); err != nil {
		return domain.Balance{}, err
	}
	b, err := uc.mutate(ctx, "withdraw", account, token, func(b domain.Balance) (domain.Balance, error) {
		return b.Withdraw(amount)
	})
	if err != nil {
		return b, err
	}
	if uc.Metrics != nil {
		uc.Metrics.RecordExternalFlow("out", b.Token, amount)
	}
	slog.Info("withdrawal debited", "account", account, "token", b.Token, "amount", amount, "operator", caller.ID)
	return b, nil
}

func (uc *DefaultLedgerUsecase) GetBalance(ctx context.Context, account, token string) (domain.Balance, error) {
	if err := validAccount(account); err != nil {
		return domain.Balance{}, err
	}
	return uc.balanceRepo.GetBalance(ctx, account, domain.NormalizeToken(token))
}

func (uc *DefaultLedgerUsecase) ListBalances(ctx context.Context, account string) ([]domain.Balance, error) {
	if err := validAccount(account); err != nil {
		return nil, err
	}
	return uc.balanceRepo.ListBalances(ctx, account)
}

// mutate applies fn to one balance under the account key. On failure it returns
// the balance as it was before the call.
func (uc *DefaultLedgerUsecase) mutate(
	ctx context.Context,
	op, account, token string,
	fn func(domain.Balance) (domain.Balance, error),
) (domain.Balance, error) {
	token = domain.NormalizeToken(token)
	if err := validAccount(account); err != nil {
		return domain.Balance{}, err
	}
	if token == "" {
		return domain.Balance{}, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}

	var result domain.Balance
	err := uc.txManager.WithinTx(ctx, []domain.LockKey{domain.AccountKey(account)}, func(ctx context.Context) error {
		current, err := uc.balanceRepo.GetBalance(ctx, account, token)
		if err != nil {
			return err
		}
		result = current
		next, err := fn(current)
		if err != nil {
			return err
		}
		next.UpdatedAt = uc.clock.Now()
		if err := uc.balanceRepo.SaveBalance(ctx, next); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		uc.observeFailure(op, account, token, err)
	}
	return result, err
}

func (uc *DefaultLedgerUsecase) observeFailure(op, account, token string, err error) {
	if !errors.Is(err, domain.ErrLedgerInvariant) {
		return
	}
	slog.Error("ledger invariant violated", "op", op, "account", account, "token", token, "error", err)
	if uc.Metrics != nil {
		uc.Metrics.RecordInvariantViolation(op, token)
	}
}

func validAccount(account string) error {
	if account == "" {
		return fmt.Errorf("%w: account is required", domain.ErrInvalidInput)
	}
	return nil
}
