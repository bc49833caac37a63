package domain

import (
	"context"
	"math"
	"time"
)

// Balance of one token held by one account, in the token's minor units.
type Balance struct {
	Account   string
	Token     string
	Available int64
	Frozen    int64
	UpdatedAt time.Time
}

// Total is the amount the account owns, spendable or not.
func (b Balance) Total() int64 {
	return b.Available + b.Frozen
}

// Reserve moves amount from available to frozen.
func (b Balance) Reserve(amount int64) (Balance, error) {
	if err := checkAmount(amount); err != nil {
		return b, err
	}
	if b.Available < amount {
		return b, ErrInsufficientFunds
	}
	b.Available -= amount
	b.Frozen += amount
	return b, nil
}

// Release moves amount from frozen back to available.
func (b Balance) Release(amount int64) (Balance, error) {
	if err := checkAmount(amount); err != nil {
		return b, err
	}
	if b.Frozen < amount {
		return b, &InvariantError{Op: "release", Account: b.Account, Token: b.Token, Frozen: b.Frozen, Amount: amount}
	}
	b.Frozen -= amount
	b.Available += amount
	return b, nil
}

// DebitFrozen removes amount from frozen, the outgoing half of a settlement leg.
func (b Balance) DebitFrozen(amount int64) (Balance, error) {
	if err := checkAmount(amount); err != nil {
		return b, err
	}
	if b.Frozen < amount {
		return b, &InvariantError{Op: "transfer", Account: b.Account, Token: b.Token, Frozen: b.Frozen, Amount: amount}
	}
	b.Frozen -= amount
	return b, nil
}

// Credit adds amount to available.
func (b Balance) Credit(amount int64) (Balance, error) {
	if err := checkAmount(amount); err != nil {
		return b, err
	}
	if b.Available > math.MaxInt64-amount || b.Total() > math.MaxInt64-amount {
		return b, invalidInput("credit of %d %s overflows account %s", amount, b.Token, b.Account)
	}
	b.Available += amount
	return b, nil
}

// Withdraw removes amount from available. Frozen funds cannot be withdrawn.
func (b Balance) Withdraw(amount int64) (Balance, error) {
	if err := checkAmount(amount); err != nil {
		return b, err
	}
	if b.Available < amount {
		return b, ErrInsufficientFunds
	}
	b.Available -= amount
	return b, nil
}

func checkAmount(amount int64) error {
	if amount <= 0 {
		return invalidInput("amount must be positive, got %d", amount)
	}
	return nil
}

// BalanceRepository stores balances. A missing row reads as a zero balance.
type BalanceRepository interface {
	GetBalance(ctx context.Context, account, token string) (Balance, error)
	ListBalances(ctx context.Context, account string) ([]Balance, error)
	SaveBalance(ctx context.Context, balance Balance) error
}
