package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrLedgerInvariant   = errors.New("ledger invariant violation")
	ErrNotFound          = errors.New("not found")
)

// TransitionError describes a rejected state change on an order or escrow.
type TransitionError struct {
	Entity string
	ID     string
	From   string
	Action string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s %s: cannot %s from %s", e.Entity, e.ID, e.Action, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// InvariantError reports that frozen funds were about to go negative.
// It is never clamped and always aborts the surrounding unit of work.
type InvariantError struct {
	Op      string
	Account string
	Token   string
	Frozen  int64
	Amount  int64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("ledger invariant violation: %s %d %s from account %s with frozen %d",
		e.Op, e.Amount, e.Token, e.Account, e.Frozen)
}

func (e *InvariantError) Unwrap() error { return ErrLedgerInvariant }

// Reason maps an error onto a short label used in metrics and API responses.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrLedgerInvariant):
		return "ledger_invariant"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
