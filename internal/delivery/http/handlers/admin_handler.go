package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/LavaJover/shvark-escrow-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// Admin routes. Capabilities are enforced by the usecases.

func (h *HTTPEscrowHandler) ListAllEscrows(w http.ResponseWriter, r *http.Request) {
	limit, cursor, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.EscrowFilter{
		Maker:  q.Get("maker"),
		Taker:  q.Get("taker"),
		Status: domain.EscrowStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		h.fail(w, r, fmt.Errorf("%w: unknown escrow status %q", domain.ErrInvalidInput, filter.Status))
		return
	}
	seq, err := h.EscrowUsecase.ListAllEscrows(r.Context(), caller(r), filter, cursor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeEscrowPage(w, r, seq, limit)
}

func (h *HTTPEscrowHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.treasury(w, r, h.LedgerUsecase.TreasuryDeposit)
}

func (h *HTTPEscrowHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.treasury(w, r, h.LedgerUsecase.TreasuryWithdraw)
}

func (h *HTTPEscrowHandler) treasury(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, caller domain.Caller, account, token string, amount int64) (domain.Balance, error),
) {
	var req request.TreasuryRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	token, err := h.Tokens.Resolve(req.Token)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	amount, err := h.Tokens.ParseAmount(token.Symbol, req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := fn(r.Context(), caller(r), req.Account, token.Symbol, amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.balanceResponse(b))
}
