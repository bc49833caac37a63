package handlers

import (
	"net/http"

	"github.com/LavaJover/shvark-escrow-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// GetBalances lists the caller's balances, or one token with ?token=.
func (h *HTTPEscrowHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	me := caller(r).ID
	resp := response.BalancesResponse{Account: me, Balances: []response.BalanceResponse{}}

	if token := r.URL.Query().Get("token"); token != "" {
		b, err := h.LedgerUsecase.GetBalance(r.Context(), me, domain.NormalizeToken(token))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		resp.Balances = append(resp.Balances, h.balanceResponse(b))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	balances, err := h.LedgerUsecase.ListBalances(r.Context(), me)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	for _, b := range balances {
		resp.Balances = append(resp.Balances, h.balanceResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}
