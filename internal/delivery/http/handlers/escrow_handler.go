package handlers

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/LavaJover/shvark-escrow-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-escrow-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/pagination"
	"github.com/go-chi/chi/v5"
)

// ListEscrows serves the caller's escrows as maker (default) or as taker.
func (h *HTTPEscrowHandler) ListEscrows(w http.ResponseWriter, r *http.Request) {
	limit, cursor, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	me := caller(r).ID

	seq := h.EscrowUsecase.ListMakerEscrows(r.Context(), me, cursor)
	switch role := r.URL.Query().Get("role"); role {
	case "", "maker":
	case "taker":
		seq = h.EscrowUsecase.ListTakerEscrows(r.Context(), me, cursor)
	default:
		h.fail(w, r, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role))
		return
	}
	h.writeEscrowPage(w, r, seq, limit)
}

func (h *HTTPEscrowHandler) GetEscrow(w http.ResponseWriter, r *http.Request) {
	found, err := h.EscrowUsecase.GetEscrow(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.escrowResponse(found))
}

func (h *HTTPEscrowHandler) LockEscrow(w http.ResponseWriter, r *http.Request) {
	h.fundedTransition(w, r, func(e *domain.Escrow) string { return e.TokenToSell }, h.EscrowUsecase.LockEscrow)
}

func (h *HTTPEscrowHandler) CompleteEscrow(w http.ResponseWriter, r *http.Request) {
	h.fundedTransition(w, r, func(e *domain.Escrow) string { return e.TokenToBuy }, h.EscrowUsecase.CompleteEscrow)
}

func (h *HTTPEscrowHandler) DisputeEscrow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.EscrowUsecase.DisputeEscrow)
}

func (h *HTTPEscrowHandler) RefundEscrow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.EscrowUsecase.RefundEscrow)
}

type transitionFunc func(ctx context.Context, caller domain.Caller, escrowID string) (*domain.Escrow, error)

type fundedTransitionFunc func(ctx context.Context, caller domain.Caller, escrowID string, funding domain.Funding) (*domain.Escrow, error)

func (h *HTTPEscrowHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	updated, err := fn(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, response.ErrorResponse{Escrow: h.escrowResponse(updated)})
		return
	}
	writeJSON(w, http.StatusOK, h.escrowResponse(updated))
}

// fundedTransition converts the attached value with the decimals of the token
// the transition pulls in.
func (h *HTTPEscrowHandler) fundedTransition(w http.ResponseWriter, r *http.Request, tokenOf func(*domain.Escrow) string, fn fundedTransitionFunc) {
	var req request.FundingRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	escrowID := chi.URLParam(r, "id")

	var funding domain.Funding
	if req.AttachedValue != "" {
		current, err := h.EscrowUsecase.GetEscrow(r.Context(), caller(r), escrowID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		attached, err := h.Tokens.ParseAmount(tokenOf(current), req.AttachedValue)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		funding.Attached = attached
	}

	updated, err := fn(r.Context(), caller(r), escrowID, funding)
	if err != nil {
		h.writeError(w, r, err, response.ErrorResponse{Escrow: h.escrowResponse(updated)})
		return
	}
	writeJSON(w, http.StatusOK, h.escrowResponse(updated))
}

func (h *HTTPEscrowHandler) writeEscrowPage(w http.ResponseWriter, r *http.Request, seq iter.Seq2[*domain.Escrow, error], limit int) {
	escrows, more, err := pagination.Take(seq, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := response.EscrowListResponse{Escrows: make([]response.EscrowResponse, 0, len(escrows))}
	for _, e := range escrows {
		resp.Escrows = append(resp.Escrows, *h.escrowResponse(e))
	}
	if more {
		resp.NextCursor = EncodeCursor(escrows[len(escrows)-1].Cursor())
	}
	writeJSON(w, http.StatusOK, resp)
}
