package handlers

import (
	"fmt"
	"net/http"

	"github.com/LavaJover/shvark-escrow-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-escrow-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/pagination"
	"github.com/go-chi/chi/v5"
)

func (h *HTTPEscrowHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req request.CreateOrderRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	amountToSell, err := h.Tokens.ParseAmount(req.TokenToSell, req.AmountToSell)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	amountToBuy, err := h.Tokens.ParseAmount(req.TokenToBuy, req.AmountToBuy)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	created, err := h.OrderUsecase.CreateOrder(r.Context(), caller(r), domain.OrderTerms{
		TokenToSell:  req.TokenToSell,
		TokenToBuy:   req.TokenToBuy,
		AmountToSell: amountToSell,
		AmountToBuy:  amountToBuy,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.orderResponse(created))
}

// ListOrders serves scope=pending (default) or scope=mine.
func (h *HTTPEscrowHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, cursor, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	seq := h.OrderUsecase.ListPendingOrders(r.Context(), cursor)
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "pending":
	case "mine":
		seq = h.OrderUsecase.ListOrdersByMaker(r.Context(), caller(r).ID, cursor)
	default:
		h.fail(w, r, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, scope))
		return
	}

	orders, more, err := pagination.Take(seq, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := response.OrderListResponse{Orders: make([]response.OrderResponse, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, *h.orderResponse(o))
	}
	if more {
		resp.NextCursor = EncodeCursor(orders[len(orders)-1].Cursor())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPEscrowHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	found, err := h.OrderUsecase.GetOrderByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.orderResponse(found))
}

func (h *HTTPEscrowHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.OrderUsecase.CancelOrder(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, response.ErrorResponse{Order: h.orderResponse(cancelled)})
		return
	}
	writeJSON(w, http.StatusOK, h.orderResponse(cancelled))
}

// OpenEscrow lets the caller take the order.
func (h *HTTPEscrowHandler) OpenEscrow(w http.ResponseWriter, r *http.Request) {
	opened, err := h.EscrowUsecase.OpenEscrow(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, response.ErrorResponse{Escrow: h.escrowResponse(opened)})
		return
	}
	writeJSON(w, http.StatusCreated, h.escrowResponse(opened))
}
