package handlers

import (
	"github.com/LavaJover/shvark-escrow-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

func (h *HTTPEscrowHandler) orderResponse(o *domain.Order) *response.OrderResponse {
	if o == nil {
		return nil
	}
	return &response.OrderResponse{
		ID:           o.ID,
		Maker:        o.Maker,
		TokenToSell:  o.TokenToSell,
		TokenToBuy:   o.TokenToBuy,
		AmountToSell: h.Tokens.FormatAmount(o.TokenToSell, o.AmountToSell),
		AmountToBuy:  h.Tokens.FormatAmount(o.TokenToBuy, o.AmountToBuy),
		Status:       string(o.Status),
		EscrowID:     o.EscrowID,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func (h *HTTPEscrowHandler) escrowResponse(e *domain.Escrow) *response.EscrowResponse {
	if e == nil {
		return nil
	}
	return &response.EscrowResponse{
		ID:           e.ID,
		OrderID:      e.OrderID,
		Maker:        e.Maker,
		Taker:        e.Taker,
		TokenToSell:  e.TokenToSell,
		TokenToBuy:   e.TokenToBuy,
		AmountToSell: h.Tokens.FormatAmount(e.TokenToSell, e.AmountToSell),
		AmountToBuy:  h.Tokens.FormatAmount(e.TokenToBuy, e.AmountToBuy),
		Status:       string(e.Status),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		CompletedAt:  e.CompletedAt,
	}
}

func (h *HTTPEscrowHandler) balanceResponse(b domain.Balance) response.BalanceResponse {
	return response.BalanceResponse{
		Account:   b.Account,
		Token:     b.Token,
		Available: h.Tokens.FormatAmount(b.Token, b.Available),
		Frozen:    h.Tokens.FormatAmount(b.Token, b.Frozen),
	}
}
