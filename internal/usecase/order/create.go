package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/google/uuid"
)

func newOrderID() string {
	return uuid.New().String()
}

// CreateOrder records the maker's offer. No funds move until the maker locks an escrow.
func (uc *DefaultOrderUsecase) CreateOrder(ctx context.Context, caller domain.Caller, terms domain.OrderTerms) (*domain.Order, error) {
	if err := caller.Require(domain.CapTrade); err != nil {
		return nil, err
	}
	terms, err := terms.Normalize(uc.Tokens)
	if err != nil {
		return nil, err
	}

	now := uc.Clock.Now()
	order := &domain.Order{
		ID:           uc.newID(),
		Maker:        caller.ID,
		TokenToSell:  terms.TokenToSell,
		TokenToBuy:   terms.TokenToBuy,
		AmountToSell: terms.AmountToSell,
		AmountToBuy:  terms.AmountToBuy,
		Status:       domain.OrderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = uc.TxManager.WithinTx(ctx, []domain.LockKey{domain.OrderKey(order.ID)}, func(ctx context.Context) error {
		return uc.OrderRepo.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if uc.Metrics != nil {
		uc.Metrics.RecordOrderCreated(order.TokenToSell, order.TokenToBuy)
	}
	slog.Info("order created",
		"order_id", order.ID,
		"maker", order.Maker,
		"sell", order.AmountToSell, "token_to_sell", order.TokenToSell,
		"buy", order.AmountToBuy, "token_to_buy", order.TokenToBuy,
	)
	return order, nil
}
