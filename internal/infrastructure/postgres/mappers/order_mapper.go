package mappers

import (
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
)

func ToDomainOrder(model *models.OrderModel) *domain.Order {
	order := &domain.Order{
		ID:           model.ID,
		Maker:        model.MakerID,
		TokenToSell:  model.TokenToSell,
		TokenToBuy:   model.TokenToBuy,
		AmountToSell: model.AmountToSell,
		AmountToBuy:  model.AmountToBuy,
		Status:       model.Status,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
	if model.EscrowID != nil {
		order.EscrowID = *model.EscrowID
	}
	return order
}

func ToGORMOrder(order *domain.Order) *models.OrderModel {
	model := &models.OrderModel{
		ID:           order.ID,
		MakerID:      order.Maker,
		TokenToSell:  order.TokenToSell,
		TokenToBuy:   order.TokenToBuy,
		AmountToSell: order.AmountToSell,
		AmountToBuy:  order.AmountToBuy,
		Status:       order.Status,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	if order.EscrowID != "" {
		escrowID := order.EscrowID
		model.EscrowID = &escrowID
	}
	return model
}
