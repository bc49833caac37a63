package mappers

import (
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
)

func ToDomainEscrow(model *models.EscrowModel) *domain.Escrow {
	return &domain.Escrow{
		ID:           model.ID,
		OrderID:      model.OrderID,
		Maker:        model.MakerID,
		Taker:        model.TakerID,
		TokenToSell:  model.TokenToSell,
		TokenToBuy:   model.TokenToBuy,
		AmountToSell: model.AmountToSell,
		AmountToBuy:  model.AmountToBuy,
		Status:       model.Status,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
		CompletedAt:  model.CompletedAt,
	}
}

func ToGORMEscrow(escrow *domain.Escrow) *models.EscrowModel {
	return &models.EscrowModel{
		ID:           escrow.ID,
		OrderID:      escrow.OrderID,
		MakerID:      escrow.Maker,
		TakerID:      escrow.Taker,
		TokenToSell:  escrow.TokenToSell,
		TokenToBuy:   escrow.TokenToBuy,
		AmountToSell: escrow.AmountToSell,
		AmountToBuy:  escrow.AmountToBuy,
		Status:       escrow.Status,
		CreatedAt:    escrow.CreatedAt,
		UpdatedAt:    escrow.UpdatedAt,
		CompletedAt:  escrow.CompletedAt,
	}
}
