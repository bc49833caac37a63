package mappers

import (
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
)

func ToDomainBalance(model *models.BalanceModel) domain.Balance {
	return domain.Balance{
		Account:   model.AccountID,
		Token:     model.Token,
		Available: model.Available,
		Frozen:    model.Frozen,
		UpdatedAt: model.UpdatedAt,
	}
}

func ToGORMBalance(balance domain.Balance) *models.BalanceModel {
	return &models.BalanceModel{
		AccountID: balance.Account,
		Token:     balance.Token,
		Available: balance.Available,
		Frozen:    balance.Frozen,
		UpdatedAt: balance.UpdatedAt,
	}
}
