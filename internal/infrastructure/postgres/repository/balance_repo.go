package repository

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultBalanceRepository struct {
	DB *gorm.DB
}

func NewDefaultBalanceRepository(db *gorm.DB) *DefaultBalanceRepository {
	return &DefaultBalanceRepository{DB: db}
}

func (r *DefaultBalanceRepository) GetBalance(ctx context.Context, account, token string) (domain.Balance, error) {
	var balance models.BalanceModel
	err := postgres.Conn(ctx, r.DB).First(&balance, "account_id = ? AND token = ?", account, token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Balance{Account: account, Token: token}, nil
	}
	if err != nil {
		return domain.Balance{}, err
	}
	return mappers.ToDomainBalance(&balance), nil
}

func (r *DefaultBalanceRepository) ListBalances(ctx context.Context, account string) ([]domain.Balance, error) {
	var balanceModels []models.BalanceModel
	if err := postgres.Conn(ctx, r.DB).Where("account_id = ?", account).Order("token").Find(&balanceModels).Error; err != nil {
		return nil, err
	}
	balances := make([]domain.Balance, 0, len(balanceModels))
	for i := range balanceModels {
		balances = append(balances, mappers.ToDomainBalance(&balanceModels[i]))
	}
	return balances, nil
}

func (r *DefaultBalanceRepository) SaveBalance(ctx context.Context, balance domain.Balance) error {
	tx, err := postgres.Writable(ctx, domain.AccountKey(balance.Account))
	if err != nil {
		return err
	}
	if balance.Available < 0 || balance.Frozen < 0 {
		return &domain.InvariantError{Op: "save", Account: balance.Account, Token: balance.Token, Frozen: balance.Frozen, Amount: balance.Available}
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"available", "frozen", "updated_at"}),
	}).Create(mappers.ToGORMBalance(balance)).Error
}
