package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultEscrowRepository struct {
	DB *gorm.DB
}

func NewDefaultEscrowRepository(db *gorm.DB) *DefaultEscrowRepository {
	return &DefaultEscrowRepository{DB: db}
}

func (r *DefaultEscrowRepository) CreateEscrow(ctx context.Context, escrow *domain.Escrow) error {
	tx, err := postgres.Writable(ctx, domain.EscrowKey(escrow.ID))
	if err != nil {
		return err
	}
	if err := tx.Create(mappers.ToGORMEscrow(escrow)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &domain.TransitionError{
				Entity: "order", ID: escrow.OrderID, From: string(domain.OrderPending),
				Action: "open escrow", Reason: "escrow already open",
			}
		}
		return err
	}
	return nil
}

func (r *DefaultEscrowRepository) UpdateEscrow(ctx context.Context, escrow *domain.Escrow) error {
	tx, err := postgres.Writable(ctx, domain.EscrowKey(escrow.ID))
	if err != nil {
		return err
	}
	res := tx.Model(&models.EscrowModel{ID: escrow.ID}).
		Select("status", "updated_at", "completed_at").
		Updates(mappers.ToGORMEscrow(escrow))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("escrow %s: %w", escrow.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *DefaultEscrowRepository) GetEscrowByID(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	return r.first(ctx, "id = ?", escrowID)
}

func (r *DefaultEscrowRepository) GetEscrowByOrderID(ctx context.Context, orderID string) (*domain.Escrow, error) {
	if err := orderIDFormat(orderID); err != nil {
		return nil, err
	}
	return r.first(ctx, "order_id = ?", orderID)
}

func (r *DefaultEscrowRepository) first(ctx context.Context, cond string, arg string) (*domain.Escrow, error) {
	var escrow models.EscrowModel
	if err := postgres.Conn(ctx, r.DB).First(&escrow, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("escrow %s: %w", arg, domain.ErrNotFound)
		}
		return nil, err
	}
	return mappers.ToDomainEscrow(&escrow), nil
}

func (r *DefaultEscrowRepository) ListEscrows(ctx context.Context, filter domain.EscrowFilter, after *domain.Cursor, limit int) ([]*domain.Escrow, error) {
	q := postgres.Conn(ctx, r.DB).Model(&models.EscrowModel{})
	if filter.Maker != "" {
		q = q.Where("maker_id = ?", filter.Maker)
	}
	if filter.Taker != "" {
		q = q.Where("taker_id = ?", filter.Taker)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if !filter.StaleBefore.IsZero() {
		q = q.Where("updated_at < ?", filter.StaleBefore)
	}
	q = keyset(q, after, limit)

	var escrowModels []models.EscrowModel
	if err := q.Find(&escrowModels).Error; err != nil {
		return nil, err
	}
	escrows := make([]*domain.Escrow, 0, len(escrowModels))
	for i := range escrowModels {
		escrows = append(escrows, mappers.ToDomainEscrow(&escrowModels[i]))
	}
	return escrows, nil
}
