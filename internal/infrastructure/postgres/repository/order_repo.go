package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

func (r *DefaultOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := postgres.Writable(ctx, domain.OrderKey(order.ID))
	if err != nil {
		return err
	}
	return tx.Create(mappers.ToGORMOrder(order)).Error
}

func (r *DefaultOrderRepository) UpdateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := postgres.Writable(ctx, domain.OrderKey(order.ID))
	if err != nil {
		return err
	}
	res := tx.Model(&models.OrderModel{ID: order.ID}).Select("status", "escrow_id", "updated_at").Updates(mappers.ToGORMOrder(order))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", order.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *DefaultOrderRepository) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if err := orderIDFormat(orderID); err != nil {
		return nil, err
	}
	var order models.OrderModel
	if err := postgres.Conn(ctx, r.DB).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
		}
		return nil, err
	}
	return mappers.ToDomainOrder(&order), nil
}

func (r *DefaultOrderRepository) ListOrders(ctx context.Context, filter domain.OrderFilter, after *domain.Cursor, limit int) ([]*domain.Order, error) {
	q := postgres.Conn(ctx, r.DB).Model(&models.OrderModel{})
	if filter.Maker != "" {
		q = q.Where("maker_id = ?", filter.Maker)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OnlyOpen {
		q = q.Where("status = ? AND escrow_id IS NULL", domain.OrderPending)
	}
	q = keyset(q, after, limit)

	var orderModels []models.OrderModel
	if err := q.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(orderModels))
	for i := range orderModels {
		orders = append(orders, mappers.ToDomainOrder(&orderModels[i]))
	}
	return orders, nil
}

// keyset applies the (created_at desc, id desc) cursor and the page limit. Ids
// compare bytewise to match the in-memory ordering.
func keyset(q *gorm.DB, after *domain.Cursor, limit int) *gorm.DB {
	if after != nil {
		q = q.Where(`(created_at < ? OR (created_at = ? AND id::text COLLATE "C" < ?))`,
			after.CreatedAt, after.CreatedAt, after.ID)
	}
	q = q.Order("created_at DESC").Order(`id::text COLLATE "C" DESC`)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

// orderIDFormat rejects ids the uuid column cannot hold. No order can have one.
func orderIDFormat(orderID string) error {
	if _, err := uuid.Parse(orderID); err != nil {
		return fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return nil
}
