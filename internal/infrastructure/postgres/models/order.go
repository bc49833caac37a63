package models

import (
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

type OrderModel struct {
	ID           string             `gorm:"primaryKey;type:uuid"`
	MakerID      string             `gorm:"not null;index:idx_orders_maker_created,priority:1"`
	TokenToSell  string             `gorm:"not null"`
	TokenToBuy   string             `gorm:"not null"`
	AmountToSell int64              `gorm:"not null"`
	AmountToBuy  int64              `gorm:"not null"`
	Status       domain.OrderStatus `gorm:"not null;index:idx_orders_status_created,priority:1"`
	EscrowID     *string
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false;index:idx_orders_maker_created,priority:2;index:idx_orders_status_created,priority:2"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (OrderModel) TableName() string { return "orders" }
