package models

import (
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

type EscrowModel struct {
	ID           string              `gorm:"primaryKey;type:varchar(32)"`
	OrderID      string              `gorm:"type:uuid;not null;uniqueIndex"`
	MakerID      string              `gorm:"not null;index"`
	TakerID      string              `gorm:"not null;index"`
	TokenToSell  string              `gorm:"not null"`
	TokenToBuy   string              `gorm:"not null"`
	AmountToSell int64               `gorm:"not null"`
	AmountToBuy  int64               `gorm:"not null"`
	Status       domain.EscrowStatus `gorm:"not null;index"`
	CreatedAt    time.Time           `gorm:"not null;autoCreateTime:false"`
	UpdatedAt    time.Time           `gorm:"not null;autoUpdateTime:false"`
	CompletedAt  *time.Time
}

func (EscrowModel) TableName() string { return "escrows" }
