package models

import "time"

type BalanceModel struct {
	AccountID string    `gorm:"primaryKey"`
	Token     string    `gorm:"primaryKey"`
	Available int64     `gorm:"not null;check:available >= 0"`
	Frozen    int64     `gorm:"not null;check:frozen >= 0"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (BalanceModel) TableName() string { return "balances" }
