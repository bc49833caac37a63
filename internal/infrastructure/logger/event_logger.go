package logger

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EscrowTransitionLog is one row of the append-only transition audit trail.
type EscrowTransitionLog struct {
	ID           uint   `gorm:"primaryKey"`
	EventID      string `gorm:"type:uuid;uniqueIndex"`
	EscrowID     string
	OrderID      string `gorm:"type:uuid"`
	Action       string
	Status       string
	Actor        string
	MakerID      string
	TakerID      string
	TokenToSell  string
	TokenToBuy   string
	AmountToSell int64
	AmountToBuy  int64
	OccurredAt   time.Time
}

type EscrowEventLogger interface {
	LogTransition(ctx context.Context, event domain.EscrowEvent) error
}

// PGEscrowEventLogger is an event sink writing the audit trail to postgres.
// Redelivered events are ignored by event id.
type PGEscrowEventLogger struct {
	db *gorm.DB
}

func NewPGEscrowEventLogger(db *gorm.DB) *PGEscrowEventLogger {
	return &PGEscrowEventLogger{db: db}
}

func (l *PGEscrowEventLogger) Name() string { return "audit_log" }

func (l *PGEscrowEventLogger) Publish(ctx context.Context, event domain.EscrowEvent) error {
	return l.LogTransition(ctx, event)
}

func (l *PGEscrowEventLogger) LogTransition(ctx context.Context, event domain.EscrowEvent) error {
	row := EscrowTransitionLog{
		EventID:      event.ID,
		EscrowID:     event.EscrowID,
		OrderID:      event.OrderID,
		Action:       string(event.Action),
		Status:       string(event.Type),
		Actor:        event.Actor,
		MakerID:      event.Maker,
		TakerID:      event.Taker,
		TokenToSell:  event.TokenToSell,
		TokenToBuy:   event.TokenToBuy,
		AmountToSell: event.AmountToSell,
		AmountToBuy:  event.AmountToBuy,
		OccurredAt:   event.OccurredAt,
	}
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&row).Error
}
