package escrow

import (
	"context"
	"iter"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/clock"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/ledger"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/order"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

// Every call returns the escrow in the state it was left in, also on error.
type EscrowUsecase interface {
	OpenEscrow(ctx context.Context, caller domain.Caller, orderID string) (*domain.Escrow, error)
	LockEscrow(ctx context.Context, caller domain.Caller, escrowID string, funding domain.Funding) (*domain.Escrow, error)
	CompleteEscrow(ctx context.Context, caller domain.Caller, escrowID string, funding domain.Funding) (*domain.Escrow, error)
	DisputeEscrow(ctx context.Context, caller domain.Caller, escrowID string) (*domain.Escrow, error)
	RefundEscrow(ctx context.Context, caller domain.Caller, escrowID string) (*domain.Escrow, error)

	GetEscrow(ctx context.Context, caller domain.Caller, escrowID string) (*domain.Escrow, error)
	ListMakerEscrows(ctx context.Context, maker string, after *domain.Cursor) iter.Seq2[*domain.Escrow, error]
	ListTakerEscrows(ctx context.Context, taker string, after *domain.Cursor) iter.Seq2[*domain.Escrow, error]
	ListAllEscrows(ctx context.Context, caller domain.Caller, filter domain.EscrowFilter, after *domain.Cursor) (iter.Seq2[*domain.Escrow, error], error)
	ListStaleEscrows(ctx context.Context, status domain.EscrowStatus, before time.Time) iter.Seq2[*domain.Escrow, error]
}

// EventDispatcher fans committed events out to the notification sinks.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event domain.EscrowEvent)
}

type DefaultEscrowUsecase struct {
	EscrowRepo   domain.EscrowRepository
	OrderRepo    domain.OrderRepository
	TxManager    domain.TxManager
	Ledger       ledger.LedgerUsecase
	OrderUsecase order.OrderUsecase
	Tokens       domain.TokenRegistry
	Events       EventDispatcher
	Clock        clock.Clock
	Metrics      *metrics.EscrowMetrics
	PageSize     int

	newEscrowID func() string
	newEventID  func() string
}

func NewDefaultEscrowUsecase(
	escrowRepo domain.EscrowRepository,
	orderRepo domain.OrderRepository,
	txManager domain.TxManager,
	ledgerUsecase ledger.LedgerUsecase,
	orderUsecase order.OrderUsecase,
	tokens domain.TokenRegistry,
	events EventDispatcher,
	clk clock.Clock,
	escrowMetrics *metrics.EscrowMetrics,
) (*DefaultEscrowUsecase, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}
	return &DefaultEscrowUsecase{
		EscrowRepo:   escrowRepo,
		OrderRepo:    orderRepo,
		TxManager:    txManager,
		Ledger:       ledgerUsecase,
		OrderUsecase: orderUsecase,
		Tokens:       tokens,
		Events:       events,
		Clock:        clk,
		Metrics:      escrowMetrics,
		newEscrowID:  idGenerator,
		newEventID:   func() string { return uuid.New().String() },
	}, nil
}
