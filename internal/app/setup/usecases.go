package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-escrow-service/internal/usecase/escrow"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/ledger"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/order"
)

type UseCases struct {
	LedgerUsecase ledger.LedgerUsecase
	OrderUsecase  order.OrderUsecase
	EscrowUsecase escrow.EscrowUsecase
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	repos := deps.Repositories

	ledgerUsecase := ledger.NewDefaultLedgerUsecase(repos.BalanceRepo, repos.TxManager, deps.Clock, deps.Metrics)

	orderUsecase := order.NewDefaultOrderUsecase(
		repos.OrderRepo,
		repos.EscrowRepo,
		repos.TxManager,
		deps.Tokens,
		deps.Clock,
		deps.Metrics,
	)

	escrowUsecase, err := escrow.NewDefaultEscrowUsecase(
		repos.EscrowRepo,
		repos.OrderRepo,
		repos.TxManager,
		ledgerUsecase,
		orderUsecase,
		deps.Tokens,
		deps.Dispatcher,
		deps.Clock,
		deps.Metrics,
	)
	if err != nil {
		return nil, fmt.Errorf("escrow usecase: %w", err)
	}

	return &UseCases{
		LedgerUsecase: ledgerUsecase,
		OrderUsecase:  orderUsecase,
		EscrowUsecase: escrowUsecase,
	}, nil
}
