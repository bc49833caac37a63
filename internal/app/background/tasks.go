package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/clock"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/escrow"
)

// watchedStatuses are the non-terminal statuses that wait on a person.
var watchedStatuses = []domain.EscrowStatus{domain.EscrowLocked, domain.EscrowDisputed}

type BackgroundTasks struct {
	EscrowUsecase  escrow.EscrowUsecase
	Clock          clock.Clock
	Metrics        *metrics.EscrowMetrics
	Interval       time.Duration
	StuckThreshold time.Duration
}

func NewBackgroundTasks(escrowUC escrow.EscrowUsecase, clk clock.Clock, escrowMetrics *metrics.EscrowMetrics, interval, threshold time.Duration) *BackgroundTasks {
	return &BackgroundTasks{
		EscrowUsecase:  escrowUC,
		Clock:          clk,
		Metrics:        escrowMetrics,
		Interval:       interval,
		StuckThreshold: threshold,
	}
}

// Run blocks until ctx is done.
func (bt *BackgroundTasks) Run(ctx context.Context) error {
	bt.startStuckEscrowMonitor(ctx)
	return nil
}

// startStuckEscrowMonitor reports escrows that have not moved for longer than the
// threshold. Nothing is expired or refunded automatically.
func (bt *BackgroundTasks) startStuckEscrowMonitor(ctx context.Context) {
	ticker := time.NewTicker(bt.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := bt.CheckStuckEscrows(ctx); err != nil {
				slog.Error("stuck escrow check failed", "error", err)
			}
		}
	}
}

// CheckStuckEscrows counts stale escrows per watched status and updates the gauge.
func (bt *BackgroundTasks) CheckStuckEscrows(ctx context.Context) (map[domain.EscrowStatus]int, error) {
	before := bt.Clock.Now().Add(-bt.StuckThreshold)
	counts := make(map[domain.EscrowStatus]int, len(watchedStatuses))

	for _, status := range watchedStatuses {
		n := 0
		for e, err := range bt.EscrowUsecase.ListStaleEscrows(ctx, status, before) {
			if err != nil {
				return counts, err
			}
			n++
			slog.Warn("escrow stuck",
				"escrow_id", e.ID,
				"order_id", e.OrderID,
				"status", e.Status,
				"since", e.UpdatedAt,
			)
		}
		counts[status] = n
		if bt.Metrics != nil {
			bt.Metrics.SetStuckEscrows(string(status), n)
		}
	}
	return counts, nil
}
