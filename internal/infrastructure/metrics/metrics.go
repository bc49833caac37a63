package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "escrow"

// EscrowMetrics holds every collector the settlement core reports to.
type EscrowMetrics struct {
	// Orders
	OrdersCreatedTotal   *prometheus.CounterVec
	OrdersCancelledTotal *prometheus.CounterVec

	// Escrow transitions by action (open, lock, complete, dispute, refund)
	TransitionsTotal *prometheus.CounterVec
	RejectionsTotal  *prometheus.CounterVec

	// Settlement
	SettlementDuration  *prometheus.HistogramVec
	SettledVolumeTotal  *prometheus.CounterVec
	RefundedVolumeTotal *prometheus.CounterVec

	// Ledger
	LedgerInvariantViolationsTotal *prometheus.CounterVec
	ExternalFlowTotal              *prometheus.CounterVec

	// Escrows sitting in Locked or Disputed beyond the monitor threshold
	StuckEscrows *prometheus.GaugeVec

	// Event sinks
	SinkFailuresTotal *prometheus.CounterVec
}

// NewEscrowMetrics registers the collectors with reg. A nil reg uses the default registerer.
func NewEscrowMetrics(reg prometheus.Registerer) *EscrowMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &EscrowMetrics{
		OrdersCreatedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Orders created, by token pair",
			},
			[]string{"token_to_sell", "token_to_buy"},
		),
		OrdersCancelledTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_cancelled_total",
				Help:      "Orders cancelled, by cause (maker or refund)",
			},
			[]string{"cause"},
		),
		TransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Committed escrow transitions",
			},
			[]string{"action", "status"},
		),
		RejectionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Rejected escrow operations, by reason",
			},
			[]string{"action", "reason"},
		),
		SettlementDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "settlement_duration_seconds",
				Help:      "Time from escrow creation to a terminal status",
				Buckets:   []float64{1, 10, 60, 300, 900, 3600, 6 * 3600, 24 * 3600, 7 * 24 * 3600},
			},
			[]string{"status"},
		),
		SettledVolumeTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settled_volume_minor_units_total",
				Help:      "Volume moved by completed escrows, in token minor units",
			},
			[]string{"token"},
		),
		RefundedVolumeTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refunded_volume_minor_units_total",
				Help:      "Volume returned to makers by refunds, in token minor units",
			},
			[]string{"token"},
		),
		LedgerInvariantViolationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_invariant_violations_total",
				Help:      "Attempts to drive frozen funds negative",
			},
			[]string{"op", "token"},
		),
		ExternalFlowTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "external_flow_minor_units_total",
				Help:      "Funds entering or leaving the ledger through the funding rails",
			},
			[]string{"direction", "token"},
		),
		StuckEscrows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stuck_escrows",
				Help:      "Escrows in Locked or Disputed longer than the monitor threshold",
			},
			[]string{"status"},
		),
		SinkFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_sink_failures_total",
				Help:      "Events a sink failed to accept",
			},
			[]string{"sink"},
		),
	}
}

func (m *EscrowMetrics) RecordOrderCreated(tokenToSell, tokenToBuy string) {
	m.OrdersCreatedTotal.WithLabelValues(tokenToSell, tokenToBuy).Inc()
}

func (m *EscrowMetrics) RecordOrderCancelled(cause string) {
	m.OrdersCancelledTotal.WithLabelValues(cause).Inc()
}

func (m *EscrowMetrics) RecordTransition(action, status string) {
	m.TransitionsTotal.WithLabelValues(action, status).Inc()
}

func (m *EscrowMetrics) RecordRejection(action, reason string) {
	m.RejectionsTotal.WithLabelValues(action, reason).Inc()
}

// RecordSettlement observes a completed escrow: both legs and its lifetime.
func (m *EscrowMetrics) RecordSettlement(tokenToSell string, amountToSell int64, tokenToBuy string, amountToBuy int64, seconds float64) {
	m.SettledVolumeTotal.WithLabelValues(tokenToSell).Add(float64(amountToSell))
	m.SettledVolumeTotal.WithLabelValues(tokenToBuy).Add(float64(amountToBuy))
	m.SettlementDuration.WithLabelValues("COMPLETED").Observe(seconds)
}

func (m *EscrowMetrics) RecordRefund(token string, amount int64, seconds float64) {
	m.RefundedVolumeTotal.WithLabelValues(token).Add(float64(amount))
	m.SettlementDuration.WithLabelValues("REFUNDED").Observe(seconds)
}

func (m *EscrowMetrics) RecordInvariantViolation(op, token string) {
	m.LedgerInvariantViolationsTotal.WithLabelValues(op, token).Inc()
}

func (m *EscrowMetrics) RecordExternalFlow(direction, token string, amount int64) {
	m.ExternalFlowTotal.WithLabelValues(direction, token).Add(float64(amount))
}

func (m *EscrowMetrics) SetStuckEscrows(status string, n int) {
	m.StuckEscrows.WithLabelValues(status).Set(float64(n))
}

func (m *EscrowMetrics) RecordSinkFailure(sink string) {
	m.SinkFailuresTotal.WithLabelValues(sink).Inc()
}
