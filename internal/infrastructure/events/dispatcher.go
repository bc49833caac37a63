package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
)

// Dispatcher delivers committed escrow events to every sink in the order they
// are dispatched. Units of work dispatch at commit while still holding their
// keys, so events of one escrow arrive in commit order.
// Before Start and after the delivery loop has exited, Dispatch delivers inline
// on the caller's goroutine.
type Dispatcher struct {
	sinks   []domain.EventSink
	metrics *metrics.EscrowMetrics

	queue   chan domain.EscrowEvent
	mu      sync.Mutex
	started bool
	stopped bool
	done    chan struct{}
}

func NewDispatcher(buffer int, escrowMetrics *metrics.EscrowMetrics, sinks ...domain.EventSink) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		sinks:   sinks,
		metrics: escrowMetrics,
		queue:   make(chan domain.EscrowEvent, buffer),
		done:    make(chan struct{}),
	}
}

// Start runs the delivery loop until ctx is done, then drains what is queued.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		for {
			select {
			case ev := <-d.queue:
				d.deliver(context.Background(), ev)
			case <-ctx.Done():
				d.drain()
				d.mu.Lock()
				d.stopped = true
				d.mu.Unlock()
				// Sends happen under mu, so nothing can be queued after this.
				d.drain()
				return
			}
		}
	}()
}

func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(context.Background(), ev)
		default:
			return
		}
	}
}

// Wait blocks until the delivery loop has drained after its context ended.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if started {
		<-d.done
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event domain.EscrowEvent) {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		d.deliver(ctx, event)
		return
	}
	defer d.mu.Unlock()
	select {
	case d.queue <- event:
	case <-ctx.Done():
		slog.Error("escrow event dropped", "event_id", event.ID, "escrow_id", event.EscrowID, "error", ctx.Err())
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event domain.EscrowEvent) {
	for _, sink := range d.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			slog.Error("failed to publish escrow event",
				"sink", sink.Name(), "event_id", event.ID, "escrow_id", event.EscrowID, "type", event.Type, "error", err.Error())
			if d.metrics != nil {
				d.metrics.RecordSinkFailure(sink.Name())
			}
		}
	}
}

// LogSink writes every event to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Publish(ctx context.Context, event domain.EscrowEvent) error {
	s.logger.InfoContext(ctx, "escrow event",
		"event_id", event.ID,
		"escrow_id", event.EscrowID,
		"order_id", event.OrderID,
		"type", event.Type,
		"actor", event.Actor,
		"occurred_at", event.OccurredAt,
	)
	return nil
}

// Recorder keeps events in memory. Handy as a sink in tests and local runs.
type Recorder struct {
	mu     sync.Mutex
	events []domain.EscrowEvent
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Publish(_ context.Context, event domain.EscrowEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []domain.EscrowEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.EscrowEvent(nil), r.events...)
}
