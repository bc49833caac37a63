package setup

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-escrow-service/internal/clock"
	"github.com/LavaJover/shvark-escrow-service/internal/config"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/events"
	publisher "github.com/LavaJover/shvark-escrow-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/mirror"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

const eventBuffer = 1024

type Dependencies struct {
	Config       *config.EscrowConfig
	DB           *gorm.DB
	Tokens       *tokens.Registry
	Clock        clock.Clock
	Registry     *prometheus.Registry
	Metrics      *metrics.EscrowMetrics
	Dispatcher   *events.Dispatcher
	Mirror       *mirror.Mirror
	Repositories *Repositories

	closers []func() error
}

type Repositories struct {
	OrderRepo   domain.OrderRepository
	EscrowRepo  domain.EscrowRepository
	BalanceRepo domain.BalanceRepository
	TxManager   domain.TxManager
}

func InitializeDependencies(cfg *config.EscrowConfig) (*Dependencies, error) {
	registry, err := initTokens(cfg)
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := &Dependencies{
		Config:   cfg,
		Tokens:   registry,
		Clock:    clock.NewSystem(),
		Registry: promRegistry,
		Metrics:  metrics.NewEscrowMetrics(promRegistry),
	}

	if err := deps.initRepositories(); err != nil {
		deps.Close()
		return nil, fmt.Errorf("repositories: %w", err)
	}

	sinks, err := deps.initSinks()
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("event sinks: %w", err)
	}
	deps.Dispatcher = events.NewDispatcher(eventBuffer, deps.Metrics, sinks...)
	return deps, nil
}

func initTokens(cfg *config.EscrowConfig) (*tokens.Registry, error) {
	if len(cfg.Tokens) == 0 {
		return tokens.Default(), nil
	}
	specs := make([]tokens.Spec, 0, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		specs = append(specs, tokens.Spec{Symbol: t.Symbol, Address: t.Address, Decimals: t.Decimals})
	}
	return tokens.NewRegistry(specs)
}

func (d *Dependencies) initRepositories() error {
	switch d.Config.Storage.Driver {
	case "postgres":
		db, err := postgres.InitDB(d.Config)
		if err != nil {
			return err
		}
		d.DB = db
		d.closers = append(d.closers, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		d.Repositories = &Repositories{
			OrderRepo:   repository.NewDefaultOrderRepository(db),
			EscrowRepo:  repository.NewDefaultEscrowRepository(db),
			BalanceRepo: repository.NewDefaultBalanceRepository(db),
			TxManager:   postgres.NewTxManager(db),
		}
	default:
		store := memory.NewStore()
		d.Repositories = &Repositories{
			OrderRepo:   store,
			EscrowRepo:  store,
			BalanceRepo: store,
			TxManager:   store,
		}
	}
	slog.Info("storage ready", "driver", d.Config.Storage.Driver)
	return nil
}

// initSinks builds every configured notification sink. The structured log sink is
// always present.
func (d *Dependencies) initSinks() ([]domain.EventSink, error) {
	sinks := []domain.EventSink{events.NewLogSink(slog.Default())}

	if d.DB != nil {
		sinks = append(sinks, logger.NewPGEscrowEventLogger(d.DB))
	}
	if d.Config.KafkaService.Enabled {
		kafkaPublisher := publisher.NewDefaultKafkaPublisher(d.Config.KafkaService.Brokers(), d.Config.KafkaService.Topic)
		d.closers = append(d.closers, kafkaPublisher.Close)
		sinks = append(sinks, kafkaPublisher)
	}
	if d.Config.Callback.URL != "" {
		sinks = append(sinks, notifier.NewWebhookNotifier(d.Config.Callback.URL, d.Config.Callback.Timeout))
	}
	if d.Config.Mirror.Path != "" {
		m, err := mirror.Open(d.Config.Mirror.Path)
		if err != nil {
			return nil, fmt.Errorf("mirror: %w", err)
		}
		d.Mirror = m
		d.closers = append(d.closers, m.Close)
		sinks = append(sinks, m)
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	slog.Info("event sinks ready", "sinks", names)
	return sinks, nil
}

// Close releases resources in reverse order of acquisition.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
