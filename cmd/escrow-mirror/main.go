package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/config"
	publisher "github.com/LavaJover/shvark-escrow-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/mirror"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// escrow-mirror keeps a read-side copy of every escrow by consuming the event topic.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	cfg := config.MustLoad()
	slog.SetDefault(logger.NewLogger(cfg.LogConfig))

	if cfg.Mirror.Path == "" {
		log.Fatalf("mirror.path is required")
	}
	m, err := mirror.Open(cfg.Mirror.Path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub := publisher.NewDefaultKafkaSubscriber(cfg.KafkaService.Brokers())
	msgs, err := sub.Subscribe(ctx, cfg.KafkaService.Topic, cfg.KafkaService.GroupID)
	if err != nil {
		log.Fatalf("failed to subscribe: %v", err)
	}
	slog.Info("mirror consuming", "topic", cfg.KafkaService.Topic, "group_id", cfg.KafkaService.GroupID, "path", cfg.Mirror.Path)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.Consume(gctx, msgs, publisher.DecodeEscrowEvent)
	})
	g.Go(func() error {
		m.RunGC(gctx, 10*time.Minute)
		return nil
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("mirror stopped with error", "error", err)
		os.Exit(1)
	}
}
