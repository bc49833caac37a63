package postgres

import (
	"fmt"
	"log"

	"github.com/LavaJover/shvark-escrow-service/internal/config"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/migrate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the database and applies pending migrations.
func InitDB(cfg *config.EscrowConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.EscrowDB.Dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrate.RunMigrations(db, cfg.EscrowDB.MigrationsPath); err != nil {
		return nil, err
	}
	return db, nil
}

func MustInitDB(cfg *config.EscrowConfig) *gorm.DB {
	db, err := InitDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err)
	}
	return db
}
